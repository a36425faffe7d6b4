// Package metadata resolves media ids to titles, years and alternate
// names through a chain of providers tried in order.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"newsreel/internal/utils"
)

// Meta is the resolved description of one media item.
type Meta struct {
	ID               string
	Type             string // "movie" or "series"
	Name             string
	Year             int
	Season           int
	Episode          int
	AlternativeNames []string
}

// IsEpisode reports whether this meta addresses a single episode.
func (m *Meta) IsEpisode() bool {
	return m.Type == "series" && m.Season > 0 && m.Episode > 0
}

// Resolver looks up one media id with one provider.
type Resolver interface {
	Resolve(ctx context.Context, id, mediaType string) (*Meta, error)
	Name() string
}

// ErrNotFound means no provider knew the id.
var ErrNotFound = errors.New("metadata: no metadata found")

// Chain tries providers in configured order and caches successful
// lookups for a short window so repeated stream requests for the same
// title skip the round trips.
type Chain struct {
	providers []Resolver
	cache     *gocache.Cache
	logger    utils.Log
}

func NewChain(providers []Resolver, logger utils.Log) *Chain {
	return &Chain{
		providers: providers,
		cache:     gocache.New(30*time.Minute, 10*time.Minute),
		logger:    logger,
	}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Resolve(ctx context.Context, id, mediaType string) (*Meta, error) {
	key := fmt.Sprintf("%s:%s", mediaType, id)
	if cached, ok := c.cache.Get(key); ok {
		meta := *(cached.(*Meta))
		return &meta, nil
	}

	for _, provider := range c.providers {
		meta, err := provider.Resolve(ctx, id, mediaType)
		if err != nil {
			c.logger.Warn("metadata provider", provider.Name(), "failed for", id, ":", err)
			continue
		}
		if meta == nil || meta.Name == "" {
			continue
		}
		c.cache.SetDefault(key, meta)
		copied := *meta
		return &copied, nil
	}
	return nil, ErrNotFound
}
