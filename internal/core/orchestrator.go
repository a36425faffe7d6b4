package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"newsreel/internal/clients/easynews"
	"newsreel/internal/clients/metadata"
	"newsreel/internal/utils"
)

// Searcher is the aggregated-search capability the orchestrator drives,
// one call per query string.
type Searcher interface {
	SearchAll(ctx context.Context, query string) (*easynews.SearchResponse, error)
}

// Orchestrator fans one media item out across its title variants,
// first without the release year and then with it, and stops as soon
// as enough distinct files have been collected.
type Orchestrator struct {
	searcher        Searcher
	totalMaxResults int
	logger          utils.Log
}

func NewOrchestrator(searcher Searcher, totalMaxResults int, logger utils.Log) *Orchestrator {
	if totalMaxResults <= 0 {
		totalMaxResults = 500
	}
	return &Orchestrator{
		searcher:        searcher,
		totalMaxResults: totalMaxResults,
		logger:          logger,
	}
}

// BuildQuery assembles the search string for one title variant.
func BuildQuery(meta *metadata.Meta, title string, withYear bool) string {
	parts := []string{title}
	if withYear && meta.Year > 0 {
		parts = append(parts, fmt.Sprintf("%d", meta.Year))
	}
	if meta.IsEpisode() {
		parts = append(parts, fmt.Sprintf("S%02dE%02d", meta.Season, meta.Episode))
	}
	return strings.Join(parts, " ")
}

// Collect runs every title variant through the aggregated search and
// merges the responses in collection order. The running unique count
// is the cardinality of the hash set across all responses, so a file
// surfacing under two variants is only counted once. Per-title
// failures are logged and skipped; credential rejection aborts the
// whole operation. An all-failed or empty title set yields an empty
// slice, not an error.
func (o *Orchestrator) Collect(ctx context.Context, titles []string, meta *metadata.Meta) ([]*easynews.SearchResponse, error) {
	var responses []*easynews.SearchResponse
	unique := make(map[string]struct{})

	pass := func(withYear bool) error {
		for _, title := range titles {
			if strings.TrimSpace(title) == "" {
				continue
			}
			if len(unique) >= o.totalMaxResults {
				o.logger.Debug("unique-result budget met, skipping remaining titles")
				return nil
			}

			query := BuildQuery(meta, title, withYear)
			response, err := o.searcher.SearchAll(ctx, query)
			if err != nil {
				if errors.Is(err, easynews.ErrUnauthorized) {
					return err
				}
				o.logger.Warn("search failed for", query, "- continuing with next title:", err)
				continue
			}
			if len(response.Data) == 0 {
				o.logger.Debug("no results for:", query)
				continue
			}

			responses = append(responses, response)
			for _, record := range response.Data {
				unique[record.Hash] = struct{}{}
			}
			o.logger.Debug("collected", len(response.Data), "records for", query,
				"- unique total:", len(unique))
		}
		return nil
	}

	if err := pass(false); err != nil {
		return nil, err
	}
	if meta.Year > 0 && len(unique) < o.totalMaxResults {
		if err := pass(true); err != nil {
			return nil, err
		}
	}

	return responses, nil
}
