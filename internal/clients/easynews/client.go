package easynews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"newsreel/internal/utils"
)

const (
	searchPath    = "/2.0/search/solr-search/advanced"
	searchTimeout = 20 * time.Second

	// Container allow-list sent with every search. Anything outside it
	// is not worth returning to a video player.
	videoExtensions = "m4v,3gp,mov,divx,xvid,wmv,avi,mpg,mpeg,mp4,mkv,avc,flv,webm"
)

// Options configures a Client. Zero values fall back to the documented
// defaults.
type Options struct {
	BaseURL  string
	Username string
	Password string

	TotalMaxResults   int // aggregate budget per query string, default 500
	MaxPages          int // pagination budget, default 10
	MaxResultsPerPage int // upstream page-size ceiling, default 250

	CacheTTL        time.Duration // default 24h
	CacheMaxEntries int           // default 1024
	Store           *CacheStore   // optional persistent second level
}

type cacheEntry struct {
	response SearchResponse
	inserted time.Time
}

// Client talks to the upstream search API. It is safe for concurrent
// use; the response cache is shared across requests for the process
// lifetime.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     utils.Log

	totalMaxResults   int
	maxPages          int
	maxResultsPerPage int

	cache *lru.Cache[string, cacheEntry]
	store *CacheStore
	ttl   time.Duration
	now   func() time.Time
}

func NewClient(opts Options, logger utils.Log) (*Client, error) {
	if opts.TotalMaxResults <= 0 {
		opts.TotalMaxResults = 500
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 10
	}
	if opts.MaxResultsPerPage <= 0 {
		opts.MaxResultsPerPage = defaultPageSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.CacheMaxEntries <= 0 {
		opts.CacheMaxEntries = 1024
	}

	// The entry cap keeps a long-running process from growing without
	// bound; expiry itself stays lazy, checked on lookup.
	cache, err := lru.New[string, cacheEntry](opts.CacheMaxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}

	return &Client{
		baseURL:           strings.TrimRight(opts.BaseURL, "/"),
		username:          opts.Username,
		password:          opts.Password,
		httpClient:        &http.Client{},
		logger:            logger,
		totalMaxResults:   opts.TotalMaxResults,
		maxPages:          opts.MaxPages,
		maxResultsPerPage: opts.MaxResultsPerPage,
		cache:             cache,
		store:             opts.Store,
		ttl:               opts.CacheTTL,
		now:               time.Now,
	}, nil
}

// fresh reports whether an entry inserted at the given time is still
// servable. An entry aged exactly TTL is stale: now-inserted >= TTL
// misses.
func (c *Client) fresh(inserted time.Time) bool {
	return c.now().Sub(inserted) < c.ttl
}

// Search fetches a single page. Cache hits within TTL return without
// any network I/O; misses issue exactly one upstream GET with Basic
// auth under a fixed deadline.
func (c *Client) Search(ctx context.Context, query SearchQuery) (*SearchResponse, error) {
	if strings.TrimSpace(query.Query) == "" {
		return nil, ErrEmptyQuery
	}
	query = query.withDefaults()
	key := query.CacheKey()

	if entry, ok := c.cache.Get(key); ok {
		if c.fresh(entry.inserted) {
			c.logger.Debug("easynews cache hit:", query.Query, "page", query.Page)
			response := entry.response
			return &response, nil
		}
		c.cache.Remove(key)
		c.logger.Debug("easynews cache entry expired:", query.Query, "page", query.Page)
	}

	if c.store != nil {
		if response, inserted, ok := c.store.Get(key); ok && c.fresh(inserted) {
			c.logger.Debug("easynews persistent cache hit:", query.Query, "page", query.Page)
			c.cache.Add(key, cacheEntry{response: *response, inserted: inserted})
			return response, nil
		}
	}

	c.logger.Debug("easynews cache miss:", query.Query, "page", query.Page)
	response, err := c.fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	inserted := c.now()
	c.cache.Add(key, cacheEntry{response: *response, inserted: inserted})
	if c.store != nil {
		if err := c.store.Put(key, response, inserted); err != nil {
			c.logger.Warn("failed to persist search response:", err)
		}
	}
	return response, nil
}

func (c *Client) fetch(ctx context.Context, query SearchQuery) (*SearchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	searchURL := c.baseURL + searchPath + "?" + c.params(query).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	c.logger.Silly("easynews GET:", searchURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("easynews search timed out:", query.Query)
			return nil, &TimeoutError{Query: query.Query}
		}
		return nil, fmt.Errorf("easynews request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.logger.Error("easynews rejected credentials for query:", query.Query)
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Warn("easynews returned status", resp.StatusCode, "for query:", query.Query)
		return nil, &StatusError{Code: resp.StatusCode, Query: query.Query}
	}

	var response SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode easynews response: %w", err)
	}

	c.logger.Debug("easynews returned", len(response.Data), "records for:", query.Query, "page", query.Page)
	return &response, nil
}

// params builds the upstream query string: the search text, the fixed
// filter flags (video containers only, safe-search off, spam filter
// on) and the three sort key/direction pairs.
func (c *Client) params(query SearchQuery) url.Values {
	v := url.Values{}
	v.Set("st", "adv")
	v.Set("sb", "1")
	v.Set("fex", videoExtensions)
	v.Set("fty[]", "VIDEO")
	v.Set("spamf", "1")
	v.Set("u", "1")
	v.Set("gx", "1")
	v.Set("safeO", "0")
	v.Set("sS", "3")
	v.Set("gps", query.Query)
	v.Set("sbj", query.Query)
	v.Set("pno", strconv.Itoa(query.Page))
	v.Set("pby", strconv.Itoa(query.PageSize))
	v.Set("s1", query.Sort1)
	v.Set("s1d", query.Sort1Dir)
	v.Set("s2", query.Sort2)
	v.Set("s2d", query.Sort2Dir)
	v.Set("s3", query.Sort3)
	v.Set("s3d", query.Sort3Dir)
	return v
}

// Probe checks upstream reachability for the status endpoint.
func (c *Client) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return false
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// CacheLen reports the number of in-memory cache entries.
func (c *Client) CacheLen() int {
	return c.cache.Len()
}
