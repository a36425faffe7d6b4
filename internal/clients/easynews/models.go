// Package easynews implements the client side of the Easynews global
// file-search API: single-page searches with a TTL response cache, and
// multi-page aggregation under result budgets.
package easynews

import (
	"encoding/json"
	"fmt"
)

// FileRecord is one upstream search hit. The numeric JSON keys are the
// upstream wire format. Records are never mutated after decoding.
type FileRecord struct {
	Hash       string   `json:"0"`
	Filename   string   `json:"10"`
	Extension  string   `json:"11"` // includes the leading dot, e.g. ".mkv"
	SizeHuman  string   `json:"4"`
	Duration   string   `json:"14"`
	Timestamp  int64    `json:"ts"` // upload time, unix seconds
	RawSize    int64    `json:"rawSize"`
	Resolution string   `json:"fullres"` // e.g. "1920x1080"
	AudioLangs []string `json:"alangs"`
	Password   int      `json:"passwd"`
	Virus      int      `json:"virus"`
	Type       string   `json:"type"`
}

// SearchResponse is the upstream envelope for one page, and doubles as
// the aggregate shape returned by SearchAll. The CDN routing fields
// (DownURL/Farm/Port) are inherited by every record in Data.
type SearchResponse struct {
	Data              []FileRecord `json:"data"`
	Results           int          `json:"results"`
	Returned          int          `json:"returned"`
	UnfilteredResults int          `json:"unfilteredResults"`
	DownURL           string       `json:"downURL"`
	Farm              string       `json:"dlFarm"`
	Port              int          `json:"dlPort"`
}

// Sort fields and directions accepted by the upstream API.
const (
	SortTime      = "dtime"
	SortRelevance = "relevance"
	SortSize      = "dsize"

	Descending = "-"
	Ascending  = "+"
)

const defaultPageSize = 250

// SearchQuery is the normalized request shape for one page fetch.
type SearchQuery struct {
	Query    string `json:"query"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Sort1    string `json:"sort1"`
	Sort1Dir string `json:"sort1Direction"`
	Sort2    string `json:"sort2"`
	Sort2Dir string `json:"sort2Direction"`
	Sort3    string `json:"sort3"`
	Sort3Dir string `json:"sort3Direction"`
}

// withDefaults fills every unset field so that implicit and explicit
// calls with the same effective parameters normalize identically.
func (q SearchQuery) withDefaults() SearchQuery {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultPageSize
	}
	if q.Sort1 == "" {
		q.Sort1, q.Sort1Dir = SortTime, Descending
	}
	if q.Sort1Dir == "" {
		q.Sort1Dir = Descending
	}
	if q.Sort2 == "" {
		q.Sort2, q.Sort2Dir = SortRelevance, Descending
	}
	if q.Sort2Dir == "" {
		q.Sort2Dir = Descending
	}
	if q.Sort3 == "" {
		q.Sort3, q.Sort3Dir = SortSize, Descending
	}
	if q.Sort3Dir == "" {
		q.Sort3Dir = Descending
	}
	return q
}

// CacheKey serializes the defaults-substituted query. Struct field
// order is fixed, so the JSON is canonical and the key is a pure
// function of the effective parameters.
func (q SearchQuery) CacheKey() string {
	raw, err := json.Marshal(q.withDefaults())
	if err != nil {
		// Marshaling a flat struct of strings and ints cannot fail;
		// keep a distinct fallback rather than panic.
		return fmt.Sprintf("q:%s:p%d:s%d", q.Query, q.Page, q.PageSize)
	}
	return string(raw)
}
