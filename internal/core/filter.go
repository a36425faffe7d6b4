package core

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newsreel/internal/clients/easynews"
	"newsreel/internal/clients/metadata"
	"newsreel/internal/utils"
)

// StreamCandidate is a filtered, matched search hit ready for ranking.
// Derived fields (tier, size) are computed once here so the ranking
// comparators never re-parse display strings.
type StreamCandidate struct {
	Title       string
	Extension   string
	SizeHuman   string
	Duration    string
	Tier        int
	TierName    string
	Languages   []string
	PublishedAt time.Time
	URL         string
	RawSize     int64
	File        easynews.FileRecord
}

// FilterOptions control matching and projection.
type FilterOptions struct {
	Strict   bool
	Cap      int // global candidate cap, default 500
	Username string
	Password string
}

const (
	minPlayableSize    = 20 << 20 // anything smaller is a sample or junk
	minPlayableRuntime = 5 * time.Minute
)

// playableVideo is the keep/drop heuristic for a raw record: video
// type, not password-protected, not virus-flagged, and not an obvious
// sample by size or runtime. Records without a parseable runtime pass;
// absence of evidence is not rejection.
func playableVideo(record *easynews.FileRecord) bool {
	if !strings.EqualFold(record.Type, "VIDEO") {
		return false
	}
	if record.Password != 0 || record.Virus != 0 {
		return false
	}
	if record.RawSize > 0 && record.RawSize < minPlayableSize {
		return false
	}
	if runtime := utils.ParseRuntime(record.Duration); runtime > 0 && runtime < minPlayableRuntime {
		return false
	}
	return true
}

// MatchesTitle decides whether a display name satisfies a query.
// Loose mode accepts the query as a sanitized substring, or every
// query token appearing somewhere in the name ("alpha" matches
// "alphas"). Strict mode requires every query token to appear as a
// whole word.
func MatchesTitle(displayName, query string, strict bool) bool {
	name := utils.SanitizeTitle(displayName)
	queryTokens := utils.Tokens(query)
	if name == "" || len(queryTokens) == 0 {
		return false
	}

	if strict {
		words := make(map[string]bool)
		for _, word := range strings.Fields(name) {
			words[word] = true
		}
		for _, token := range queryTokens {
			if !words[token] {
				return false
			}
		}
		return true
	}

	if strings.Contains(name, utils.SanitizeTitle(query)) {
		return true
	}
	for _, token := range queryTokens {
		if !strings.Contains(name, token) {
			return false
		}
	}
	return true
}

// matchQueries builds the set of query strings a record may satisfy.
// Episodes accept any title variant tagged with SxxEyy, or the bare
// episode tag; movies accept any bare title variant.
func matchQueries(titles []string, meta *metadata.Meta) []string {
	if !meta.IsEpisode() {
		return titles
	}
	tag := fmt.Sprintf("S%02dE%02d", meta.Season, meta.Episode)
	queries := make([]string, 0, len(titles)+1)
	for _, title := range titles {
		queries = append(queries, title+" "+tag)
	}
	return append(queries, tag)
}

// FilterResults walks the collected responses in order and the records
// inside each response in upstream order, rejecting unplayable files,
// suppressing duplicate hashes across all responses, and keeping only
// records whose name matches at least one title variant. Survivors are
// projected into StreamCandidates.
func FilterResults(responses []*easynews.SearchResponse, titles []string, meta *metadata.Meta,
	opts FilterOptions, logger utils.Log) []StreamCandidate {

	limit := opts.Cap
	if limit <= 0 {
		limit = 500
	}
	queries := matchQueries(titles, meta)
	seen := make(map[string]struct{})
	var candidates []StreamCandidate

	for _, response := range responses {
		for i := range response.Data {
			if len(candidates) >= limit {
				logger.Debug("candidate cap reached at", limit)
				return candidates
			}
			record := &response.Data[i]

			if !playableVideo(record) {
				logger.Silly("rejecting unplayable record:", record.Filename)
				continue
			}
			if _, dup := seen[record.Hash]; dup {
				logger.Silly("rejecting duplicate hash:", record.Hash)
				continue
			}

			matched := false
			for _, query := range queries {
				if MatchesTitle(record.Filename, query, opts.Strict) {
					matched = true
					break
				}
			}
			if !matched {
				logger.Silly("rejecting title mismatch:", record.Filename)
				continue
			}

			seen[record.Hash] = struct{}{}
			candidates = append(candidates, project(response, record, opts))
		}
	}

	logger.Debug("filter kept", len(candidates), "of the collected records")
	return candidates
}

func project(response *easynews.SearchResponse, record *easynews.FileRecord, opts FilterOptions) StreamCandidate {
	tier := QualityTier(record.Resolution, record.Filename)
	size := record.RawSize
	if size == 0 {
		size = utils.ParseHumanSize(record.SizeHuman)
	}
	var published time.Time
	if record.Timestamp > 0 {
		published = time.Unix(record.Timestamp, 0)
	}

	return StreamCandidate{
		Title:       record.Filename,
		Extension:   record.Extension,
		SizeHuman:   record.SizeHuman,
		Duration:    record.Duration,
		Tier:        tier,
		TierName:    TierName(tier),
		Languages:   record.AudioLangs,
		PublishedAt: published,
		URL:         streamURL(response, record, opts.Username, opts.Password),
		RawSize:     size,
		File:        *record,
	}
}

// streamURL assembles the playable CDN URL from the response envelope's
// routing fields, with the account credentials embedded for the player.
func streamURL(response *easynews.SearchResponse, record *easynews.FileRecord, username, password string) string {
	base, err := url.Parse(response.DownURL)
	if err != nil || base.Host == "" {
		return ""
	}
	if username != "" {
		base.User = url.UserPassword(username, password)
	}

	base.Path = strings.TrimRight(base.Path, "/") + "/" +
		response.Farm + "/" + strconv.Itoa(response.Port) + "/" +
		record.Hash + record.Extension + "/" +
		record.Filename + record.Extension
	return base.String()
}
