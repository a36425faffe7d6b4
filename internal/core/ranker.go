package core

import (
	"fmt"
	"sort"
	"strings"

	"newsreel/internal/utils"
)

// SortingPreference selects the comparator key precedence.
type SortingPreference string

const (
	QualityFirst  SortingPreference = "quality_first"
	SizeFirst     SortingPreference = "size_first"
	DateFirst     SortingPreference = "date_first"
	LanguageFirst SortingPreference = "language_first"
)

// ParseSortingPreference maps a config string onto the closed enum,
// defaulting to quality_first.
func ParseSortingPreference(s string) SortingPreference {
	switch SortingPreference(strings.ToLower(strings.TrimSpace(s))) {
	case SizeFirst:
		return SizeFirst
	case DateFirst:
		return DateFirst
	case LanguageFirst:
		return LanguageFirst
	default:
		return QualityFirst
	}
}

// RankOptions are the ranking and post-filter knobs for one request.
type RankOptions struct {
	Preference        SortingPreference
	PreferredLanguage string
	AllowedTiers      map[int]bool
	MaxSizeGB         float64 // 0 = unlimited
	MaxPerTier        int     // 0 = unlimited
}

// RankResult carries the ordered candidates plus warnings for every
// post-filter step that was skipped because it would have emptied the
// set.
type RankResult struct {
	Candidates []StreamCandidate
	Degraded   []string
}

func hasLanguage(candidate *StreamCandidate, language string) bool {
	if language == "" {
		return false
	}
	for _, l := range candidate.Languages {
		if strings.EqualFold(l, language) {
			return true
		}
	}
	return false
}

// comparatorFor builds the less-func for one preference. One factory,
// called once after all filtering, so there is no second comparator to
// drift from.
func comparatorFor(preference SortingPreference, language string) func(a, b *StreamCandidate) bool {
	byQuality := func(a, b *StreamCandidate) (bool, bool) {
		return a.Tier > b.Tier, a.Tier != b.Tier
	}
	byLanguage := func(a, b *StreamCandidate) (bool, bool) {
		al, bl := hasLanguage(a, language), hasLanguage(b, language)
		return al && !bl, al != bl
	}
	bySize := func(a, b *StreamCandidate) (bool, bool) {
		return a.RawSize > b.RawSize, a.RawSize != b.RawSize
	}
	byRecency := func(a, b *StreamCandidate) (bool, bool) {
		return a.PublishedAt.After(b.PublishedAt), !a.PublishedAt.Equal(b.PublishedAt)
	}

	type key func(a, b *StreamCandidate) (less, decided bool)
	var keys []key

	switch preference {
	case SizeFirst:
		keys = []key{bySize, byQuality, byLanguage}
	case DateFirst:
		keys = []key{byRecency, byQuality, byLanguage, bySize}
	default: // QualityFirst; LanguageFirst partitions before sorting
		keys = []key{byQuality, byLanguage, bySize}
	}

	return func(a, b *StreamCandidate) bool {
		for _, k := range keys {
			if less, decided := k(a, b); decided {
				return less
			}
		}
		return false
	}
}

// Rank orders candidates by the configured preference. language_first
// partitions on preferred-language presence and sorts each partition by
// quality then size, preferred partition first.
func Rank(candidates []StreamCandidate, preference SortingPreference, language string) []StreamCandidate {
	ordered := make([]StreamCandidate, len(candidates))
	copy(ordered, candidates)

	if preference == LanguageFirst {
		var preferred, rest []StreamCandidate
		for _, candidate := range ordered {
			if hasLanguage(&candidate, language) {
				preferred = append(preferred, candidate)
			} else {
				rest = append(rest, candidate)
			}
		}
		less := comparatorFor(QualityFirst, "")
		sort.SliceStable(preferred, func(i, j int) bool { return less(&preferred[i], &preferred[j]) })
		sort.SliceStable(rest, func(i, j int) bool { return less(&rest[i], &rest[j]) })
		return append(preferred, rest...)
	}

	less := comparatorFor(preference, language)
	sort.SliceStable(ordered, func(i, j int) bool { return less(&ordered[i], &ordered[j]) })
	return ordered
}

// PostFilter applies the soft limits after ranking. Each step that
// would eliminate every remaining candidate is skipped instead, and the
// skip is recorded so callers can surface it.
func PostFilter(candidates []StreamCandidate, opts RankOptions, logger utils.Log) RankResult {
	result := RankResult{Candidates: candidates}

	soft := func(name string, apply func([]StreamCandidate) []StreamCandidate) {
		if len(result.Candidates) == 0 {
			return
		}
		filtered := apply(result.Candidates)
		if len(filtered) == 0 {
			warning := fmt.Sprintf("%s would remove every candidate; keeping the unfiltered set", name)
			logger.Warn(warning)
			result.Degraded = append(result.Degraded, warning)
			return
		}
		result.Candidates = filtered
	}

	if len(opts.AllowedTiers) > 0 {
		soft("quality allow-list", func(in []StreamCandidate) []StreamCandidate {
			var out []StreamCandidate
			for _, candidate := range in {
				if opts.AllowedTiers[candidate.Tier] {
					out = append(out, candidate)
				}
			}
			return out
		})
	}

	if opts.MaxSizeGB > 0 {
		maxBytes := int64(opts.MaxSizeGB * float64(1<<30))
		soft("max-size filter", func(in []StreamCandidate) []StreamCandidate {
			var out []StreamCandidate
			for _, candidate := range in {
				if candidate.RawSize <= maxBytes {
					out = append(out, candidate)
				}
			}
			return out
		})
	}

	if opts.MaxPerTier > 0 {
		// Truncating per tier preserves within-tier order and can never
		// empty a non-empty set, but keep it behind the same soft guard
		// for uniformity.
		soft("per-quality cap", func(in []StreamCandidate) []StreamCandidate {
			counts := make(map[int]int)
			var out []StreamCandidate
			for _, candidate := range in {
				if counts[candidate.Tier] >= opts.MaxPerTier {
					continue
				}
				counts[candidate.Tier]++
				out = append(out, candidate)
			}
			return out
		})
	}

	return result
}
