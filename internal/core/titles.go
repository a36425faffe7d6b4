package core

import (
	"sort"
	"strings"
)

// ExpandTitles builds the ordered set of search strings for one media
// item: the canonical title first, then custom titles registered under
// its exact name, then metadata-supplied alternates, then custom titles
// whose key partially matches the canonical title (case-insensitive
// substring in either direction). No string appears twice; dedup is a
// case-sensitive exact match.
func ExpandTitles(canonical string, customTitles map[string][]string, alternates []string) []string {
	titles := []string{canonical}
	seen := map[string]bool{canonical: true}
	add := func(title string) {
		if title != "" && !seen[title] {
			seen[title] = true
			titles = append(titles, title)
		}
	}

	for _, title := range customTitles[canonical] {
		add(title)
	}
	for _, title := range alternates {
		add(title)
	}

	// Partial matches against the custom-title keys. Keys are walked in
	// sorted order so expansion is deterministic run to run.
	lowerCanonical := strings.ToLower(canonical)
	keys := make([]string, 0, len(customTitles))
	for key := range customTitles {
		if key != canonical {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		lowerKey := strings.ToLower(key)
		if strings.Contains(lowerKey, lowerCanonical) || strings.Contains(lowerCanonical, lowerKey) {
			add(key)
			for _, title := range customTitles[key] {
				add(title)
			}
		}
	}

	return titles
}
