package core

import (
	"strconv"
	"strings"

	"newsreel/internal/utils"
)

// Quality tiers are ordinal buckets; higher ranks first.
const (
	Tier4K      = 4
	Tier1080p   = 3
	Tier720p    = 2
	Tier480p    = 1
	TierUnknown = 0
)

var tierNames = map[int]string{
	Tier4K:      "4K",
	Tier1080p:   "1080p",
	Tier720p:    "720p",
	Tier480p:    "480p",
	TierUnknown: "Unknown",
}

// Marker tokens mapped onto tiers, for files that carry the quality in
// the name rather than a resolution field.
var tierMarkers = map[string]int{
	"4k": Tier4K, "2160p": Tier4K, "uhd": Tier4K,
	"1080p": Tier1080p, "fhd": Tier1080p,
	"720p": Tier720p,
	"480p": Tier480p, "sd": Tier480p,
}

// TierName returns the display name for a tier ordinal.
func TierName(tier int) string {
	if name, ok := tierNames[tier]; ok {
		return name
	}
	return tierNames[TierUnknown]
}

// tierFromResolution buckets a "1920x1080" style resolution string by
// its vertical component.
func tierFromResolution(resolution string) int {
	parts := strings.SplitN(strings.ToLower(resolution), "x", 2)
	if len(parts) != 2 {
		return TierUnknown
	}
	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return TierUnknown
	}
	switch {
	case height >= 2000:
		return Tier4K
	case height >= 1080:
		return Tier1080p
	case height >= 720:
		return Tier720p
	case height >= 480:
		return Tier480p
	default:
		return TierUnknown
	}
}

// tierFromName scans a display name for quality markers.
func tierFromName(name string) int {
	for _, token := range utils.Tokens(name) {
		if tier, ok := tierMarkers[token]; ok {
			return tier
		}
	}
	return TierUnknown
}

// QualityTier derives the tier once per record, preferring the
// structured resolution field over name markers.
func QualityTier(resolution, name string) int {
	if tier := tierFromResolution(resolution); tier != TierUnknown {
		return tier
	}
	return tierFromName(name)
}

// ParseAllowedTiers turns a comma-separated allow-list like
// "4k,1080p,720p" into a tier set. An empty list allows all four
// recognized tiers.
func ParseAllowedTiers(list string) map[int]bool {
	allowed := make(map[int]bool)
	for _, entry := range strings.Split(list, ",") {
		if tier, ok := tierMarkers[strings.TrimSpace(strings.ToLower(entry))]; ok {
			allowed[tier] = true
		}
	}
	if len(allowed) == 0 {
		return map[int]bool{Tier4K: true, Tier1080p: true, Tier720p: true, Tier480p: true}
	}
	return allowed
}
