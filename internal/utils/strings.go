package utils

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	nonWordChars = regexp.MustCompile(`[^a-z0-9]+`)
	sizeString   = regexp.MustCompile(`(?i)^\s*([\d.]+)\s*(t|g|m|k)?i?b?\s*$`)
	clockString  = regexp.MustCompile(`^(?:(\d+):)?(\d+):(\d+)$`)
)

// SanitizeTitle lowercases a title and collapses every run of
// non-alphanumeric characters into a single space, so "Alpha: The
// Beginning!" and "alpha the beginning" compare equal.
func SanitizeTitle(title string) string {
	clean := nonWordChars.ReplaceAllString(strings.ToLower(title), " ")
	return strings.TrimSpace(clean)
}

// Tokens returns the sanitized words of a title.
func Tokens(title string) []string {
	clean := SanitizeTitle(title)
	if clean == "" {
		return nil
	}
	return strings.Fields(clean)
}

// ParseHumanSize converts strings like "1.2 GB" or "734 MB" to bytes.
// Returns 0 when the string is unparseable. Comparing the byte values
// makes a GB entry outrank any MB entry without special-casing units.
func ParseHumanSize(s string) int64 {
	m := sizeString.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(m[2]) {
	case "t":
		value *= 1 << 40
	case "g":
		value *= 1 << 30
	case "m":
		value *= 1 << 20
	case "k":
		value *= 1 << 10
	}
	return int64(value)
}

// ParseRuntime understands both "1h23m12s" style durations and
// "[hh:]mm:ss" clock strings. Returns 0 when it cannot tell.
func ParseRuntime(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	m := clockString.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
}
