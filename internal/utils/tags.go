package utils

import (
	"regexp"
	"strings"
)

// Anything other than ASCII letters, digits, whitespace and hyphens is dropped from tag names.
var invalidTagChars = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)

// NormalizeTag returns the canonical stored form of a tag name.
// Example: " Sci-Fi! " -> "sci-fi"
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(invalidTagChars.ReplaceAllString(tag, "")))
}

// ParseTagList turns a comma-separated tag field into normalized, unique tag names.
// Only the first limit comma-separated entries are considered; entries that
// normalize to nothing are dropped.
func ParseTagList(raw string, limit int) []string {
	pieces := strings.Split(raw, ",")
	if limit > 0 && len(pieces) > limit {
		pieces = pieces[:limit]
	}

	seen := make(map[string]bool, len(pieces))
	tags := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		name := NormalizeTag(piece)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, name)
	}
	return tags
}
