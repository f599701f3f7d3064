// Package search parses catalog search strings into structured filters.
//
// A query is either free text, matched against story titles and descriptions,
// or any combination of quoted modifiers:
//
//	title:"dragons" by:"alice" tags:"fantasy,epic" rating_more_than:"4"
//
// Detection is a plain substring scan, so a keyword that appears inside another
// modifier's quoted value is still treated as a modifier.
package search

import (
	"strconv"
	"strings"

	"github.com/mrlokans/scribe/internal/utils"
)

const (
	KeywordTitle          = "title:"
	KeywordAuthor         = "by:"
	KeywordTags           = "tags:"
	KeywordRating         = "rating:"
	KeywordRatingMoreThan = "rating_more_than:"
	KeywordRatingLessThan = "rating_less_than:"
)

var keywords = []string{
	KeywordTitle,
	KeywordAuthor,
	KeywordTags,
	KeywordRating,
	KeywordRatingMoreThan,
	KeywordRatingLessThan,
}

// Filter is the structured form of a search string. Empty strings, nil
// slices and nil pointers mean "not constrained".
type Filter struct {
	Title             string
	Author            string
	Tags              []string
	RatingEquals      *float64
	RatingGreaterThan *float64
	RatingLessThan    *float64

	// Text is set only when the query carried no modifier keyword at all.
	// It matches title or description as a case-insensitive substring.
	Text string
}

// IsEmpty reports whether the filter places no constraint on the catalog.
func (f Filter) IsEmpty() bool {
	return f.Title == "" && f.Author == "" && len(f.Tags) == 0 &&
		f.RatingEquals == nil && f.RatingGreaterThan == nil && f.RatingLessThan == nil &&
		f.Text == ""
}

// HasRatingFilter reports whether any average-rating constraint is set.
func (f Filter) HasRatingFilter() bool {
	return f.RatingEquals != nil || f.RatingGreaterThan != nil || f.RatingLessThan != nil
}

// Parse converts a raw search string into a Filter. It never fails: values
// that are unquoted or unparsable simply leave their field unset.
func Parse(raw string) Filter {
	var f Filter

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return f
	}

	if !containsKeyword(raw) {
		f.Text = trimmed
		return f
	}

	if v, ok := modifierValue(raw, KeywordTitle); ok {
		f.Title = v
	}
	if v, ok := modifierValue(raw, KeywordAuthor); ok {
		f.Author = v
	}
	if v, ok := modifierValue(raw, KeywordTags); ok {
		f.Tags = parseTags(v)
	}
	f.RatingEquals = ratingValue(raw, KeywordRating)
	f.RatingGreaterThan = ratingValue(raw, KeywordRatingMoreThan)
	f.RatingLessThan = ratingValue(raw, KeywordRatingLessThan)

	return f
}

func containsKeyword(raw string) bool {
	for _, kw := range keywords {
		if strings.Contains(raw, kw) {
			return true
		}
	}
	return false
}

// modifierValue returns the inner text of a double-quoted value following the
// first occurrence of keyword. The value runs until the earliest " <other keyword>"
// or the end of input.
func modifierValue(raw, keyword string) (string, bool) {
	idx := strings.Index(raw, keyword)
	if idx < 0 {
		return "", false
	}
	rest := raw[idx+len(keyword):]

	end := len(rest)
	for _, other := range keywords {
		if other == keyword {
			continue
		}
		if i := strings.Index(rest, " "+other); i >= 0 && i < end {
			end = i
		}
	}

	value := strings.TrimSpace(rest[:end])
	if len(value) < 2 || !strings.HasPrefix(value, `"`) || !strings.HasSuffix(value, `"`) {
		return "", false
	}

	inner := value[1 : len(value)-1]
	if inner == "" {
		return "", false
	}
	return inner, true
}

func parseTags(value string) []string {
	var tags []string
	for _, piece := range strings.Split(value, ",") {
		if name := utils.NormalizeTag(piece); name != "" {
			tags = append(tags, name)
		}
	}
	return tags
}

func ratingValue(raw, keyword string) *float64 {
	v, ok := modifierValue(raw, keyword)
	if !ok {
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil
	}
	return &n
}
