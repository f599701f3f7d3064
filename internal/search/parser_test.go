package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float(v float64) *float64 { return &v }

func TestParse_SingleModifier(t *testing.T) {
	f := Parse(`title:"Fantasy"`)

	assert.Equal(t, Filter{Title: "Fantasy"}, f)
}

func TestParse_CombinedModifiers(t *testing.T) {
	f := Parse(`title:"Fantasy" tags:"adventure" rating_more_than:"4"`)

	assert.Equal(t, "Fantasy", f.Title)
	assert.Equal(t, []string{"adventure"}, f.Tags)
	require.NotNil(t, f.RatingGreaterThan)
	assert.Equal(t, 4.0, *f.RatingGreaterThan)
	assert.Empty(t, f.Author)
	assert.Nil(t, f.RatingEquals)
	assert.Nil(t, f.RatingLessThan)
	assert.Empty(t, f.Text)
}

func TestParse_AllModifiers(t *testing.T) {
	f := Parse(`by:"alice" title:"Dark Tower" tags:"Sci-Fi!, ,Epic" rating:"4.5" rating_more_than:"2" rating_less_than:"5"`)

	assert.Equal(t, Filter{
		Title:             "Dark Tower",
		Author:            "alice",
		Tags:              []string{"sci-fi", "epic"},
		RatingEquals:      float(4.5),
		RatingGreaterThan: float(2),
		RatingLessThan:    float(5),
	}, f)
}

func TestParse_Unstructured(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain words", input: "dragon rider", expected: "dragon rider"},
		{name: "trims surrounding whitespace", input: "  castle  ", expected: "castle"},
		{name: "colon without keyword", input: "chapter: one", expected: "chapter: one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Filter{Text: tt.expected}, Parse(tt.input))
		})
	}
}

func TestParse_EmptyQuery(t *testing.T) {
	assert.True(t, Parse("").IsEmpty())
	assert.True(t, Parse("   ").IsEmpty())
}

func TestParse_UnquotedValuesAreIgnored(t *testing.T) {
	f := Parse(`title:Fantasy by:"bob"`)

	assert.Empty(t, f.Title)
	assert.Equal(t, "bob", f.Author)
	assert.Empty(t, f.Text, "keyword presence disables free-text matching")
}

func TestParse_KeywordWithOnlyFailuresStillDisablesText(t *testing.T) {
	f := Parse(`rating:"high" title:nope`)

	assert.True(t, f.IsEmpty())
}

func TestParse_RatingParseFailureLeavesFieldUnset(t *testing.T) {
	f := Parse(`rating_less_than:"abc" rating:"3"`)

	assert.Nil(t, f.RatingLessThan)
	require.NotNil(t, f.RatingEquals)
	assert.Equal(t, 3.0, *f.RatingEquals)
}

func TestParse_RatingValueTolerantOfInnerWhitespace(t *testing.T) {
	f := Parse(`rating_more_than:" 3.5 "`)

	require.NotNil(t, f.RatingGreaterThan)
	assert.Equal(t, 3.5, *f.RatingGreaterThan)
}

func TestParse_ValueEndsAtNextKeyword(t *testing.T) {
	f := Parse(`title:"The Long Road" by:"carol"`)

	assert.Equal(t, "The Long Road", f.Title)
	assert.Equal(t, "carol", f.Author)
}

func TestParse_FirstOccurrenceWins(t *testing.T) {
	f := Parse(`title:"first" title:"second"`)

	// The second keyword is not a boundary for the first, so the value
	// spans both and is not a single quoted string.
	assert.Equal(t, `first" title:"second`, f.Title)
}

func TestParse_KeywordInsideQuotedValueIsStillDetected(t *testing.T) {
	f := Parse(`tags:"by:me"`)

	// "by:" is found by substring scan; its value `me"` is not quoted.
	assert.Empty(t, f.Author)
	// The tags value is cut at the first " by:" boundary, which does not
	// exist here (no leading space), so the whole quoted value is kept.
	assert.Equal(t, []string{"byme"}, f.Tags)
}

func TestParse_EmptyQuotedValue(t *testing.T) {
	f := Parse(`title:"" by:"dan"`)

	assert.Empty(t, f.Title)
	assert.Equal(t, "dan", f.Author)
}

func TestFilter_HasRatingFilter(t *testing.T) {
	assert.False(t, Filter{Title: "x"}.HasRatingFilter())
	assert.True(t, Filter{RatingLessThan: float(2)}.HasRatingFilter())
}
