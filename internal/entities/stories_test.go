package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStory_WordCount(t *testing.T) {
	tests := []struct {
		name     string
		chapters []Chapter
		expected int
	}{
		{name: "no chapters", chapters: nil, expected: 0},
		{name: "single chapter", chapters: []Chapter{{Content: "one two three"}}, expected: 3},
		{
			name: "collapses mixed whitespace",
			chapters: []Chapter{
				{Content: "  alpha\tbeta\n\ngamma  "},
				{Content: "delta"},
			},
			expected: 4,
		},
		{name: "empty content", chapters: []Chapter{{Content: "   "}}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Story{Chapters: tt.chapters}
			assert.Equal(t, tt.expected, s.WordCount())
		})
	}
}

func TestStory_ContentLengthDiffersFromWordCount(t *testing.T) {
	s := Story{Chapters: []Chapter{{Content: "ab cd"}, {Content: "é"}}}

	assert.Equal(t, 6, s.ContentLength())
	assert.Equal(t, 3, s.WordCount())
}

func TestStory_AverageRating(t *testing.T) {
	t.Run("zero without ratings", func(t *testing.T) {
		s := Story{}
		assert.Equal(t, 0.0, s.AverageRating())
		assert.Equal(t, 0, s.RatingCount())
	})

	t.Run("arithmetic mean", func(t *testing.T) {
		s := Story{Ratings: []Rating{{Value: 4}, {Value: 5}}}
		assert.InDelta(t, 4.5, s.AverageRating(), 1e-9)
		assert.Equal(t, 2, s.RatingCount())
	})
}

func TestStory_IsOwnedBy(t *testing.T) {
	s := Story{UserID: 7}

	assert.True(t, s.IsOwnedBy(7))
	assert.False(t, s.IsOwnedBy(8))
	assert.False(t, (&Story{}).IsOwnedBy(0))
}

func TestValidRatingValue(t *testing.T) {
	for v := -1; v <= 7; v++ {
		assert.Equal(t, v >= 1 && v <= 5, ValidRatingValue(v), "value %d", v)
	}
}
