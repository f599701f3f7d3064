package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "strips punctuation and lowercases", input: " Sci-Fi! ", expected: "sci-fi"},
		{name: "keeps inner spaces", input: "Slow Burn", expected: "slow burn"},
		{name: "drops non-ascii letters", input: "Café", expected: "caf"},
		{name: "only punctuation", input: "!!!", expected: ""},
		{name: "digits survive", input: "Top 10", expected: "top 10"},
		{name: "trims after removal", input: "# fantasy #", expected: "fantasy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTag(tt.input))
		})
	}
}

func TestParseTagList(t *testing.T) {
	t.Run("normalizes and drops empties", func(t *testing.T) {
		assert.Equal(t, []string{"fantasy", "sci-fi"}, ParseTagList("Fantasy, , Sci-Fi!,???", 10))
	})

	t.Run("deduplicates by normalized name", func(t *testing.T) {
		assert.Equal(t, []string{"horror"}, ParseTagList("Horror,horror, HORROR!", 10))
	})

	t.Run("limit applies to raw entries", func(t *testing.T) {
		raw := "a,b,c,d,e,f,g,h,i,j,k,l"
		tags := ParseTagList(raw, 10)
		assert.Len(t, tags, 10)
		assert.Equal(t, "j", tags[9])
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, ParseTagList("", 10))
	})
}
