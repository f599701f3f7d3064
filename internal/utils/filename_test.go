package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "keeps plain titles",
			input:    "The Lighthouse.pdf",
			expected: "The Lighthouse.pdf",
		},
		{
			name:     "removes path separators",
			input:    `a/b\c.epub`,
			expected: "abc.epub",
		},
		{
			name:     "keeps punctuation allowed in titles",
			input:    `Part 1: "Dawn" <draft>?.pdf`,
			expected: `Part 1: "Dawn" <draft>?.pdf`,
		},
		{
			name:     "removes control characters",
			input:    "Bell\x07\x7fTower.pdf",
			expected: "BellTower.pdf",
		},
		{
			name:     "replaces newlines and tabs with spaces",
			input:    "file\nname\twith\rspaces.pdf",
			expected: "file name with spaces.pdf",
		},
		{
			name:     "collapses multiple spaces",
			input:    "file   name  with    spaces.pdf",
			expected: "file name with spaces.pdf",
		},
		{
			name:     "keeps dots inside the title",
			input:    "Vol. 2.epub",
			expected: "Vol. 2.epub",
		},
		{
			name:     "falls back to Untitled",
			input:    "/\\/.pdf",
			expected: "Untitled.pdf",
		},
		{
			name:     "keeps unicode",
			input:    "Café Stories.pdf",
			expected: "Café Stories.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestSanitizeFilename_TruncatesLongTitles(t *testing.T) {
	got := SanitizeFilename(strings.Repeat("é", 150) + ".pdf")

	assert.True(t, strings.HasSuffix(got, ".pdf"))
	assert.LessOrEqual(t, len(got), 204)
	assert.False(t, strings.ContainsRune(got, '�'))
	assert.True(t, strings.HasPrefix(got, "é"))
}
