package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Path separators and control characters. Anything else in a title is
	// carried into the Content-Disposition header, which quotes it.
	invalidFilenameChars = regexp.MustCompile(`[/\\\x00-\x1f\x7f]`)
	multipleSpaces       = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes a "{title}.{ext}" name safe to offer as a download.
// The final extension is kept.
func SanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = multipleSpaces.ReplaceAllString(base, " ")
	base = invalidFilenameChars.ReplaceAllString(base, "")
	base = strings.Trim(base, " .")

	// Leave room for the extension within the usual 255 byte limit.
	if len(base) > 200 {
		base = strings.TrimSpace(truncateUTF8(base, 200))
	}
	if base == "" {
		base = "Untitled"
	}
	return base + invalidFilenameChars.ReplaceAllString(ext, "")
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
