package extraction

import (
	"regexp"
	"strings"
)

var pageMarkerPattern = regexp.MustCompile(`(?i)\n?-{2,}\s*Page\s*\d+\s*-{2,}\n?`)

// dateConfusions maps letters OCR commonly emits in place of digits.
var dateConfusions = strings.NewReplacer("I", "1", "l", "1", "O", "0")

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// StripPageMarkers collapses synthetic "--- Page N ---" separators into a
// single newline.
func StripPageMarkers(text string) string {
	return pageMarkerPattern.ReplaceAllString(text, "\n")
}

// CleanForDateMatching swaps I, l and O for 1, 1 and 0. The result is only
// fit for date matching: it corrupts ordinary words.
func CleanForDateMatching(text string) string {
	return dateConfusions.Replace(text)
}

// NormalizeLineEndings converts carriage returns to newlines.
func NormalizeLineEndings(text string) string {
	return lineEndings.Replace(text)
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// nonBlankLines returns the trimmed, non-empty lines of text in order.
func nonBlankLines(text string) []string {
	var lines []string
	for _, ln := range strings.FieldsFunc(NormalizeLineEndings(text), isLineBreak) {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	return lines
}
