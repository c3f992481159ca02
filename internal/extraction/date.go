package extraction

import (
	"regexp"
	"time"
)

// NotFound is returned for a date or total that could not be extracted.
const NotFound = "Not found"

const isoDate = "2006-01-02"

var (
	numericDatePattern   = regexp.MustCompile(`(?i)\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	yearFirstDatePattern = regexp.MustCompile(`(?i)\b\d{4}[/-]\d{1,2}[/-]\d{1,2}\b`)
	monthNameDatePattern = regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*[ .-]?\d{1,2},?[ .-]?\d{2,4}\b`)
)

// datePatterns are tried in order; only the first match of each is parsed.
var datePatterns = []*regexp.Regexp{
	numericDatePattern,
	yearFirstDatePattern,
	monthNameDatePattern,
}

var dateLayouts = []string{
	"1/2/2006",
	"1/2/06",
	"1-2-2006",
	"1-2-06",
	"2006-1-2",
	"2006/1/2",
	"Jan 2 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ExtractDate finds the first parseable date in text and returns it as
// YYYY-MM-DD, or NotFound.
func ExtractDate(text string) string {
	cleaned := CleanForDateMatching(text)
	for _, p := range datePatterns {
		if d, ok := matchDate(p, cleaned); ok {
			return d
		}
	}

	// The digit correction also mangles month names (Jul -> Ju1, Oct -> 0ct),
	// so give the month-name family one pass over the original text.
	if d, ok := matchDate(monthNameDatePattern, text); ok {
		return d
	}
	return NotFound
}

func matchDate(p *regexp.Regexp, text string) (string, bool) {
	raw := p.FindString(text)
	if raw == "" {
		return "", false
	}
	t, ok := parseDate(raw)
	if !ok {
		return "", false
	}
	return t.Format(isoDate), true
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
