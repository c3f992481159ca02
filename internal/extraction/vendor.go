package extraction

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// DefaultTopNLines is how many leading non-blank lines are considered for the
// vendor name.
const DefaultTopNLines = 8

// Unknown is returned as the vendor when the text has no lines at all.
const Unknown = "Unknown"

var (
	vendorSkipPattern = regexp.MustCompile(`(?i)^(invoice|invoice no|invoice #|invoice number|date|due|page|total|tax|phone|tel|fax|bill to|ship to|amount|balance|subtotal|description|item|quantity|qty|account|address|order|ship|email)`)
	companyHint       = regexp.MustCompile(`(?i)\b(inc|llc|ltd|co|corp|corporation|company|gmbh|plc)\b`)
	noLetters         = regexp.MustCompile(`^[^\p{L}_]+$`)
)

type vendorCandidate struct {
	line  string
	score int
}

// ExtractVendor picks the most vendor-like line among the first topN
// non-blank lines. The ranked candidates are returned best first.
func ExtractVendor(text string, topN int) (string, []string) {
	if topN <= 0 {
		topN = DefaultTopNLines
	}

	lines := nonBlankLines(text)
	if len(lines) == 0 {
		return Unknown, []string{}
	}

	eligible := lines
	if len(eligible) > topN {
		eligible = eligible[:topN]
	}

	var scored []vendorCandidate
	for _, line := range eligible {
		if skipVendorLine(line) {
			continue
		}
		scored = append(scored, vendorCandidate{line: line, score: scoreVendorLine(line)})
	}

	if len(scored) == 0 {
		return lines[0], []string{}
	}

	// Stable keeps the original line order among equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	candidates := make([]string, len(scored))
	for i, c := range scored {
		candidates[i] = c.line
	}
	return candidates[0], candidates
}

func skipVendorLine(line string) bool {
	if vendorSkipPattern.MatchString(line) {
		return true
	}
	if noLetters.MatchString(line) {
		return true
	}
	lc := strings.ToLower(line)
	return strings.Contains(lc, "@") || strings.Contains(lc, "http") || strings.Contains(lc, "www")
}

func scoreVendorLine(line string) int {
	score := 0
	if companyHint.MatchString(line) {
		score += 5
	}
	if words := len(strings.Fields(line)); words > 1 && words <= 6 {
		score += 2
	}

	var letters, digits int
	for _, r := range line {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.IsDigit(r):
			digits++
		}
	}
	if letters > digits {
		score++
	}
	return score
}
