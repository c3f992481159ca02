package extraction

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DefaultGapMaxChars bounds the non-digit run allowed between a total label
// and its amount. Any positive gap is accepted.
const DefaultGapMaxChars = 80

// moneyToken matches a number with an optional thousands-grouped integer part
// and a two digit fraction. Callers make sure it is not cut out of a longer
// digit run.
const moneyToken = `(?:\d{1,3}(?:[.,]\d{3})+|\d+)[.,]\d{2}`

// Longer labels come first so a bare "total" never wins over "total due".
const totalKeywords = `(?:grand total|total due|amount due|balance due|amount payable|net total|invoice total|total amount|total)`

var (
	numberRun   = regexp.MustCompile(`\d(?:[\d.,]*\d)?`)
	moneyShape  = regexp.MustCompile(`^` + moneyToken + `$`)
	moneyPrefix = regexp.MustCompile(`^` + moneyToken)
	amountNoise = regexp.MustCompile(`[^\d,.\-]`)

	// labeledTotal captures the non-digit gap after a label and the token
	// that ends it; the gap length is checked by findLabeledTotal.
	labeledTotal = regexp.MustCompile(`(?is)\b` + totalKeywords + `([^\d]*)(` + moneyToken + `)(?:\D|$)`)
)

// findLabeledTotal returns the token of the first label whose gap is at most
// gap runes. A label with a longer gap is skipped and the search resumes just
// after where it starts, so labels inside that gap are still seen.
func findLabeledTotal(text string, gap int) (string, bool) {
	for start := 0; start < len(text); {
		loc := labeledTotal.FindStringSubmatchIndex(text[start:])
		if loc == nil {
			return "", false
		}
		if utf8.RuneCountInString(text[start+loc[2]:start+loc[3]]) <= gap {
			return text[start+loc[4] : start+loc[5]], true
		}
		_, size := utf8.DecodeRuneInString(text[start+loc[0]:])
		start += loc[0] + size
	}
	return "", false
}

// ExtractTotal locates the labeled invoice total, falling back to the largest
// monetary value anywhere in text. The second return lists every raw token
// that was considered.
func ExtractTotal(text string, gapMaxChars int) (string, []string) {
	if gapMaxChars <= 0 {
		gapMaxChars = DefaultGapMaxChars
	}

	text = NormalizeLineEndings(text)
	candidates := []string{}

	if raw, ok := findLabeledTotal(text, gapMaxChars); ok {
		candidates = append(candidates, raw)
		if amt, ok := ParseAmount(raw); ok {
			return FormatAmount(amt), candidates
		}
	}

	tokens := moneyTokens(text)
	candidates = append(candidates, tokens...)

	var (
		best  decimal.Decimal
		found bool
	)
	for _, tok := range tokens {
		amt, ok := ParseAmount(tok)
		if !ok {
			continue
		}
		if !found || amt.GreaterThan(best) {
			best, found = amt, true
		}
	}
	if !found {
		return NotFound, candidates
	}
	return FormatAmount(best), candidates
}

// moneyTokens returns every money-shaped number in text, in order. Digit runs
// are taken whole so "1234.56" is never read as "234.56"; a run that is not
// one token may still be several joined by separators, as in "10.00,20.00".
func moneyTokens(text string) []string {
	var tokens []string
	for _, run := range numberRun.FindAllString(text, -1) {
		if moneyShape.MatchString(run) {
			tokens = append(tokens, run)
			continue
		}
		tokens = append(tokens, splitMoneyRun(run)...)
	}
	return tokens
}

// splitMoneyRun reads run as back-to-back money tokens, each followed by a
// single separator. It returns nothing unless the tokens cover the whole run.
func splitMoneyRun(run string) []string {
	var tokens []string
	for {
		loc := moneyPrefix.FindStringIndex(run)
		if loc == nil {
			return nil
		}
		tokens = append(tokens, run[:loc[1]])
		run = run[loc[1]:]
		if run == "" {
			return tokens
		}
		if run[0] != ',' && run[0] != '.' {
			return nil
		}
		run = run[1:]
	}
}

// ParseAmount normalizes an OCR'd amount. When both separators appear the
// last one is the decimal point; a lone comma is decimal only when exactly two
// digits follow it. Anything unparseable reports false.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = amountNoise.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" {
		return decimal.Zero, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if len(s)-lastComma-1 == 2 {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
