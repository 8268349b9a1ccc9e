package nlp

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

type bound int

const (
	upperBound bound = iota
	lowerBound
)

// amountPattern is a price pattern whose first group captures the amount.
type amountPattern struct {
	re    *regexp.Regexp
	bound bound
}

// amount accepts grouped thousands ("1 000", "1,000", "1.299,99") before a
// plain number with an optional decimal part.
const (
	amount   = `(\d{1,3}(?:[ \x{00a0},.]\d{3})+(?:[.,]\d+)?\b|\d+(?:[.,]\d+)?)`
	currency = `[$€]?`
)

// Price pattern families in precedence order. The first family with a
// usable match decides the result.
var (
	upperBoundPatterns = []amountPattern{
		{regexp.MustCompile(`\bsous\s*` + currency + `\s*` + amount), upperBound},
		{regexp.MustCompile(`\bmoins\s+de\s*` + currency + `\s*` + amount), upperBound},
		{regexp.MustCompile(`\bunder\s*` + currency + `\s*` + amount), upperBound},
		{regexp.MustCompile(`\bbelow\s*` + currency + `\s*` + amount), upperBound},
		{regexp.MustCompile(`\bless\s+than\s*` + currency + `\s*` + amount), upperBound},
		{regexp.MustCompile(`\bmax(?:imum)?\s*` + currency + `\s*` + amount), upperBound},
		{regexp.MustCompile(`<\s*=?\s*` + currency + `\s*` + amount), upperBound},
	}

	lowerBoundPatterns = []amountPattern{
		{regexp.MustCompile(`\bplus\s+de\s*` + currency + `\s*` + amount), lowerBound},
		{regexp.MustCompile(`\bau[\s-]+dessus\s+de\s*` + currency + `\s*` + amount), lowerBound},
		{regexp.MustCompile(`\bover\s*` + currency + `\s*` + amount), lowerBound},
		{regexp.MustCompile(`\babove\s*` + currency + `\s*` + amount), lowerBound},
		{regexp.MustCompile(`\bmore\s+than\s*` + currency + `\s*` + amount), lowerBound},
		{regexp.MustCompile(`\bmin(?:imum)?\s*` + currency + `\s*` + amount), lowerBound},
		{regexp.MustCompile(`>\s*=?\s*` + currency + `\s*` + amount), lowerBound},
	}

	// A bare amount next to a currency reads as a budget.
	currencyPatterns = []amountPattern{
		{regexp.MustCompile(`[$€]\s*` + amount), upperBound},
		{regexp.MustCompile(`\+?` + amount + `\s*[$€]`), upperBound},
		{regexp.MustCompile(amount + `\s*(?:euros?|eur|dollars?|usd)\b`), upperBound},
	}

	priceFamilies = [][]amountPattern{upperBoundPatterns, lowerBoundPatterns, currencyPatterns}

	// unitAfterAmount detects a number that counts stars or reviews rather
	// than money, as in "plus de 1000 avis" or "over 4 stars".
	unitAfterAmount = regexp.MustCompile(`^\s*(?:avis|reviews?|commentaires?|[éeè]valuations?|[éeè]toiles?|stars?|notes?)\b`)
)

const (
	cheapMaxPrice  = 50.0
	luxuryMinPrice = 200.0
)

// ExtractPrice returns the price bounds expressed in text. Numeric patterns
// are tried family by family (upper bounds, lower bounds, currency amounts);
// keywords are consulted only when no number matched. When both cheap and
// luxury keywords appear, the cheap bound wins.
func (l *Library) ExtractPrice(text string) PriceRange {
	for _, family := range priceFamilies {
		for _, p := range family {
			v, ok := firstAmount(p.re, text)
			if !ok {
				continue
			}
			if p.bound == upperBound {
				return PriceRange{Max: ptr(v)}
			}
			return PriceRange{Min: ptr(v)}
		}
	}
	switch {
	case containsAnyTerm(text, l.cheap):
		return PriceRange{Max: ptr(cheapMaxPrice)}
	case containsAnyTerm(text, l.luxury):
		return PriceRange{Min: ptr(luxuryMinPrice)}
	}
	return PriceRange{}
}

// firstAmount returns the first match of re whose amount is not followed by
// a review or rating unit.
func firstAmount(re *regexp.Regexp, text string) (float64, bool) {
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if unitAfterAmount.MatchString(text[m[1]:]) {
			continue
		}
		v, err := parseAmount(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

// parseAmount accepts "500", "49.99", "49,99" and grouped thousands. The
// last comma or dot is the decimal mark unless exactly three digits follow
// it, in which case it separates thousands.
func parseAmount(s string) (float64, error) {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)
	whole, frac := s, ""
	if i := strings.LastIndexAny(s, ".,"); i >= 0 && len(s)-i-1 != 3 {
		whole, frac = s[:i], s[i+1:]
	}
	whole = thousandsMarks.Replace(whole)
	if frac != "" {
		whole += "." + frac
	}
	return strconv.ParseFloat(whole, 64)
}

var thousandsMarks = strings.NewReplacer(",", "", ".", "")

// parseCount parses an integer count, ignoring thousands separators such as
// "1 000", "1,000" or "1.000".
func parseCount(s string) (int, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	return strconv.Atoi(digits)
}

// stripPrice removes every price span from text.
func stripPrice(text string) string {
	for _, family := range priceFamilies {
		for _, p := range family {
			text = p.re.ReplaceAllString(text, " ")
		}
	}
	return text
}
