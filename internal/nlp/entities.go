package nlp

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ExtractCategory returns the canonical category of the first table keyword
// contained in text or in its accent-folded form. Keywords match as plain
// substrings: "iphone" is Electronics through "phone".
func (l *Library) ExtractCategory(text string) *string {
	folded := Fold(text)
	for _, c := range l.categories {
		if strings.Contains(text, c.keyword) || strings.Contains(folded, c.keyword) {
			return ptr(c.category)
		}
	}
	return nil
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]`)

// ExtractBrand returns the first whitespace token that names a known brand,
// capitalized ("samsung," becomes "Samsung").
func (l *Library) ExtractBrand(text string) *string {
	for _, field := range strings.Fields(text) {
		token := strings.ToLower(nonWord.ReplaceAllString(field, ""))
		if l.IsBrand(token) {
			return ptr(capitalize(token))
		}
	}
	return nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ExtractSort returns the ordering requested in text. Explicit phrases are
// checked rule by rule; otherwise the intent picks a default and everything
// else falls back to the catalogue ranking.
func (l *Library) ExtractSort(text string, intent Intent) (SortField, SortOrder) {
	for _, r := range l.sortRules {
		if containsAnyTerm(text, r.phrases) {
			return r.field, r.order
		}
	}
	switch intent {
	case IntentTopRated:
		return SortRating, OrderDesc
	case IntentBestsellers:
		return SortSalesCount, OrderDesc
	case IntentPriceFilter:
		return SortPrice, OrderAsc
	case IntentReviewsFilter:
		return SortReviewsCount, OrderDesc
	default:
		return SortRanking, OrderAsc
	}
}

// IsBestseller reports whether text asks for best-selling products.
func (l *Library) IsBestseller(text string) bool {
	return containsAnyTerm(text, l.bestseller)
}

var asinPattern = regexp.MustCompile(`\bB0[A-Z0-9]{8,}\b`)

// DetectASIN returns the first product identifier in query, uppercased, or
// "" when there is none.
func DetectASIN(query string) string {
	return asinPattern.FindString(strings.ToUpper(query))
}
