package nlp

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// The leading group keeps "15 stars" from reading as 5 stars.
	starsPattern    = regexp.MustCompile(`(?:^|[^\d.,])(\d(?:[.,]\d)?)\s*(?:[éeè]toiles?|stars?)`)
	plusRatingStart = regexp.MustCompile(`(?:^|[^\d.,])(\d(?:[.,]\d)?)\s*\+`)
	reviewUnitAhead = regexp.MustCompile(`^\s*(?:avis|reviews?|commentaires?)\b`)
)

const (
	minRatingValue  = 1.0
	maxRatingValue  = 5.0
	keywordMinStars = 4.0
)

// ExtractRating returns the minimum star rating expressed in text, or nil.
// It tries "N étoiles"/"N stars", then a trailing "N+", then rating keywords.
// Values outside [1,5] are ignored.
func (l *Library) ExtractRating(text string) *float64 {
	for _, m := range starsPattern.FindAllStringSubmatchIndex(text, -1) {
		if v, ok := ratingValue(text[m[2]:m[3]]); ok {
			return ptr(v)
		}
	}
	for _, m := range plusRatingStart.FindAllStringSubmatchIndex(text, -1) {
		if !plusIsRating(text[m[1]:]) {
			continue
		}
		if v, ok := ratingValue(text[m[2]:m[3]]); ok {
			return ptr(v)
		}
	}
	if containsAnyTerm(text, l.rating) {
		return ptr(keywordMinStars)
	}
	return nil
}

// plusIsRating inspects what follows the "+" of "N+". A digit means the "+"
// belongs to another number, a currency sign means a price ("4+ $") and a
// review unit means a review count.
func plusIsRating(rest string) bool {
	if r, _ := utf8.DecodeRuneInString(rest); unicode.IsDigit(r) {
		return false
	}
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if strings.HasPrefix(trimmed, "$") || strings.HasPrefix(trimmed, "€") {
		return false
	}
	return !reviewUnitAhead.MatchString(rest)
}

func ratingValue(s string) (float64, bool) {
	v, err := parseAmount(s)
	if err != nil || v < minRatingValue || v > maxRatingValue {
		return 0, false
	}
	return v, true
}

// stripRating removes star and "N+" spans from text.
func stripRating(text string) string {
	text = removeGroupSpans(starsPattern, text)
	var b strings.Builder
	last := 0
	for _, m := range plusRatingStart.FindAllStringSubmatchIndex(text, -1) {
		if !plusIsRating(text[m[1]:]) {
			continue
		}
		b.WriteString(text[last:m[2]])
		b.WriteByte(' ')
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// removeGroupSpans blanks each match of re from the start of its first group
// to the end of the match, keeping any boundary character the pattern
// consumed before the group.
func removeGroupSpans(re *regexp.Regexp, text string) string {
	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(text[last:m[2]])
		b.WriteByte(' ')
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}
