package nlp

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var termPunctuation = regexp.MustCompile(`[^\p{L}\p{N}\p{Mn}_\-]`)

const minTokenLength = 2

// IsolateTerms returns the product words left in text once every filter,
// intent and category span is removed. Spans go in a fixed order: numeric
// price, rating and review patterns, then table phrases, then category
// keywords. Surviving tokens keep their left-to-right order.
func (l *Library) IsolateTerms(text string) []string {
	cleaned := stripPrice(text)
	cleaned = stripRating(cleaned)
	cleaned = stripReviews(cleaned)
	for _, p := range l.removable {
		cleaned = removeTerm(cleaned, p)
	}
	for _, kw := range l.categoryKeys {
		cleaned = removeWord(cleaned, kw)
	}
	return l.FilterTerms(strings.Fields(cleaned))
}

// FilterTerms applies the search-term token rules to words: punctuation
// other than inner hyphens is dropped, and short, numeric and stop-word
// tokens are discarded. Filtering its own output returns it unchanged.
func (l *Library) FilterTerms(words []string) []string {
	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(termPunctuation.ReplaceAllString(w, ""), "-")
		if utf8.RuneCountInString(w) < minTokenLength || isNumeric(w) || l.IsStopWord(strings.ToLower(w)) {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}

// Keywords returns every word token of at least two characters that is not a
// stop word, in text order.
func (l *Library) Keywords(text string) []string {
	words := tokens(text)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) < minTokenLength || l.IsStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
