package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases the query and trims surrounding whitespace. It is the
// only transformation applied to the text the extractors read, so the result
// keeps its accents: accent-insensitive lookups go through Fold.
func Normalize(text string) string {
	return strings.TrimSpace(strings.ToLower(text))
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold removes combining marks so "téléphone" and "telephone" compare equal.
// Callers pass already normalized text.
func Fold(text string) string {
	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		return text
	}
	return folded
}

// isWordRune reports whether r can be part of a word token. Combining marks
// count so decomposed accents do not split a word.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.Is(unicode.Mn, r)
}

// tokens splits text into maximal runs of word runes.
func tokens(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return !isWordRune(r) })
}
