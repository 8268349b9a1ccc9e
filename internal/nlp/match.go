package nlp

import (
	"strings"
	"unicode/utf8"
)

// inflections are the suffixes a table phrase may carry and still count as a
// match: French plural and feminine agreement plus English plurals.
var inflections = []string{"es", "s", "e", "x"}

// atWordStart reports whether byte offset i in text begins a word.
func atWordStart(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

// atWordEnd reports whether byte offset j in text ends a word.
func atWordEnd(text string, j int) bool {
	if j >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[j:])
	return !isWordRune(r)
}

// indexPrefix returns the first occurrence of phrase at or after from that
// starts on a word boundary, or -1.
func indexPrefix(text, phrase string, from int) int {
	if phrase == "" {
		return -1
	}
	for from <= len(text) {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return -1
		}
		i += from
		if atWordStart(text, i) {
			return i
		}
		from = i + len(phrase)
	}
	return -1
}

// containsAny reports whether any phrase is a substring of text. Categories,
// intent groups and override triggers match this way, so "phone" fires
// inside "iphone" and "top" inside "laptop".
func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// countContained counts the phrases that are substrings of text. Repeats
// count once.
func countContained(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if p != "" && strings.Contains(text, p) {
			n++
		}
	}
	return n
}

// inflectedEnd returns the end of the word that starts with a phrase ending
// at end, provided the remainder is empty or a known inflection.
func inflectedEnd(text string, end int) (int, bool) {
	if atWordEnd(text, end) {
		return end, true
	}
	for _, suffix := range inflections {
		if strings.HasPrefix(text[end:], suffix) && atWordEnd(text, end+len(suffix)) {
			return end + len(suffix), true
		}
	}
	return 0, false
}

// findTerm locates phrase as a whole term, allowing an inflection suffix.
func findTerm(text, phrase string, from int) (int, int) {
	for {
		i := indexPrefix(text, phrase, from)
		if i < 0 {
			return -1, -1
		}
		if end, ok := inflectedEnd(text, i+len(phrase)); ok {
			return i, end
		}
		from = i + len(phrase)
	}
}

// containsTerm reports whether phrase occurs in text as a whole term:
// "meilleur" matches "meilleures", "top" does not match "laptop" and
// "cher" does not match "cherche".
func containsTerm(text, phrase string) bool {
	i, _ := findTerm(text, phrase, 0)
	return i >= 0
}

// containsAnyTerm reports whether any phrase occurs as a term.
func containsAnyTerm(text string, phrases []string) bool {
	for _, p := range phrases {
		if containsTerm(text, p) {
			return true
		}
	}
	return false
}

// removeTerm blanks every term occurrence of phrase, inflection included.
func removeTerm(text, phrase string) string {
	var b strings.Builder
	from := 0
	for {
		i, end := findTerm(text, phrase, from)
		if i < 0 {
			b.WriteString(text[from:])
			return b.String()
		}
		b.WriteString(text[from:i])
		b.WriteByte(' ')
		from = end
	}
}

// removeWord blanks whole-word occurrences of word or word+"s".
func removeWord(text, word string) string {
	var b strings.Builder
	from := 0
	for {
		i := indexPrefix(text, word, from)
		if i < 0 {
			b.WriteString(text[from:])
			return b.String()
		}
		end := i + len(word)
		if strings.HasPrefix(text[end:], "s") && atWordEnd(text, end+1) {
			end++
		}
		b.WriteString(text[from:i])
		if atWordEnd(text, end) {
			b.WriteByte(' ')
		} else {
			b.WriteString(text[i:end])
		}
		from = end
	}
}
