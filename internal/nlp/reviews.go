package nlp

import "regexp"

const (
	count      = `(\d{1,3}(?:[ \x{00a0},.]\d{3})+|\d+)`
	reviewUnit = `(?:reviews?|avis|commentaires?|[éeè]valuations?)`
)

// reviewPatterns are tried in order; the first with a parsable count wins.
var reviewPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\+\s*` + count + `\s*` + reviewUnit),
	regexp.MustCompile(count + `\s*\+\s*` + reviewUnit),
	regexp.MustCompile(`\bplus\s+de\s*` + count + `\s*` + reviewUnit),
	regexp.MustCompile(`\bau\s+moins\s*` + count + `\s*` + reviewUnit),
	regexp.MustCompile(`\bmore\s+than\s*` + count + `\s*` + reviewUnit),
	regexp.MustCompile(`\bover\s*` + count + `\s*` + reviewUnit),
	regexp.MustCompile(`\bat\s+least\s*` + count + `\s*` + reviewUnit),
	regexp.MustCompile(`\bmin(?:imum)?\s*` + count + `\s*` + reviewUnit),
}

const keywordMinReviews = 100

// ExtractReviews returns the minimum review count expressed in text, or nil.
func (l *Library) ExtractReviews(text string) *int {
	for _, re := range reviewPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			n, err := parseCount(m[1])
			if err != nil || n < 0 {
				continue
			}
			return ptr(n)
		}
	}
	if containsAnyTerm(text, l.reviews) {
		return ptr(keywordMinReviews)
	}
	return nil
}

// stripReviews removes review-count spans from text.
func stripReviews(text string) string {
	for _, re := range reviewPatterns {
		text = re.ReplaceAllString(text, " ")
	}
	return text
}
