// Package evaluation runs golden query cases against the parser. Cases live
// in YAML files so product and search people can extend them without
// touching Go code.
package evaluation

import (
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/mouadelabbassi/dashboard/internal/nlp"
)

// File is the top-level document of a golden case file.
type File struct {
	Cases []Case `yaml:"cases"`
}

// Case is one query and the fields its parse must have. Unset expectation
// fields are not checked.
type Case struct {
	Name   string      `yaml:"name"`
	Query  string      `yaml:"query"`
	Expect Expectation `yaml:"expect"`
}

// Expectation lists the checked fields of a parse. Absent names fields that
// must be unset: category, brand, min_price, max_price, min_rating,
// min_reviews, asin.
type Expectation struct {
	Intent        *string   `yaml:"intent"`
	MinConfidence *float64  `yaml:"min_confidence"`
	Category      *string   `yaml:"category"`
	Brand         *string   `yaml:"brand"`
	MinPrice      *float64  `yaml:"min_price"`
	MaxPrice      *float64  `yaml:"max_price"`
	MinRating     *float64  `yaml:"min_rating"`
	MinReviews    *int      `yaml:"min_reviews"`
	SortBy        *string   `yaml:"sort_by"`
	SortOrder     *string   `yaml:"sort_order"`
	Bestseller    *bool     `yaml:"is_bestseller"`
	ASIN          *string   `yaml:"asin"`
	SearchTerms   *[]string `yaml:"search_terms"`
	ExcludesTerms []string  `yaml:"excludes_terms"`
	Absent        []string  `yaml:"absent"`
}

// Result is the outcome of one case.
type Result struct {
	Case     Case
	Parsed   *nlp.ParsedQuery
	Failures []string
}

// Passed reports whether every expectation held.
func (r Result) Passed() bool {
	return len(r.Failures) == 0
}

// Load decodes cases from r. Unknown keys are rejected so typos in
// expectation names do not silently skip checks.
func Load(r io.Reader) ([]Case, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode cases: %w", err)
	}
	for i, c := range f.Cases {
		if c.Name == "" {
			return nil, fmt.Errorf("case %d: name is required", i)
		}
		for _, field := range c.Expect.Absent {
			if !slices.Contains(absentFields, field) {
				return nil, fmt.Errorf("case %q: unknown absent field %q", c.Name, field)
			}
		}
	}
	return f.Cases, nil
}

// LoadFile reads cases from the YAML file at path.
func LoadFile(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cases: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Run parses every case query and checks it. A parser error fails the run.
func Run(p *nlp.Parser, cases []Case) ([]Result, error) {
	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		pq, err := p.Parse(c.Query)
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Name, err)
		}
		results = append(results, Result{Case: c, Parsed: pq, Failures: check(c.Expect, pq)})
	}
	return results, nil
}

// Summary counts passed and failed results.
func Summary(results []Result) (passed, failed int) {
	for _, r := range results {
		if r.Passed() {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

var absentFields = []string{"category", "brand", "min_price", "max_price", "min_rating", "min_reviews", "asin"}

func check(e Expectation, pq *nlp.ParsedQuery) []string {
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	if e.Intent != nil && string(pq.Intent) != *e.Intent {
		fail("intent = %s, want %s", pq.Intent, *e.Intent)
	}
	if e.MinConfidence != nil && pq.Confidence < *e.MinConfidence {
		fail("confidence = %.2f, want >= %.2f", pq.Confidence, *e.MinConfidence)
	}
	checkString(fail, "category", pq.Category, e.Category)
	checkString(fail, "brand", pq.Brand, e.Brand)
	checkFloat(fail, "min_price", pq.MinPrice, e.MinPrice)
	checkFloat(fail, "max_price", pq.MaxPrice, e.MaxPrice)
	checkFloat(fail, "min_rating", pq.MinRating, e.MinRating)
	if e.MinReviews != nil && (pq.MinReviews == nil || *pq.MinReviews != *e.MinReviews) {
		fail("min_reviews = %s, want %d", formatInt(pq.MinReviews), *e.MinReviews)
	}
	if e.SortBy != nil && string(pq.SortBy) != *e.SortBy {
		fail("sort_by = %q, want %q", pq.SortBy, *e.SortBy)
	}
	if e.SortOrder != nil && string(pq.SortOrder) != *e.SortOrder {
		fail("sort_order = %q, want %q", pq.SortOrder, *e.SortOrder)
	}
	if e.Bestseller != nil && pq.Bestseller != *e.Bestseller {
		fail("is_bestseller = %t, want %t", pq.Bestseller, *e.Bestseller)
	}
	if e.ASIN != nil && pq.ASIN != *e.ASIN {
		fail("asin = %q, want %q", pq.ASIN, *e.ASIN)
	}
	if e.SearchTerms != nil && !slices.Equal(pq.SearchTerms, *e.SearchTerms) {
		fail("search_terms = %q, want %q", pq.SearchTerms, *e.SearchTerms)
	}
	for _, term := range e.ExcludesTerms {
		if slices.Contains(pq.SearchTerms, term) {
			fail("search_terms %q must not contain %q", pq.SearchTerms, term)
		}
	}
	for _, field := range e.Absent {
		if isSet(pq, field) {
			fail("%s must be absent", field)
		}
	}
	return failures
}

func checkString(fail func(string, ...any), name string, got, want *string) {
	if want == nil {
		return
	}
	if got == nil || *got != *want {
		g := "<nil>"
		if got != nil {
			g = *got
		}
		fail("%s = %q, want %q", name, g, *want)
	}
}

func checkFloat(fail func(string, ...any), name string, got, want *float64) {
	if want == nil {
		return
	}
	if got == nil || *got != *want {
		g := "<nil>"
		if got != nil {
			g = fmt.Sprintf("%g", *got)
		}
		fail("%s = %s, want %g", name, g, *want)
	}
}

func formatInt(v *int) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%d", *v)
}

func isSet(pq *nlp.ParsedQuery, field string) bool {
	switch field {
	case "category":
		return pq.Category != nil
	case "brand":
		return pq.Brand != nil
	case "min_price":
		return pq.MinPrice != nil
	case "max_price":
		return pq.MaxPrice != nil
	case "min_rating":
		return pq.MinRating != nil
	case "min_reviews":
		return pq.MinReviews != nil
	case "asin":
		return pq.ASIN != ""
	}
	return false
}
