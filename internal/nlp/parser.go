package nlp

import (
	"fmt"

	apperrors "github.com/mouadelabbassi/dashboard/pkg/errors"
)

// Parser turns free-text shopping queries into ParsedQuery values. It holds
// no mutable state and is safe for concurrent use.
type Parser struct {
	lib        *Library
	classifier *Classifier
}

// Option configures a Parser.
type Option func(*parserOptions)

type parserOptions struct {
	normalizer float64
}

// WithConfidenceNormalizer sets the K used to turn keyword hits into a
// confidence. The default is DefaultConfidenceNormalizer.
func WithConfidenceNormalizer(k float64) Option {
	return func(o *parserOptions) {
		o.normalizer = k
	}
}

// NewParser creates a parser over lib.
func NewParser(lib *Library, opts ...Option) *Parser {
	o := parserOptions{normalizer: DefaultConfidenceNormalizer}
	for _, opt := range opts {
		opt(&o)
	}
	return &Parser{
		lib:        lib,
		classifier: NewClassifier(lib, o.normalizer),
	}
}

// Library returns the pattern tables the parser reads.
func (p *Parser) Library() *Library {
	return p.lib
}

// Parse analyses query. Unmatched input never fails: it yields a
// product_search parse with empty search terms. An error is returned only
// when the parser itself breaks, and is an internal error.
func (p *Parser) Parse(query string) (parsed *ParsedQuery, err error) {
	defer func() {
		if r := recover(); r != nil {
			parsed = nil
			err = apperrors.Internal(fmt.Errorf("parse query %q: %v", query, r))
		}
	}()

	normalized := Normalize(query)

	if asin := DetectASIN(query); asin != "" {
		return &ParsedQuery{
			Original:    query,
			Normalized:  normalized,
			Intent:      IntentProductSearch,
			Confidence:  1.0,
			Keywords:    []string{asin},
			SearchTerms: []string{},
			ASIN:        asin,
		}, nil
	}

	price := p.lib.ExtractPrice(normalized)
	minRating := p.lib.ExtractRating(normalized)
	minReviews := p.lib.ExtractReviews(normalized)
	category := p.lib.ExtractCategory(normalized)
	brand := p.lib.ExtractBrand(normalized)
	bestseller := p.lib.IsBestseller(normalized)

	intent, confidence := p.classifier.Classify(normalized, minReviews)
	sortBy, sortOrder := p.lib.ExtractSort(normalized, intent)

	return &ParsedQuery{
		Original:    query,
		Normalized:  normalized,
		Intent:      intent,
		Confidence:  confidence,
		Keywords:    p.lib.Keywords(normalized),
		SearchTerms: p.lib.IsolateTerms(normalized),
		Category:    category,
		Brand:       brand,
		MinPrice:    price.Min,
		MaxPrice:    price.Max,
		MinRating:   minRating,
		MinReviews:  minReviews,
		SortBy:      sortBy,
		SortOrder:   sortOrder,
		Bestseller:  bestseller,
	}, nil
}
