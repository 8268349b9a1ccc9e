package store

import (
	"context"

	"github.com/mouadelabbassi/dashboard/internal/domain"
)

// ProductStore is the catalogue a parsed query is executed against.
// Implementations may use PostgreSQL, Elasticsearch, or in-memory storage.
type ProductStore interface {
	// Search returns one page of approved products matching the filter
	// together with the total number of matches.
	Search(ctx context.Context, filter *domain.ProductFilter) (*domain.SearchPage, error)

	// SuggestNames returns up to limit distinct product names with a word
	// starting with prefix, best sellers first.
	SuggestNames(ctx context.Context, prefix string, limit int) ([]string, error)

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}

// Page size bounds shared by every store.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ClampLimit applies the page size bounds to a requested limit.
func ClampLimit(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
