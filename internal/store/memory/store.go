package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	porterstemmer "github.com/reiver/go-porterstemmer"

	"github.com/mouadelabbassi/dashboard/internal/domain"
	"github.com/mouadelabbassi/dashboard/internal/nlp"
	"github.com/mouadelabbassi/dashboard/internal/store"
)

// Store is an in-memory implementation of store.ProductStore. Name matching
// is substring based, widened with English stemming so "laptops" finds
// "Laptop". Thread-safe via sync.RWMutex.
type Store struct {
	mu       sync.RWMutex
	products map[string]entry
	seq      int
}

type entry struct {
	product domain.Product
	seq     int
	stems   map[string]struct{}
}

var _ store.ProductStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{products: make(map[string]entry)}
}

// Add inserts or replaces products keyed by ASIN. A replaced product keeps
// its original position in the default order.
func (s *Store) Add(products ...domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		key := strings.ToUpper(p.ASIN)
		e, ok := s.products[key]
		if !ok {
			s.seq++
			e.seq = s.seq
		}
		e.product = p
		e.stems = stems(p.Name)
		s.products[key] = e
	}
}

// Upsert adds or replaces products. Products without an approval status are
// stored as approved. The caller's slice is left untouched.
func (s *Store) Upsert(_ context.Context, products []domain.Product) error {
	stored := make([]domain.Product, len(products))
	copy(stored, products)
	for i := range stored {
		if stored[i].ApprovalStatus == "" {
			stored[i].ApprovalStatus = domain.ApprovalApproved
		}
	}
	s.Add(stored...)
	return nil
}

// Delete removes the product with the given ASIN if present.
func (s *Store) Delete(_ context.Context, asin string) error {
	s.mu.Lock()
	delete(s.products, strings.ToUpper(asin))
	s.mu.Unlock()
	return nil
}

// LoadJSON adds the products of a JSON array read from r.
func (s *Store) LoadJSON(r io.Reader) (int, error) {
	var products []domain.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return 0, fmt.Errorf("decode catalogue: %w", err)
	}
	if err := s.Upsert(context.Background(), products); err != nil {
		return 0, err
	}
	return len(products), nil
}

// Len returns the number of stored products.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// Search filters, sorts and pages the stored products.
func (s *Store) Search(_ context.Context, filter *domain.ProductFilter) (*domain.SearchPage, error) {
	s.mu.RLock()
	matched := make([]entry, 0)
	for _, e := range s.products {
		if matches(e, filter) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sortEntries(matched, filter.SortBy, filter.SortOrder)

	total := len(matched)
	limit := store.ClampLimit(filter.Limit)
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	products := make([]domain.Product, 0, end-offset)
	for _, e := range matched[offset:end] {
		products = append(products, e.product)
	}
	return &domain.SearchPage{Products: products, Total: total}, nil
}

// SuggestNames returns names with a word starting with prefix, best sellers
// first.
func (s *Store) SuggestNames(_ context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || limit < 1 {
		return []string{}, nil
	}

	s.mu.RLock()
	candidates := make([]entry, 0)
	for _, e := range s.products {
		if e.product.ApprovalStatus != domain.ApprovalApproved {
			continue
		}
		for _, w := range strings.Fields(strings.ToLower(e.product.Name)) {
			if strings.HasPrefix(w, prefix) {
				candidates = append(candidates, e)
				break
			}
		}
	}
	s.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i].product, candidates[j].product
		if a.SalesCount != b.SalesCount {
			return a.SalesCount > b.SalesCount
		}
		return candidates[i].seq < candidates[j].seq
	})

	names := make([]string, 0, limit)
	seen := make(map[string]struct{})
	for _, e := range candidates {
		if _, ok := seen[e.product.Name]; ok {
			continue
		}
		seen[e.product.Name] = struct{}{}
		names = append(names, e.product.Name)
		if len(names) == limit {
			break
		}
	}
	return names, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

func matches(e entry, f *domain.ProductFilter) bool {
	p := e.product
	if p.ApprovalStatus != domain.ApprovalApproved {
		return false
	}
	if f.ASIN != nil {
		return strings.EqualFold(p.ASIN, *f.ASIN)
	}

	name := strings.ToLower(p.Name)
	if len(f.SearchTerms) > 0 && !matchesAnyTerm(e, name, f.SearchTerms) {
		return false
	}
	if f.Category != nil && !strings.Contains(strings.ToLower(p.CategoryName), strings.ToLower(*f.Category)) {
		return false
	}
	if f.Brand != nil && !strings.Contains(name, strings.ToLower(*f.Brand)) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.MinRating != nil && (p.Rating == nil || *p.Rating < *f.MinRating) {
		return false
	}
	if f.MinReviews != nil && (p.ReviewsCount == nil || *p.ReviewsCount < *f.MinReviews) {
		return false
	}
	if f.IsBestseller != nil && p.IsBestseller != *f.IsBestseller {
		return false
	}
	return true
}

func matchesAnyTerm(e entry, name string, terms []string) bool {
	for _, term := range terms {
		t := strings.ToLower(term)
		if strings.Contains(name, t) {
			return true
		}
		if _, ok := e.stems[porterstemmer.StemString(t)]; ok {
			return true
		}
	}
	return false
}

func stems(name string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(name)) {
		out[porterstemmer.StemString(w)] = struct{}{}
	}
	return out
}

// sortEntries orders by the requested field with missing values last; ties
// keep insertion order.
func sortEntries(entries []entry, by nlp.SortField, order nlp.SortOrder) {
	if by == "" {
		by = nlp.SortRanking
	}
	if order == "" {
		order = by.DefaultOrder()
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})
	sort.SliceStable(entries, func(i, j int) bool {
		a, aok := sortValue(entries[i].product, by)
		b, bok := sortValue(entries[j].product, by)
		if aok != bok {
			return aok
		}
		if !aok || a == b {
			return false
		}
		if order == nlp.OrderAsc {
			return a < b
		}
		return a > b
	})
}

func sortValue(p domain.Product, by nlp.SortField) (float64, bool) {
	switch by {
	case nlp.SortPrice:
		return p.Price, true
	case nlp.SortRating:
		if p.Rating == nil {
			return 0, false
		}
		return *p.Rating, true
	case nlp.SortReviewsCount:
		if p.ReviewsCount == nil {
			return 0, false
		}
		return float64(*p.ReviewsCount), true
	case nlp.SortSalesCount:
		return float64(p.SalesCount), true
	case nlp.SortCreatedAt:
		if p.CreatedAt.IsZero() {
			return 0, false
		}
		return float64(p.CreatedAt.UnixNano()), true
	default:
		if p.Ranking == nil {
			return 0, false
		}
		return float64(*p.Ranking), true
	}
}
