package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mouadelabbassi/dashboard/internal/domain"
	"github.com/mouadelabbassi/dashboard/internal/event"
	"github.com/mouadelabbassi/dashboard/internal/nlp"
	"github.com/mouadelabbassi/dashboard/internal/store"
	apperrors "github.com/mouadelabbassi/dashboard/pkg/errors"
	"github.com/mouadelabbassi/dashboard/pkg/logger"
	"github.com/mouadelabbassi/dashboard/pkg/pagination"
)

// Parser turns free text into a ParsedQuery. *nlp.Parser implements it.
type Parser interface {
	Parse(query string) (*nlp.ParsedQuery, error)
}

// Reranker reorders a result page by semantic similarity. It reports false
// when it left the page as is.
type Reranker interface {
	Rerank(ctx context.Context, query string, products []domain.Product) ([]domain.Product, bool, error)
}

// History records searches and serves trending and recent queries.
type History interface {
	Record(ctx context.Context, userID, normalized string) error
	Trending(ctx context.Context, limit int) ([]domain.TrendingQuery, error)
	Recent(ctx context.Context, userID string, limit int) ([]string, error)
}

// SearchEventPublisher publishes completed searches.
type SearchEventPublisher interface {
	SearchPerformed(ctx context.Context, data event.SearchPerformed, correlationID string) error
}

// Page size bounds used when the service is built without explicit ones.
const (
	DefaultPageSize = store.DefaultLimit
	MaxPageSize     = store.MaxLimit

	maxSuggestions = 5
	trendingScan   = 50
)

// Option configures optional SmartSearch collaborators.
type Option func(*SmartSearch)

// WithReranker enables semantic re-ranking of ranking-sorted pages.
func WithReranker(r Reranker) Option {
	return func(s *SmartSearch) { s.reranker = r }
}

// WithHistory enables search history and trending queries.
func WithHistory(h History) Option {
	return func(s *SmartSearch) { s.history = h }
}

// WithEvents enables search.performed events.
func WithEvents(p SearchEventPublisher) Option {
	return func(s *SmartSearch) { s.events = p }
}

// WithPageSizes overrides the default and maximum page sizes.
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(s *SmartSearch) {
		s.defaultSize = defaultSize
		s.maxSize = maxSize
	}
}

// SmartSearch runs natural-language product searches.
type SmartSearch struct {
	parser   Parser
	store    store.ProductStore
	reranker Reranker
	history  History
	events   SearchEventPublisher
	logger   *slog.Logger

	defaultSize int
	maxSize     int
}

// NewSmartSearch creates the search service.
func NewSmartSearch(parser Parser, products store.ProductStore, logger *slog.Logger, opts ...Option) *SmartSearch {
	s := &SmartSearch{
		parser:      parser,
		store:       products,
		logger:      logger,
		defaultSize: DefaultPageSize,
		maxSize:     MaxPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SmartSearchInput holds the parameters of a search. Page is 0-based.
type SmartSearchInput struct {
	Query  string
	Page   int
	Size   int
	UserID string
}

// Search parses the query, runs it against the product store and decorates
// the page with suggestions. History and events are best effort: their
// failures are logged and never fail the search.
func (s *SmartSearch) Search(ctx context.Context, in SmartSearchInput) (*domain.SmartSearchResult, error) {
	start := time.Now()

	pg := pagination.New(in.Page, in.Size, s.defaultSize, s.maxSize)

	pq, err := s.parse(in.Query)
	if err != nil {
		return nil, err
	}

	filter := domain.FilterFromQuery(pq, pg.Size, pg.Offset())
	found, err := s.store.Search(ctx, filter)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Timeout("product search")
		}
		return nil, fmt.Errorf("search products: %w", err)
	}

	products := found.Products
	if products == nil {
		products = []domain.Product{}
	}
	reranked := false
	if s.reranker != nil && filter.SortBy == nlp.SortRanking && !pq.IsASINLookup() {
		products, reranked = s.rerank(ctx, pq, products)
	}

	result := &domain.SmartSearchResult{
		Query:          pq,
		Products:       products,
		Total:          found.Total,
		Page:           pg.Page,
		Size:           pg.Size,
		TotalPages:     pagination.TotalPages(found.Total, pg.Size),
		Suggestions:    Suggestions(pq),
		FiltersApplied: FiltersApplied(pq),
		Reranked:       reranked,
		TookMs:         time.Since(start).Milliseconds(),
	}

	s.record(ctx, in, result)

	s.logger.InfoContext(ctx, "smart search",
		slog.String("intent", string(pq.Intent)),
		slog.Float64("confidence", pq.Confidence),
		slog.Int("results", len(products)),
		slog.Int("total", found.Total),
		slog.Int64("took_ms", result.TookMs),
	)
	return result, nil
}

// Analyze parses query without searching.
func (s *SmartSearch) Analyze(_ context.Context, query string) (*nlp.ParsedQuery, error) {
	return s.parse(query)
}

func (s *SmartSearch) parse(query string) (*nlp.ParsedQuery, error) {
	start := time.Now()
	pq, err := s.parser.Parse(query)
	parseDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	parseTotal.WithLabelValues(string(pq.Intent)).Inc()
	return pq, nil
}

func (s *SmartSearch) rerank(ctx context.Context, pq *nlp.ParsedQuery, products []domain.Product) ([]domain.Product, bool) {
	text := strings.Join(pq.SearchTerms, " ")
	if text == "" {
		text = pq.Normalized
	}
	out, ok, err := s.reranker.Rerank(ctx, text, products)
	switch {
	case err != nil:
		rerankTotal.WithLabelValues("failed").Inc()
		s.logger.WarnContext(ctx, "semantic re-rank failed, keeping store order",
			slog.String("error", err.Error()),
		)
		return products, false
	case !ok:
		rerankTotal.WithLabelValues("skipped").Inc()
		return products, false
	}
	rerankTotal.WithLabelValues("applied").Inc()
	return out, true
}

func (s *SmartSearch) record(ctx context.Context, in SmartSearchInput, result *domain.SmartSearchResult) {
	pq := result.Query
	if s.history != nil && pq.Normalized != "" {
		if err := s.history.Record(ctx, in.UserID, pq.Normalized); err != nil {
			s.logger.WarnContext(ctx, "failed to record search history",
				slog.String("error", err.Error()),
			)
		}
	}
	if s.events != nil {
		data := event.SearchPerformed{
			Query:        pq.Original,
			Normalized:   pq.Normalized,
			Intent:       string(pq.Intent),
			Confidence:   pq.Confidence,
			ResultsCount: len(result.Products),
			TookMs:       result.TookMs,
			UserID:       in.UserID,
		}
		if err := s.events.SearchPerformed(ctx, data, logger.CorrelationIDFromContext(ctx)); err != nil {
			s.logger.WarnContext(ctx, "failed to publish search event",
				slog.String("error", err.Error()),
			)
		}
	}
}

// Suggestions proposes refinements of a parsed query. The base is the
// joined search terms, or the first word of the normalized query, and must
// be longer than two characters.
func Suggestions(pq *nlp.ParsedQuery) []string {
	base := strings.Join(pq.SearchTerms, " ")
	if base == "" {
		if words := strings.Fields(pq.Normalized); len(words) > 0 {
			base = words[0]
		}
	}
	out := make([]string, 0, maxSuggestions)
	if utf8.RuneCountInString(base) <= 2 {
		return out
	}
	if pq.MaxPrice == nil {
		out = append(out, base+" pas cher")
	}
	if pq.MinRating == nil {
		out = append(out, base+" bien noté")
	}
	if pq.MinReviews == nil {
		out = append(out, base+" +1000 avis")
	}
	out = append(out, base+" meilleur prix", "meilleur "+base)
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// FiltersApplied describes the active filters of a parsed query in display
// order.
func FiltersApplied(pq *nlp.ParsedQuery) []string {
	out := []string{}
	if pq.IsASINLookup() {
		return append(out, "asin: "+pq.ASIN)
	}
	if pq.Category != nil {
		out = append(out, "category: "+*pq.Category)
	}
	if pq.Brand != nil {
		out = append(out, "brand: "+*pq.Brand)
	}
	switch {
	case pq.MinPrice != nil && pq.MaxPrice != nil:
		out = append(out, fmt.Sprintf("price: %s - %s", formatNumber(*pq.MinPrice), formatNumber(*pq.MaxPrice)))
	case pq.MinPrice != nil:
		out = append(out, "price >= "+formatNumber(*pq.MinPrice))
	case pq.MaxPrice != nil:
		out = append(out, "price <= "+formatNumber(*pq.MaxPrice))
	}
	if pq.MinRating != nil {
		out = append(out, "rating >= "+formatNumber(*pq.MinRating))
	}
	if pq.MinReviews != nil {
		out = append(out, "reviews >= "+strconv.Itoa(*pq.MinReviews))
	}
	if pq.Bestseller {
		out = append(out, "bestseller")
	}
	if pq.SortBy != "" {
		out = append(out, fmt.Sprintf("sort: %s %s", pq.SortBy, pq.SortOrder))
	}
	return out
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
