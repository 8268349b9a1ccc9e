package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/mouadelabbassi/dashboard/internal/domain"
	"github.com/mouadelabbassi/dashboard/internal/nlp"
	"github.com/mouadelabbassi/dashboard/internal/store"
	"github.com/mouadelabbassi/dashboard/pkg/database"
)

// Store implements store.ProductStore on PostgreSQL.
type Store struct {
	pool database.DBTX
}

var _ store.ProductStore = (*Store)(nil)

// New creates a PostgreSQL-backed product store.
func New(pool database.DBTX) *Store {
	return &Store{pool: pool}
}

// sortColumns is the ORDER BY whitelist. Sort fields never reach SQL text
// except through this map.
var sortColumns = map[nlp.SortField]string{
	nlp.SortPrice:        "p.price",
	nlp.SortRating:       "p.rating",
	nlp.SortReviewsCount: "p.reviews_count",
	nlp.SortSalesCount:   "p.sales_count",
	nlp.SortCreatedAt:    "p.created_at",
	nlp.SortRanking:      "p.ranking",
}

const selectColumns = `p.asin, p.product_name, p.price, p.rating, p.reviews_count, COALESCE(c.name, ''),
		p.image_url, p.seller_name, p.stock_quantity, p.is_bestseller, p.sales_count, p.ranking,
		p.approval_status, p.created_at`

// queryBuilder accumulates WHERE conditions and positional arguments.
type queryBuilder struct {
	conditions []string
	args       []any
}

func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) where(format string, v any) {
	b.conditions = append(b.conditions, fmt.Sprintf(format, b.arg(v)))
}

// likePattern lowercases s and escapes LIKE wildcards.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

// buildSearchQuery renders the filter as one SELECT with the total count in
// a window column.
func buildSearchQuery(f *domain.ProductFilter) (string, []any) {
	var b queryBuilder
	b.where("p.approval_status = %s", domain.ApprovalApproved)

	if f.ASIN != nil {
		b.where("UPPER(p.asin) = %s", strings.ToUpper(*f.ASIN))
	} else {
		if len(f.SearchTerms) > 0 {
			ors := make([]string, 0, len(f.SearchTerms))
			for _, term := range f.SearchTerms {
				ors = append(ors, "LOWER(p.product_name) LIKE "+b.arg(likePattern(term)))
			}
			b.conditions = append(b.conditions, "("+strings.Join(ors, " OR ")+")")
		}
		if f.Category != nil {
			b.where("LOWER(c.name) LIKE %s", likePattern(*f.Category))
		}
		if f.Brand != nil {
			b.where("LOWER(p.product_name) LIKE %s", likePattern(*f.Brand))
		}
		if f.MinPrice != nil {
			b.where("p.price >= %s", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			b.where("p.price <= %s", *f.MaxPrice)
		}
		if f.MinRating != nil {
			b.where("p.rating >= %s", *f.MinRating)
		}
		if f.MinReviews != nil {
			b.where("p.reviews_count >= %s", *f.MinReviews)
		}
		if f.IsBestseller != nil {
			b.where("p.is_bestseller = %s", *f.IsBestseller)
		}
	}

	column, ok := sortColumns[f.SortBy]
	by := f.SortBy
	if !ok {
		by, column = nlp.SortRanking, sortColumns[nlp.SortRanking]
	}
	direction := "ASC"
	order := f.SortOrder
	if order != nlp.OrderAsc && order != nlp.OrderDesc {
		order = by.DefaultOrder()
	}
	if order == nlp.OrderDesc {
		direction = "DESC"
	}

	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	limitArg := b.arg(store.ClampLimit(f.Limit))
	offsetArg := b.arg(offset)

	query := fmt.Sprintf(`
		SELECT %s,
			   COUNT(*) OVER() AS total_count
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE %s
		ORDER BY %s %s NULLS LAST, p.asin ASC
		LIMIT %s OFFSET %s`,
		selectColumns, strings.Join(b.conditions, " AND "), column, direction, limitArg, offsetArg,
	)
	return query, b.args
}

// Search returns one page of approved products matching the filter. When
// the offset is past the last match the total is reported as zero.
func (s *Store) Search(ctx context.Context, filter *domain.ProductFilter) (_ *domain.SearchPage, err error) {
	query, args := buildSearchQuery(filter)

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "SearchProducts", query)
	defer func() { end(err) }()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	var (
		products = []domain.Product{}
		total    int
	)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ASIN,
			&p.Name,
			&p.Price,
			&p.Rating,
			&p.ReviewsCount,
			&p.CategoryName,
			&p.ImageURL,
			&p.SellerName,
			&p.StockQuantity,
			&p.IsBestseller,
			&p.SalesCount,
			&p.Ranking,
			&p.ApprovalStatus,
			&p.CreatedAt,
			&total,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return &domain.SearchPage{Products: products, Total: total}, nil
}

const suggestQuery = `
		SELECT p.product_name
		FROM products p
		WHERE p.approval_status = $1
		  AND (LOWER(p.product_name) LIKE $2 OR LOWER(p.product_name) LIKE $3)
		GROUP BY p.product_name
		ORDER BY MAX(p.sales_count) DESC, p.product_name ASC
		LIMIT $4`

// SuggestNames returns product names with a word starting with prefix.
func (s *Store) SuggestNames(ctx context.Context, prefix string, limit int) (_ []string, err error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" || limit < 1 {
		return []string{}, nil
	}
	starts := strings.TrimSuffix(likePattern(prefix), "%")[1:] + "%"

	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "SuggestProductNames", suggestQuery)
	defer func() { end(err) }()

	rows, err := s.pool.Query(ctx, suggestQuery, domain.ApprovalApproved, starts, "% "+starts, limit)
	if err != nil {
		return nil, fmt.Errorf("suggest product names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan product name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product names: %w", err)
	}
	return names, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
