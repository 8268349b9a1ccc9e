package domain

import (
	"time"

	"github.com/mouadelabbassi/dashboard/internal/nlp"
)

// Product is a catalogue entry returned by smart search.
type Product struct {
	ASIN           string    `json:"asin"`
	Name           string    `json:"product_name"`
	Price          float64   `json:"price"`
	Rating         *float64  `json:"rating,omitempty"`
	ReviewsCount   *int      `json:"reviews_count,omitempty"`
	CategoryName   string    `json:"category_name"`
	ImageURL       string    `json:"image_url,omitempty"`
	SellerName     string    `json:"seller_name,omitempty"`
	StockQuantity  int       `json:"stock_quantity"`
	IsBestseller   bool      `json:"is_bestseller"`
	SalesCount     int       `json:"sales_count"`
	Ranking        *int      `json:"ranking,omitempty"`
	ApprovalStatus string    `json:"approval_status,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	RelevanceScore *float64  `json:"relevance_score,omitempty"`
}

// ApprovalApproved is the only approval status visible to search.
const ApprovalApproved = "APPROVED"

// ProductFilter is the parameter set a ProductStore searches with. A zero
// filter (no terms, no bounds) lists every approved product.
type ProductFilter struct {
	SearchTerms  []string      `json:"search_terms"`
	ASIN         *string       `json:"asin,omitempty"`
	Category     *string       `json:"category,omitempty"`
	Brand        *string       `json:"brand,omitempty"`
	MinPrice     *float64      `json:"min_price,omitempty"`
	MaxPrice     *float64      `json:"max_price,omitempty"`
	MinRating    *float64      `json:"min_rating,omitempty"`
	MinReviews   *int          `json:"min_reviews,omitempty"`
	IsBestseller *bool         `json:"is_bestseller,omitempty"`
	SortBy       nlp.SortField `json:"sort_by"`
	SortOrder    nlp.SortOrder `json:"sort_order"`
	Limit        int           `json:"limit"`
	Offset       int           `json:"offset"`
}

// FilterFromQuery translates a parse into a store filter. Identifier lookups
// only carry the ASIN; the bestseller flag is sent only when set.
func FilterFromQuery(pq *nlp.ParsedQuery, limit, offset int) *ProductFilter {
	f := &ProductFilter{
		SortBy:    pq.SortBy,
		SortOrder: pq.SortOrder,
		Limit:     limit,
		Offset:    offset,
	}
	if f.SortBy == "" {
		f.SortBy = nlp.SortRanking
	}
	if f.SortOrder == "" {
		f.SortOrder = f.SortBy.DefaultOrder()
	}
	if pq.IsASINLookup() {
		asin := pq.ASIN
		f.ASIN = &asin
		f.SearchTerms = []string{}
		return f
	}

	f.SearchTerms = append([]string{}, pq.SearchTerms...)
	f.Category = pq.Category
	f.Brand = pq.Brand
	f.MinPrice = pq.MinPrice
	f.MaxPrice = pq.MaxPrice
	f.MinRating = pq.MinRating
	f.MinReviews = pq.MinReviews
	if pq.Bestseller {
		t := true
		f.IsBestseller = &t
	}
	return f
}

// SearchPage is one page of store results.
type SearchPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// SmartSearchResult is the response of a natural-language search.
type SmartSearchResult struct {
	Query          *nlp.ParsedQuery `json:"query"`
	Products       []Product        `json:"products"`
	Total          int              `json:"total"`
	Page           int              `json:"page"`
	Size           int              `json:"size"`
	TotalPages     int              `json:"total_pages"`
	TookMs         int64            `json:"took_ms"`
	Suggestions    []string         `json:"suggestions"`
	FiltersApplied []string         `json:"filters_applied"`
	Reranked       bool             `json:"reranked"`
}

// SuggestResult is the autocomplete response.
type SuggestResult struct {
	Suggestions []string `json:"suggestions"`
	Trending    []string `json:"trending"`
}

// TrendingQuery is a popular normalized query and how often it was searched.
type TrendingQuery struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}
