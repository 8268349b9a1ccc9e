package nlp

// Intent is the coarse purpose of a shopping query.
type Intent string

// Intent values. Stored and logged as-is, so the strings must not change.
// The classifier produces product_search, price_filter, top_rated,
// best_value, new_arrivals, bestsellers and reviews_filter; the remaining
// values are accepted on input (e.g. golden files) but never emitted.
const (
	IntentProductSearch  Intent = "product_search"
	IntentPriceFilter    Intent = "price_filter"
	IntentCategorySearch Intent = "category_search"
	IntentTopRated       Intent = "top_rated"
	IntentBestValue      Intent = "best_value"
	IntentNewArrivals    Intent = "new_arrivals"
	IntentBestsellers    Intent = "bestsellers"
	IntentSellerProducts Intent = "seller_products"
	IntentLowStock       Intent = "low_stock"
	IntentComparison     Intent = "comparison"
	IntentBrandSearch    Intent = "brand_search"
	IntentReviewsFilter  Intent = "reviews_filter"
	IntentUnknown        Intent = "unknown"
)

// Valid reports whether i belongs to the closed intent set.
func (i Intent) Valid() bool {
	switch i {
	case IntentProductSearch, IntentPriceFilter, IntentCategorySearch, IntentTopRated,
		IntentBestValue, IntentNewArrivals, IntentBestsellers, IntentSellerProducts,
		IntentLowStock, IntentComparison, IntentBrandSearch, IntentReviewsFilter, IntentUnknown:
		return true
	}
	return false
}

// SortField is a storage-layer sort column name.
type SortField string

const (
	SortPrice        SortField = "price"
	SortRating       SortField = "rating"
	SortSalesCount   SortField = "sales_count"
	SortReviewsCount SortField = "reviews_count"
	SortCreatedAt    SortField = "created_at"
	SortRanking      SortField = "ranking"
)

// Valid reports whether f is one of the known sort fields.
func (f SortField) Valid() bool {
	switch f {
	case SortPrice, SortRating, SortSalesCount, SortReviewsCount, SortCreatedAt, SortRanking:
		return true
	}
	return false
}

// DefaultOrder is the direction used when a caller names a field without
// a direction: ascending for price and ranking, descending otherwise.
func (f SortField) DefaultOrder() SortOrder {
	switch f {
	case SortPrice, SortRanking:
		return OrderAsc
	default:
		return OrderDesc
	}
}

// SortOrder is a sort direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Category values produced by the category extractor.
const (
	CategoryElectronics   = "Electronics"
	CategoryBooks         = "Books"
	CategoryClothing      = "Clothing"
	CategoryHomeKitchen   = "Home & Kitchen"
	CategoryToysGames     = "Toys & Games"
	CategorySportsOutdoor = "Sports & Outdoors"
	CategoryBeauty        = "Beauty"
)

// Categories lists the canonical categories in display order.
func Categories() []string {
	return []string{
		CategoryElectronics, CategoryBooks, CategoryClothing, CategoryHomeKitchen,
		CategoryToysGames, CategorySportsOutdoor, CategoryBeauty,
	}
}

// ParsedQuery is the structured form of a free-text shopping query. A value
// returned by Parser.Parse is never modified afterwards.
type ParsedQuery struct {
	Original    string    `json:"original"`
	Normalized  string    `json:"normalized"`
	Intent      Intent    `json:"intent"`
	Confidence  float64   `json:"confidence"`
	Keywords    []string  `json:"keywords"`
	SearchTerms []string  `json:"search_terms"`
	ASIN        string    `json:"asin,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Brand       *string   `json:"brand,omitempty"`
	MinPrice    *float64  `json:"min_price,omitempty"`
	MaxPrice    *float64  `json:"max_price,omitempty"`
	MinRating   *float64  `json:"min_rating,omitempty"`
	MinReviews  *int      `json:"min_reviews,omitempty"`
	SortBy      SortField `json:"sort_by,omitempty"`
	SortOrder   SortOrder `json:"sort_order,omitempty"`
	Bestseller  bool      `json:"is_bestseller"`
}

// IsASINLookup reports whether the query was recognised as a product
// identifier rather than free text.
func (q *ParsedQuery) IsASINLookup() bool {
	return q.ASIN != ""
}

// HasFilters reports whether any structured filter was extracted. A query
// without filters and without search terms browses the whole catalogue.
func (q *ParsedQuery) HasFilters() bool {
	return q.Category != nil || q.Brand != nil || q.MinPrice != nil || q.MaxPrice != nil ||
		q.MinRating != nil || q.MinReviews != nil || q.Bestseller || q.ASIN != ""
}

// PriceRange is the result of price extraction. At most one pattern family
// contributes, so normally only one bound is set.
type PriceRange struct {
	Min *float64
	Max *float64
}

func ptr[T any](v T) *T {
	return &v
}
