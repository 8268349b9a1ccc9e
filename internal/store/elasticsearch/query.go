package elasticsearch

import (
	"github.com/mouadelabbassi/dashboard/internal/domain"
	"github.com/mouadelabbassi/dashboard/internal/nlp"
	"github.com/mouadelabbassi/dashboard/internal/store"
)

// sortFields maps parsed sort fields to document fields.
var sortFields = map[nlp.SortField]string{
	nlp.SortPrice:        "price",
	nlp.SortRating:       "rating",
	nlp.SortReviewsCount: "reviews_count",
	nlp.SortSalesCount:   "sales_count",
	nlp.SortCreatedAt:    "created_at",
	nlp.SortRanking:      "ranking",
}

// buildSearchQuery constructs the query DSL for a product filter. Terms are
// optional should clauses of which one must match; every other condition is
// a non-scoring filter.
func buildSearchQuery(f *domain.ProductFilter) map[string]interface{} {
	filters := buildFilters(f)

	boolQuery := map[string]interface{}{
		"filter": filters,
	}
	if f.ASIN == nil && len(f.SearchTerms) > 0 {
		should := make([]interface{}, 0, 2*len(f.SearchTerms))
		for _, term := range f.SearchTerms {
			should = append(should,
				map[string]interface{}{"match": map[string]interface{}{"product_name": term}},
				map[string]interface{}{"match": map[string]interface{}{"product_name.en": term}},
			)
		}
		boolQuery["should"] = should
		boolQuery["minimum_should_match"] = 1
	}

	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	return map[string]interface{}{
		"query":            map[string]interface{}{"bool": boolQuery},
		"from":             offset,
		"size":             store.ClampLimit(f.Limit),
		"track_total_hits": true,
		"sort":             buildSort(f.SortBy, f.SortOrder),
	}
}

func buildFilters(f *domain.ProductFilter) []interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"approval_status": domain.ApprovalApproved}},
	}
	if f.ASIN != nil {
		return append(filters, map[string]interface{}{
			"term": map[string]interface{}{"asin": *f.ASIN},
		})
	}

	if f.Category != nil {
		filters = append(filters, map[string]interface{}{
			"match": map[string]interface{}{
				"category_name": map[string]interface{}{"query": *f.Category, "operator": "and"},
			},
		})
	}
	if f.Brand != nil {
		filters = append(filters, map[string]interface{}{
			"match": map[string]interface{}{"product_name": *f.Brand},
		})
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		r := map[string]interface{}{}
		if f.MinPrice != nil {
			r["gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			r["lte"] = *f.MaxPrice
		}
		filters = append(filters, map[string]interface{}{"range": map[string]interface{}{"price": r}})
	}
	if f.MinRating != nil {
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{"rating": map[string]interface{}{"gte": *f.MinRating}},
		})
	}
	if f.MinReviews != nil {
		filters = append(filters, map[string]interface{}{
			"range": map[string]interface{}{"reviews_count": map[string]interface{}{"gte": *f.MinReviews}},
		})
	}
	if f.IsBestseller != nil {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"is_bestseller": *f.IsBestseller},
		})
	}
	return filters
}

// buildSort orders by the mapped field with missing values last and breaks
// ties on the ASIN so pages are stable.
func buildSort(by nlp.SortField, order nlp.SortOrder) []interface{} {
	field, ok := sortFields[by]
	if !ok {
		by, field = nlp.SortRanking, sortFields[nlp.SortRanking]
	}
	if order != nlp.OrderAsc && order != nlp.OrderDesc {
		order = by.DefaultOrder()
	}
	return []interface{}{
		map[string]interface{}{field: map[string]interface{}{"order": string(order), "missing": "_last"}},
		map[string]interface{}{"asin": "asc"},
	}
}
