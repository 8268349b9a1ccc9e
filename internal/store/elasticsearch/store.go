package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/mouadelabbassi/dashboard/internal/domain"
	"github.com/mouadelabbassi/dashboard/internal/store"
	"github.com/mouadelabbassi/dashboard/pkg/database"
)

// Store is an Elasticsearch-backed implementation of store.ProductStore.
type Store struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

var _ store.ProductStore = (*Store)(nil)

// document is the indexed form of a product. Unlike the API form it carries
// the approval status.
type document struct {
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
	ApprovalStatus string    `json:"approval_status"`
	CreatedAt      time.Time `json:"created_at"`
}

func toDocument(p domain.Product) document {
	return document{
		ASIN: p.ASIN, Name: p.Name, Price: p.Price, Rating: p.Rating, ReviewsCount: p.ReviewsCount,
		CategoryName: p.CategoryName, ImageURL: p.ImageURL, SellerName: p.SellerName,
		StockQuantity: p.StockQuantity, IsBestseller: p.IsBestseller, SalesCount: p.SalesCount,
		Ranking: p.Ranking, ApprovalStatus: p.ApprovalStatus, CreatedAt: p.CreatedAt,
	}
}

func (d document) product() domain.Product {
	return domain.Product{
		ASIN: d.ASIN, Name: d.Name, Price: d.Price, Rating: d.Rating, ReviewsCount: d.ReviewsCount,
		CategoryName: d.CategoryName, ImageURL: d.ImageURL, SellerName: d.SellerName,
		StockQuantity: d.StockQuantity, IsBestseller: d.IsBestseller, SalesCount: d.SalesCount,
		Ranking: d.Ranking, ApprovalStatus: d.ApprovalStatus, CreatedAt: d.CreatedAt,
	}
}

type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID    string `json:"_id"`
			Error struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// New creates a store connected to esURL and makes sure the products index
// exists. If indexName is empty, DefaultIndexName is used.
func New(ctx context.Context, esURL, indexName string, logger *slog.Logger) (*Store, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{esURL}})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}

	s := &Store{client: client, indexName: indexName, logger: logger}
	if err := s.ensureIndex(ctx); err != nil {
		return nil, fmt.Errorf("elasticsearch: ensure index: %w", err)
	}
	return s, nil
}

// Ping checks whether the cluster is reachable.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

func (s *Store) ensureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.indexName}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	_ = res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = s.client.Indices.Create(
		s.indexName,
		s.client.Indices.Create.WithBody(strings.NewReader(buildIndexMapping())),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if err := responseError("create index", res); err != nil {
		return err
	}

	s.logger.Info("elasticsearch index created", slog.String("index", s.indexName))
	return nil
}

// Search runs the filter as a bool query.
func (s *Store) Search(ctx context.Context, filter *domain.ProductFilter) (_ *domain.SearchPage, err error) {
	data, err := json.Marshal(buildSearchQuery(filter))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	ctx, end := database.TraceQuery(ctx, database.SystemElasticsearch, "SearchProducts", string(data))
	defer func() { end(err) }()

	res, err := s.client.Search(
		s.client.Search.WithIndex(s.indexName),
		s.client.Search.WithBody(bytes.NewReader(data)),
		s.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if err := responseError("elasticsearch search", res); err != nil {
		return nil, err
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}

	products := make([]domain.Product, 0, len(esResp.Hits.Hits))
	for _, hit := range esResp.Hits.Hits {
		products = append(products, hit.Source.product())
	}
	return &domain.SearchPage{Products: products, Total: esResp.Hits.Total.Value}, nil
}

// Upsert adds or replaces products using the bulk NDJSON API. Products
// without an approval status are indexed as approved.
func (s *Store) Upsert(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range products {
		if p.ApprovalStatus == "" {
			p.ApprovalStatus = domain.ApprovalApproved
		}
		action := map[string]interface{}{
			"index": map[string]interface{}{"_index": s.indexName, "_id": p.ASIN},
		}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode action: %w", err)
		}
		if err := enc.Encode(toDocument(p)); err != nil {
			return fmt.Errorf("elasticsearch bulk index: encode document: %w", err)
		}
	}

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithIndex(s.indexName),
		s.client.Bulk.WithRefresh("true"),
		s.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if err := responseError("elasticsearch bulk index", res); err != nil {
		return err
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("elasticsearch bulk index: decode response: %w", err)
	}
	if bulkResp.Errors {
		var msgs []string
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type != "" {
				msgs = append(msgs, fmt.Sprintf("asin=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("elasticsearch bulk index: partial errors: %s", strings.Join(msgs, "; "))
	}

	s.logger.Info("bulk indexed products", slog.Int("count", len(products)))
	return nil
}

// Delete removes one product document. A missing document is not an error.
func (s *Store) Delete(ctx context.Context, asin string) error {
	res, err := s.client.Delete(
		s.indexName,
		asin,
		s.client.Delete.WithRefresh("true"),
		s.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode == 404 {
		return nil
	}
	return responseError("elasticsearch delete", res)
}

// DeleteIndex removes the whole index. A missing index is not an error.
func (s *Store) DeleteIndex(ctx context.Context) error {
	res, err := s.client.Indices.Delete([]string{s.indexName}, s.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch delete index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode == 404 {
		return nil
	}
	return responseError("elasticsearch delete index", res)
}

func responseError(op string, res *esapi.Response) error {
	if !res.IsError() {
		return nil
	}
	body, _ := io.ReadAll(res.Body)
	var errResp esErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", op, res.Status())
}
