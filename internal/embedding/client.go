// Package embedding re-orders a page of search results by semantic
// similarity to the query, using a remote embedding service. The service is
// optional: callers branch on Available and keep the store order otherwise.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mouadelabbassi/dashboard/internal/domain"
	"github.com/mouadelabbassi/dashboard/pkg/httpclient"
)

// DefaultAvailabilityTTL is how long a health check result is reused.
const DefaultAvailabilityTTL = 30 * time.Second

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

type healthResponse struct {
	Status              string `json:"status"`
	EmbeddingsAvailable bool   `json:"embeddings_available"`
}

// Client talks to the embedding service through a circuit breaker.
type Client struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	checks    singleflight.Group
	mu        sync.Mutex
	checkedAt time.Time
	available bool
}

// NewClient creates an embedding client for baseURL. An empty baseURL yields
// a client that is never available.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	cfg := httpclient.DefaultConfig()
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	cb := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig("embedding"),
		logger,
	)
	return &Client{
		http:    cb,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     DefaultAvailabilityTTL,
		logger:  logger,
		now:     time.Now,
	}
}

// Available reports whether re-ranking can be attempted: the service is
// configured, the breaker is not open, and a recent health check passed.
// Concurrent callers with a stale result share one health request.
func (c *Client) Available(ctx context.Context) bool {
	if c.baseURL == "" || c.http.Open() {
		return false
	}
	if available, fresh := c.cached(); fresh {
		return available
	}

	v, _, _ := c.checks.Do("health", func() (any, error) {
		return c.checkHealth(context.WithoutCancel(ctx)), nil
	})
	return v.(bool)
}

func (c *Client) cached() (available, fresh bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checkedAt.IsZero() || c.now().Sub(c.checkedAt) >= c.ttl {
		return false, false
	}
	return c.available, true
}

// checkHealth queries the service without holding mu and stores the result.
func (c *Client) checkHealth(ctx context.Context) bool {
	var health healthResponse
	err := c.http.GetJSON(ctx, c.baseURL+"/health", &health)
	if err != nil {
		c.logger.WarnContext(ctx, "embedding service health check failed", slog.String("error", err.Error()))
	}
	available := err == nil && health.EmbeddingsAvailable

	c.mu.Lock()
	c.available = available
	c.checkedAt = c.now()
	c.mu.Unlock()
	return available
}

// Embed returns one vector per text.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	var resp embedResponse
	if err := c.http.PostJSON(ctx, c.baseURL+"/embed", embedRequest{Texts: texts}, &resp); err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed %d texts: got %d vectors", len(texts), len(resp.Embeddings))
	}
	return resp.Embeddings, nil
}

// Rerank orders products by cosine similarity of their names to query and
// records the score on each product. It reports false, with products
// untouched, when the service is unavailable or there is nothing to order.
func (c *Client) Rerank(ctx context.Context, query string, products []domain.Product) ([]domain.Product, bool, error) {
	if len(products) < 2 || strings.TrimSpace(query) == "" || !c.Available(ctx) {
		return products, false, nil
	}

	texts := make([]string, 0, len(products)+1)
	texts = append(texts, query)
	for _, p := range products {
		texts = append(texts, p.Name)
	}
	vectors, err := c.Embed(ctx, texts)
	if err != nil {
		return products, false, err
	}

	out := make([]domain.Product, len(products))
	copy(out, products)
	for i := range out {
		score := Cosine(vectors[0], vectors[i+1])
		out[i].RelevanceScore = &score
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].RelevanceScore > *out[j].RelevanceScore
	})
	return out, true, nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or their lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
