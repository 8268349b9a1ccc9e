package embedding

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mouadelabbassi/dashboard/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeService embeds "casque" as [1,0], "livre" as [0,1], anything else as
// [1,1]. Texts containing both words map to [1,1] as well.
type fakeService struct {
	healthy     atomic.Bool
	healthCalls atomic.Int32
	embedCalls  atomic.Int32
	embedStatus int
}

func (f *fakeService) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		f.healthCalls.Add(1)
		_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", EmbeddingsAvailable: f.healthy.Load()})
	})
	mux.HandleFunc("/embed", func(w http.ResponseWriter, r *http.Request) {
		f.embedCalls.Add(1)
		if f.embedStatus != 0 {
			w.WriteHeader(f.embedStatus)
			return
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		resp := embedResponse{}
		for _, text := range req.Texts {
			switch text {
			case "casque", "Casque Sony":
				resp.Embeddings = append(resp.Embeddings, []float64{1, 0})
			case "Livre de poche":
				resp.Embeddings = append(resp.Embeddings, []float64{0, 1})
			default:
				resp.Embeddings = append(resp.Embeddings, []float64{1, 1})
			}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	return mux
}

func setup(t *testing.T) (*Client, *fakeService) {
	t.Helper()
	svc := &fakeService{}
	svc.healthy.Store(true)
	server := httptest.NewServer(svc.handler())
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", time.Second, testLogger()), svc
}

func products(names ...string) []domain.Product {
	out := make([]domain.Product, len(names))
	for i, n := range names {
		out[i] = domain.Product{ASIN: n, Name: n}
	}
	return out
}

func names(ps []domain.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestRerank_OrdersBySimilarity(t *testing.T) {
	c, _ := setup(t)
	in := products("Livre de poche", "Autre", "Casque Sony")

	out, reranked, err := c.Rerank(context.Background(), "casque", in)
	require.NoError(t, err)
	assert.True(t, reranked)
	assert.Equal(t, []string{"Casque Sony", "Autre", "Livre de poche"}, names(out))
	require.NotNil(t, out[0].RelevanceScore)
	assert.InDelta(t, 1.0, *out[0].RelevanceScore, 1e-9)
	assert.InDelta(t, 0.0, *out[2].RelevanceScore, 1e-9)

	assert.Nil(t, in[0].RelevanceScore, "input slice must not be modified")
}

func TestRerank_UnavailableKeepsOrder(t *testing.T) {
	c, svc := setup(t)
	svc.healthy.Store(false)
	in := products("Livre de poche", "Casque Sony")

	out, reranked, err := c.Rerank(context.Background(), "casque", in)
	require.NoError(t, err)
	assert.False(t, reranked)
	assert.Equal(t, in, out)
	assert.Equal(t, int32(0), svc.embedCalls.Load())
}

func TestRerank_NotConfigured(t *testing.T) {
	c := NewClient("", time.Second, testLogger())
	assert.False(t, c.Available(context.Background()))

	in := products("a", "b")
	out, reranked, err := c.Rerank(context.Background(), "casque", in)
	require.NoError(t, err)
	assert.False(t, reranked)
	assert.Equal(t, in, out)
}

func TestRerank_SkipsTrivialInput(t *testing.T) {
	c, svc := setup(t)

	_, reranked, err := c.Rerank(context.Background(), "casque", products("only"))
	require.NoError(t, err)
	assert.False(t, reranked)

	_, reranked, err = c.Rerank(context.Background(), "  ", products("a", "b"))
	require.NoError(t, err)
	assert.False(t, reranked)
	assert.Equal(t, int32(0), svc.healthCalls.Load())
}

func TestRerank_EmbedFailureReturnsInput(t *testing.T) {
	c, svc := setup(t)
	svc.embedStatus = http.StatusBadRequest
	in := products("Livre de poche", "Casque Sony")

	out, reranked, err := c.Rerank(context.Background(), "casque", in)
	require.Error(t, err)
	assert.False(t, reranked)
	assert.Equal(t, in, out)
}

func TestAvailable_CachesHealth(t *testing.T) {
	c, svc := setup(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, c.Available(ctx))
	assert.True(t, c.Available(ctx))
	assert.Equal(t, int32(1), svc.healthCalls.Load())

	svc.healthy.Store(false)
	now = now.Add(DefaultAvailabilityTTL)
	assert.False(t, c.Available(ctx))
	assert.Equal(t, int32(2), svc.healthCalls.Load())
}

func TestAvailable_ConcurrentCallersShareOneCheck(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", EmbeddingsAvailable: true})
	}))
	t.Cleanup(server.Close)
	c := NewClient(server.URL, 5*time.Second, testLogger())

	const callers = 8
	results := make([]bool, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Available(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	// mu is free while the health request is in flight.
	available, fresh := c.cached()
	assert.False(t, available)
	assert.False(t, fresh)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, ok := range results {
		assert.True(t, ok)
	}
}

func TestAvailable_ServiceDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(url, 100*time.Millisecond, testLogger())
	assert.False(t, c.Available(context.Background()))
}

func TestEmbed_LengthMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1,0]]}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, time.Second, testLogger()).Embed(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 vectors")
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float64{0, 0}, []float64{1, 1}))
	assert.Equal(t, 0.0, Cosine([]float64{1}, []float64{1, 1}))
	assert.Equal(t, 0.0, Cosine(nil, nil))
}
