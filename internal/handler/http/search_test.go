package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mouadelabbassi/dashboard/internal/history"
	"github.com/mouadelabbassi/dashboard/internal/nlp"
	"github.com/mouadelabbassi/dashboard/internal/service"
	"github.com/mouadelabbassi/dashboard/internal/store/memory"
	"github.com/mouadelabbassi/dashboard/pkg/health"
)

type response struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code      string            `json:"code"`
		Message   string            `json:"message"`
		Fields    map[string]string `json:"fields"`
		RequestID string            `json:"request_id"`
	} `json:"error"`
}

type testServer struct {
	router http.Handler
	redis  *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f, err := os.Open("../../store/memory/testdata/catalog.json")
	require.NoError(t, err)
	defer f.Close()
	products := memory.New()
	_, err = products.LoadJSON(f)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := service.NewSmartSearch(nlp.NewParser(nlp.MustLibrary()), products, logger,
		service.WithHistory(history.NewStore(client)),
	)
	hh := health.NewHandler()
	hh.Register("product_store", svc.Ready)

	router := NewRouter(svc, hh, RouterConfig{CORSAllowedOrigins: []string{"http://localhost:3000"}}, logger)
	return &testServer{router: router, redis: mr}
}

func (s *testServer) do(t *testing.T, method, target, body string, header map[string]string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestSearch_CheapPhone(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := srv.do(t, http.MethodPost, "/api/v1/ai/search", `{"query":"je cherche un téléphone pas cher"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))

	var result struct {
		Query struct {
			Intent   string   `json:"intent"`
			Category string   `json:"category"`
			MaxPrice *float64 `json:"max_price"`
		} `json:"query"`
		Products []struct {
			ASIN string `json:"asin"`
		} `json:"products"`
		Total          int      `json:"total"`
		Page           int      `json:"page"`
		Size           int      `json:"size"`
		FiltersApplied []string `json:"filters_applied"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, "price_filter", result.Query.Intent)
	assert.Equal(t, "Electronics", result.Query.Category)
	require.NotNil(t, result.Query.MaxPrice)
	assert.Equal(t, 50.0, *result.Query.MaxPrice)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "B0A0000004", result.Products[0].ASIN)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 0, result.Page)
	assert.Equal(t, service.DefaultPageSize, result.Size)
	assert.Contains(t, result.FiltersApplied, "price <= 50")
}

func TestSearch_InvalidBodies(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name      string
		body      string
		wantCode  string
		wantField string
	}{
		{"missing query", `{}`, "VALIDATION_ERROR", "query"},
		{"empty query", `{"query":""}`, "VALIDATION_ERROR", "query"},
		{"query too long", `{"query":"` + strings.Repeat("é", 501) + `"}`, "VALIDATION_ERROR", "query"},
		{"negative page", `{"query":"casque","page":-1}`, "VALIDATION_ERROR", "page"},
		{"size too large", `{"query":"casque","size":101}`, "VALIDATION_ERROR", "size"},
		{"unknown field", `{"query":"casque","sort":"price"}`, "INVALID_INPUT", ""},
		{"malformed", `{"query":`, "INVALID_INPUT", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := srv.do(t, http.MethodPost, "/api/v1/ai/search", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantField != "" {
				assert.Contains(t, resp.Error.Fields, tt.wantField)
			}
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestAnalyze(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := srv.do(t, http.MethodGet, "/api/v1/ai/analyze?q=meilleure+vente", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))

	var pq nlp.ParsedQuery
	require.NoError(t, json.Unmarshal(resp.Data, &pq))
	assert.Equal(t, nlp.IntentBestsellers, pq.Intent)
	assert.True(t, pq.Bestseller)
	assert.Equal(t, "meilleure vente", pq.Original)

	rec, resp = srv.do(t, http.MethodGet, "/api/v1/ai/analyze?q=+++", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestSuggestions(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := srv.do(t, http.MethodGet, "/api/v1/ai/suggestions?q=casque", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		Suggestions []string `json:"suggestions"`
		Trending    []string `json:"trending"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, []string{"JBL Tune 510BT Casque Bluetooth", "Sony WH-1000XM5 Casque Bluetooth"}, result.Suggestions)
	assert.Empty(t, result.Trending)

	rec, resp = srv.do(t, http.MethodGet, "/api/v1/ai/suggestions?q=casque&limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, []string{"JBL Tune 510BT Casque Bluetooth"}, result.Suggestions)
}

func TestSuggestions_InvalidParams(t *testing.T) {
	srv := newTestServer(t)

	for _, target := range []string{
		"/api/v1/ai/suggestions",
		"/api/v1/ai/suggestions?q=",
		"/api/v1/ai/suggestions?q=casque&limit=0",
		"/api/v1/ai/suggestions?q=casque&limit=51",
		"/api/v1/ai/suggestions?q=casque&limit=abc",
	} {
		rec, resp := srv.do(t, http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		require.NotNil(t, resp.Error, target)
		assert.Equal(t, "INVALID_INPUT", resp.Error.Code, target)
	}
}

func TestSearchFeedsTrendingAndHistory(t *testing.T) {
	srv := newTestServer(t)
	user := map[string]string{"X-User-ID": "user-7"}

	for _, q := range []string{"Casque Sony", "casque sony", "livre"} {
		rec, _ := srv.do(t, http.MethodPost, "/api/v1/ai/search", `{"query":"`+q+`"}`, user)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, resp := srv.do(t, http.MethodGet, "/api/v1/ai/trending?limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var trending struct {
		Trending []struct {
			Query string `json:"query"`
			Count int64  `json:"count"`
		} `json:"trending"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &trending))
	require.Len(t, trending.Trending, 2)
	assert.Equal(t, "casque sony", trending.Trending[0].Query)
	assert.Equal(t, int64(2), trending.Trending[0].Count)

	rec, resp = srv.do(t, http.MethodGet, "/api/v1/ai/history", "", user)
	require.Equal(t, http.StatusOK, rec.Code)
	var recent struct {
		Recent []string `json:"recent"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &recent))
	assert.Equal(t, []string{"livre", "casque sony"}, recent.Recent)

	rec, resp = srv.do(t, http.MethodGet, "/api/v1/ai/suggestions?q=cas", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var suggest struct {
		Trending []string `json:"trending"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &suggest))
	assert.Equal(t, []string{"casque sony"}, suggest.Trending)
}

func TestHistory_RequiresUser(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := srv.do(t, http.MethodGet, "/api/v1/ai/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)

	rec, _ = srv.do(t, http.MethodGet, "/api/v1/ai/history?limit=21", "", map[string]string{"X-User-ID": "u"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrending_HistoryDown(t *testing.T) {
	srv := newTestServer(t)
	srv.redis.Close()

	rec, resp := srv.do(t, http.MethodGet, "/api/v1/ai/trending", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)

	rec, _ = srv.do(t, http.MethodPost, "/api/v1/ai/search", `{"query":"casque"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := srv.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = srv.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "product_store")

	rec, _ = srv.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "smartsearch_parse_duration_seconds")

	rec, _ = srv.do(t, http.MethodGet, "/debug/pprof/", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
