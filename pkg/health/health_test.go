package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func fail(context.Context) error { return errors.New("connection refused") }

func serve(t *testing.T, handler http.HandlerFunc) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestLivenessHandler(t *testing.T) {
	h := NewHandler()
	h.Register("store", fail)

	code, resp := serve(t, h.LivenessHandler())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.Empty(t, resp.Checks)
	assert.False(t, resp.Timestamp.IsZero())
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *Handler)
		wantCode   int
		wantStatus Status
	}{
		{"no checks", func(h *Handler) {}, http.StatusOK, StatusUp},
		{"all healthy", func(h *Handler) {
			h.Register("store", ok)
			h.RegisterOptional("redis", ok)
		}, http.StatusOK, StatusUp},
		{"optional down degrades", func(h *Handler) {
			h.Register("store", ok)
			h.RegisterOptional("redis", fail)
		}, http.StatusOK, StatusDegraded},
		{"required down", func(h *Handler) {
			h.Register("store", fail)
			h.RegisterOptional("redis", fail)
		}, http.StatusServiceUnavailable, StatusDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler()
			tt.setup(h)

			code, resp := serve(t, h.ReadinessHandler())
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
		})
	}
}

func TestReadiness_ReportsEachCheck(t *testing.T) {
	h := NewHandler()
	h.Register("store", ok)
	h.RegisterOptional("kafka", fail)

	_, resp := serve(t, h.ReadinessHandler())
	assert.Equal(t, CheckResult{Status: StatusUp}, resp.Checks["store"])
	assert.Equal(t, CheckResult{Status: StatusDown, Optional: true, Error: "connection refused"}, resp.Checks["kafka"])
}

func TestReadiness_Timeout(t *testing.T) {
	h := NewHandler()
	h.timeout = 20 * time.Millisecond
	h.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	code, resp := serve(t, h.ReadinessHandler())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, context.DeadlineExceeded.Error(), resp.Checks["slow"].Error)
}

func TestRegister_ReplacesAndNames(t *testing.T) {
	h := NewHandler()
	h.Register("store", fail)
	h.Register("store", ok)
	h.RegisterOptional("embedding", ok)

	assert.Equal(t, []string{"embedding", "store"}, h.Names())
	assert.Equal(t, StatusUp, h.Check(context.Background()).Status)
}
