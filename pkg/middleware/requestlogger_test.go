package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/mouadelabbassi/dashboard/pkg/logger"
)

func newTestLogger(w *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &out))
	return out
}

func TestRequestLogger_EnrichesContext(t *testing.T) {
	var buf bytes.Buffer

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})

	var userID string
	h := RequestLogger(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = logger.UserIDFromContext(r.Context())
		logger.FromContext(r.Context()).Info("handled")
	}))

	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	ctx = trace.ContextWithSpanContext(ctx, sc)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ai/history", nil).WithContext(ctx)
	req.Header.Set(UserIDHeader, " user-42 ")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "user-42", userID)
	out := lastLine(t, &buf)
	assert.Equal(t, "corr-1", out["correlation_id"])
	assert.Equal(t, "user-42", out["user_id"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", out["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", out["span_id"])
}

func TestRequestLogger_IgnoresMissingOrOversizedUserID(t *testing.T) {
	for _, header := range []string{"", "   ", strings.Repeat("u", maxUserIDLen+1)} {
		var buf bytes.Buffer
		var userID string
		h := RequestLogger(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID = logger.UserIDFromContext(r.Context())
			logger.FromContext(r.Context()).Info("handled")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(UserIDHeader, header)
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Empty(t, userID)
		assert.NotContains(t, lastLine(t, &buf), "user_id")
	}
}
