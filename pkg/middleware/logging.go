package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mouadelabbassi/dashboard/pkg/logger"
)

// CorrelationIDHeader carries the request correlation id in both directions.
const CorrelationIDHeader = "X-Correlation-ID"

const maxCorrelationIDLen = 128

// RequestLogging assigns a correlation id to every request, echoes it in the
// response and logs one line per request. Requests whose path starts with
// one of quietPrefixes (probes, scrapes) are served but not logged.
func RequestLogging(l *slog.Logger, quietPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			correlationID := correlationID(r)
			ctx := logger.WithCorrelationID(r.Context(), correlationID)
			r = r.WithContext(ctx)
			w.Header().Set(CorrelationIDHeader, correlationID)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			if quiet(r.URL.Path, quietPrefixes) {
				return
			}
			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			l.Log(ctx, level, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int("bytes", rec.bytes),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
				slog.String("correlation_id", correlationID),
			)
		})
	}
}

// correlationID reuses the inbound id when it is short and printable,
// otherwise it mints a new one.
func correlationID(r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(CorrelationIDHeader))
	if id == "" || len(id) > maxCorrelationIDLen || strings.ContainsFunc(id, isControl) {
		return uuid.New().String()
	}
	return id
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

func quiet(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
