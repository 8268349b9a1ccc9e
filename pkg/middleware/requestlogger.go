package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/mouadelabbassi/dashboard/pkg/logger"
)

// UserIDHeader identifies the caller. The gateway in front of the service
// sets it after authenticating the user.
const UserIDHeader = "X-User-ID"

const maxUserIDLen = 128

// RequestLogger stores the caller's user id (from UserIDHeader) in the
// context and builds a request-scoped logger carrying correlation_id,
// user_id, trace_id and span_id. Handlers read them back with
// logger.UserIDFromContext and logger.FromContext.
//
// Mount it after RequestLogging and Tracing.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID := strings.TrimSpace(r.Header.Get(UserIDHeader)); userID != "" && len(userID) <= maxUserIDLen {
				ctx = logger.WithUserID(ctx, userID)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
