package middleware

import (
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Logger returns a middleware that writes one structured entry per request.
// 5xx responses are logged at error level, 4xx at warn.
func Logger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	// Strip CR/LF from user-supplied values to prevent log injection.
	sanitize := strings.NewReplacer("\n", "", "\r", "").Replace

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			entry := log.WithFields(logrus.Fields{
				"method":      sanitize(r.Method),
				"path":        sanitize(r.URL.Path),
				"status":      wrapped.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  chimiddleware.GetReqID(r.Context()),
			})
			if userID := r.Header.Get(UserIDHeader); userID != "" {
				entry = entry.WithField("user_id", sanitize(userID))
			}

			switch {
			case wrapped.statusCode >= http.StatusInternalServerError:
				entry.Error("request failed")
			case wrapped.statusCode >= http.StatusBadRequest:
				entry.Warn("request rejected")
			default:
				entry.Info("request served")
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
