package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
)

// UserIDHeader carries the identity resolved by the upstream gateway.
const UserIDHeader = "X-User-ID"

const maxUserIDLength = 128

type contextKey string

const userIDKey contextKey = "userID"

// RequireUserID rejects requests without an X-User-ID header and stores the
// trimmed value on the request context for handlers.
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			response.RespondError(w, http.StatusUnauthorized, apperrors.ErrMissingUserID.Error(), "Missing "+UserIDHeader+" header")
			return
		}
		if len(userID) > maxUserIDLength || strings.ContainsAny(userID, "\r\n") {
			response.RespondError(w, http.StatusBadRequest, "invalid user ID", UserIDHeader+" header is malformed")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the user ID set by RequireUserID, or "".
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
