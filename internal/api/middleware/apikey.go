package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/response"
)

// timeTokenWindow is the validity slot of a time token. The previous and
// next slot are accepted too, to tolerate clock skew between caller and server.
const timeTokenWindow = 5 * time.Minute

// APIKeyMiddleware protects internal routes. Callers send the shared key in
// X-API-Key and a token from GenerateTimeToken in X-Time-Token. The key is
// read from INTERNAL_API_KEY on every request.
func APIKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expected := os.Getenv("INTERNAL_API_KEY")
		if expected == "" {
			response.RespondError(w, http.StatusInternalServerError, "internal authentication unavailable", "Authentication not loaded")
			return
		}

		key := r.Header.Get("X-API-Key")
		if key == "" {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing API key")
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
			return
		}

		token := r.Header.Get("X-Time-Token")
		if token == "" {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Missing Time token")
			return
		}
		if !validTimeToken(expected, token, time.Now()) {
			response.RespondError(w, http.StatusUnauthorized, "unauthorized", "Time token is invalid or expired")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GenerateTimeToken returns the token for the current time slot.
func GenerateTimeToken(apiKey string) string {
	return timeToken(apiKey, slot(time.Now()))
}

func validTimeToken(apiKey, token string, now time.Time) bool {
	current := slot(now)
	for _, s := range []int64{current - 1, current, current + 1} {
		if hmac.Equal([]byte(token), []byte(timeToken(apiKey, s))) {
			return true
		}
	}
	return false
}

func slot(t time.Time) int64 {
	return t.Unix() / int64(timeTokenWindow/time.Second)
}

func timeToken(apiKey string, slot int64) string {
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write([]byte(strconv.FormatInt(slot, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
