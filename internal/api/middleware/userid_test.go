package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/middleware"
)

// TestRequireUserID tests identity resolution from the gateway header.
//
// WHY: Every tax figure is scoped to a user. A request that reaches a handler
// without an identity would read or write another user's data.
func TestRequireUserID(t *testing.T) {
	t.Run("stores the trimmed user ID on the context", func(t *testing.T) {
		var got string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = middleware.UserIDFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/asset", nil)
		req.Header.Set(middleware.UserIDHeader, "  user-1 ")
		w := httptest.NewRecorder()
		middleware.RequireUserID(next).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", w.Code)
		}
		if got != "user-1" {
			t.Errorf("Expected user-1 on context, got %q", got)
		}
	})

	t.Run("rejects request without header", func(t *testing.T) {
		called := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) { called = true })

		req := httptest.NewRequest(http.MethodGet, "/api/asset", nil)
		w := httptest.NewRecorder()
		middleware.RequireUserID(next).ServeHTTP(w, req)

		if called {
			t.Error("Expected next handler NOT to be called")
		}
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if body["error"] != "user ID is required" {
			t.Errorf("Expected missing user error, got %q", body["error"])
		}
	})

	t.Run("rejects oversized header", func(t *testing.T) {
		next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {})

		req := httptest.NewRequest(http.MethodGet, "/api/asset", nil)
		req.Header.Set(middleware.UserIDHeader, strings.Repeat("x", 200))
		w := httptest.NewRecorder()
		middleware.RequireUserID(next).ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("context without user ID reads empty", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if got := middleware.UserIDFromContext(req.Context()); got != "" {
			t.Errorf("Expected empty user ID, got %q", got)
		}
	})
}
