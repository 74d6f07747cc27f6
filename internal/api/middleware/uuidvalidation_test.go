package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/middleware"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
)

func TestValidateUUIDMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		wantStatus int
		wantCalled bool
	}{
		{"transaction id", "550e8400-e29b-41d4-a716-446655440000", http.StatusOK, true},
		{"ticker instead of id", "PETR4", http.StatusBadRequest, false},
		{"empty id", "", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mw := middleware.ValidateUUIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/transaction/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("uuid", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			mw.ServeHTTP(w, req)

			if called != tt.wantCalled {
				t.Errorf("Expected handler called=%v, got %v", tt.wantCalled, called)
			}
			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}

	t.Run("malformed id reports the invalid uuid error", func(t *testing.T) {
		mw := middleware.ValidateUUIDMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

		req := httptest.NewRequest(http.MethodGet, "/api/asset/not-a-uuid", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("uuid", "not-a-uuid")
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)

		body := map[string]any{}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if body["error"] != apperrors.ErrInvalidUUID.Error() {
			t.Errorf("Expected error %q, got %v", apperrors.ErrInvalidUUID, body["error"])
		}
	})
}
