package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/middleware"
)

// NewUserRequest creates a request as it arrives at a handler after
// middleware.RequireUserID: the header is set and the user ID is on the context.
// body is JSON-encoded unless it is nil or already a string.
//
// Example:
//
//	req := testutil.NewUserRequest(t, http.MethodPost, "/api/transaction", "user-1", req)
func NewUserRequest(t *testing.T, method, path, userID string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	return req
}

// WithURLParams attaches chi URL parameters to req so handlers can read them
// with chi.URLParam.
//
// Example:
//
//	req = testutil.WithURLParams(req, map[string]string{"uuid": tx.ID})
func WithURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// DecodeJSON decodes a recorded response body into T, failing the test on error.
func DecodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return v
}
