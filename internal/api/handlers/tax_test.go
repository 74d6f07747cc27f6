package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/export"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/testutil"
)

func TestTaxHandler_Results(t *testing.T) {
	setup := func(t *testing.T) *TaxHandler {
		t.Helper()
		svc := setupServices(t)
		seedEquitySwing(t, NewTransactionHandler(svc.Transaction))
		h := NewTaxHandler(svc.Tax)
		h.now = fixedNow
		return h
	}

	t.Run("returns results of the year", func(t *testing.T) {
		handler := setup(t)

		w := httptest.NewRecorder()
		handler.Results(w, testutil.NewUserRequest(t, http.MethodGet, "/api/tax/results?year=2024", testUser, nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		got := testutil.DecodeJSON[[]model.MonthlyResult](t, w)
		if len(got) != 1 || got[0].Category != model.CategoryEquitySwing {
			t.Errorf("Expected one equity swing result, got %+v", got)
		}
	})

	t.Run("month narrows the range", func(t *testing.T) {
		handler := setup(t)

		w := httptest.NewRecorder()
		handler.Results(w, testutil.NewUserRequest(t, http.MethodGet, "/api/tax/results?year=2024&month=1", testUser, nil))

		if got := testutil.DecodeJSON[[]model.MonthlyResult](t, w); len(got) != 0 {
			t.Errorf("Expected no January results, got %d", len(got))
		}
	})

	t.Run("returns 400 for invalid month", func(t *testing.T) {
		handler := setup(t)

		w := httptest.NewRecorder()
		handler.Results(w, testutil.NewUserRequest(t, http.MethodGet, "/api/tax/results?year=2024&month=13", testUser, nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestTaxHandler_Recompute(t *testing.T) {
	t.Run("rebuilds each month in range", func(t *testing.T) {
		svc := setupServices(t)
		seedEquitySwing(t, NewTransactionHandler(svc.Transaction))
		handler := NewTaxHandler(svc.Tax)
		handler.now = fixedNow

		w := httptest.NewRecorder()
		handler.Recompute(w, testutil.NewUserRequest(t, http.MethodPost, "/api/tax/recompute?from=2024-01&to=2024-03", testUser, nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		got := testutil.DecodeJSON[[]RecomputedMonth](t, w)
		if len(got) != 3 {
			t.Fatalf("Expected 3 months, got %d", len(got))
		}
		if got[1].Period != "2024-02" || !got[1].TaxDue.Equal(decimal.NewFromInt(750)) {
			t.Errorf("Expected February to owe 750, got %+v", got[1])
		}
		if !got[1].Scopes[model.ScopeEquity].Equal(decimal.NewFromInt(750)) {
			t.Errorf("Expected equity scope 750, got %v", got[1].Scopes)
		}
	})

	t.Run("returns 400 for reversed range", func(t *testing.T) {
		svc := setupServices(t)
		handler := NewTaxHandler(svc.Tax)

		w := httptest.NewRecorder()
		handler.Recompute(w, testutil.NewUserRequest(t, http.MethodPost, "/api/tax/recompute?from=2024-03&to=2024-01", testUser, nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestTaxHandler_Export(t *testing.T) {
	svc := setupServices(t)
	seedEquitySwing(t, NewTransactionHandler(svc.Transaction))
	handler := NewTaxHandler(svc.Tax)

	w := httptest.NewRecorder()
	handler.Export(w, testutil.NewUserRequest(t, http.MethodGet, "/api/tax/results/export?year=2024", testUser, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != export.ContentType {
		t.Errorf("Expected XLSX content type, got %q", ct)
	}
	// XLSX files are zip archives.
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("Expected a zip archive body")
	}
}
