package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/testutil"
)

func TestDashboardHandler_Summary(t *testing.T) {
	t.Run("returns totals for the range", func(t *testing.T) {
		svc := setupServices(t)
		seedEquitySwing(t, NewTransactionHandler(svc.Transaction))
		handler := NewDashboardHandler(svc.Dashboard)
		handler.now = fixedNow

		w := httptest.NewRecorder()
		handler.Summary(w, testutil.NewUserRequest(t, http.MethodGet, "/api/dashboard?start=2024-01&end=2024-12", testUser, nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		got := testutil.DecodeJSON[model.DashboardSummary](t, w)
		if !got.TotalTaxDue.Equal(decimal.NewFromInt(750)) {
			t.Errorf("Expected total tax 750, got %s", got.TotalTaxDue)
		}
		if len(got.Positions) != 0 {
			t.Errorf("Expected no open positions, got %d", len(got.Positions))
		}
	})

	t.Run("returns 400 for malformed range", func(t *testing.T) {
		svc := setupServices(t)
		handler := NewDashboardHandler(svc.Dashboard)

		w := httptest.NewRecorder()
		handler.Summary(w, testutil.NewUserRequest(t, http.MethodGet, "/api/dashboard?start=2024/01", testUser, nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}
