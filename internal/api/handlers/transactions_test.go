package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/lock"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/testutil"
)

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("creates transaction and recomputes the month", func(t *testing.T) {
		svc := setupServices(t)
		handler := NewTransactionHandler(svc.Transaction)

		seedEquitySwing(t, handler)

		testutil.AssertRowCount(t, svc.DB, `"transaction"`, 2)
		results, err := svc.Tax.ListResults(context.Background(), testUser, model.Period{Year: 2024, Month: 2}, model.Period{Year: 2024, Month: 2})
		if err != nil {
			t.Fatalf("ListResults() returned unexpected error: %v", err)
		}
		if len(results) != 1 || !results[0].TaxDue.Equal(decimal.NewFromInt(750)) {
			t.Errorf("Expected one result owing 750, got %+v", results)
		}
	})

	t.Run("returns 400 for invalid body", func(t *testing.T) {
		svc := setupServices(t)
		handler := NewTransactionHandler(svc.Transaction)

		w := httptest.NewRecorder()
		handler.CreateTransaction(w, testutil.NewUserRequest(t, http.MethodPost, "/api/transaction", testUser, "{not json"))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 400 when validation fails", func(t *testing.T) {
		svc := setupServices(t)
		handler := NewTransactionHandler(svc.Transaction)

		body := createReq("PETR4", "EQUITY", "HOLD", "0", "10", "2024-01-10")
		w := httptest.NewRecorder()
		handler.CreateTransaction(w, testutil.NewUserRequest(t, http.MethodPost, "/api/transaction", testUser, body))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
		testutil.AssertRowCount(t, svc.DB, `"transaction"`, 0)
	})

	t.Run("returns 400 when symbol is held under another class", func(t *testing.T) {
		svc := setupServices(t)
		handler := NewTransactionHandler(svc.Transaction)
		seedEquitySwing(t, handler)

		body := createReq("PETR4", "CRYPTO", "BUY", "1", "10", "2024-03-01")
		w := httptest.NewRecorder()
		handler.CreateTransaction(w, testutil.NewUserRequest(t, http.MethodPost, "/api/transaction", testUser, body))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 409 while a recompute holds the lock", func(t *testing.T) {
		svc := setupServices(t)
		handler := NewTransactionHandler(svc.Transaction)

		release, err := svc.Locker.TryLock(context.Background(), lock.UserKey(testUser))
		if err != nil {
			t.Fatalf("TryLock() returned unexpected error: %v", err)
		}
		defer release(context.Background())

		body := createReq("PETR4", "EQUITY", "BUY", "1", "10", "2024-01-10")
		w := httptest.NewRecorder()
		handler.CreateTransaction(w, testutil.NewUserRequest(t, http.MethodPost, "/api/transaction", testUser, body))

		if w.Code != http.StatusConflict {
			t.Errorf("Expected 409, got %d: %s", w.Code, w.Body.String())
		}
	})
}

func TestTransactionHandler_Transactions(t *testing.T) {
	t.Run("returns empty array when no transactions exist", func(t *testing.T) {
		svc := setupServices(t)
		handler := NewTransactionHandler(svc.Transaction)

		w := httptest.NewRecorder()
		handler.Transactions(w, testutil.NewUserRequest(t, http.MethodGet, "/api/transaction", testUser, nil))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		got := testutil.DecodeJSON[[]model.Transaction](t, w)
		if got == nil || len(got) != 0 {
			t.Errorf("Expected empty array, got %v", got)
		}
	})

	t.Run("filters by date and user", func(t *testing.T) {
		svc := setupServices(t)
		handler := NewTransactionHandler(svc.Transaction)
		seedEquitySwing(t, handler)

		w := httptest.NewRecorder()
		handler.Transactions(w, testutil.NewUserRequest(t, http.MethodGet, "/api/transaction?from=2024-02-01&to=2024-02-29", testUser, nil))

		got := testutil.DecodeJSON[[]model.Transaction](t, w)
		if len(got) != 1 || got[0].Side != model.SideSell {
			t.Errorf("Expected only the February sell, got %+v", got)
		}

		w = httptest.NewRecorder()
		handler.Transactions(w, testutil.NewUserRequest(t, http.MethodGet, "/api/transaction", "someone-else", nil))
		if got := testutil.DecodeJSON[[]model.Transaction](t, w); len(got) != 0 {
			t.Errorf("Expected no transactions for another user, got %d", len(got))
		}
	})

	t.Run("returns 400 for malformed filter", func(t *testing.T) {
		svc := setupServices(t)
		handler := NewTransactionHandler(svc.Transaction)

		w := httptest.NewRecorder()
		handler.Transactions(w, testutil.NewUserRequest(t, http.MethodGet, "/api/transaction?from=yesterday", testUser, nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestTransactionHandler_GetUpdateDelete(t *testing.T) {
	t.Run("returns 404 for unknown transaction", func(t *testing.T) {
		svc := setupServices(t)
		handler := NewTransactionHandler(svc.Transaction)

		req := testutil.NewUserRequest(t, http.MethodGet, "/api/transaction/x", testUser, nil)
		req = testutil.WithURLParams(req, map[string]string{"uuid": testutil.MakeID()})
		w := httptest.NewRecorder()
		handler.GetTransaction(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("updates and deletes a transaction", func(t *testing.T) {
		svc := setupServices(t)
		handler := NewTransactionHandler(svc.Transaction)
		seedEquitySwing(t, handler)

		list := httptest.NewRecorder()
		handler.Transactions(list, testutil.NewUserRequest(t, http.MethodGet, "/api/transaction", testUser, nil))
		txs := testutil.DecodeJSON[[]model.Transaction](t, list)
		sell := txs[1]

		// Execute update: raise the sell price to 300.
		req := testutil.NewUserRequest(t, http.MethodPut, "/api/transaction/"+sell.ID, testUser, map[string]any{"unitPrice": "300"})
		req = testutil.WithURLParams(req, map[string]string{"uuid": sell.ID})
		w := httptest.NewRecorder()
		handler.UpdateTransaction(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		updated := testutil.DecodeJSON[model.Transaction](t, w)
		if !updated.UnitPrice.Equal(decimal.NewFromInt(300)) {
			t.Errorf("Expected unit price 300, got %s", updated.UnitPrice)
		}

		// Execute delete.
		req = testutil.NewUserRequest(t, http.MethodDelete, "/api/transaction/"+sell.ID, testUser, nil)
		req = testutil.WithURLParams(req, map[string]string{"uuid": sell.ID})
		w = httptest.NewRecorder()
		handler.DeleteTransaction(w, req)

		if w.Code != http.StatusNoContent {
			t.Fatalf("Expected 204, got %d: %s", w.Code, w.Body.String())
		}
		testutil.AssertRowCount(t, svc.DB, `"transaction"`, 1)
	})
}
