package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/testutil"
)

const testUser = "user-1"

// fixedNow pins "this month" to March 2024 so default periods resolve to
// February 2024.
func fixedNow() time.Time {
	return time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
}

func setupServices(t *testing.T) *testutil.Services {
	t.Helper()
	return testutil.NewTestServices(t, testutil.SetupTestDB(t))
}

func createReq(symbol, class, side, qty, price, date string) request.CreateTransactionRequest {
	return request.CreateTransactionRequest{
		Symbol:     symbol,
		AssetClass: class,
		Side:       side,
		Quantity:   decimal.RequireFromString(qty),
		UnitPrice:  decimal.RequireFromString(price),
		ExecutedAt: date,
	}
}

// seedEquitySwing posts a buy in January and a profitable sell in February
// 2024 that owes 750.00.
func seedEquitySwing(t *testing.T, h *TransactionHandler) {
	t.Helper()
	for _, body := range []request.CreateTransactionRequest{
		createReq("PETR4", "EQUITY", "BUY", "100", "200", "2024-01-10"),
		createReq("PETR4", "EQUITY", "SELL", "100", "250", "2024-02-15"),
	} {
		w := httptest.NewRecorder()
		h.CreateTransaction(w, testutil.NewUserRequest(t, http.MethodPost, "/api/transaction", testUser, body))
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201 seeding transaction, got %d: %s", w.Code, w.Body.String())
		}
	}
}
