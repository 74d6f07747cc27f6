package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/testutil"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func period(year int, month time.Month) model.Period {
	return model.Period{Year: year, Month: month}
}

// trade records one transaction through the service so positions and
// monthly results are maintained exactly as in production.
type trade struct {
	symbol   string
	class    model.AssetClass
	side     model.Side
	qty      string
	price    string
	fees     string
	date     string
	dayTrade bool
	foreign  bool
}

func record(t *testing.T, svc *testutil.Services, userID string, trades ...trade) []model.Transaction {
	t.Helper()

	var created []model.Transaction
	for _, tr := range trades {
		fees := tr.fees
		if fees == "" {
			fees = "0"
		}
		req := request.CreateTransactionRequest{
			Symbol:         tr.symbol,
			AssetClass:     string(tr.class),
			Side:           string(tr.side),
			Quantity:       dec(tr.qty),
			UnitPrice:      dec(tr.price),
			Fees:           dec(fees),
			ExecutedAt:     tr.date,
			ForeignCustody: tr.foreign,
		}
		if tr.dayTrade {
			req.OperationType = string(model.OperationDayTrade)
		}

		tx, err := svc.Transaction.CreateTransaction(context.Background(), userID, req)
		if err != nil {
			t.Fatalf("CreateTransaction(%s %s %s) returned unexpected error: %v", tr.side, tr.qty, tr.symbol, err)
		}
		created = append(created, tx)
	}
	return created
}

// resultFor finds the stored result of category in p.
func resultFor(t *testing.T, svc *testutil.Services, userID string, p model.Period, c model.Category) (model.MonthlyResult, bool) {
	t.Helper()

	results, err := svc.Tax.ListResults(context.Background(), userID, p, p)
	if err != nil {
		t.Fatalf("ListResults() returned unexpected error: %v", err)
	}
	for _, r := range results {
		if r.Category == c {
			return r, true
		}
	}
	return model.MonthlyResult{}, false
}

// Scenario trades shared by several tests.
var (
	// Equity swing sale of 25 000 with 5 000 profit in February 2024.
	equitySwingTrades = []trade{
		{symbol: "PETR4", class: model.AssetClassEquity, side: model.SideBuy, qty: "100", price: "200", date: "2024-01-10"},
		{symbol: "PETR4", class: model.AssetClassEquity, side: model.SideSell, qty: "100", price: "250", date: "2024-02-15"},
	}

	// Domestic crypto: January loss of 1 000, February profit of 1 500 on 40 000 sold.
	cryptoCarryTrades = []trade{
		{symbol: "BTC", class: model.AssetClassCrypto, side: model.SideBuy, qty: "1", price: "5000", date: "2024-01-05"},
		{symbol: "BTC", class: model.AssetClassCrypto, side: model.SideSell, qty: "1", price: "4000", date: "2024-01-20"},
		{symbol: "ETH", class: model.AssetClassCrypto, side: model.SideBuy, qty: "10", price: "3850", date: "2024-01-25"},
		{symbol: "ETH", class: model.AssetClassCrypto, side: model.SideSell, qty: "10", price: "4000", date: "2024-02-20"},
	}
)
