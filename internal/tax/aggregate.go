package tax

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// CategoryTotals is the sum of one category's sales in a month.
type CategoryTotals struct {
	TotalSold decimal.Decimal
	NetProfit decimal.Decimal
	Sales     int
}

// Aggregate sums the sales executed inside period by tax category.
//
// For each sale the sale value is quantity*unitPrice and the cost is
// quantity*AverageCost, where AverageCost is the asset's average at the time
// of the computation rather than at the time of the sale. Profit is sale value
// minus cost minus fees. Buys and sales outside [start, end) are skipped.
// Categories without sales are absent from the result.
func Aggregate(period model.Period, sales []model.Sale) (map[model.Category]CategoryTotals, error) {
	start, end := period.Start(), period.End()
	totals := make(map[model.Category]CategoryTotals)

	for _, s := range sales {
		if s.Side != model.SideSell {
			continue
		}
		if s.ExecutedAt.Before(start) || !s.ExecutedAt.Before(end) {
			continue
		}

		category, err := ClassifyTransaction(s.Transaction)
		if err != nil {
			return nil, err
		}

		saleValue := s.Gross()
		cost := s.Quantity.Mul(s.AverageCost)
		profit := saleValue.Sub(cost).Sub(s.Fees)

		t := totals[category]
		t.TotalSold = t.TotalSold.Add(saleValue)
		t.NetProfit = t.NetProfit.Add(profit)
		t.Sales++
		totals[category] = t
	}

	return totals, nil
}
