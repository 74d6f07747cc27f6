// Package tax holds the pure capital-gains computation: position replay,
// category classification, monthly aggregation, loss carryforward and the
// per-category rate rules. Nothing in this package performs I/O; callers load
// inputs from storage and persist the outputs.
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// ComputePosition replays an asset's transactions and returns the resulting position.
//
// A BUY adds its quantity and its quantity*price+fees to the running cost.
// A SELL adds to the sold quantity and leaves the cost untouched, so the average
// cost is total buy cost divided by total bought quantity over the full history.
// With no buys the average cost is zero.
//
// Quantities are not checked: selling more than was bought yields a negative
// quantity, which is returned as is.
func ComputePosition(txs []model.Transaction) model.Position {
	bought := decimal.Zero
	sold := decimal.Zero
	cost := decimal.Zero

	for _, t := range txs {
		switch t.Side {
		case model.SideBuy:
			bought = bought.Add(t.Quantity)
			cost = cost.Add(t.Quantity.Mul(t.UnitPrice)).Add(t.Fees)
		case model.SideSell:
			sold = sold.Add(t.Quantity)
		}
	}

	avg := decimal.Zero
	if bought.IsPositive() {
		avg = cost.Div(bought)
	}

	return model.Position{
		Quantity:       bought.Sub(sold),
		AverageCost:    avg,
		TotalCost:      cost,
		BoughtQuantity: bought,
		SoldQuantity:   sold,
	}
}
