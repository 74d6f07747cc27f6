package tax

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// MonthComputation is the evaluation of every category for one user-month.
type MonthComputation struct {
	Period      model.Period
	Totals      map[model.Category]CategoryTotals
	Evaluations map[model.Category]Evaluation
}

// ComputeMonth aggregates the period's sales and evaluates all five categories
// against the balances carried from the preceding month. A category missing
// from previous starts from zero. Categories are never netted against each other.
func ComputeMonth(period model.Period, sales []model.Sale, previous map[model.Category]decimal.Decimal) (MonthComputation, error) {
	totals, err := Aggregate(period, sales)
	if err != nil {
		return MonthComputation{}, err
	}

	evaluations := make(map[model.Category]Evaluation, len(model.Categories()))
	for _, c := range model.Categories() {
		t := totals[c]
		ev, err := Evaluate(c, t.TotalSold, t.NetProfit, previous[c])
		if err != nil {
			return MonthComputation{}, err
		}
		evaluations[c] = ev
	}

	return MonthComputation{
		Period:      period,
		Totals:      totals,
		Evaluations: evaluations,
	}, nil
}

// TaxDue returns the tax due for a single category.
func (m MonthComputation) TaxDue(c model.Category) decimal.Decimal {
	return m.Evaluations[c].TaxDue
}

// ScopeTaxDue sums tax due over the categories reported under scope.
func (m MonthComputation) ScopeTaxDue(scope model.ReportScope) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range scope.Categories() {
		sum = sum.Add(m.TaxDue(c))
	}
	return sum
}

// Results returns one monthly result per category that had sales in the period.
func (m MonthComputation) Results(userID string, now time.Time) []model.MonthlyResult {
	var results []model.MonthlyResult
	for _, c := range model.Categories() {
		if m.Totals[c].Sales == 0 {
			continue
		}
		ev := m.Evaluations[c]
		results = append(results, model.MonthlyResult{
			UserID:       userID,
			Year:         m.Period.Year,
			Month:        m.Period.Month,
			Category:     c,
			TotalSold:    ev.TotalSold,
			NetProfit:    ev.NetProfit,
			LossUsed:     ev.LossUsed,
			TaxBase:      ev.TaxBase,
			TaxDue:       ev.TaxDue,
			Exempt:       ev.Exempt,
			CalculatedAt: now,
		})
	}
	return results
}

// Carryforwards returns the balance of every category at the end of the period.
// All five are returned so that a month without sales still propagates the
// previous balance to the next month.
func (m MonthComputation) Carryforwards(userID string, now time.Time) []model.Carryforward {
	balances := make([]model.Carryforward, 0, len(model.Categories()))
	for _, c := range model.Categories() {
		balances = append(balances, model.Carryforward{
			UserID:    userID,
			Year:      m.Period.Year,
			Month:     m.Period.Month,
			Category:  c,
			Balance:   m.Evaluations[c].Carryforward,
			UpdatedAt: now,
		})
	}
	return balances
}
