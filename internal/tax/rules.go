package tax

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// Rule holds the rate and optional monthly sales exemption of a category.
type Rule struct {
	Rate decimal.Decimal
	// ExemptUpTo is the monthly total-sold ceiling under which no tax is due.
	// Zero means the category has no exemption.
	ExemptUpTo  decimal.Decimal
	RevenueCode string
}

// HasExemption reports whether the rule carries a monthly sales exemption.
func (r Rule) HasExemption() bool {
	return r.ExemptUpTo.IsPositive()
}

var (
	rateFifteen = decimal.RequireFromString("0.15")
	rateTwenty  = decimal.RequireFromString("0.20")
)

// RuleFor returns the rule table entry for c.
func RuleFor(c model.Category) (Rule, error) {
	switch c {
	case model.CategoryEquitySwing:
		return Rule{Rate: rateFifteen, ExemptUpTo: decimal.NewFromInt(20000), RevenueCode: "6015"}, nil
	case model.CategoryEquityDayTrade:
		return Rule{Rate: rateTwenty, RevenueCode: "6015"}, nil
	case model.CategoryRealEstateFund:
		return Rule{Rate: rateTwenty, RevenueCode: "6015"}, nil
	case model.CategoryCryptoDomestic:
		return Rule{Rate: rateFifteen, ExemptUpTo: decimal.NewFromInt(35000), RevenueCode: "4600"}, nil
	case model.CategoryCryptoForeign:
		return Rule{Rate: rateFifteen, RevenueCode: "1889"}, nil
	default:
		return Rule{}, fmt.Errorf("%w: %d", apperrors.ErrInvalidCategory, uint8(c))
	}
}

// RevenueCode returns the payment code printed for c.
func RevenueCode(c model.Category) (string, error) {
	rule, err := RuleFor(c)
	if err != nil {
		return "", err
	}
	return rule.RevenueCode, nil
}

// Evaluation is the rule engine's verdict for one category-month.
type Evaluation struct {
	Category     model.Category
	TotalSold    decimal.Decimal
	NetProfit    decimal.Decimal
	PreviousLoss decimal.Decimal
	// TaxBase is the amount the rate was applied to; zero when nothing is taxed.
	TaxBase decimal.Decimal
	TaxDue  decimal.Decimal
	// Carryforward is the balance to store for this month, always <= 0.
	Carryforward decimal.Decimal
	// LossUsed is how much of PreviousLoss was absorbed, as a positive amount.
	LossUsed decimal.Decimal
	Exempt   bool
}

// Evaluate applies the category rule to a month's totals and the balance carried
// from the immediately preceding month.
//
// The adjusted base is netProfit + previousLoss. A non-positive base produces no
// tax and becomes the new carryforward. A positive base clears the carryforward;
// it is then taxed unless the category is exempt for this month's total sold,
// in which case the loss is still considered consumed. Tax is rounded to cents.
func Evaluate(c model.Category, totalSold, netProfit, previousLoss decimal.Decimal) (Evaluation, error) {
	rule, err := RuleFor(c)
	if err != nil {
		return Evaluation{}, err
	}

	// Stored balances are never positive; treat anything else as no loss.
	previousLoss = decimal.Min(previousLoss, decimal.Zero)

	ev := Evaluation{
		Category:     c,
		TotalSold:    totalSold,
		NetProfit:    netProfit,
		PreviousLoss: previousLoss,
		TaxBase:      decimal.Zero,
		TaxDue:       decimal.Zero,
	}

	adjusted := netProfit.Add(previousLoss)
	ev.Carryforward = NextCarryforward(adjusted)
	ev.LossUsed = decimal.Max(ev.Carryforward.Sub(previousLoss), decimal.Zero)

	if !adjusted.IsPositive() {
		return ev, nil
	}

	if rule.HasExemption() && totalSold.LessThanOrEqual(rule.ExemptUpTo) {
		ev.Exempt = true
		return ev, nil
	}

	ev.TaxBase = adjusted
	ev.TaxDue = adjusted.Mul(rule.Rate).Round(2)
	return ev, nil
}

// NextCarryforward is the balance stored after a month whose adjusted base is
// adjusted: the base itself when it is a loss, zero otherwise.
func NextCarryforward(adjusted decimal.Decimal) decimal.Decimal {
	if adjusted.IsPositive() {
		return decimal.Zero
	}
	return adjusted
}
