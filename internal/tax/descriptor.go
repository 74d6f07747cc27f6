package tax

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// ForeignCryptoNote is printed on documents that include foreign-custody crypto tax.
const ForeignCryptoNote = "Foreign-custody crypto-asset gains must also be declared in the annual return."

// ScopeLines builds the lines of a primary scope. Categories sharing a revenue
// code are summed into one line (equity swing and day trade); different codes
// stay on separate lines (domestic and foreign crypto). Categories with no tax
// due contribute nothing.
func ScopeLines(scope model.ReportScope, m MonthComputation) ([]model.LiabilityLine, decimal.Decimal, error) {
	if scope == model.ScopeConsolidated {
		return nil, decimal.Zero, fmt.Errorf("%w: lines are built per primary scope", apperrors.ErrInvalidReportScope)
	}

	var lines []model.LiabilityLine
	index := make(map[string]int)
	total := decimal.Zero

	for _, c := range scope.Categories() {
		due := m.TaxDue(c)
		if !due.IsPositive() {
			continue
		}
		code, err := RevenueCode(c)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if i, ok := index[code]; ok {
			lines[i].Amount = lines[i].Amount.Add(due)
			lines[i].Categories = append(lines[i].Categories, c)
		} else {
			index[code] = len(lines)
			lines = append(lines, model.LiabilityLine{
				RevenueCode: code,
				Categories:  []model.Category{c},
				Amount:      due,
			})
		}
		total = total.Add(due)
	}

	return lines, total, nil
}

// BuildDescriptor assembles the payment document for scope. For the
// consolidated scope there is one section per primary scope with tax due.
func BuildDescriptor(scope model.ReportScope, payer model.Payer, m MonthComputation, now time.Time) (model.LiabilityDescriptor, error) {
	scopes := []model.ReportScope{scope}
	if scope == model.ScopeConsolidated {
		scopes = model.PrimaryScopes()
	}

	d := model.LiabilityDescriptor{
		Scope:       scope,
		Payer:       payer,
		Period:      m.Period,
		PeriodLabel: m.Period.Label(),
		DueDate:     m.Period.DueDate(),
		Total:       decimal.Zero,
		GeneratedAt: now,
	}

	for _, s := range scopes {
		lines, subtotal, err := ScopeLines(s, m)
		if err != nil {
			return model.LiabilityDescriptor{}, err
		}
		if len(lines) == 0 {
			continue
		}
		d.Sections = append(d.Sections, model.DescriptorSection{
			Scope:    s,
			Title:    s.Title(),
			Lines:    lines,
			Subtotal: subtotal,
		})
		d.Total = d.Total.Add(subtotal)
	}

	coversCrypto := scope == model.ScopeCrypto || scope == model.ScopeConsolidated
	if coversCrypto && m.TaxDue(model.CategoryCryptoForeign).IsPositive() {
		d.Notes = append(d.Notes, ForeignCryptoNote)
	}

	return d, nil
}
