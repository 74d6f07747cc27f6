package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyResult is the outcome of evaluating one tax category for one user-month.
// Rows for a (user, period) are replaced as a whole on every recompute.
type MonthlyResult struct {
	UserID       string          `json:"userId"`
	Year         int             `json:"year"`
	Month        time.Month      `json:"month"`
	Category     Category        `json:"category"`
	TotalSold    decimal.Decimal `json:"totalSold"`
	NetProfit    decimal.Decimal `json:"netProfit"`
	LossUsed     decimal.Decimal `json:"lossUsed"`
	TaxBase      decimal.Decimal `json:"taxBase"`
	TaxDue       decimal.Decimal `json:"taxDue"`
	Exempt       bool            `json:"exempt"`
	CalculatedAt time.Time       `json:"calculatedAt"`
}

// Period returns the calendar month the result belongs to.
func (r MonthlyResult) Period() Period {
	return Period{Year: r.Year, Month: r.Month}
}

// Carryforward is the accumulated unused loss of one category at the end of a month.
// Balance is always zero or negative.
type Carryforward struct {
	UserID    string          `json:"userId"`
	Year      int             `json:"year"`
	Month     time.Month      `json:"month"`
	Category  Category        `json:"category"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// LiabilityLine is one revenue-code/amount pair on a liability document.
// Lines with different revenue codes are never netted.
type LiabilityLine struct {
	RevenueCode string          `json:"revenueCode"`
	Categories  []Category      `json:"categories"`
	Amount      decimal.Decimal `json:"amount"`
}

// LiabilityDocument is the stored record of the payment document issued for a
// (user, period, scope). Locator points at the rendered artifact.
type LiabilityDocument struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Year        int             `json:"year"`
	Month       time.Month      `json:"month"`
	Scope       ReportScope     `json:"scope"`
	PeriodLabel string          `json:"periodLabel"`
	TaxDue      decimal.Decimal `json:"taxDue"`
	Locator     string          `json:"locator"`
	Lines       []LiabilityLine `json:"lines"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Payer identifies the taxpayer printed on a liability document.
type Payer struct {
	Name  string `json:"name"`
	TaxID string `json:"taxId"`
}

// DescriptorSection is one scope's block on a rendered document.
type DescriptorSection struct {
	Scope    ReportScope     `json:"scope"`
	Title    string          `json:"title"`
	Lines    []LiabilityLine `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// LiabilityDescriptor is everything a renderer needs to produce a payment document.
type LiabilityDescriptor struct {
	Scope       ReportScope         `json:"scope"`
	Payer       Payer               `json:"payer"`
	Period      Period              `json:"period"`
	PeriodLabel string              `json:"periodLabel"`
	DueDate     time.Time           `json:"dueDate"`
	Sections    []DescriptorSection `json:"sections"`
	Total       decimal.Decimal     `json:"total"`
	Notes       []string            `json:"notes,omitempty"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// Lines flattens every section's lines in order.
func (d LiabilityDescriptor) Lines() []LiabilityLine {
	var lines []LiabilityLine
	for _, s := range d.Sections {
		lines = append(lines, s.Lines...)
	}
	return lines
}

// Outcome is the structured result of generating one scope's document.
type Outcome struct {
	Scope   ReportScope     `json:"scope"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	TaxDue  decimal.Decimal `json:"taxDue"`
	Locator string          `json:"locator,omitempty"`
}

// ConsolidatedOutcome collects the per-scope outcomes and the consolidated one.
type ConsolidatedOutcome struct {
	UserID       string    `json:"userId"`
	Period       Period    `json:"period"`
	Scopes       []Outcome `json:"scopes"`
	Consolidated Outcome   `json:"consolidated"`
}

// Success reports whether the consolidated document step succeeded.
func (o ConsolidatedOutcome) Success() bool {
	return o.Consolidated.Success
}

// SweepResult is the per-user outcome of a batch sweep.
type SweepResult struct {
	UserID   string `json:"userId"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Locator  string `json:"locator,omitempty"`
	Notified bool   `json:"notified"`
}

// SweepSummary aggregates a whole sweep run.
type SweepSummary struct {
	Period    Period        `json:"period"`
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Results   []SweepResult `json:"results"`
}
