package model

import (
	"fmt"
	"time"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
)

// Period is a calendar month. All boundaries are computed in UTC.
type Period struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// NewPeriod validates year and month and returns the Period.
func NewPeriod(year int, month time.Month) (Period, error) {
	if year < 1900 || year > 9999 {
		return Period{}, fmt.Errorf("%w: year %d out of range", apperrors.ErrInvalidPeriod, year)
	}
	if month < time.January || month > time.December {
		return Period{}, fmt.Errorf("%w: month %d out of range", apperrors.ErrInvalidPeriod, month)
	}
	return Period{Year: year, Month: month}, nil
}

// PeriodOf returns the calendar month containing t (in UTC).
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q must be YYYY-MM", apperrors.ErrInvalidPeriod, s)
	}
	return PeriodOf(t), nil
}

// Start is the first instant of the month.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first instant of the following month (exclusive bound).
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Previous returns the immediately preceding calendar month.
func (p Period) Previous() Period {
	return PeriodOf(p.Start().AddDate(0, -1, 0))
}

// Next returns the immediately following calendar month.
func (p Period) Next() Period {
	return PeriodOf(p.End())
}

// Before reports whether p is strictly earlier than other.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// Label renders the period as "MM/YYYY", the form printed on liability documents.
func (p Period) Label() string {
	return fmt.Sprintf("%02d/%04d", int(p.Month), p.Year)
}

// DueDate is the last day of the month following the period.
func (p Period) DueDate() time.Time {
	return p.Next().End().AddDate(0, 0, -1)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
