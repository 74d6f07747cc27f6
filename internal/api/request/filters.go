package request

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// ParsePeriodRange reads a "from"/"to" pair of YYYY-MM query parameters.
// Missing bounds default to January of the current year and the current month.
func ParsePeriodRange(fromParam, toParam string, now time.Time) (model.Period, model.Period, error) {
	current := model.PeriodOf(now)
	from := model.Period{Year: current.Year, Month: time.January}
	to := current

	var err error
	if fromParam != "" {
		if from, err = model.ParsePeriod(fromParam); err != nil {
			return model.Period{}, model.Period{}, fmt.Errorf("invalid from: %w", err)
		}
	}
	if toParam != "" {
		if to, err = model.ParsePeriod(toParam); err != nil {
			return model.Period{}, model.Period{}, fmt.Errorf("invalid to: %w", err)
		}
	}
	if to.Before(from) {
		return model.Period{}, model.Period{}, fmt.Errorf("%w: from %s is after to %s", apperrors.ErrInvalidPeriod, from, to)
	}
	return from, to, nil
}

// ParsePeriodParam reads a single YYYY-MM parameter, defaulting to fallback.
func ParsePeriodParam(param string, fallback model.Period) (model.Period, error) {
	if param == "" {
		return fallback, nil
	}
	p, err := model.ParsePeriod(param)
	if err != nil {
		return model.Period{}, fmt.Errorf("invalid period: %w", err)
	}
	return p, nil
}

// ParseYear reads a four-digit year, defaulting to the current year.
func ParseYear(param string, now time.Time) (int, error) {
	if param == "" {
		return now.Year(), nil
	}
	year, err := strconv.Atoi(param)
	if err != nil || year < 1900 || year > 9999 {
		return 0, fmt.Errorf("%w: invalid year %q", apperrors.ErrInvalidPeriod, param)
	}
	return year, nil
}

// ParseTransactionFilter builds a listing filter from the assetId, from and
// to query parameters. Dates are inclusive days; to is converted to an
// exclusive bound.
func ParseTransactionFilter(userID, assetParam, fromParam, toParam string) (model.TransactionFilter, error) {
	filter := model.TransactionFilter{
		UserID:  userID,
		AssetID: strings.TrimSpace(assetParam),
	}

	if fromParam != "" {
		from, err := ParseTimestamp(fromParam)
		if err != nil {
			return model.TransactionFilter{}, fmt.Errorf("invalid from format: %w", err)
		}
		filter.From = from
	}
	if toParam != "" {
		to, err := ParseTimestamp(toParam)
		if err != nil {
			return model.TransactionFilter{}, fmt.Errorf("invalid to format: %w", err)
		}
		if len(toParam) == len("2006-01-02") {
			to = to.AddDate(0, 0, 1)
		}
		filter.To = to
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return model.TransactionFilter{}, fmt.Errorf("invalid range: from must be before to")
	}
	return filter, nil
}

// ParseTimestamp accepts YYYY-MM-DD, RFC3339 and RFC3339 with milliseconds.
// The result is in UTC.
func ParseTimestamp(str string) (time.Time, error) {
	str = strings.TrimSpace(str)
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05.000Z07:00"} {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date or datetime", str)
}
