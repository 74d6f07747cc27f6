package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// MonthlyResultRepository provides data access methods for the monthly_result table.
type MonthlyResultRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewMonthlyResultRepository creates a new MonthlyResultRepository with the provided database connection.
func NewMonthlyResultRepository(db *sql.DB) *MonthlyResultRepository {
	return &MonthlyResultRepository{db: db}
}

// WithTx returns a new MonthlyResultRepository scoped to the provided transaction.
func (r *MonthlyResultRepository) WithTx(tx *sql.Tx) *MonthlyResultRepository {
	return &MonthlyResultRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *MonthlyResultRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// ReplaceMonth deletes every result of the user's period and inserts results.
// Run it inside a transaction so readers never see a half-written month.
func (r *MonthlyResultRepository) ReplaceMonth(ctx context.Context, userID string, period model.Period, results []model.MonthlyResult) error {
	q := r.getQuerier()

	_, err := q.ExecContext(ctx, `
		DELETE FROM monthly_result
		WHERE user_id = ? AND year = ? AND month = ?
	`, userID, period.Year, int(period.Month))
	if err != nil {
		return fmt.Errorf("failed to delete from monthly_result table: %w", err)
	}

	for _, res := range results {
		_, err := q.ExecContext(ctx, `
			INSERT INTO monthly_result (
				user_id, year, month, category, total_sold, net_profit,
				loss_used, tax_base, tax_due, exempt, calculated_at
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			userID,
			period.Year,
			int(period.Month),
			res.Category.String(),
			res.TotalSold,
			res.NetProfit,
			res.LossUsed,
			res.TaxBase,
			res.TaxDue,
			res.Exempt,
			FormatTime(res.CalculatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert into monthly_result table: %w", err)
		}
	}

	return nil
}

// ListResults returns the user's results for periods in [from, to], ordered by
// period and category.
func (r *MonthlyResultRepository) ListResults(ctx context.Context, userID string, from, to model.Period) ([]model.MonthlyResult, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT user_id, year, month, category, total_sold, net_profit,
			loss_used, tax_base, tax_due, exempt, calculated_at
		FROM monthly_result
		WHERE user_id = ?
		AND (year * 100 + month) BETWEEN ? AND ?
		ORDER BY year ASC, month ASC, category ASC
	`, userID, periodKey(from), periodKey(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly_result table: %w", err)
	}
	defer rows.Close()

	results := []model.MonthlyResult{}
	for rows.Next() {
		var res model.MonthlyResult
		var month int
		var category, calculatedAtStr string

		err := rows.Scan(
			&res.UserID,
			&res.Year,
			&month,
			&category,
			&res.TotalSold,
			&res.NetProfit,
			&res.LossUsed,
			&res.TaxBase,
			&res.TaxDue,
			&res.Exempt,
			&calculatedAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan monthly_result table results: %w", err)
		}

		res.Month = time.Month(month)
		if res.Category, err = model.ParseCategory(category); err != nil {
			return nil, err
		}
		if res.CalculatedAt, err = ParseTime(calculatedAtStr); err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly_result table: %w", err)
	}

	return results, nil
}

func periodKey(p model.Period) int {
	return p.Year*100 + int(p.Month)
}
