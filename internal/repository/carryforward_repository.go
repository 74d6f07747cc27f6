package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// CarryforwardRepository provides data access methods for the carryforward table,
// one loss balance per (user, year, month, category).
type CarryforwardRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewCarryforwardRepository creates a new CarryforwardRepository with the provided database connection.
func NewCarryforwardRepository(db *sql.DB) *CarryforwardRepository {
	return &CarryforwardRepository{db: db}
}

// WithTx returns a new CarryforwardRepository scoped to the provided transaction.
func (r *CarryforwardRepository) WithTx(tx *sql.Tx) *CarryforwardRepository {
	return &CarryforwardRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *CarryforwardRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// GetBalances returns the stored balances of the user's period keyed by category.
// Categories without a stored row are absent, which callers read as zero.
// Only the exact period is consulted; there is no fallback to earlier months.
func (r *CarryforwardRepository) GetBalances(ctx context.Context, userID string, period model.Period) (map[model.Category]decimal.Decimal, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT category, balance
		FROM carryforward
		WHERE user_id = ? AND year = ? AND month = ?
	`, userID, period.Year, int(period.Month))
	if err != nil {
		return nil, fmt.Errorf("failed to query carryforward table: %w", err)
	}
	defer rows.Close()

	balances := make(map[model.Category]decimal.Decimal)
	for rows.Next() {
		var category string
		var balance decimal.Decimal
		if err := rows.Scan(&category, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan carryforward table results: %w", err)
		}
		c, err := model.ParseCategory(category)
		if err != nil {
			return nil, err
		}
		balances[c] = balance
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating carryforward table: %w", err)
	}

	return balances, nil
}

// UpsertBalances writes each balance, replacing any existing value for its key.
func (r *CarryforwardRepository) UpsertBalances(ctx context.Context, balances []model.Carryforward) error {
	for _, b := range balances {
		_, err := r.getQuerier().ExecContext(ctx, `
			INSERT INTO carryforward (user_id, year, month, category, balance, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id, year, month, category) DO UPDATE SET
				balance = excluded.balance,
				updated_at = excluded.updated_at
		`,
			b.UserID,
			b.Year,
			int(b.Month),
			b.Category.String(),
			b.Balance,
			FormatTime(b.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert carryforward table: %w", err)
		}
	}
	return nil
}
