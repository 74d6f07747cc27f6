package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// TransactionRepository provides data access methods for the transaction table.
// Reads join the owning asset so that symbol and asset class are populated.
type TransactionRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a new TransactionRepository scoped to the provided transaction.
func (r *TransactionRepository) WithTx(tx *sql.Tx) *TransactionRepository {
	return &TransactionRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *TransactionRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const transactionSelect = `
		SELECT
			t.id,
			t.user_id,
			t.asset_id,
			a.symbol,
			a.asset_class,
			t.side,
			t.quantity,
			t.unit_price,
			t.fees,
			t.executed_at,
			t.operation_type,
			t.retention_period,
			t.foreign_custody,
			t.created_at,
			a.average_cost
		FROM "transaction" t
		JOIN asset a ON t.asset_id = a.id
`

// GetTransaction retrieves one of the user's transactions by ID.
// Returns ErrTransactionNotFound if it does not exist or belongs to another user.
func (r *TransactionRepository) GetTransaction(ctx context.Context, userID, transactionID string) (model.Transaction, error) {
	row := r.getQuerier().QueryRowContext(ctx, transactionSelect+`
		WHERE t.id = ? AND t.user_id = ?
	`, transactionID, userID)

	s, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, apperrors.ErrTransactionNotFound
	}
	if err != nil {
		return model.Transaction{}, err
	}
	return s.Transaction, nil
}

// ListTransactions returns the transactions matching filter in execution order.
// Zero-valued filter fields are ignored; To is exclusive.
func (r *TransactionRepository) ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, error) {
	var conditions []string
	var args []any

	if filter.UserID != "" {
		conditions = append(conditions, "t.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.AssetID != "" {
		conditions = append(conditions, "t.asset_id = ?")
		args = append(args, filter.AssetID)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "t.executed_at >= ?")
		args = append(args, FormatTime(filter.From))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "t.executed_at < ?")
		args = append(args, FormatTime(filter.To))
	}

	query := transactionSelect
	if len(conditions) > 0 {
		query += "WHERE " + strings.Join(conditions, " AND ")
	}
	query += `
		ORDER BY t.executed_at ASC, t.created_at ASC
	`

	sales, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	transactions := make([]model.Transaction, 0, len(sales))
	for _, s := range sales {
		transactions = append(transactions, s.Transaction)
	}
	return transactions, nil
}

// ListSales returns the user's SELL transactions executed in [start, end),
// each paired with its asset's current average cost.
func (r *TransactionRepository) ListSales(ctx context.Context, userID string, start, end time.Time) ([]model.Sale, error) {
	return r.query(ctx, transactionSelect+`
		WHERE t.user_id = ?
		AND t.side = ?
		AND t.executed_at >= ?
		AND t.executed_at < ?
		ORDER BY t.executed_at ASC, t.created_at ASC
	`, userID, string(model.SideSell), FormatTime(start), FormatTime(end))
}

// InsertTransaction creates a new transaction row.
func (r *TransactionRepository) InsertTransaction(ctx context.Context, t model.Transaction) error {
	_, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO "transaction" (
			id, user_id, asset_id, side, quantity, unit_price, fees, executed_at,
			operation_type, retention_period, foreign_custody, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.UserID,
		t.AssetID,
		string(t.Side),
		t.Quantity,
		t.UnitPrice,
		t.Fees,
		FormatTime(t.ExecutedAt),
		string(t.OperationType),
		string(t.RetentionPeriod),
		t.ForeignCustody,
		FormatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert into transaction table: %w", err)
	}
	return nil
}

// UpdateTransaction overwrites every mutable column of an existing transaction.
// Returns ErrTransactionNotFound if the transaction does not exist.
func (r *TransactionRepository) UpdateTransaction(ctx context.Context, t model.Transaction) error {
	result, err := r.getQuerier().ExecContext(ctx, `
		UPDATE "transaction"
		SET asset_id = ?, side = ?, quantity = ?, unit_price = ?, fees = ?, executed_at = ?,
			operation_type = ?, retention_period = ?, foreign_custody = ?
		WHERE id = ? AND user_id = ?
	`,
		t.AssetID,
		string(t.Side),
		t.Quantity,
		t.UnitPrice,
		t.Fees,
		FormatTime(t.ExecutedAt),
		string(t.OperationType),
		string(t.RetentionPeriod),
		t.ForeignCustody,
		t.ID,
		t.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction table: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

// DeleteTransaction removes one of the user's transactions.
// Returns ErrTransactionNotFound if the transaction does not exist.
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	result, err := r.getQuerier().ExecContext(ctx, `
		DELETE FROM "transaction"
		WHERE id = ? AND user_id = ?
	`, transactionID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete from transaction table: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) query(ctx context.Context, query string, args ...any) ([]model.Sale, error) {
	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction table: %w", err)
	}
	defer rows.Close()

	sales := []model.Sale{}
	for rows.Next() {
		s, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction table: %w", err)
	}

	return sales, nil
}

func scanTransaction(s rowScanner) (model.Sale, error) {
	var sale model.Sale
	t := &sale.Transaction
	var class, side, operationType, retention, executedAtStr, createdAtStr string

	err := s.Scan(
		&t.ID,
		&t.UserID,
		&t.AssetID,
		&t.Symbol,
		&class,
		&side,
		&t.Quantity,
		&t.UnitPrice,
		&t.Fees,
		&executedAtStr,
		&operationType,
		&retention,
		&t.ForeignCustody,
		&createdAtStr,
		&sale.AverageCost,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Sale{}, err
		}
		return model.Sale{}, fmt.Errorf("failed to scan transaction table results: %w", err)
	}

	t.AssetClass = model.AssetClass(class)
	t.Side = model.Side(side)
	t.OperationType = model.OperationType(operationType)
	t.RetentionPeriod = model.RetentionPeriod(retention)

	if t.ExecutedAt, err = ParseTime(executedAtStr); err != nil {
		return model.Sale{}, err
	}
	if t.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return model.Sale{}, err
	}
	return sale, nil
}
