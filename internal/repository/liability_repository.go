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

// LiabilityRepository provides data access methods for the liability_document
// and liability_line tables. A document is unique per (user, year, month, scope).
type LiabilityRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewLiabilityRepository creates a new LiabilityRepository with the provided database connection.
func NewLiabilityRepository(db *sql.DB) *LiabilityRepository {
	return &LiabilityRepository{db: db}
}

// WithTx returns a new LiabilityRepository scoped to the provided transaction.
func (r *LiabilityRepository) WithTx(tx *sql.Tx) *LiabilityRepository {
	return &LiabilityRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *LiabilityRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const liabilitySelect = `
		SELECT id, user_id, year, month, scope, period_label, tax_due, locator, created_at, updated_at
		FROM liability_document
`

// GetDocument retrieves the document for (user, period, scope) including its lines.
// Returns ErrLiabilityNotFound if none exists.
func (r *LiabilityRepository) GetDocument(ctx context.Context, userID string, period model.Period, scope model.ReportScope) (model.LiabilityDocument, error) {
	row := r.getQuerier().QueryRowContext(ctx, liabilitySelect+`
		WHERE user_id = ? AND year = ? AND month = ? AND scope = ?
	`, userID, period.Year, int(period.Month), string(scope))

	doc, err := scanLiability(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.LiabilityDocument{}, apperrors.ErrLiabilityNotFound
	}
	if err != nil {
		return model.LiabilityDocument{}, err
	}

	lines, err := r.lines(ctx, doc.ID)
	if err != nil {
		return model.LiabilityDocument{}, err
	}
	doc.Lines = lines
	return doc, nil
}

// ListDocuments returns the user's documents for a year, newest period first.
func (r *LiabilityRepository) ListDocuments(ctx context.Context, userID string, year int) ([]model.LiabilityDocument, error) {
	rows, err := r.getQuerier().QueryContext(ctx, liabilitySelect+`
		WHERE user_id = ? AND year = ?
		ORDER BY month DESC, scope ASC
	`, userID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query liability_document table: %w", err)
	}

	docs := []model.LiabilityDocument{}
	for rows.Next() {
		doc, err := scanLiability(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating liability_document table: %w", err)
	}
	rows.Close()

	for i := range docs {
		if docs[i].Lines, err = r.lines(ctx, docs[i].ID); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// UpsertDocument inserts the document or, when one already exists for its key,
// updates it in place keeping the original ID and creation time. Lines are replaced.
// The stored ID is written back into doc. Without a bound transaction it opens one.
func (r *LiabilityRepository) UpsertDocument(ctx context.Context, doc *model.LiabilityDocument) error {
	if r.tx == nil {
		return RunInTx(ctx, r.db, func(tx *sql.Tx) error {
			return r.WithTx(tx).UpsertDocument(ctx, doc)
		})
	}
	q := r.tx

	err := q.QueryRowContext(ctx, `
		INSERT INTO liability_document (
			id, user_id, year, month, scope, period_label, tax_due, locator, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, year, month, scope) DO UPDATE SET
			period_label = excluded.period_label,
			tax_due = excluded.tax_due,
			locator = excluded.locator,
			updated_at = excluded.updated_at
		RETURNING id
	`,
		doc.ID,
		doc.UserID,
		doc.Year,
		int(doc.Month),
		string(doc.Scope),
		doc.PeriodLabel,
		doc.TaxDue,
		doc.Locator,
		FormatTime(doc.CreatedAt),
		FormatTime(doc.UpdatedAt),
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert liability_document table: %w", err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM liability_line WHERE document_id = ?`, doc.ID); err != nil {
		return fmt.Errorf("failed to delete from liability_line table: %w", err)
	}

	for i, line := range doc.Lines {
		_, err := q.ExecContext(ctx, `
			INSERT INTO liability_line (document_id, position, revenue_code, categories, amount)
			VALUES (?, ?, ?, ?, ?)
		`, doc.ID, i, line.RevenueCode, joinCategories(line.Categories), line.Amount)
		if err != nil {
			return fmt.Errorf("failed to insert into liability_line table: %w", err)
		}
	}

	return nil
}

// DeleteDocument removes the document for (user, period, scope) and its lines.
// Returns ErrLiabilityNotFound if none existed.
func (r *LiabilityRepository) DeleteDocument(ctx context.Context, userID string, period model.Period, scope model.ReportScope) error {
	result, err := r.getQuerier().ExecContext(ctx, `
		DELETE FROM liability_document
		WHERE user_id = ? AND year = ? AND month = ? AND scope = ?
	`, userID, period.Year, int(period.Month), string(scope))
	if err != nil {
		return fmt.Errorf("failed to delete from liability_document table: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrLiabilityNotFound
	}
	return nil
}

func (r *LiabilityRepository) lines(ctx context.Context, documentID string) ([]model.LiabilityLine, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT revenue_code, categories, amount
		FROM liability_line
		WHERE document_id = ?
		ORDER BY position ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query liability_line table: %w", err)
	}
	defer rows.Close()

	lines := []model.LiabilityLine{}
	for rows.Next() {
		var line model.LiabilityLine
		var categories string
		if err := rows.Scan(&line.RevenueCode, &categories, &line.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan liability_line table results: %w", err)
		}
		if line.Categories, err = splitCategories(categories); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating liability_line table: %w", err)
	}
	return lines, nil
}

func scanLiability(s rowScanner) (model.LiabilityDocument, error) {
	var doc model.LiabilityDocument
	var month int
	var scope, createdAtStr, updatedAtStr string

	err := s.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Year,
		&month,
		&scope,
		&doc.PeriodLabel,
		&doc.TaxDue,
		&doc.Locator,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.LiabilityDocument{}, err
		}
		return model.LiabilityDocument{}, fmt.Errorf("failed to scan liability_document table results: %w", err)
	}

	doc.Month = time.Month(month)
	doc.Scope = model.ReportScope(scope)
	if doc.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return model.LiabilityDocument{}, err
	}
	if doc.UpdatedAt, err = ParseTime(updatedAtStr); err != nil {
		return model.LiabilityDocument{}, err
	}
	return doc, nil
}

func joinCategories(categories []model.Category) string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}

func splitCategories(s string) ([]model.Category, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	categories := make([]model.Category, 0, len(parts))
	for _, p := range parts {
		c, err := model.ParseCategory(p)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}
