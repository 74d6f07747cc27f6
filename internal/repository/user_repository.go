package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// UserRepository provides data access methods for the taxpayer table.
// The TaxID of users it reads and writes is the encrypted token as stored;
// encryption is the caller's concern.
type UserRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewUserRepository creates a new UserRepository with the provided database connection.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a new UserRepository scoped to the provided transaction.
func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *UserRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// EnsureUser creates an empty profile for userID if none exists yet.
func (r *UserRepository) EnsureUser(ctx context.Context, userID string) error {
	now := FormatTime(time.Now())
	_, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO taxpayer (id, created_at, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, userID, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert into taxpayer table: %w", err)
	}
	return nil
}

// GetUser retrieves a profile by ID.
// Returns ErrUserNotFound if no profile exists.
func (r *UserRepository) GetUser(ctx context.Context, userID string) (model.User, error) {
	row := r.getQuerier().QueryRowContext(ctx, `
		SELECT id, name, email, tax_id_encrypted, notifications_enabled, created_at, updated_at
		FROM taxpayer
		WHERE id = ?
	`, userID)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, apperrors.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// UpdateProfile overwrites the mutable profile fields.
// Returns ErrUserNotFound if the profile does not exist.
func (r *UserRepository) UpdateProfile(ctx context.Context, u model.User) error {
	result, err := r.getQuerier().ExecContext(ctx, `
		UPDATE taxpayer
		SET name = ?, email = ?, tax_id_encrypted = ?, notifications_enabled = ?, updated_at = ?
		WHERE id = ?
	`, u.Name, u.Email, u.TaxID, u.NotificationsEnabled, FormatTime(u.UpdatedAt), u.ID)
	if err != nil {
		return fmt.Errorf("failed to update taxpayer table: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// ListNotifiable returns users who consented to notifications and have an email set.
func (r *UserRepository) ListNotifiable(ctx context.Context) ([]model.User, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT id, name, email, tax_id_encrypted, notifications_enabled, created_at, updated_at
		FROM taxpayer
		WHERE notifications_enabled = TRUE AND email != ''
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query taxpayer table: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating taxpayer table: %w", err)
	}

	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (model.User, error) {
	var u model.User
	var createdAtStr, updatedAtStr string

	err := s.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.TaxID,
		&u.NotificationsEnabled,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("failed to scan taxpayer table results: %w", err)
	}

	if u.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return model.User{}, err
	}
	if u.UpdatedAt, err = ParseTime(updatedAtStr); err != nil {
		return model.User{}, err
	}
	return u, nil
}
