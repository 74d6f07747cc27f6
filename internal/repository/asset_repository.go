package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
)

// AssetRepository provides data access methods for the asset table, which
// stores one position per (user, symbol).
type AssetRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewAssetRepository creates a new AssetRepository with the provided database connection.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// WithTx returns a new AssetRepository scoped to the provided transaction.
func (r *AssetRepository) WithTx(tx *sql.Tx) *AssetRepository {
	return &AssetRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *AssetRepository) getQuerier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const assetColumns = `id, user_id, symbol, asset_class, quantity, average_cost, updated_at`

// GetAsset retrieves one of the user's assets by ID.
// Returns ErrAssetNotFound if it does not exist or belongs to another user.
func (r *AssetRepository) GetAsset(ctx context.Context, userID, assetID string) (model.Asset, error) {
	row := r.getQuerier().QueryRowContext(ctx, `
		SELECT `+assetColumns+`
		FROM asset
		WHERE id = ? AND user_id = ?
	`, assetID, userID)
	return r.scanOne(row)
}

// GetAssetBySymbol retrieves the user's asset for symbol.
// Returns ErrAssetNotFound if the user never traded it.
func (r *AssetRepository) GetAssetBySymbol(ctx context.Context, userID, symbol string) (model.Asset, error) {
	row := r.getQuerier().QueryRowContext(ctx, `
		SELECT `+assetColumns+`
		FROM asset
		WHERE user_id = ? AND symbol = ?
	`, userID, symbol)
	return r.scanOne(row)
}

// ListAssets returns every asset of the user ordered by symbol.
func (r *AssetRepository) ListAssets(ctx context.Context, userID string) ([]model.Asset, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT `+assetColumns+`
		FROM asset
		WHERE user_id = ?
		ORDER BY symbol ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset table: %w", err)
	}
	defer rows.Close()

	assets := []model.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset table: %w", err)
	}

	return assets, nil
}

// InsertAsset creates a new asset row.
func (r *AssetRepository) InsertAsset(ctx context.Context, a model.Asset) error {
	_, err := r.getQuerier().ExecContext(ctx, `
		INSERT INTO asset (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.UserID, a.Symbol, string(a.Class), a.Quantity, a.AverageCost, FormatTime(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert into asset table: %w", err)
	}
	return nil
}

// UpdatePosition stores a recomputed quantity and average cost.
// Returns ErrAssetNotFound if the asset does not exist.
func (r *AssetRepository) UpdatePosition(ctx context.Context, a model.Asset) error {
	result, err := r.getQuerier().ExecContext(ctx, `
		UPDATE asset
		SET quantity = ?, average_cost = ?, updated_at = ?
		WHERE id = ?
	`, a.Quantity, a.AverageCost, FormatTime(a.UpdatedAt), a.ID)
	if err != nil {
		return fmt.Errorf("failed to update asset table: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrAssetNotFound
	}
	return nil
}

func (r *AssetRepository) scanOne(row *sql.Row) (model.Asset, error) {
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Asset{}, apperrors.ErrAssetNotFound
	}
	return a, err
}

func scanAsset(s rowScanner) (model.Asset, error) {
	var a model.Asset
	var class, updatedAtStr string

	err := s.Scan(
		&a.ID,
		&a.UserID,
		&a.Symbol,
		&class,
		&a.Quantity,
		&a.AverageCost,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Asset{}, err
		}
		return model.Asset{}, fmt.Errorf("failed to scan asset table results: %w", err)
	}

	a.Class = model.AssetClass(class)
	if a.UpdatedAt, err = ParseTime(updatedAtStr); err != nil {
		return model.Asset{}, err
	}
	return a, nil
}
