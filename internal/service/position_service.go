package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/repository"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/tax"
)

// PositionService keeps stored asset positions in line with their history.
type PositionService struct {
	assetRepo       *repository.AssetRepository
	transactionRepo *repository.TransactionRepository
}

// NewPositionService creates a new PositionService.
func NewPositionService(assetRepo *repository.AssetRepository, transactionRepo *repository.TransactionRepository) *PositionService {
	return &PositionService{
		assetRepo:       assetRepo,
		transactionRepo: transactionRepo,
	}
}

// ListAssets returns the user's stored positions.
func (s *PositionService) ListAssets(ctx context.Context, userID string) ([]model.Asset, error) {
	assets, err := s.assetRepo.ListAssets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveAssets, err)
	}
	return assets, nil
}

// GetAsset returns one of the user's assets.
func (s *PositionService) GetAsset(ctx context.Context, userID, assetID string) (model.Asset, error) {
	return s.assetRepo.GetAsset(ctx, userID, assetID)
}

// findOrCreateAsset returns the user's asset for symbol, creating an empty
// one if needed. An existing asset of a different class is an error.
func (s *PositionService) findOrCreateAsset(ctx context.Context, tx *sql.Tx, userID, symbol string, class model.AssetClass) (model.Asset, error) {
	repo := s.assetRepo.WithTx(tx)

	asset, err := repo.GetAssetBySymbol(ctx, userID, symbol)
	if err == nil {
		if asset.Class != class {
			return model.Asset{}, fmt.Errorf("%w: %s is recorded as %s", apperrors.ErrAssetClassMismatch, symbol, asset.Class)
		}
		return asset, nil
	}
	if !errors.Is(err, apperrors.ErrAssetNotFound) {
		return model.Asset{}, err
	}

	asset = model.Asset{
		ID:          uuid.New().String(),
		UserID:      userID,
		Symbol:      symbol,
		Class:       class,
		Quantity:    decimal.Zero,
		AverageCost: decimal.Zero,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.InsertAsset(ctx, asset); err != nil {
		return model.Asset{}, err
	}
	return asset, nil
}

// replay recomputes the asset's quantity and average cost from its complete
// history and stores them. A negative quantity is stored as is.
func (s *PositionService) replay(ctx context.Context, tx *sql.Tx, asset model.Asset) (model.Asset, error) {
	history, err := s.transactionRepo.WithTx(tx).ListTransactions(ctx, model.TransactionFilter{
		UserID:  asset.UserID,
		AssetID: asset.ID,
	})
	if err != nil {
		return model.Asset{}, err
	}

	pos := tax.ComputePosition(history)
	asset.Quantity = pos.Quantity
	asset.AverageCost = pos.AverageCost
	asset.UpdatedAt = time.Now().UTC()

	if err := s.assetRepo.WithTx(tx).UpdatePosition(ctx, asset); err != nil {
		return model.Asset{}, err
	}
	return asset, nil
}
