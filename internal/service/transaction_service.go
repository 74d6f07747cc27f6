package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/lock"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/repository"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/validation"
)

// TransactionService handles the interactive write path. Every write holds the
// user's lock while it stores the transaction, replays the position of each
// touched asset and recomputes the month(s) the transaction was and is in.
type TransactionService struct {
	db              *sql.DB
	locker          lock.Locker
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
	positionService *PositionService
	taxService      *TaxService
	log             logrus.FieldLogger
}

// NewTransactionService creates a new TransactionService with the provided dependencies.
func NewTransactionService(
	db *sql.DB,
	locker lock.Locker,
	userRepo *repository.UserRepository,
	transactionRepo *repository.TransactionRepository,
	positionService *PositionService,
	taxService *TaxService,
	log logrus.FieldLogger,
) *TransactionService {
	return &TransactionService{
		db:              db,
		locker:          locker,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		positionService: positionService,
		taxService:      taxService,
		log:             log,
	}
}

// ListTransactions returns the user's transactions matching filter, oldest first.
func (s *TransactionService) ListTransactions(ctx context.Context, filter model.TransactionFilter) ([]model.Transaction, error) {
	txs, err := s.transactionRepo.ListTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveTransactions, err)
	}
	return txs, nil
}

// GetTransaction retrieves one of the user's transactions.
func (s *TransactionService) GetTransaction(ctx context.Context, userID, transactionID string) (model.Transaction, error) {
	return s.transactionRepo.GetTransaction(ctx, userID, transactionID)
}

// CreateTransaction stores a new transaction, creating its asset on first use.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID string, req request.CreateTransactionRequest) (model.Transaction, error) {
	executedAt, err := request.ParseTimestamp(req.ExecutedAt)
	if err != nil {
		return model.Transaction{}, err
	}

	t := model.Transaction{
		ID:              uuid.New().String(),
		UserID:          userID,
		Symbol:          normalizeSymbol(req.Symbol),
		AssetClass:      model.AssetClass(req.AssetClass),
		Side:            model.Side(req.Side),
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		Fees:            req.Fees,
		ExecutedAt:      executedAt,
		OperationType:   model.OperationType(req.OperationType),
		RetentionPeriod: model.RetentionPeriod(req.RetentionPeriod),
		ForeignCustody:  req.ForeignCustody,
		CreatedAt:       time.Now().UTC(),
	}
	if err := validation.ValidateTransaction(t); err != nil {
		return model.Transaction{}, err
	}

	release, err := s.locker.TryLock(ctx, lock.UserKey(userID))
	if err != nil {
		return model.Transaction{}, err
	}
	defer s.taxService.unlock(release, userID)

	if err := s.userRepo.EnsureUser(ctx, userID); err != nil {
		return model.Transaction{}, err
	}

	err = repository.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		asset, err := s.positionService.findOrCreateAsset(ctx, tx, userID, t.Symbol, t.AssetClass)
		if err != nil {
			return err
		}
		t.AssetID = asset.ID

		if err := s.transactionRepo.WithTx(tx).InsertTransaction(ctx, t); err != nil {
			return err
		}
		_, err = s.positionService.replay(ctx, tx, asset)
		return err
	})
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	if err := s.recomputeMonths(ctx, userID, model.PeriodOf(t.ExecutedAt)); err != nil {
		return model.Transaction{}, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"transaction_id": t.ID,
		"symbol":         t.Symbol,
	}).Info("transaction created")

	return s.transactionRepo.GetTransaction(ctx, userID, t.ID)
}

// UpdateTransaction merges req into an existing transaction. Moving it to
// another symbol or month replays both assets and recomputes both months.
func (s *TransactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, req request.UpdateTransactionRequest) (model.Transaction, error) {
	release, err := s.locker.TryLock(ctx, lock.UserKey(userID))
	if err != nil {
		return model.Transaction{}, err
	}
	defer s.taxService.unlock(release, userID)

	before, err := s.transactionRepo.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return model.Transaction{}, err
	}

	after, err := mergeTransaction(before, req)
	if err != nil {
		return model.Transaction{}, err
	}
	if err := validation.ValidateTransaction(after); err != nil {
		return model.Transaction{}, err
	}

	err = repository.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		oldAsset, err := s.positionService.assetRepo.WithTx(tx).GetAsset(ctx, userID, before.AssetID)
		if err != nil {
			return err
		}

		newAsset := oldAsset
		if after.Symbol != before.Symbol || after.AssetClass != before.AssetClass {
			if newAsset, err = s.positionService.findOrCreateAsset(ctx, tx, userID, after.Symbol, after.AssetClass); err != nil {
				return err
			}
		}
		after.AssetID = newAsset.ID

		if err := s.transactionRepo.WithTx(tx).UpdateTransaction(ctx, after); err != nil {
			return err
		}

		if _, err := s.positionService.replay(ctx, tx, newAsset); err != nil {
			return err
		}
		if newAsset.ID != oldAsset.ID {
			if _, err := s.positionService.replay(ctx, tx, oldAsset); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to update transaction: %w", err)
	}

	if err := s.recomputeMonths(ctx, userID, model.PeriodOf(before.ExecutedAt), model.PeriodOf(after.ExecutedAt)); err != nil {
		return model.Transaction{}, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"transaction_id": transactionID,
	}).Info("transaction updated")

	return s.transactionRepo.GetTransaction(ctx, userID, transactionID)
}

// DeleteTransaction removes a transaction and recomputes what depended on it.
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	release, err := s.locker.TryLock(ctx, lock.UserKey(userID))
	if err != nil {
		return err
	}
	defer s.taxService.unlock(release, userID)

	existing, err := s.transactionRepo.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return err
	}

	err = repository.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.transactionRepo.WithTx(tx).DeleteTransaction(ctx, userID, transactionID); err != nil {
			return err
		}
		asset, err := s.positionService.assetRepo.WithTx(tx).GetAsset(ctx, userID, existing.AssetID)
		if err != nil {
			return err
		}
		_, err = s.positionService.replay(ctx, tx, asset)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	if err := s.recomputeMonths(ctx, userID, model.PeriodOf(existing.ExecutedAt)); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"transaction_id": transactionID,
	}).Info("transaction deleted")
	return nil
}

// recomputeMonths recomputes each distinct period once, oldest first. Months
// after the last touched one keep their stored rows until a range recompute.
func (s *TransactionService) recomputeMonths(ctx context.Context, userID string, periods ...model.Period) error {
	if len(periods) == 2 && periods[1].Before(periods[0]) {
		periods[0], periods[1] = periods[1], periods[0]
	}
	for i, p := range periods {
		if i > 0 && p == periods[i-1] {
			continue
		}
		if _, err := s.taxService.recompute(ctx, userID, p); err != nil {
			return err
		}
	}
	return nil
}

func mergeTransaction(t model.Transaction, req request.UpdateTransactionRequest) (model.Transaction, error) {
	if req.Symbol != nil {
		t.Symbol = normalizeSymbol(*req.Symbol)
	}
	if req.AssetClass != nil {
		t.AssetClass = model.AssetClass(*req.AssetClass)
	}
	if req.Side != nil {
		t.Side = model.Side(*req.Side)
	}
	if req.Quantity != nil {
		t.Quantity = *req.Quantity
	}
	if req.UnitPrice != nil {
		t.UnitPrice = *req.UnitPrice
	}
	if req.Fees != nil {
		t.Fees = *req.Fees
	}
	if req.ExecutedAt != nil {
		executedAt, err := request.ParseTimestamp(*req.ExecutedAt)
		if err != nil {
			return model.Transaction{}, err
		}
		t.ExecutedAt = executedAt
	}
	if req.OperationType != nil {
		t.OperationType = model.OperationType(*req.OperationType)
	}
	if req.RetentionPeriod != nil {
		t.RetentionPeriod = model.RetentionPeriod(*req.RetentionPeriod)
	}
	if req.ForeignCustody != nil {
		t.ForeignCustody = *req.ForeignCustody
	}
	return t, nil
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
