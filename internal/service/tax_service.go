package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/lock"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/repository"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/tax"
)

// maxRecomputeMonths bounds a single range recompute.
const maxRecomputeMonths = 120

// TaxService runs the monthly recompute pipeline: aggregate sales, apply the
// carryforward from the preceding month, evaluate every category and persist
// results and balances in one SQL transaction.
//
// The pipeline is serialized per user through the Locker. Public methods take
// the lock themselves; other services that already hold it call recompute.
type TaxService struct {
	db              *sql.DB
	locker          lock.Locker
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
	resultRepo      *repository.MonthlyResultRepository
	carryRepo       *repository.CarryforwardRepository
	log             logrus.FieldLogger
}

// NewTaxService creates a new TaxService.
func NewTaxService(
	db *sql.DB,
	locker lock.Locker,
	userRepo *repository.UserRepository,
	transactionRepo *repository.TransactionRepository,
	resultRepo *repository.MonthlyResultRepository,
	carryRepo *repository.CarryforwardRepository,
	log logrus.FieldLogger,
) *TaxService {
	return &TaxService{
		db:              db,
		locker:          locker,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		resultRepo:      resultRepo,
		carryRepo:       carryRepo,
		log:             log,
	}
}

// RecomputeMonth recomputes and stores one user-month. It fails fast with
// ErrConcurrentRecompute when another write for the user is in progress.
func (s *TaxService) RecomputeMonth(ctx context.Context, userID string, period model.Period) (tax.MonthComputation, error) {
	release, err := s.locker.TryLock(ctx, lock.UserKey(userID))
	if err != nil {
		return tax.MonthComputation{}, err
	}
	defer s.unlock(release, userID)

	return s.recompute(ctx, userID, period)
}

// RecomputeRange walks from..to (inclusive) month by month so that each
// month reads the balance the previous step just wrote.
func (s *TaxService) RecomputeRange(ctx context.Context, userID string, from, to model.Period) ([]tax.MonthComputation, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s is after %s", apperrors.ErrInvalidPeriod, from, to)
	}
	if months := monthsBetween(from, to); months > maxRecomputeMonths {
		return nil, fmt.Errorf("%w: range spans %d months, at most %d allowed", apperrors.ErrInvalidPeriod, months, maxRecomputeMonths)
	}

	release, err := s.locker.TryLock(ctx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer s.unlock(release, userID)

	var computations []tax.MonthComputation
	for p := from; !to.Before(p); p = p.Next() {
		m, err := s.recompute(ctx, userID, p)
		if err != nil {
			return computations, err
		}
		computations = append(computations, m)
	}
	return computations, nil
}

// ListResults returns stored monthly results between two periods inclusive.
func (s *TaxService) ListResults(ctx context.Context, userID string, from, to model.Period) ([]model.MonthlyResult, error) {
	results, err := s.resultRepo.ListResults(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveResults, err)
	}
	return results, nil
}

// recompute runs the pipeline for one month. The caller must hold the user lock.
// Results for the month are replaced as a whole; balances are written for
// every category so months without sales still carry losses forward.
func (s *TaxService) recompute(ctx context.Context, userID string, period model.Period) (tax.MonthComputation, error) {
	var m tax.MonthComputation

	err := repository.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		// Balances and results reference the profile row.
		if err := s.userRepo.WithTx(tx).EnsureUser(ctx, userID); err != nil {
			return err
		}

		sales, err := s.transactionRepo.WithTx(tx).ListSales(ctx, userID, period.Start(), period.End())
		if err != nil {
			return err
		}

		// Only the immediately preceding month counts; a month never computed reads as zero.
		previous, err := s.carryRepo.WithTx(tx).GetBalances(ctx, userID, period.Previous())
		if err != nil {
			return err
		}

		if m, err = tax.ComputeMonth(period, sales, previous); err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := s.resultRepo.WithTx(tx).ReplaceMonth(ctx, userID, period, m.Results(userID, now)); err != nil {
			return err
		}
		return s.carryRepo.WithTx(tx).UpsertBalances(ctx, m.Carryforwards(userID, now))
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"user_id": userID,
			"period":  period.String(),
		}).WithError(err).Error("monthly recompute failed")
		return tax.MonthComputation{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRecompute, err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"period":  period.String(),
		"tax_due": m.ScopeTaxDue(model.ScopeConsolidated).StringFixed(2),
	}).Debug("monthly recompute stored")

	return m, nil
}

func (s *TaxService) unlock(release lock.Release, userID string) {
	if err := release(context.Background()); err != nil {
		s.log.WithField("user_id", userID).WithError(err).Warn("failed to release recompute lock")
	}
}

func monthsBetween(from, to model.Period) int {
	return (to.Year-from.Year)*12 + int(to.Month) - int(from.Month) + 1
}
