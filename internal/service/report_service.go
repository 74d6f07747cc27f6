package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/artifact"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/lock"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/render"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/repository"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/tax"
)

// ReportOptions tune the render and store step.
type ReportOptions struct {
	Retries        uint64        // retries after the first attempt
	Backoff        time.Duration // base of the exponential backoff
	AttemptTimeout time.Duration // bound on one render plus store attempt
}

// DefaultReportOptions are used for zero-valued fields.
var DefaultReportOptions = ReportOptions{
	Retries:        3,
	Backoff:        500 * time.Millisecond,
	AttemptTimeout: 30 * time.Second,
}

// ReportService produces liability documents. Each run first recomputes and
// stores the month, so a render or storage failure only delays the document.
//
// For each scope the stored record follows the tax due: no tax removes the
// record and its artifact; tax due replaces the artifact and upserts the record.
// The old artifact is always released before the new one is stored.
type ReportService struct {
	locker        lock.Locker
	taxService    *TaxService
	userService   *UserService
	liabilityRepo *repository.LiabilityRepository
	renderer      render.Renderer
	store         artifact.Store
	opts          ReportOptions
	log           logrus.FieldLogger
}

// NewReportService creates a new ReportService.
func NewReportService(
	locker lock.Locker,
	taxService *TaxService,
	userService *UserService,
	liabilityRepo *repository.LiabilityRepository,
	renderer render.Renderer,
	store artifact.Store,
	opts ReportOptions,
	log logrus.FieldLogger,
) *ReportService {
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultReportOptions.Backoff
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultReportOptions.AttemptTimeout
	}
	return &ReportService{
		locker:        locker,
		taxService:    taxService,
		userService:   userService,
		liabilityRepo: liabilityRepo,
		renderer:      renderer,
		store:         store,
		opts:          opts,
		log:           log,
	}
}

// ListDocuments returns the user's stored liability records for a year.
func (s *ReportService) ListDocuments(ctx context.Context, userID string, year int) ([]model.LiabilityDocument, error) {
	docs, err := s.liabilityRepo.ListDocuments(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveLiabilities, err)
	}
	return docs, nil
}

// GetDocument returns the stored record for (user, period, scope).
func (s *ReportService) GetDocument(ctx context.Context, userID string, period model.Period, scope model.ReportScope) (model.LiabilityDocument, error) {
	return s.liabilityRepo.GetDocument(ctx, userID, period, scope)
}

// GenerateScopeReport recomputes the month and refreshes one scope's document.
// Failures are reported in the outcome; the returned error is only set when
// the user lock could not be taken.
func (s *ReportService) GenerateScopeReport(ctx context.Context, userID string, period model.Period, scope model.ReportScope) (model.Outcome, error) {
	if scope == model.ScopeConsolidated {
		out, err := s.GenerateConsolidatedReport(ctx, userID, period)
		return out.Consolidated, err
	}

	release, err := s.locker.TryLock(ctx, lock.UserKey(userID))
	if err != nil {
		return model.Outcome{}, err
	}
	defer s.taxService.unlock(release, userID)

	m, payer, err := s.prepare(ctx, userID, period)
	if err != nil {
		return failure(scope, err), nil
	}
	return s.refresh(ctx, userID, scope, payer, m), nil
}

// GenerateConsolidatedReport recomputes the month, refreshes every primary
// scope and then the consolidated document. One scope failing does not stop
// the others. The consolidated amount is the sum of the primary scopes' tax.
func (s *ReportService) GenerateConsolidatedReport(ctx context.Context, userID string, period model.Period) (model.ConsolidatedOutcome, error) {
	release, err := s.locker.TryLock(ctx, lock.UserKey(userID))
	if err != nil {
		return model.ConsolidatedOutcome{}, err
	}
	defer s.taxService.unlock(release, userID)

	return s.consolidated(ctx, userID, period), nil
}

// consolidated is GenerateConsolidatedReport without locking.
func (s *ReportService) consolidated(ctx context.Context, userID string, period model.Period) model.ConsolidatedOutcome {
	out := model.ConsolidatedOutcome{UserID: userID, Period: period}

	m, payer, err := s.prepare(ctx, userID, period)
	if err != nil {
		for _, scope := range model.PrimaryScopes() {
			out.Scopes = append(out.Scopes, failure(scope, err))
		}
		out.Consolidated = failure(model.ScopeConsolidated, err)
		return out
	}

	for _, scope := range model.PrimaryScopes() {
		out.Scopes = append(out.Scopes, s.refresh(ctx, userID, scope, payer, m))
	}
	out.Consolidated = s.refresh(ctx, userID, model.ScopeConsolidated, payer, m)
	return out
}

func (s *ReportService) prepare(ctx context.Context, userID string, period model.Period) (tax.MonthComputation, model.Payer, error) {
	m, err := s.taxService.recompute(ctx, userID, period)
	if err != nil {
		return tax.MonthComputation{}, model.Payer{}, err
	}
	payer, err := s.userService.Payer(ctx, userID)
	if err != nil {
		return tax.MonthComputation{}, model.Payer{}, err
	}
	return m, payer, nil
}

// refresh brings one scope's record and artifact in line with m.
func (s *ReportService) refresh(ctx context.Context, userID string, scope model.ReportScope, payer model.Payer, m tax.MonthComputation) model.Outcome {
	log := s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"period":  m.Period.String(),
		"scope":   string(scope),
	})

	now := time.Now().UTC()
	d, err := tax.BuildDescriptor(scope, payer, m, now)
	if err != nil {
		return failure(scope, err)
	}

	existing, err := s.liabilityRepo.GetDocument(ctx, userID, m.Period, scope)
	found := err == nil
	if err != nil && !errors.Is(err, apperrors.ErrLiabilityNotFound) {
		return failure(scope, err)
	}

	if !d.Total.IsPositive() {
		if found {
			if err := s.store.Release(ctx, existing.Locator); err != nil {
				log.WithError(err).Warn("failed to release artifact of removed document")
			}
			if err := s.liabilityRepo.DeleteDocument(ctx, userID, m.Period, scope); err != nil && !errors.Is(err, apperrors.ErrLiabilityNotFound) {
				return failure(scope, err)
			}
			log.Info("liability document removed, no tax due")
		}
		return model.Outcome{Scope: scope, Success: true, Message: "no tax due", TaxDue: d.Total}
	}

	if found && existing.Locator != "" {
		if err := s.store.Release(ctx, existing.Locator); err != nil {
			log.WithError(err).Error("failed to release superseded artifact")
			return failure(scope, fmt.Errorf("%w: %w", apperrors.ErrArtifactStoreFailed, err))
		}
	}

	locator, err := s.renderAndStore(ctx, userID, d)
	if err != nil {
		log.WithError(err).Error("failed to produce liability document")
		if found {
			// The record would point at the artifact released above.
			if derr := s.liabilityRepo.DeleteDocument(ctx, userID, m.Period, scope); derr != nil && !errors.Is(derr, apperrors.ErrLiabilityNotFound) {
				log.WithError(derr).Error("failed to remove superseded liability document")
			}
		}
		return failure(scope, err)
	}

	doc := model.LiabilityDocument{
		ID:          uuid.New().String(),
		UserID:      userID,
		Year:        m.Period.Year,
		Month:       m.Period.Month,
		Scope:       scope,
		PeriodLabel: d.PeriodLabel,
		TaxDue:      d.Total,
		Locator:     locator,
		Lines:       d.Lines(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.liabilityRepo.UpsertDocument(ctx, &doc); err != nil {
		if rerr := s.store.Release(ctx, locator); rerr != nil {
			log.WithError(rerr).Warn("failed to release orphaned artifact")
		}
		return failure(scope, err)
	}

	log.WithField("tax_due", d.Total.StringFixed(2)).Info("liability document stored")
	return model.Outcome{Scope: scope, Success: true, Message: "document generated", TaxDue: d.Total, Locator: locator}
}

// renderAndStore renders d and stores the bytes, retrying both with
// exponential backoff. Each attempt gets its own timeout.
func (s *ReportService) renderAndStore(ctx context.Context, userID string, d model.LiabilityDescriptor) (string, error) {
	key := artifact.Key(userID, d.Period.String(), string(d.Scope), s.renderer.Extension(), d.GeneratedAt)
	backoff := retry.WithMaxRetries(s.opts.Retries, retry.NewExponential(s.opts.Backoff))

	var locator string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.opts.AttemptTimeout)
		defer cancel()

		data, err := s.renderer.Render(attemptCtx, d)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: %w", apperrors.ErrRenderFailed, err))
		}
		loc, err := s.store.Put(attemptCtx, key, s.renderer.ContentType(), data)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: %w", apperrors.ErrArtifactStoreFailed, err))
		}
		locator = loc
		return nil
	})
	return locator, err
}

func failure(scope model.ReportScope, err error) model.Outcome {
	return model.Outcome{Scope: scope, Success: false, Message: err.Error()}
}
