package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/notify"
)

// DefaultSweepConcurrency is the number of users processed at once.
const DefaultSweepConcurrency = 4

// SweepService generates the consolidated document of a month for every user
// who opted in to notifications, and notifies those who owe tax.
type SweepService struct {
	userService   *UserService
	reportService *ReportService
	notifier      notify.Notifier
	concurrency   int
	log           logrus.FieldLogger
}

// NewSweepService creates a new SweepService.
func NewSweepService(userService *UserService, reportService *ReportService, notifier notify.Notifier, concurrency int, log logrus.FieldLogger) *SweepService {
	if concurrency < 1 {
		concurrency = DefaultSweepConcurrency
	}
	return &SweepService{
		userService:   userService,
		reportService: reportService,
		notifier:      notifier,
		concurrency:   concurrency,
		log:           log,
	}
}

// Run processes every notifiable user for period. A failing user is recorded
// in the summary and never aborts the batch; the error is only set when the
// user list itself cannot be loaded.
func (s *SweepService) Run(ctx context.Context, period model.Period) (model.SweepSummary, error) {
	summary := model.SweepSummary{Period: period}

	users, err := s.userService.ListNotifiable(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list users for sweep: %w", err)
	}

	start := time.Now()
	s.log.WithFields(logrus.Fields{
		"period": period.String(),
		"users":  len(users),
	}).Info("sweep started")

	var (
		mu      sync.Mutex
		results = make([]model.SweepResult, 0, len(users))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, u := range users {
		u := u
		g.Go(func() error {
			r := s.processUser(gctx, u, period)
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	sort.Slice(results, func(i, j int) bool { return results[i].UserID < results[j].UserID })

	summary.Results = results
	summary.Processed = len(results)
	for _, r := range results {
		if r.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	s.log.WithFields(logrus.Fields{
		"period":    period.String(),
		"processed": summary.Processed,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"duration":  time.Since(start).String(),
	}).Info("sweep finished")

	return summary, nil
}

func (s *SweepService) processUser(ctx context.Context, u model.User, period model.Period) model.SweepResult {
	log := s.log.WithFields(logrus.Fields{"user_id": u.ID, "period": period.String()})
	result := model.SweepResult{UserID: u.ID}

	if err := ctx.Err(); err != nil {
		result.Message = err.Error()
		return result
	}

	out, err := s.reportService.GenerateConsolidatedReport(ctx, u.ID, period)
	if err != nil {
		log.WithError(err).Warn("sweep skipped user")
		result.Message = err.Error()
		return result
	}
	if !out.Success() {
		log.WithField("reason", out.Consolidated.Message).Warn("sweep failed for user")
		result.Message = out.Consolidated.Message
		return result
	}

	result.Success = true
	result.Message = out.Consolidated.Message
	result.Locator = out.Consolidated.Locator

	if out.Consolidated.Locator == "" || !u.CanBeNotified() {
		return result
	}

	notice := notify.Notice{
		PeriodLabel: period.Label(),
		DueDate:     period.DueDate(),
		TaxDue:      out.Consolidated.TaxDue.StringFixed(2),
		Locator:     out.Consolidated.Locator,
	}
	if err := s.notifier.Notify(ctx, u, notice); err != nil {
		log.WithError(err).Error("failed to notify user")
		result.Success = false
		result.Message = fmt.Sprintf("%s: %v", apperrors.ErrNotificationFailed, err)
		return result
	}
	result.Notified = true
	return result
}
