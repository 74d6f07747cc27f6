package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/app"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/config"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/logging"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/service"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/version"
)

// sweepTimeout bounds one scheduled sweep run.
const sweepTimeout = 30 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(log.Level)
	log.WithField("version", version.Version).Info("starting capital gains backend")

	application, err := app.New(context.Background(), cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize application")
	}
	defer func() {
		if err := application.Close(); err != nil {
			log.WithError(err).Warn("failed to release resources")
		}
	}()

	// Scheduled sweep for the previous calendar month
	var scheduler *cron.Cron
	if cfg.Sweep.Enabled {
		scheduler, err = startSweepSchedule(cfg.Sweep.Schedule, application.Services.Sweep, log)
		if err != nil {
			log.WithError(err).Fatal("failed to schedule sweep")
		}
	}

	router := api.NewRouter(application.Services, cfg, application.ArtifactDir, log)

	// Create HTTP server. Report generation renders and uploads inline, so
	// the write timeout is wider than a plain JSON API would need.
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		// Wait for a running sweep, bounded by the shutdown timeout.
		select {
		case <-scheduler.Stop().Done():
		case <-ctx.Done():
			log.Warn("sweep still running at shutdown")
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
		return
	}

	log.Info("server exited")
}

// startSweepSchedule runs the sweep on spec for the month before the one
// the job fires in.
func startSweepSchedule(spec string, sweep *service.SweepService, log *logrus.Logger) (*cron.Cron, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cron.PrintfLogger(log)),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
	)

	_, err := c.AddFunc(spec, func() {
		period := model.PeriodOf(time.Now()).Previous()
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		summary, err := sweep.Run(ctx, period)
		if err != nil {
			log.WithError(err).WithField("period", period.String()).Error("scheduled sweep failed")
			return
		}
		if summary.Failed > 0 {
			log.WithFields(logrus.Fields{
				"period": period.String(),
				"failed": summary.Failed,
			}).Warn("scheduled sweep finished with failures")
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.WithField("schedule", spec).Info("sweep scheduled")
	return c, nil
}
