// Command sweep runs the monthly document sweep once and exits. It is meant
// for operators and external schedulers.
//
// Usage:
//
//	sweep [-period YYYY-MM]
//
// The period defaults to the previous calendar month. The exit code is 1 when
// the sweep could not run and 2 when it ran with per-user failures.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/request"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/app"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/config"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/logging"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/model"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/version"
)

func main() {
	periodFlag := flag.String("period", "", "month to sweep as YYYY-MM (default: previous month)")
	flag.Parse()

	os.Exit(run(*periodFlag))
}

func run(periodFlag string) int {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Error("failed to load configuration")
		return 1
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	period, err := request.ParsePeriodParam(periodFlag, model.PeriodOf(time.Now()).Previous())
	if err != nil {
		log.WithError(err).Error("invalid period")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("failed to initialize application")
		return 1
	}
	defer application.Close()

	log.WithFields(logrus.Fields{
		"version": version.Version,
		"period":  period.String(),
	}).Info("running sweep")

	summary, err := application.Services.Sweep.Run(ctx, period)
	if err != nil {
		log.WithError(err).Error("sweep failed")
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		log.WithError(err).Error("failed to write summary")
	}

	if summary.Failed > 0 {
		return 2
	}
	return 0
}
