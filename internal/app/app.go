// Package app builds the service graph from configuration. It is shared by
// the HTTP server and the one-shot sweep command.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/artifact"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/config"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/database"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/lock"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/notify"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/quote"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/render"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/repository"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/secret"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/service"
)

// App holds the opened resources and the wired services.
type App struct {
	DB       *sql.DB
	Services api.Services

	// ArtifactDir is set when documents are stored on local disk.
	ArtifactDir string

	closers []func() error
}

// New opens the database, applies migrations and wires every service with
// the collaborators selected by cfg.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)
	log.WithField("path", cfg.Database.Path).Info("connected to database")

	if err := database.Migrate(db, log); err != nil {
		return nil, err
	}

	if cfg.Auth.SecretKey == "" {
		return nil, errors.New("SECRET_KEY is required")
	}
	// Comma-separated; the first key encrypts, all of them decrypt.
	cipher, err := secret.NewCipher(strings.Split(cfg.Auth.SecretKey, ",")...)
	if err != nil {
		return nil, err
	}

	locker, err := a.locker(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	store, err := a.store(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	renderer, err := render.New(cfg.Render.Format)
	if err != nil {
		return nil, err
	}

	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if cfg.Notify.Backend == "mailgun" {
		notifier = notify.NewMailgunNotifier(cfg.Notify.MailgunDomain, cfg.Notify.MailgunAPIKey, cfg.Notify.MailgunAPIURL, cfg.Notify.SenderName, cfg.Notify.SenderEmail, log)
	}

	quotes := quote.NewClient(
		quote.WithCacheTTL(cfg.Quote.CacheTTL),
		quote.WithRateLimit(cfg.Quote.RatePerSecond),
		quote.WithSuffixes(cfg.Quote.EquitySuffix, cfg.Quote.CryptoSuffix),
	)

	userRepo := repository.NewUserRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	resultRepo := repository.NewMonthlyResultRepository(db)
	carryRepo := repository.NewCarryforwardRepository(db)
	liabilityRepo := repository.NewLiabilityRepository(db)

	userService := service.NewUserService(userRepo, cipher, log)
	positionService := service.NewPositionService(assetRepo, transactionRepo)
	taxService := service.NewTaxService(db, locker, userRepo, transactionRepo, resultRepo, carryRepo, log)
	transactionService := service.NewTransactionService(db, locker, userRepo, transactionRepo, positionService, taxService, log)
	reportService := service.NewReportService(locker, taxService, userService, liabilityRepo, renderer, store, service.ReportOptions{
		Retries:        cfg.Render.Retries,
		AttemptTimeout: cfg.Render.Timeout,
	}, log)

	a.Services = api.Services{
		System: service.NewSystemService(db, map[string]bool{
			"quotes":       true,
			"sweep":        cfg.Sweep.Enabled,
			"redis_lock":   cfg.Lock.Backend == "redis",
			"gcs_storage":  cfg.Artifact.Backend == "gcs",
			"mail_notices": cfg.Notify.Backend == "mailgun",
		}),
		User:        userService,
		Position:    positionService,
		Transaction: transactionService,
		Tax:         taxService,
		Report:      reportService,
		Dashboard:   service.NewDashboardService(taxService, positionService, quotes, log),
		Sweep:       service.NewSweepService(userService, reportService, notifier, cfg.Sweep.Concurrency, log),
	}

	ok = true
	return a, nil
}

func (a *App) locker(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (lock.Locker, error) {
	switch cfg.Lock.Backend {
	case "local":
		return lock.NewLocalLocker(), nil
	case "redis":
		rdb, err := lock.DialRedis(ctx, cfg.Lock.RedisAddr, cfg.Lock.RedisPassword)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		log.WithField("addr", cfg.Lock.RedisAddr).Info("using redis locks")
		return lock.NewRedisLocker(rdb, cfg.Lock.TTL, log), nil
	default:
		return nil, fmt.Errorf("LOCK_BACKEND must be local or redis, got %q", cfg.Lock.Backend)
	}
}

func (a *App) store(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (artifact.Store, error) {
	if cfg.Artifact.Backend == "gcs" {
		gcs, err := artifact.NewGCSStore(ctx, cfg.Artifact.GCSBucket, cfg.Artifact.GCSPrefix, cfg.Artifact.CredentialsJSON)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gcs.Close)
		log.WithField("bucket", cfg.Artifact.GCSBucket).Info("storing documents in cloud storage")
		return gcs, nil
	}

	fs, err := artifact.NewFileStore(cfg.Artifact.Dir, cfg.Artifact.BaseURL)
	if err != nil {
		return nil, err
	}
	a.ArtifactDir = fs.BasePath()
	return fs, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
