package testutil

import (
	"database/sql"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/lock"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/repository"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/secret"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/service"
)

// Services wires every service against one test database, an in-process
// locker and in-memory collaborators. Tests reach into the mocks to inject
// failures or inspect what was stored.
type Services struct {
	DB     *sql.DB
	Locker *lock.LocalLocker
	Cipher *secret.Cipher
	Logs   *logtest.Hook

	Renderer *MockRenderer
	Store    *MockStore
	Notifier *MockNotifier
	Quotes   *MockQuoteProvider

	User        *service.UserService
	Position    *service.PositionService
	Tax         *service.TaxService
	Transaction *service.TransactionService
	Report      *service.ReportService
	Sweep       *service.SweepService
	Dashboard   *service.DashboardService
	System      *service.SystemService
}

// NewTestServices builds a Services on db.
//
// Example usage:
//
//	db := testutil.SetupTestDB(t)
//	svc := testutil.NewTestServices(t, db)
//	svc.Store.FailPuts = true
func NewTestServices(t *testing.T, db *sql.DB) *Services {
	t.Helper()

	log, hook := NewTestLogger()
	s := &Services{
		DB:       db,
		Locker:   lock.NewLocalLocker(),
		Cipher:   NewTestCipher(t),
		Logs:     hook,
		Renderer: NewMockRenderer(),
		Store:    NewMockStore(),
		Notifier: NewMockNotifier(),
		Quotes:   NewMockQuoteProvider(),
	}

	userRepo := repository.NewUserRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	resultRepo := repository.NewMonthlyResultRepository(db)
	carryRepo := repository.NewCarryforwardRepository(db)
	liabilityRepo := repository.NewLiabilityRepository(db)

	s.User = service.NewUserService(userRepo, s.Cipher, log)
	s.Position = service.NewPositionService(assetRepo, transactionRepo)
	s.Tax = service.NewTaxService(db, s.Locker, userRepo, transactionRepo, resultRepo, carryRepo, log)
	s.Transaction = service.NewTransactionService(db, s.Locker, userRepo, transactionRepo, s.Position, s.Tax, log)
	s.Report = service.NewReportService(s.Locker, s.Tax, s.User, liabilityRepo, s.Renderer, s.Store, service.ReportOptions{
		Retries:        2,
		Backoff:        time.Nanosecond,
		AttemptTimeout: 0,
	}, log)
	s.Sweep = service.NewSweepService(s.User, s.Report, s.Notifier, 2, log)
	s.Dashboard = service.NewDashboardService(s.Tax, s.Position, s.Quotes, log)
	s.System = service.NewSystemService(db, map[string]bool{"quotes": true})

	return s
}

// NewTestCipher returns a cipher with a fresh random key.
func NewTestCipher(t *testing.T) *secret.Cipher {
	t.Helper()

	key, err := secret.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	c, err := secret.NewCipher(key)
	if err != nil {
		t.Fatalf("Failed to create cipher: %v", err)
	}
	return c
}

// NewTestLogger returns a logger that discards output and a hook holding
// every entry for assertions.
func NewTestLogger() (*logrus.Logger, *logtest.Hook) {
	log, hook := logtest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakeUserID generates an identity-provider style user ID.
//
// Example usage:
//
//	id := testutil.MakeUserID()
//	// Returns: "user-1A2B3C4D"
func MakeUserID() string {
	return "user-" + randomAlphanumeric(8)
}

// MakeSymbol generates a ticker symbol for testing.
//
// Example usage:
//
//	symbol := testutil.MakeSymbol("PETR")
//	// Returns: "PETR1A2B"
func MakeSymbol(base string) string {
	if base == "" {
		base = "TEST"
	}
	return base + randomAlphanumeric(4)
}

// MakeName generates a unique display name for testing.
//
// Example usage:
//
//	name := testutil.MakeName("Taxpayer")
//	// Returns: "Taxpayer ABC123"
func MakeName(base string) string {
	if base == "" {
		base = "Name"
	}
	return base + " " + randomAlphanumeric(6)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
