package database

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var migrations embed.FS

// LatestVersion is the newest embedded migration.
const LatestVersion int64 = 1

// Open opens a connection to the SQLite database
func Open(dbPath string) (*sql.DB, error) {
	// Per-connection pragmas go in the DSN so every pooled connection gets them;
	// the sweep writes from several goroutines at once.
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	}

	// Open database connection
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := configure(db); err != nil {
		return nil, err
	}

	return db, nil
}

func configure(db *sql.DB) error {
	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Set timezone to UTC
	if _, err := db.Exec("PRAGMA timezone = 'UTC'"); err != nil {
		return fmt.Errorf("failed to set timezone: %w", err)
	}

	return nil
}

// Migrate applies every pending embedded migration.
// logger may be nil, in which case goose output is discarded.
func Migrate(db *sql.DB, logger goose.Logger) error {
	if logger == nil {
		logger = goose.NopLogger()
	}
	goose.SetLogger(logger)
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the latest applied migration version.
func SchemaVersion(db *sql.DB) (int64, error) {
	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// HealthCheck performs a simple health check on the database
func HealthCheck(db *sql.DB) error {
	return db.Ping()
}
