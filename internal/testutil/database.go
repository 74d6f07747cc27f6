package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/database"
)

// SetupTestDB creates an in-memory SQLite database for testing with every
// migration applied. The database is automatically cleaned up when the test
// completes.
//
// The pool is pinned to one connection: each ":memory:" connection is its own
// database, and services open transactions while other reads are in flight.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	if err := database.Migrate(db, nil); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// CleanDatabase empties all tables in dependency order.
// Useful for reusing the same database across multiple subtests.
func CleanDatabase(t *testing.T, db *sql.DB) {
	t.Helper()

	// Order matters: delete children before parents due to foreign keys
	tables := []string{
		"liability_line",
		"liability_document",
		"carryforward",
		"monthly_result",
		`"transaction"`,
		"asset",
		"taxpayer",
	}

	for _, table := range tables {
		//nolint:gosec // G202: Table names are from hardcoded slice, no SQL injection risk
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("Failed to clean table %s: %v", table, err)
		}
	}
}

// CountRows returns the number of rows in a table.
//
// Example usage:
//
//	count := testutil.CountRows(t, db, "liability_document")
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var count int
	//nolint:gosec // G202: callers pass table names from test code
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return count
}

// AssertRowCount asserts that a table has the expected number of rows.
//
// Example usage:
//
//	testutil.AssertRowCount(t, db, "monthly_result", 2)
func AssertRowCount(t *testing.T, db *sql.DB, table string, expected int) {
	t.Helper()

	if actual := CountRows(t, db, table); actual != expected {
		t.Errorf("Expected %d rows in %s, got %d", expected, table, actual)
	}
}
