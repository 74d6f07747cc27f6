package artifact_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/artifact"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*artifact.FileStore, string) {
		t.Helper()
		dir := t.TempDir()
		store, err := artifact.NewFileStore(dir, "http://localhost:5001/artifacts/")
		if err != nil {
			t.Fatalf("NewFileStore() returned unexpected error: %v", err)
		}
		return store, dir
	}

	t.Run("stores data and returns a URL locator", func(t *testing.T) {
		store, dir := setup(t)

		locator, err := store.Put(ctx, "user-1/2024-03-EQUITY-1.pdf", "application/pdf", []byte("%PDF"))
		if err != nil {
			t.Fatalf("Put() returned unexpected error: %v", err)
		}

		if locator != "http://localhost:5001/artifacts/user-1/2024-03-EQUITY-1.pdf" {
			t.Errorf("Unexpected locator %q", locator)
		}

		data, err := os.ReadFile(filepath.Join(dir, "user-1", "2024-03-EQUITY-1.pdf"))
		if err != nil {
			t.Fatalf("Expected file on disk: %v", err)
		}
		if string(data) != "%PDF" {
			t.Errorf("Expected stored content, got %q", data)
		}
	})

	t.Run("release removes the file and tolerates repeats", func(t *testing.T) {
		store, dir := setup(t)

		locator, err := store.Put(ctx, "u/a.pdf", "application/pdf", []byte("x"))
		if err != nil {
			t.Fatalf("Put() returned unexpected error: %v", err)
		}

		if err := store.Release(ctx, locator); err != nil {
			t.Fatalf("Release() returned unexpected error: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "u", "a.pdf")); !os.IsNotExist(err) {
			t.Errorf("Expected file to be removed, stat err = %v", err)
		}
		if err := store.Release(ctx, locator); err != nil {
			t.Errorf("Expected second release to succeed, got %v", err)
		}
	})

	t.Run("keeps traversal keys inside the base directory", func(t *testing.T) {
		store, dir := setup(t)

		locator, err := store.Put(ctx, "../../escape.pdf", "application/pdf", []byte("x"))
		if err != nil {
			t.Fatalf("Put() returned unexpected error: %v", err)
		}
		if strings.Contains(locator, "..") {
			t.Errorf("Expected sanitized locator, got %q", locator)
		}
		if _, err := os.Stat(filepath.Join(dir, "escape.pdf")); err != nil {
			t.Errorf("Expected file inside base directory: %v", err)
		}
	})

	t.Run("rejects locators of another store", func(t *testing.T) {
		store, _ := setup(t)

		if err := store.Release(ctx, "https://elsewhere.example/x.pdf"); err == nil {
			t.Error("Expected error for foreign locator")
		}
	})
}

func TestKey(t *testing.T) {
	at := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	key := artifact.Key("auth0|abc/def", "2024-02", "CRYPTO", ".pdf", at)

	if !strings.HasPrefix(key, "auth0_abc_def/2024-02-CRYPTO-") || !strings.HasSuffix(key, ".pdf") {
		t.Errorf("Unexpected key %q", key)
	}
}
