package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps artifacts under a base directory. Locators are the public
// base URL joined with the key, served by the API's /artifacts route.
type FileStore struct {
	basePath string
	baseURL  string
}

// NewFileStore creates the base directory if needed.
func NewFileStore(basePath, baseURL string) (*FileStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", basePath, err)
	}
	return &FileStore{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// BasePath is the directory artifacts are written to.
func (s *FileStore) BasePath() string {
	return s.basePath
}

// sanitizeKey strips traversal segments and leading slashes from key.
func sanitizeKey(key string) string {
	clean := filepath.Clean("/" + key)
	return strings.TrimPrefix(clean, "/")
}

func (s *FileStore) keyToPath(key string) string {
	return filepath.Join(s.basePath, filepath.FromSlash(sanitizeKey(key)))
}

// Put writes data atomically using a temp file and rename.
func (s *FileStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	key = sanitizeKey(key)
	p := s.keyToPath(key)
	dir := filepath.Dir(p)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, p); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}

	return s.baseURL + "/" + key, nil
}

// Release removes the file behind locator.
func (s *FileStore) Release(_ context.Context, locator string) error {
	if locator == "" {
		return nil
	}
	key := strings.TrimPrefix(locator, s.baseURL+"/")
	if key == locator && s.baseURL != "" {
		return fmt.Errorf("locator %q does not belong to this store", locator)
	}

	err := os.Remove(s.keyToPath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete artifact %s: %w", key, err)
	}
	return nil
}
