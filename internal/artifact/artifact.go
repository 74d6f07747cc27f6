// Package artifact stores rendered liability documents and hands back opaque
// locators. Backends: local filesystem and Google Cloud Storage.
package artifact

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"time"
)

// Store persists rendered artifacts.
type Store interface {
	// Put stores data under key and returns the artifact's locator.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)

	// Release deletes the artifact behind locator. Unknown locators are not an error.
	Release(ctx context.Context, locator string) error
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Key builds the storage key of a document: one directory per user and a
// timestamped file name so superseded artifacts never collide with new ones.
func Key(userID, period, scope, ext string, at time.Time) string {
	name := fmt.Sprintf("%s-%s-%d%s", period, scope, at.UTC().UnixNano(), ext)
	return path.Join(unsafeKeyChars.ReplaceAllString(userID, "_"), unsafeKeyChars.ReplaceAllString(name, "_"))
}
