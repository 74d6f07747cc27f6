package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsPublicHost = "https://storage.googleapis.com/"

// GCSStore keeps artifacts in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a storage client. Credentials come from credentialsJSON
// when set, otherwise from Application Default Credentials. Extra options are
// passed to the client as-is.
func NewGCSStore(ctx context.Context, bucket, prefix, credentialsJSON string, extra ...option.ClientOption) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("GCS bucket is required")
	}

	opts := append([]option.ClientOption{}, extra...)
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

func (s *GCSStore) objectName(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// Put uploads data and returns its public object URL.
func (s *GCSStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	name := s.objectName(key)

	wc := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("failed to write object %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", name, err)
	}

	return gcsPublicHost + s.bucket + "/" + name, nil
}

// Release deletes the object behind locator.
func (s *GCSStore) Release(ctx context.Context, locator string) error {
	if locator == "" {
		return nil
	}
	name, ok := strings.CutPrefix(locator, gcsPublicHost+s.bucket+"/")
	if !ok {
		return fmt.Errorf("locator %q does not belong to bucket %s", locator, s.bucket)
	}

	err := s.client.Bucket(s.bucket).Object(name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", name, err)
	}
	return nil
}

// Close releases the storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
