// Package blob provides the object-storage backend for report exports.
package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"ppetrack/internal/domain/reportgen"
)

// GCSConfig configures the Google Cloud Storage backend.
type GCSConfig struct {
	Bucket string

	// CredentialsJSON holds a service-account key. Empty means Application
	// Default Credentials.
	CredentialsJSON []byte

	// UploadTimeout bounds a single object write. Zero means 60s.
	UploadTimeout time.Duration
}

// GCSStore implements reportgen.BlobStore on a GCS bucket.
type GCSStore struct {
	client *storage.Client
	bucket string

	uploadTimeout time.Duration
}

var _ reportgen.BlobStore = (*GCSStore)(nil)

// NewGCSStore creates the store and verifies the bucket is reachable.
func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("bucket %s: %w", cfg.Bucket, err)
	}

	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &GCSStore{
		client:        client,
		bucket:        cfg.Bucket,
		uploadTimeout: timeout,
	}, nil
}

// Upload writes data to objectName, overwriting any previous version, and
// returns the object's public URL.
func (s *GCSStore) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %s: %w", objectName, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, objectName), nil
}

// Delete removes objectName. A missing object is treated as already deleted.
func (s *GCSStore) Delete(ctx context.Context, objectName string) error {
	err := s.client.Bucket(s.bucket).Object(objectName).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete object %s: %w", objectName, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
