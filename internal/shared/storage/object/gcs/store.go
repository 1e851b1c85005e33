package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"medvault-backend/internal/shared/storage/object"
)

// Store implements ObjectStore on a Google Cloud Storage bucket.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a GCS-backed store. Extra client options (credentials file,
// endpoint) are passed through to storage.NewClient.
func New(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*Store, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("gcs bucket is required")
	}
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{client: client, bucket: bucket, prefix: strings.Trim(strings.TrimSpace(prefix), "/")}, nil
}

func (s *Store) Save(ctx context.Context, userId string, fileName string, r io.Reader) (string, int64, string, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, "", err
	}
	storageKey, err := object.NewKey(userId, fileName)
	if err != nil {
		return "", 0, "", err
	}
	mimeType, body, err := object.Sniff(r)
	if err != nil {
		return "", 0, "", err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.handle(storageKey).NewWriter(ctx)
	w.ContentType = mimeType
	n, err := io.Copy(w, body)
	if err != nil {
		_ = w.Close()
		return "", 0, "", fmt.Errorf("write gcs object %s: %w", storageKey, err)
	}
	if err := w.Close(); err != nil {
		return "", 0, "", fmt.Errorf("close gcs writer %s: %w", storageKey, err)
	}
	return storageKey, n, mimeType, nil
}

func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	rc, err := s.handle(storageKey).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("gcs object %s: %w", storageKey, object.ErrNotFound)
		}
		return nil, fmt.Errorf("open gcs object %s: %w", storageKey, err)
	}
	return rc, nil
}

// Delete removes the object; a missing object is not an error.
func (s *Store) Delete(ctx context.Context, storageKey string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.handle(storageKey).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete gcs object %s: %w", storageKey, err)
	}
	return nil
}

// PresignGet issues a V4 signed URL. Requires credentials that can sign.
func (s *Store) PresignGet(_ context.Context, storageKey, downloadName string, ttl time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(ttl),
		Scheme:  storage.SigningSchemeV4,
	}
	if downloadName != "" {
		opts.QueryParameters = url.Values{
			"response-content-disposition": []string{mime.FormatMediaType("attachment", map[string]string{"filename": downloadName})},
		}
	}
	signed, err := s.client.Bucket(s.bucket).SignedURL(s.objectName(storageKey), opts)
	if err != nil {
		return "", fmt.Errorf("sign gcs url: %w", err)
	}
	return signed, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) handle(storageKey string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(s.objectName(storageKey))
}

func (s *Store) objectName(storageKey string) string {
	key := strings.TrimLeft(storageKey, "/")
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

var (
	_ object.ObjectStore = (*Store)(nil)
	_ object.Presigner   = (*Store)(nil)
)
