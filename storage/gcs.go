package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore uses the service account key at credentialsFile, or application
// default credentials when it is empty.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs: bucket is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, credentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Put(ctx context.Context, objectName string, body io.Reader, _ int64, contentType string) (string, error) {
	// The object must not exist yet; names carry a uuid so a clash means a bug.
	w := s.client.Bucket(s.bucket).Object(objectName).
		If(gcs.Conditions{DoesNotExist: true}).
		NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000, immutable"

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs upload copy: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs upload close: %w", err)
	}
	return gcsPublicURL(s.bucket, objectName), nil
}

func (s *GCSStore) Delete(ctx context.Context, objectName string) error {
	if err := s.client.Bucket(s.bucket).Object(objectName).Delete(ctx); err != nil {
		return fmt.Errorf("gcs delete %s: %w", objectName, err)
	}
	return nil
}

func (s *GCSStore) ObjectNameFromURL(raw string) (string, error) {
	return gcsObjectName(s.bucket, raw)
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func gcsPublicURL(bucket, objectName string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectName)
}

// gcsObjectName understands both storage.googleapis.com/<bucket>/<object>
// and <bucket>.storage.googleapis.com/<object>.
func gcsObjectName(bucket, raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}

	host := strings.ToLower(u.Host)
	path := strings.TrimPrefix(u.Path, "/")

	switch host {
	case "storage.googleapis.com":
		name, ok := strings.CutPrefix(path, bucket+"/")
		if !ok || name == "" {
			return "", fmt.Errorf("url bucket mismatch")
		}
		return name, nil
	case strings.ToLower(bucket) + ".storage.googleapis.com":
		if path == "" {
			return "", fmt.Errorf("missing object path")
		}
		return path, nil
	}
	return "", fmt.Errorf("not a gcs public url")
}
