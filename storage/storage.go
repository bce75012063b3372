// Package storage uploads admin-provided images to object storage. Cloudflare
// R2 (through the S3 API) and Google Cloud Storage are supported.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princinho/drivequiz/config"
)

var ErrDisabled = errors.New("object storage is not configured")

// ObjectStore puts and removes objects and knows their public URL.
type ObjectStore interface {
	Put(ctx context.Context, objectName string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, objectName string) error
	ObjectNameFromURL(raw string) (string, error)
	Close() error
}

// New builds the store selected by cfg.Provider. "none" yields a store whose
// writes fail with ErrDisabled.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Provider {
	case "r2":
		s, err := NewR2Store(ctx, cfg.R2Endpoint, cfg.R2AccessKeyID, cfg.R2SecretAccessKey, cfg.R2Bucket, cfg.R2PublicDomain)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "gcs":
		s, err := NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "", "none":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// ObjectName builds a collision-free key such as
// "quiz-images/1718000000-<uuid>.png".
func ObjectName(prefix, fileName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = ".bin"
	}
	prefix = strings.Trim(prefix, "/")
	name := fmt.Sprintf("%d-%s%s", now.UTC().Unix(), uuid.New().String(), ext)
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

type Disabled struct{}

func (Disabled) Put(context.Context, string, io.Reader, int64, string) (string, error) {
	return "", ErrDisabled
}

func (Disabled) Delete(context.Context, string) error { return ErrDisabled }

func (Disabled) ObjectNameFromURL(string) (string, error) { return "", ErrDisabled }

func (Disabled) Close() error { return nil }
