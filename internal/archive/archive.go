// Package archive copies collected stats artifacts to an S3-compatible
// bucket so results outlive the scratch result directory.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/vk/splatbench/internal/config"
	"github.com/vk/splatbench/internal/ctxlog"
	"github.com/vk/splatbench/internal/metrics"
	"github.com/vk/splatbench/internal/stats"
)

// ObjectStore is the subset of *minio.Client the archiver needs.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Archiver uploads artifacts under <prefix>/<scene>/stats/<file>.
type Archiver struct {
	store   ObjectStore
	bucket  string
	prefix  string
	metrics *metrics.Metrics
}

// New wraps an existing store.
func New(store ObjectStore, bucket, prefix string, m *metrics.Metrics) *Archiver {
	return &Archiver{store: store, bucket: bucket, prefix: prefix, metrics: m}
}

// NewMinIO connects to the endpoint described by cfg.
func NewMinIO(cfg *config.Archive, m *metrics.Metrics) (*Archiver, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("archive endpoint and bucket are required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("archive access key and secret key are required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return New(mc, cfg.Bucket, cfg.Prefix, m), nil
}

// Key returns the object key for an artifact.
func (a *Archiver) Key(art stats.Artifact) string {
	return path.Join(a.prefix, art.Scene, "stats", filepath.Base(art.Path))
}

// EnsureBucket creates the bucket when it does not exist yet.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.store.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := a.store.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		ctxlog.FromContext(ctx).Info("Created archive bucket.", "bucket", a.bucket)
	}
	return nil
}

// Upload stores every artifact. A failed upload does not stop the others;
// all failures are returned joined.
func (a *Archiver) Upload(ctx context.Context, artifacts []stats.Artifact) (int, error) {
	logger := ctxlog.FromContext(ctx)
	if err := a.EnsureBucket(ctx); err != nil {
		return 0, err
	}

	var errs []error
	uploaded := 0
	for _, art := range artifacts {
		key := a.Key(art)
		_, err := a.store.PutObject(ctx, a.bucket, key, bytes.NewReader(art.Content), int64(len(art.Content)),
			minio.PutObjectOptions{ContentType: "application/json"})
		a.metrics.ObserveArchive(err)
		if err != nil {
			errs = append(errs, fmt.Errorf("upload %s: %w", key, err))
			continue
		}
		uploaded++
		logger.Debug("Archived artifact.", "bucket", a.bucket, "key", key)
	}

	logger.Info("🗄️ Archived stats artifacts.", "bucket", a.bucket, "uploaded", uploaded, "failed", len(errs))
	return uploaded, errors.Join(errs...)
}
