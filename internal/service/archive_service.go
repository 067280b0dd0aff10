package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stemsi/exstem-distributor/internal/config"
)

// DocumentArchive keeps the raw bytes of uploaded exam documents.
type DocumentArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// NewArchive builds the archive selected by STORAGE_DRIVER.
func NewArchive(cfg *config.Config) (DocumentArchive, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMinio:
		return NewMinioArchive(cfg)
	case config.StorageDriverLocal, "":
		return NewLocalArchive(cfg.UploadDir), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// ArchiveKey names the stored copy of an uploaded file: the exam id plus a
// random suffix, keeping the original extension.
func ArchiveKey(examID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("papers/%s/%s%s", examID, uuid.NewString(), ext)
}

// LocalArchive stores documents under a directory on disk.
type LocalArchive struct {
	dir string
}

func NewLocalArchive(dir string) *LocalArchive {
	return &LocalArchive{dir: dir}
}

func (a *LocalArchive) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid archive key %q", key)
	}
	return filepath.Join(a.dir, clean), nil
}

func (a *LocalArchive) Put(_ context.Context, key string, data []byte, _ string) error {
	dst, err := a.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}
	return nil
}

func (a *LocalArchive) Delete(_ context.Context, key string) error {
	dst, err := a.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MinioArchive stores documents in an S3-compatible bucket.
type MinioArchive struct {
	client *minio.Client
	bucket string
}

func NewMinioArchive(cfg *config.Config) (*MinioArchive, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinioArchive{client: client, bucket: cfg.MinioBucket}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (a *MinioArchive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{})
}

func (a *MinioArchive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (a *MinioArchive) Delete(ctx context.Context, key string) error {
	return a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{})
}
