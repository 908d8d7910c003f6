package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hUstbit37/ipms-search-sub001/config"
	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/pkg/logger"
)

// FileStorage stores contract attachments.
type FileStorage interface {
	Upload(ctx context.Context, entityID, filename string, reader io.Reader, size int64, contentType string) (*model.FileHandle, error)
	Delete(ctx context.Context, objectName string) error
}

// AttachmentStorage keeps attachments in a MinIO bucket under
// <tenant>/<entity id>/<file id><ext>.
type AttachmentStorage struct {
	client *minio.Client
	bucket string
	config *config.MinioConfig
}

func NewAttachmentStorage(cfg *config.MinioConfig) (*AttachmentStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &AttachmentStorage{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *AttachmentStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Upload stores one attachment and returns its handle with a presigned URL.
func (s *AttachmentStorage) Upload(ctx context.Context, entityID, filename string, reader io.Reader, size int64, contentType string) (*model.FileHandle, error) {
	id := uuid.New().String()
	tenant, _ := ctx.Value(logger.TenantKey).(string)
	objectName := ObjectName(tenant, entityID, id, filename)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload attachment: %w", err)
	}

	url, err := s.PresignedURL(ctx, objectName)
	if err != nil {
		// The object is stored; fall back to the bucket URL.
		url = s.PublicURL(objectName)
	}

	return &model.FileHandle{
		ID:          id,
		Name:        filename,
		ObjectName:  objectName,
		URL:         url,
		Size:        size,
		ContentType: contentType,
	}, nil
}

// PresignedURL generates a download URL valid for minio.expire_days.
func (s *AttachmentStorage) PresignedURL(ctx context.Context, objectName string) (string, error) {
	expiry := time.Duration(s.config.ExpireDays) * 24 * time.Hour
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}

func (s *AttachmentStorage) Delete(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

// PublicURL returns a public URL for the object (if bucket policy allows)
func (s *AttachmentStorage) PublicURL(objectName string) string {
	protocol := "http"
	if s.config.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.config.Endpoint, s.bucket, objectName)
}

// ObjectName builds the bucket key of an attachment. The original extension
// is kept, lower-cased.
func ObjectName(tenant, entityID, fileID, filename string) string {
	if tenant == "" {
		tenant = "default"
	}
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	return fmt.Sprintf("%s/%s/%s%s", tenant, entityID, fileID, ext)
}
