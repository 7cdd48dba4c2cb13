package minio_storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// RefScheme prefixes object keys stored in block payloads. The reference
// is swapped for a presigned URL when the block is rendered.
const RefScheme = "media://"

func Ref(objectKey string) string {
	return RefScheme + objectKey
}

// ParseRef returns the object key behind a media reference.
func ParseRef(ref string) (string, bool) {
	if !strings.HasPrefix(ref, RefScheme) {
		return "", false
	}
	key := strings.TrimPrefix(ref, RefScheme)
	return key, key != ""
}

type MediaStorage struct {
	storage      *MinioStorage
	bucket       string
	presignedTTL time.Duration
}

func NewMediaStorage(ctx context.Context, storage *MinioStorage, bucketName string, presignedTTL time.Duration) (*MediaStorage, error) {
	if err := storage.ensureBucket(ctx, bucketName); err != nil {
		return nil, err
	}
	return &MediaStorage{storage: storage, bucket: bucketName, presignedTTL: presignedTTL}, nil
}

// Upload stores a block's media file and returns its object key. Every
// upload gets a fresh key so cached presigned URLs of older files stay valid
// until they are deleted.
func (s *MediaStorage) Upload(
	ctx context.Context,
	assignmentID uuid.UUID,
	blockID uuid.UUID,
	filename string,
	reader io.Reader,
	size int64,
	contentType string,
) (objectKey string, err error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".bin"
	}

	objectKey = fmt.Sprintf("assignments/%s/blocks/%s/%s%s", assignmentID, blockID, uuid.NewString(), ext)

	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	_, err = s.storage.client.PutObject(
		ctx,
		s.bucket,
		objectKey,
		reader,
		size,
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", err
	}
	return objectKey, nil
}

func (s *MediaStorage) URL(ctx context.Context, objectKey string) (string, error) {
	presigned, err := s.storage.client.PresignedGetObject(
		ctx,
		s.bucket,
		objectKey,
		s.presignedTTL,
		make(url.Values),
	)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}

func (s *MediaStorage) Delete(ctx context.Context, objectKey string) error {
	return s.storage.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{})
}
