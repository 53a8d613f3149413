package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BlobObject describes one stored object, as seen by the reconciliation sweep.
type BlobObject struct {
	Key          string
	LastModified time.Time
}

type StorageService interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]BlobObject, error)
	EnsureBucketExists(ctx context.Context) error
	// PublicURL returns the publicly-addressable location of a stored object,
	// https://<bucket>.<storage-domain>/<key>.
	PublicURL(key string) string
}

type minioStorage struct {
	client        *minio.Client
	bucket        string
	storageDomain string
}

func NewMinioStorage(endpoint, accessKey, secretKey string, useSSL bool, bucket, storageDomain string) (StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioStorage{client: client, bucket: bucket, storageDomain: storageDomain}, nil
}

func (m *minioStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (m *minioStorage) Delete(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

func (m *minioStorage) List(ctx context.Context) ([]BlobObject, error) {
	var objects []BlobObject
	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return nil, object.Err
		}
		objects = append(objects, BlobObject{Key: object.Key, LastModified: object.LastModified})
	}
	return objects, nil
}

func (m *minioStorage) EnsureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (m *minioStorage) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", m.bucket, m.storageDomain, key)
}
