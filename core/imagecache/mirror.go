package imagecache

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"brick-manager/core/storage"

	"github.com/minio/minio-go/v7"
)

// StorageMirror keeps cached images in an object storage bucket.
type StorageMirror struct {
	client storage.Client
	bucket string
	prefix string
}

// NewStorageMirror creates a mirror writing objects as <prefix><name>.
func NewStorageMirror(client storage.Client, bucket, prefix string) *StorageMirror {
	return &StorageMirror{client: client, bucket: bucket, prefix: prefix}
}

// EnsureBucket creates the mirror bucket when it does not exist.
func (m *StorageMirror) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", m.bucket, err)
	}
	return nil
}

// Load reads an image from the bucket.
func (m *StorageMirror) Load(ctx context.Context, name string) ([]byte, bool, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, m.prefix+name, minio.GetObjectOptions{})
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer obj.Close()

	// minio reports a missing key on first read, not on GetObject
	data, err := io.ReadAll(obj)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	return data, true, nil
}

// Store uploads an image to the bucket.
func (m *StorageMirror) Store(ctx context.Context, name string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, m.prefix+name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Remove deletes an image from the bucket.
func (m *StorageMirror) Remove(ctx context.Context, name string) error {
	return m.client.RemoveObject(ctx, m.bucket, m.prefix+name, minio.RemoveObjectOptions{})
}
