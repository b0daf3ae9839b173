package reconcile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"brick-manager/core/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/natefinch/atomic"
)

// Side is one store taking part in a reconciliation.
type Side interface {
	// Name identifies the side in errors and cache keys.
	Name() string
	// List returns every item on the side indexed by name.
	List(ctx context.Context) (map[string]Item, error)
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
}

// LocalSide is a directory on local disk.
type LocalSide struct {
	dir    string
	accept func(name string) bool
}

// NewLocalSide creates a side over dir. Only names accepted by accept take
// part; a nil accept takes every regular file that is not hidden.
func NewLocalSide(dir string, accept func(name string) bool) *LocalSide {
	return &LocalSide{dir: dir, accept: accept}
}

func (s *LocalSide) Name() string {
	return "local:" + s.dir
}

func (s *LocalSide) List(ctx context.Context) (map[string]Item, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Item{}, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	items := make(map[string]Item, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !s.accepts(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items[e.Name()] = Item{Name: e.Name(), Size: info.Size()}
	}
	return items, nil
}

func (s *LocalSide) accepts(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return s.accept == nil || s.accept(name)
}

func (s *LocalSide) Read(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, name))
}

func (s *LocalSide) Write(ctx context.Context, name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return atomic.WriteFile(filepath.Join(s.dir, name), bytes.NewReader(data))
}

func (s *LocalSide) Delete(ctx context.Context, name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MirrorSide is a prefix in an object storage bucket.
type MirrorSide struct {
	client storage.Client
	bucket string
	prefix string
	accept func(name string) bool
}

// NewMirrorSide creates a side over the objects stored as <prefix><name>.
func NewMirrorSide(client storage.Client, bucket, prefix string, accept func(name string) bool) *MirrorSide {
	return &MirrorSide{client: client, bucket: bucket, prefix: prefix, accept: accept}
}

func (s *MirrorSide) Name() string {
	return "mirror:" + s.bucket + "/" + s.prefix
}

func (s *MirrorSide) List(ctx context.Context) (map[string]Item, error) {
	items := make(map[string]Item)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: s.prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list bucket %s: %w", s.bucket, obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, s.prefix)
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		if s.accept != nil && !s.accept(name) {
			continue
		}
		items[name] = Item{Name: name, Size: obj.Size}
	}
	return items, nil
}

func (s *MirrorSide) Read(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.prefix+name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (s *MirrorSide) Write(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.prefix+name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: mimetype.Detect(data).String(),
	})
	return err
}

func (s *MirrorSide) Delete(ctx context.Context, name string) error {
	return s.client.RemoveObject(ctx, s.bucket, s.prefix+name, minio.RemoveObjectOptions{})
}
