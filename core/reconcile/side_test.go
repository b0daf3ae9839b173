package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"brick-manager/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func onlyPNG(name string) bool {
	return strings.HasSuffix(name, ".png")
}

func TestLocalSide(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("aaaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".probe-1.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	side := NewLocalSide(dir, onlyPNG)
	ctx := context.Background()

	items, err := side.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]Item{"a.png": {Name: "a.png", Size: 4}}, items)

	require.NoError(t, side.Write(ctx, "b.png", []byte("bb")))
	data, err := side.Read(ctx, "b.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("bb"), data)

	require.NoError(t, side.Delete(ctx, "a.png"))
	require.NoError(t, side.Delete(ctx, "a.png"))

	items, err = side.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Contains(t, items, "b.png")
}

func TestLocalSide_MissingDir(t *testing.T) {
	side := NewLocalSide(filepath.Join(t.TempDir(), "absent"), nil)
	items, err := side.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMirrorSide_List(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "brick-images", minio.ListObjectsOptions{Prefix: "images/", Recursive: true}).
		Return(mocks.Objects(
			minio.ObjectInfo{Key: "images/a.png", Size: 4},
			minio.ObjectInfo{Key: "images/nested/b.png", Size: 2},
			minio.ObjectInfo{Key: "images/readme.txt", Size: 1},
		))

	side := NewMirrorSide(client, "brick-images", "images/", onlyPNG)
	items, err := side.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]Item{"a.png": {Name: "a.png", Size: 4}}, items)
	client.AssertExpectations(t)
}

func TestMirrorSide_ListError(t *testing.T) {
	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "brick-images", mock.Anything).
		Return(mocks.Objects(minio.ObjectInfo{Err: errors.New("access denied")}))

	side := NewMirrorSide(client, "brick-images", "images/", nil)
	items, err := side.List(context.Background())
	assert.Nil(t, items)
	assert.ErrorContains(t, err, "access denied")
}

func TestMirrorSide_ReadWriteDelete(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "brick-images", "images/a.png", mock.Anything).
		Return(mocks.Body([]byte("aaaa")), nil)
	client.On("PutObject", mock.Anything, "brick-images", "images/b.png", mock.Anything, int64(len(png)),
		minio.PutObjectOptions{ContentType: "image/png"}).
		Return(minio.UploadInfo{}, nil)
	client.On("RemoveObject", mock.Anything, "brick-images", "images/c.png", mock.Anything).Return(nil)

	side := NewMirrorSide(client, "brick-images", "images/", nil)
	ctx := context.Background()

	data, err := side.Read(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("aaaa"), data)

	require.NoError(t, side.Write(ctx, "b.png", png))
	require.NoError(t, side.Delete(ctx, "c.png"))
	client.AssertExpectations(t)
}
