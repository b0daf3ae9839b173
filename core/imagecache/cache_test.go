package imagecache_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"brick-manager/core/imagecache"
	"brick-manager/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

const placeholder = "static/default_image.png"

// stubFetcher counts calls and optionally blocks until gate is closed.
type stubFetcher struct {
	calls atomic.Int32
	data  []byte
	err   error
	gate  chan struct{}
}

func (f *stubFetcher) Fetch(ctx context.Context, sourceURL string) ([]byte, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func newCache(t *testing.T, dir string, f imagecache.Fetcher, opts ...imagecache.Option) *imagecache.Cache {
	t.Helper()
	cfg := imagecache.Config{Dir: dir, Placeholder: placeholder, TimeoutSeconds: 5}
	opts = append([]imagecache.Option{imagecache.WithLogger(zap.NewNop())}, opts...)
	c, err := imagecache.New(cfg, f, opts...)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	_, err := imagecache.New(imagecache.Config{Dir: t.TempDir()}, nil)
	assert.Error(t, err)

	_, err = imagecache.New(imagecache.Config{}, &stubFetcher{})
	assert.Error(t, err)

	dir := filepath.Join(t.TempDir(), "nested", "images")
	c, err := imagecache.New(imagecache.Config{Dir: dir}, &stubFetcher{})
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.True(t, filepath.IsAbs(c.Dir()))
}

func TestKey(t *testing.T) {
	a := imagecache.Key("https://cdn.example.com/parts/3001.jpg")
	assert.Len(t, a, 64)
	assert.Equal(t, a, imagecache.Key("  https://cdn.example.com/parts/3001.jpg "))
	assert.NotEqual(t, a, imagecache.Key("https://cdn.example.com/parts/3002.jpg"))
}

func TestResolve_EmptyRef(t *testing.T) {
	f := &stubFetcher{data: pngBytes}
	c := newCache(t, t.TempDir(), f)

	assert.Equal(t, placeholder, c.Resolve(context.Background(), ""))
	assert.Equal(t, placeholder, c.Resolve(context.Background(), "   "))
	assert.Equal(t, int32(0), f.calls.Load())
	assert.Equal(t, imagecache.Stats{}, c.Stats())
}

func TestResolve_DownloadOnce(t *testing.T) {
	dir := t.TempDir()
	f := &stubFetcher{data: pngBytes}
	c := newCache(t, dir, f)
	src := "https://cdn.example.com/media/parts/3001.jpg?v=2"

	first := c.Resolve(context.Background(), src)
	second := c.Resolve(context.Background(), src)

	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, filepath.Join(c.Dir(), imagecache.Key(src)+".jpg"), first)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	entry, ok := c.Lookup(src)
	require.True(t, ok)
	assert.Equal(t, imagecache.StateReady, entry.State)
	assert.Equal(t, imagecache.Stats{Ready: 1}, c.Stats())
}

func TestResolve_Concurrent(t *testing.T) {
	f := &stubFetcher{data: pngBytes, gate: make(chan struct{})}
	c := newCache(t, t.TempDir(), f)
	src := "https://cdn.example.com/media/parts/3001.png"

	const callers = 48
	var started, finished sync.WaitGroup
	results := make([]string, callers)
	started.Add(callers)
	finished.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer finished.Done()
			started.Done()
			results[i] = c.Resolve(context.Background(), src)
		}(i)
	}

	started.Wait()
	assert.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	finished.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	want := filepath.Join(c.Dir(), imagecache.Key(src)+".png")
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestResolve_UnrelatedKeysDoNotBlock(t *testing.T) {
	slow := &stubFetcher{data: pngBytes, gate: make(chan struct{})}
	defer close(slow.gate)

	c := newCache(t, t.TempDir(), fetcherByURL{
		"https://cdn.example.com/slow.png": slow,
		"https://cdn.example.com/fast.png": &stubFetcher{data: pngBytes},
	})

	go c.Resolve(context.Background(), "https://cdn.example.com/slow.png")
	assert.Eventually(t, func() bool { return slow.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	done := make(chan string, 1)
	go func() { done <- c.Resolve(context.Background(), "https://cdn.example.com/fast.png") }()

	select {
	case got := <-done:
		assert.NotEqual(t, placeholder, got)
	case <-time.After(2 * time.Second):
		t.Fatal("fast key waited on slow key")
	}
}

type fetcherByURL map[string]*stubFetcher

func (m fetcherByURL) Fetch(ctx context.Context, sourceURL string) ([]byte, error) {
	return m[sourceURL].Fetch(ctx, sourceURL)
}

func TestResolve_Failures(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *stubFetcher
	}{
		{"FetchError", &stubFetcher{err: errors.New("connection refused")}},
		{"EmptyBody", &stubFetcher{data: []byte{}}},
		{"NotImage", &stubFetcher{data: []byte("<html><body>404</body></html>")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCache(t, t.TempDir(), tt.fetcher)
			src := "https://cdn.example.com/broken.png"

			assert.Equal(t, placeholder, c.Resolve(context.Background(), src))
			// Failed entries are not retried
			assert.Equal(t, placeholder, c.Resolve(context.Background(), src))
			assert.Equal(t, int32(1), tt.fetcher.calls.Load())

			entry, ok := c.Lookup(src)
			require.True(t, ok)
			assert.Equal(t, imagecache.StateFailed, entry.State)
			assert.NoFileExists(t, entry.LocalPath)
		})
	}
}

func TestResolve_TooLarge(t *testing.T) {
	f := &stubFetcher{data: append(append([]byte{}, pngBytes...), bytes.Repeat([]byte{0}, 64)...)}
	c, err := imagecache.New(imagecache.Config{Dir: t.TempDir(), Placeholder: placeholder, MaxBytes: 32}, f)
	require.NoError(t, err)

	assert.Equal(t, placeholder, c.Resolve(context.Background(), "https://cdn.example.com/big.png"))
}

func TestResolve_Timeout(t *testing.T) {
	f := &stubFetcher{data: pngBytes, gate: make(chan struct{})}
	defer close(f.gate)
	c := newCache(t, t.TempDir(), f, imagecache.WithTimeout(50*time.Millisecond))

	start := time.Now()
	got := c.Resolve(context.Background(), "https://cdn.example.com/hang.png")
	assert.Equal(t, placeholder, got)
	assert.Less(t, time.Since(start), 2*time.Second)

	entry, ok := c.Lookup("https://cdn.example.com/hang.png")
	require.True(t, ok)
	assert.Equal(t, imagecache.StateFailed, entry.State)
}

func TestResolve_WaiterCancellation(t *testing.T) {
	f := &stubFetcher{data: pngBytes, gate: make(chan struct{})}
	c := newCache(t, t.TempDir(), f)
	src := "https://cdn.example.com/slow.gif"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan string, 1)
	go func() { done <- c.Resolve(ctx, src) }()

	assert.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.Equal(t, placeholder, <-done)

	// The download continues for later callers
	close(f.gate)
	got := c.Resolve(context.Background(), src)
	assert.Equal(t, filepath.Join(c.Dir(), imagecache.Key(src)+".gif"), got)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestResolve_ReadyIgnoresDoneContext(t *testing.T) {
	c := newCache(t, t.TempDir(), &stubFetcher{data: pngBytes})
	src := "https://cdn.example.com/media/parts/3003.png"
	path := c.Resolve(context.Background(), src)
	require.NotEqual(t, placeholder, path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 100; i++ {
		assert.Equal(t, path, c.Resolve(ctx, src))
	}
}

func TestResolve_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	src := "https://cdn.example.com/media/parts/3001.jpg"

	first := newCache(t, dir, &stubFetcher{data: pngBytes})
	path := first.Resolve(context.Background(), src)
	require.FileExists(t, path)

	f := &stubFetcher{data: pngBytes}
	second := newCache(t, dir, f)
	assert.Equal(t, path, second.Resolve(context.Background(), src))
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestInvalidate(t *testing.T) {
	f := &stubFetcher{err: errors.New("offline")}
	c := newCache(t, t.TempDir(), f)
	src := "https://cdn.example.com/retry.png"

	assert.False(t, c.Invalidate(src))
	assert.Equal(t, placeholder, c.Resolve(context.Background(), src))

	f.err = nil
	f.data = pngBytes
	assert.Equal(t, 1, c.InvalidateFailed())

	path := c.Resolve(context.Background(), src)
	assert.NotEqual(t, placeholder, path)
	assert.Equal(t, int32(2), f.calls.Load())

	// Invalidating a ready entry removes the file and forces a new download
	assert.True(t, c.Invalidate(src))
	assert.NoFileExists(t, path)
	assert.Equal(t, path, c.Resolve(context.Background(), src))
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestInvalidate_ConcurrentResolve(t *testing.T) {
	c := newCache(t, t.TempDir(), &stubFetcher{data: pngBytes})
	src := "https://cdn.example.com/media/parts/3004.png"

	for i := 0; i < 200; i++ {
		require.NotEqual(t, placeholder, c.Resolve(context.Background(), src))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Invalidate(src)
		}()
		go func() {
			defer wg.Done()
			c.Resolve(context.Background(), src)
		}()
		wg.Wait()

		// Whatever won, a ready entry must point at a file on disk
		c.Resolve(context.Background(), src)
		entry, ok := c.Lookup(src)
		require.True(t, ok)
		if entry.State == imagecache.StateReady {
			require.FileExists(t, entry.LocalPath, "iteration %d", i)
		}
	}
}

func TestFile(t *testing.T) {
	c := newCache(t, t.TempDir(), &stubFetcher{data: pngBytes})
	path := c.Resolve(context.Background(), "https://cdn.example.com/3001.png")

	got, ok := c.File(filepath.Base(path))
	assert.True(t, ok)
	assert.Equal(t, path, got)

	for _, name := range []string{"../etc/passwd", "nothex.png", strings.Repeat("a", 64) + ".png", ""} {
		_, ok := c.File(name)
		assert.False(t, ok, name)
	}
}

func TestResolve_Mirror(t *testing.T) {
	src := "https://cdn.example.com/media/parts/3001.png"
	name := imagecache.Key(src) + ".png"

	t.Run("MissThenStore", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "bricks", "images/"+name, mock.Anything).
			Return(nil, mocks.NoSuchKey())
		client.On("PutObject", mock.Anything, "bricks", "images/"+name, mock.Anything, int64(len(pngBytes)), mock.MatchedBy(func(o minio.PutObjectOptions) bool {
			return o.ContentType == "image/png"
		})).Return(minio.UploadInfo{}, nil)

		f := &stubFetcher{data: pngBytes}
		c := newCache(t, t.TempDir(), f, imagecache.WithMirror(imagecache.NewStorageMirror(client, "bricks", "images/")))

		assert.NotEqual(t, placeholder, c.Resolve(context.Background(), src))
		assert.Equal(t, int32(1), f.calls.Load())
		client.AssertExpectations(t)
	})

	t.Run("RestoreFromMirror", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "bricks", "images/"+name, mock.Anything).
			Return(mocks.Body(pngBytes), nil)

		f := &stubFetcher{data: pngBytes}
		c := newCache(t, t.TempDir(), f, imagecache.WithMirror(imagecache.NewStorageMirror(client, "bricks", "images/")))

		path := c.Resolve(context.Background(), src)
		assert.FileExists(t, path)
		assert.Equal(t, int32(0), f.calls.Load())
		client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MirrorErrorFallsThrough", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("GetObject", mock.Anything, "bricks", "images/"+name, mock.Anything).
			Return(nil, errors.New("mirror down"))
		client.On("PutObject", mock.Anything, "bricks", "images/"+name, mock.Anything, mock.Anything, mock.Anything).
			Return(minio.UploadInfo{}, errors.New("mirror down"))

		f := &stubFetcher{data: pngBytes}
		c := newCache(t, t.TempDir(), f, imagecache.WithMirror(imagecache.NewStorageMirror(client, "bricks", "images/")))

		assert.NotEqual(t, placeholder, c.Resolve(context.Background(), src))
		assert.Equal(t, int32(1), f.calls.Load())
	})
}

func TestStorageMirror_EnsureBucket(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "bricks").Return(false, nil)
	client.On("MakeBucket", mock.Anything, "bricks", mock.Anything).Return(nil)

	m := imagecache.NewStorageMirror(client, "bricks", "images/")
	assert.NoError(t, m.EnsureBucket(context.Background()))
	client.AssertExpectations(t)

	failing := new(mocks.Client)
	failing.On("BucketExists", mock.Anything, "bricks").Return(false, errors.New("denied"))
	assert.Error(t, imagecache.NewStorageMirror(failing, "bricks", "").EnsureBucket(context.Background()))
}
