package imagecache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"brick-manager/core/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"
)

var (
	// ErrEmptyBody is returned when a source yields no bytes.
	ErrEmptyBody = errors.New("empty image body")
	// ErrNotImage is returned when the bytes are not a recognizable image.
	ErrNotImage = errors.New("content is not an image")
	// ErrTooLarge is returned when an image exceeds the configured size.
	ErrTooLarge = errors.New("image exceeds size limit")
)

var imageExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {}, ".svg": {},
}

var fileNamePattern = regexp.MustCompile(`^[0-9a-f]{64}(\.[a-z]+)?$`)

// State is the lifecycle state of a cache entry.
type State int

const (
	// StatePending means a download is in flight.
	StatePending State = iota
	// StateReady means the file is on disk at LocalPath.
	StateReady
	// StateFailed means the image could not be materialized.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Entry is a snapshot of one cached image.
type Entry struct {
	Key       string `json:"key"`
	LocalPath string `json:"local_path"`
	State     State  `json:"state"`
}

type entry struct {
	Entry
	// done is closed once State leaves StatePending.
	done chan struct{}
}

// Stats counts entries per state.
type Stats struct {
	Pending int `json:"pending"`
	Ready   int `json:"ready"`
	Failed  int `json:"failed"`
}

// Fetcher downloads the raw bytes behind a source URL.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) ([]byte, error)
}

// Mirror is a shared second tier consulted before the remote source.
type Mirror interface {
	// Load returns the stored bytes, or ok=false when the object is absent.
	Load(ctx context.Context, name string) (data []byte, ok bool, err error)
	// Store publishes bytes under name.
	Store(ctx context.Context, name string, data []byte, contentType string) error
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for download and failure events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = logger.OrNop(l) }
}

// WithMirror enables a second tier.
func WithMirror(m Mirror) Option {
	return func(c *Cache) { c.mirror = m }
}

// WithTimeout overrides the download timeout from Config.
func WithTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

// Cache resolves remote image URLs to local files. It is safe for concurrent use.
type Cache struct {
	dir         string
	placeholder string
	timeout     time.Duration
	maxBytes    int64
	fetcher     Fetcher
	mirror      Mirror
	logger      *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// New creates the cache directory if needed and returns a Cache.
func New(cfg Config, fetcher Fetcher, opts ...Option) (*Cache, error) {
	if fetcher == nil {
		return nil, errors.New("imagecache: fetcher is required")
	}
	if cfg.Dir == "" {
		return nil, errors.New("imagecache: directory is required")
	}

	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}

	c := &Cache{
		dir:         dir,
		placeholder: cfg.Placeholder,
		timeout:     timeout,
		maxBytes:    maxBytes,
		fetcher:     fetcher,
		logger:      zap.NewNop(),
		entries:     make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Key derives the cache key for a source URL.
func Key(sourceRef string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(sourceRef)))
	return hex.EncodeToString(sum[:])
}

// Dir returns the absolute cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Placeholder returns the path handed out for unresolvable images.
func (c *Cache) Placeholder() string {
	return c.placeholder
}

// Resolve returns the local path of the image behind sourceRef, downloading it
// on first use. It returns the placeholder on any failure and when ctx ends
// before the image is ready.
func (c *Cache) Resolve(ctx context.Context, sourceRef string) string {
	src := strings.TrimSpace(sourceRef)
	if src == "" {
		return c.placeholder
	}

	key := Key(src)

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			Entry: Entry{Key: key, LocalPath: c.pathFor(key, src), State: StatePending},
			done:  make(chan struct{}),
		}
		c.entries[key] = e
		go c.fill(e, src)
	}
	c.mu.Unlock()

	// A finished entry wins over a done ctx
	select {
	case <-e.done:
	default:
		select {
		case <-e.done:
		case <-ctx.Done():
			c.logger.Debug("Stopped waiting for image", zap.String("key", key), zap.Error(ctx.Err()))
			return c.placeholder
		}
	}

	c.mu.Lock()
	state, localPath := e.State, e.LocalPath
	c.mu.Unlock()

	if state != StateReady {
		return c.placeholder
	}
	return localPath
}

// fill materializes one entry. It runs once per entry, detached from callers.
func (c *Cache) fill(e *entry, src string) {
	state := StateFailed
	defer func() {
		c.mu.Lock()
		e.State = state
		c.mu.Unlock()
		close(e.done)
	}()

	if _, err := os.Stat(e.LocalPath); err == nil {
		c.logger.Debug("Using cached image", zap.String("path", e.LocalPath))
		state = StateReady
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.materialize(ctx, e.LocalPath, src); err != nil {
		c.logger.Warn("Image download failed, using placeholder",
			zap.String("url", src),
			zap.String("key", e.Key),
			zap.Error(err))
		return
	}

	c.logger.Info("Image cached", zap.String("url", src), zap.String("path", e.LocalPath))
	state = StateReady
}

func (c *Cache) materialize(ctx context.Context, localPath, src string) error {
	name := filepath.Base(localPath)

	if c.mirror != nil {
		data, ok, err := c.mirror.Load(ctx, name)
		switch {
		case err != nil:
			c.logger.Warn("Mirror lookup failed", zap.String("object", name), zap.Error(err))
		case ok:
			if _, err := c.validate(data); err != nil {
				c.logger.Warn("Ignoring invalid mirror object", zap.String("object", name), zap.Error(err))
				break
			}
			if err := c.publish(localPath, data); err != nil {
				return err
			}
			c.logger.Debug("Restored image from mirror", zap.String("object", name))
			return nil
		}
	}

	c.logger.Info("Downloading image", zap.String("url", src))
	data, err := c.fetch(ctx, src)
	if err != nil {
		return err
	}

	contentType, err := c.validate(data)
	if err != nil {
		return err
	}

	if err := c.publish(localPath, data); err != nil {
		return err
	}

	if c.mirror != nil {
		if err := c.mirror.Store(ctx, name, data, contentType); err != nil {
			c.logger.Warn("Failed to mirror image", zap.String("object", name), zap.Error(err))
		}
	}
	return nil
}

// fetch runs the fetcher but returns as soon as ctx ends, even if the
// fetcher itself ignores cancellation.
func (c *Cache) fetch(ctx context.Context, src string) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		data, err := c.fetcher.Fetch(ctx, src)
		ch <- result{data: data, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("fetch failed: %w", r.err)
		}
		return r.data, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch timed out: %w", ctx.Err())
	}
}

func (c *Cache) validate(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyBody
	}
	if int64(len(data)) > c.maxBytes {
		return "", ErrTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return mt.String(), nil
}

func (c *Cache) publish(localPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := atomic.WriteFile(localPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

func (c *Cache) pathFor(key, src string) string {
	return filepath.Join(c.dir, key+imageExt(src))
}

func imageExt(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if _, ok := imageExtensions[ext]; ok {
		return ext
	}
	return ""
}

// Lookup returns a snapshot of the entry for sourceRef without resolving it.
func (c *Cache) Lookup(sourceRef string) (Entry, bool) {
	key := Key(sourceRef)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return e.Entry, true
}

// Invalidate drops the entry for sourceRef so the next Resolve starts over.
// A ready entry also loses its local file. Pending entries are left alone.
func (c *Cache) Invalidate(sourceRef string) bool {
	key := Key(sourceRef)

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.State == StatePending {
		c.mu.Unlock()
		return false
	}
	// The file goes before the entry so a new Resolve cannot adopt it
	if e.State == StateReady {
		if err := os.Remove(e.LocalPath); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("Failed to remove cached image", zap.String("path", e.LocalPath), zap.Error(err))
		}
	}
	delete(c.entries, key)
	c.mu.Unlock()
	return true
}

// InvalidateFailed drops every failed entry and returns how many were dropped.
func (c *Cache) InvalidateFailed() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if e.State == StateFailed {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// Stats returns per-state entry counts.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var s Stats
	for _, e := range c.entries {
		switch e.State {
		case StatePending:
			s.Pending++
		case StateReady:
			s.Ready++
		case StateFailed:
			s.Failed++
		}
	}
	return s
}

// IsFileName reports whether name has the shape of a cache file name.
func IsFileName(name string) bool {
	return fileNamePattern.MatchString(name)
}

// File maps a cached file name (as produced by Resolve) back to its path.
// It rejects names that are not cache file names and files that do not exist.
func (c *Cache) File(name string) (string, bool) {
	if !IsFileName(name) {
		return "", false
	}
	p := filepath.Join(c.dir, name)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", false
	}
	return p, true
}
