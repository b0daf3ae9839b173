package imagecache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"brick-manager/core/logger"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

var (
	// ErrInvalidURL is returned for source refs that are not http(s) URLs.
	ErrInvalidURL = errors.New("invalid image url")
	// ErrStatus is returned for non-2xx responses.
	ErrStatus = errors.New("unexpected response status")
)

// HTTPFetcher downloads images over HTTP(S) with retries.
type HTTPFetcher struct {
	client   *retryablehttp.Client
	maxBytes int64
}

// NewHTTPFetcher creates a fetcher from the cache configuration.
func NewHTTPFetcher(cfg Config, l *zap.Logger) *HTTPFetcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.Retries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = leveledLogger{s: logger.OrNop(l).Sugar()}
	// Hand the final response back instead of a generic "giving up" error,
	// so a 5xx still reports its status.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &HTTPFetcher{client: client, maxBytes: maxBytes}
}

// Fetch downloads sourceURL and returns its body.
func (f *HTTPFetcher) Fetch(ctx context.Context, sourceURL string) ([]byte, error) {
	u, err := url.Parse(sourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, sourceURL)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "brick-manager/1.0")
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
// Retry chatter is logged at debug level.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}
