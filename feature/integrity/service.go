package integrity

import (
	"context"
	"errors"
	"time"

	"brick-manager/core/imagecache"
	"brick-manager/core/reconcile"
	"brick-manager/core/storage"
	"brick-manager/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles integrity checks.
type Service struct {
	client      storage.Client
	bucket      string
	cacheDir    string
	placeholder string
	logger      *zap.Logger
	db          *gorm.DB
	reconciler  *reconcile.Reconciler
}

// ErrMirrorDisabled is returned by mirror sync when no storage client is configured.
var ErrMirrorDisabled = errors.New("image mirror is disabled")

// Options holds what the integrity checks inspect. A nil Client means the
// image mirror is disabled.
type Options struct {
	Client storage.Client
	Bucket string
	// MirrorPrefix is the object key prefix of mirrored images.
	MirrorPrefix string
	CacheDir     string
	Placeholder  string
	DB           *gorm.DB
}

// NewService creates a new integrity service.
func NewService(opts Options, logger *zap.Logger) *Service {
	s := &Service{
		client:      opts.Client,
		bucket:      opts.Bucket,
		cacheDir:    opts.CacheDir,
		placeholder: opts.Placeholder,
		logger:      logger,
		db:          opts.DB,
	}
	if opts.Client != nil {
		s.reconciler = reconcile.New(
			reconcile.NewLocalSide(opts.CacheDir, imagecache.IsFileName),
			reconcile.NewMirrorSide(opts.Client, opts.Bucket, opts.MirrorPrefix, imagecache.IsFileName),
			time.Minute,
		)
	}
	return s
}

// CheckCache inspects the local image cache.
func (s *Service) CheckCache() *checks.CacheReport {
	return checks.CheckCache(s.cacheDir, s.placeholder)
}

// FixCache creates the cache directory.
func (s *Service) FixCache() error {
	return checks.FixCache(s.cacheDir)
}

// CheckMirror inspects the image mirror bucket.
func (s *Service) CheckMirror(ctx context.Context) (*checks.MirrorReport, error) {
	return checks.CheckMirror(ctx, s.client, s.bucket)
}

// FixMirror creates the image mirror bucket.
func (s *Service) FixMirror(ctx context.Context) error {
	return checks.FixMirror(ctx, s.client, s.bucket, s.logger)
}

// CheckSchema verifies the collection tables.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db)
}

// PlanMirrorSync compares the cache directory with the mirror bucket.
func (s *Service) PlanMirrorSync(ctx context.Context, opts reconcile.Options) (*reconcile.Plan, error) {
	if s.reconciler == nil {
		return nil, ErrMirrorDisabled
	}
	return s.reconciler.Plan(ctx, opts)
}

// SyncMirror plans and, when opts is confirmed, applies a mirror sync.
// It returns the plan and the number of executed actions.
func (s *Service) SyncMirror(ctx context.Context, opts reconcile.Options) (*reconcile.Plan, int, error) {
	plan, err := s.PlanMirrorSync(ctx, opts)
	if err != nil {
		return nil, 0, err
	}

	executed, err := s.reconciler.Apply(ctx, plan, opts)
	if executed > 0 {
		s.logger.Info("Mirror sync applied",
			zap.Int("executed", executed),
			zap.Int("sync_actions", plan.Summary.SyncActions),
			zap.Int("purge_actions", plan.Summary.PurgeActions),
		)
	}
	return plan, executed, err
}

// CheckAll runs every check and returns a combined report keyed by check name.
func (s *Service) CheckAll(ctx context.Context) map[string]interface{} {
	report := make(map[string]interface{})

	report["cache"] = s.CheckCache()

	if mirror, err := s.CheckMirror(ctx); err != nil {
		report["mirror"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["mirror"] = mirror
	}

	if schema, err := s.CheckSchema(); err != nil {
		report["schema"] = map[string]interface{}{"status": "error", "error": err.Error()}
	} else {
		report["schema"] = schema
	}

	return report
}
