package checks

import (
	"context"
	"fmt"

	"brick-manager/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// MirrorReport describes the object storage mirror of the image cache.
type MirrorReport struct {
	Enabled      bool   `json:"enabled"`
	Bucket       string `json:"bucket"`
	BucketExists bool   `json:"bucket_exists"`
	Status       string `json:"status"` // "ok", "error", "disabled"
}

// CheckMirror verifies that the mirror bucket exists. A nil client means the
// mirror is disabled.
func CheckMirror(ctx context.Context, client storage.Client, bucket string) (*MirrorReport, error) {
	report := &MirrorReport{Bucket: bucket, Status: "disabled"}
	if client == nil {
		return report, nil
	}
	report.Enabled = true

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	report.BucketExists = exists
	report.Status = "ok"
	if !exists {
		report.Status = "error"
	}
	return report, nil
}

// FixMirror creates the mirror bucket.
func FixMirror(ctx context.Context, client storage.Client, bucket string, logger *zap.Logger) error {
	if client == nil {
		return fmt.Errorf("image mirror is disabled")
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		logger.Error("Failed to create bucket", zap.String("bucket", bucket), zap.Error(err))
		return err
	}
	logger.Info("Created mirror bucket", zap.String("bucket", bucket))
	return nil
}
