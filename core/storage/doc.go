// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind a small interface. The image cache uses
// it as a shared second tier: images downloaded by one instance are published
// to a bucket so other instances, or a rebuilt container with an empty disk,
// can restore them without contacting the catalog's image host again.
//
// # Client Interface
//
// The Client interface abstracts the underlying provider (AWS S3 or MinIO)
// and is mocked for unit tests in core/storage/mocks.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	exists, err := client.BucketExists(ctx, cfg.Storage.Bucket)
package storage
