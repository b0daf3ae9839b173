// Package imagecache keeps a disk-backed, download-once copy of remote
// reference images (part and minifigure pictures from the catalog).
//
// # Keys and paths
//
// An image is identified by the SHA-256 of its source URL. The file lives at
// <dir>/<key><ext>, where ext is taken from the URL path when it is a known
// image extension. Because the path only depends on the URL, an image that is
// already on disk from a previous run is a cache hit after a restart.
//
// # Concurrency
//
// Each key has one entry that moves Pending -> Ready or Pending -> Failed.
// The first caller creates the Pending entry and starts the download in the
// background; every other caller for the same key waits on that entry instead
// of downloading again. Unrelated keys never wait on each other. A caller whose
// context ends while waiting gets the placeholder; the download carries on for
// the remaining waiters and is bounded by its own timeout.
//
// Files are published with a temp-file-and-rename write, so a partial download
// is never visible at its final path.
//
// # Failure
//
// Resolve never returns an error. Network errors, non-2xx responses, empty or
// non-image bodies and write errors mark the entry Failed and yield the
// placeholder. Failed entries are not retried until invalidated.
//
// # Mirror
//
// An optional Mirror (StorageMirror for S3/MinIO) is consulted before the
// remote source and receives every freshly downloaded image.
//
// # Usage
//
//	fetcher := imagecache.NewHTTPFetcher(cfg.Images, logger)
//	cache, err := imagecache.New(cfg.Images, fetcher, imagecache.WithLogger(logger))
//	path := cache.Resolve(ctx, "https://cdn.rebrickable.com/media/parts/elements/300121.jpg")
package imagecache
