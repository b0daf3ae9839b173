// Package catalog resolves item refs (part numbers) to their catalog
// metadata: display name, category, image URL and storage location.
//
// Gateway is a bulk interface on purpose. Callers hand over the whole set of
// refs they need and get back one entry per known ref, which keeps the
// missing parts view at a fixed number of queries no matter how many
// records it covers.
//
// # Implementations
//
//   - DBGateway: reads part_info (LEFT JOIN categories) and part_storage in
//     chunks of catalog.batch_size refs. Refs unknown to part_info fall back
//     to the name and image stored on user_minifigure_parts.
//   - CachedGateway: per-ref TTL cache in front of another Gateway. Unknown
//     refs are cached too. Concurrent identical miss sets are collapsed with
//     singleflight.
package catalog
