// Package integrity provides system health checks for brick-manager.
//
// # Checks Provided
//
//   - Cache: the image cache directory exists and is writable, and the
//     placeholder image served for failed downloads is present.
//   - Mirror: the object storage bucket backing the image mirror exists
//     (skipped when the mirror is disabled).
//   - Mirror sync: compares cached files on disk with mirrored objects and
//     plans uploads, restores or purges (see core/reconcile).
//   - Schema: the collection tables carry every column the missing parts
//     store and the catalog gateway read.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/cache : Runs cache check (supports ?fix=true).
//   - GET /integrity/mirror : Runs mirror check (supports ?fix=true).
//   - GET /integrity/mirror/sync : Plans a mirror sync (?sync, ?purge), applies
//     it with ?apply=true&confirm=true.
//   - GET /integrity/schema : Runs schema check.
package integrity
