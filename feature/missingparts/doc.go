// Package missingparts lists the parts a collection still lacks.
//
// The Aggregator is the core: given ownership records, an id filter and a
// spare toggle it keeps the records with a shortfall, resolves all their item
// refs with one bulk catalog lookup, and returns MissingPartRecords both flat
// and grouped by category. Output order follows input order. Records whose
// item is unknown to the catalog are skipped, but their refs and count are
// reported on the Result so totals can be reconciled.
//
// # Components
//
//   - Aggregator: filtering, shortfall computation, catalog join, grouping,
//     optional image resolution through the image cache.
//   - DBStore: CollectionStore over parts_in_set and user_minifigure_parts.
//   - Service: parses the id filter, loads records, aggregates.
//   - Handler / Feature: HTTP exposure, registered through the loader.
//
// # HTTP Endpoints
//
//   - GET /missing-parts?ids=&spares=&category=&exclude_status=
//   - GET /missing-parts/summary?ids=&exclude_status=
package missingparts
