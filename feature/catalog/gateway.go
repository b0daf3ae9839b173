package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"

	"brick-manager/feature/missingparts/models"
)

// ErrNoDatabase is returned when a DBGateway has no connection.
var ErrNoDatabase = errors.New("catalog: database not configured")

// Gateway resolves catalog metadata for many item refs at once.
// Implementations return at most one entry per requested ref; unknown refs
// are absent from the result and are not an error.
type Gateway interface {
	LookupBulk(ctx context.Context, refs []string) ([]models.CatalogEntry, error)
}

// normalizeRefs trims, drops empty refs, removes duplicates and sorts.
func normalizeRefs(refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}
