package catalog

import (
	"context"
	"strings"
	"sync"
	"time"

	"brick-manager/feature/missingparts/models"

	"golang.org/x/sync/singleflight"
)

// flightTimeout bounds a shared inner lookup once it is detached from its callers.
const flightTimeout = 30 * time.Second

// cachedEntry holds one lookup result. A nil entry records that the ref is unknown.
type cachedEntry struct {
	entry   *models.CatalogEntry
	expires time.Time
}

// CachedGateway wraps a Gateway with a per-ref TTL cache.
// Misses are fetched with a single inner call, and identical concurrent
// miss sets share that call.
type CachedGateway struct {
	inner Gateway
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]cachedEntry
	sf      singleflight.Group
}

// NewCachedGateway wraps inner. A non-positive ttl disables caching.
func NewCachedGateway(inner Gateway, ttl time.Duration) *CachedGateway {
	return &CachedGateway{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedEntry),
	}
}

// LookupBulk serves fresh refs from the cache and fetches the rest.
func (g *CachedGateway) LookupBulk(ctx context.Context, refs []string) ([]models.CatalogEntry, error) {
	if g.ttl <= 0 {
		return g.inner.LookupBulk(ctx, refs)
	}

	refs = normalizeRefs(refs)
	found, misses := g.split(refs)

	if len(misses) > 0 {
		ch := g.sf.DoChan(strings.Join(misses, "\x00"), func() (interface{}, error) {
			// Shared by every caller, so one caller leaving must not cancel it
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
			defer cancel()

			// Another flight may have filled some of these already
			cached, still := g.split(misses)
			if len(still) == 0 {
				return cached, nil
			}

			entries, err := g.inner.LookupBulk(fctx, still)
			if err != nil {
				return nil, err
			}
			fetched := g.store(still, entries)
			for ref, e := range fetched {
				cached[ref] = e
			}
			return cached, nil
		})

		var res singleflight.Result
		select {
		case res = <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		for ref, e := range res.Val.(map[string]*models.CatalogEntry) {
			found[ref] = e
		}
	}

	out := make([]models.CatalogEntry, 0, len(refs))
	for _, ref := range refs {
		if e := found[ref]; e != nil {
			out = append(out, *e)
		}
	}
	return out, nil
}

// split returns fresh cached results (nil for known-unknown refs) and the refs to fetch.
func (g *CachedGateway) split(refs []string) (map[string]*models.CatalogEntry, []string) {
	now := g.now()
	found := make(map[string]*models.CatalogEntry, len(refs))
	var misses []string

	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, ref := range refs {
		c, ok := g.entries[ref]
		if !ok || now.After(c.expires) {
			misses = append(misses, ref)
			continue
		}
		found[ref] = c.entry
	}
	return found, misses
}

func (g *CachedGateway) store(requested []string, entries []models.CatalogEntry) map[string]*models.CatalogEntry {
	expires := g.now().Add(g.ttl)
	result := make(map[string]*models.CatalogEntry, len(requested))
	for _, ref := range requested {
		result[ref] = nil
	}
	for i := range entries {
		e := entries[i]
		if _, ok := result[e.ItemRef]; ok && result[e.ItemRef] == nil {
			result[e.ItemRef] = &e
		}
	}

	g.mu.Lock()
	for ref, e := range result {
		g.entries[ref] = cachedEntry{entry: e, expires: expires}
	}
	g.mu.Unlock()
	return result
}

// Purge drops every cached entry.
func (g *CachedGateway) Purge() {
	g.mu.Lock()
	g.entries = make(map[string]cachedEntry)
	g.mu.Unlock()
}

// Len returns the number of cached refs, expired ones included.
func (g *CachedGateway) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}
