package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// index holds the listings of both sides.
type index struct {
	local  map[string]Item
	mirror map[string]Item
	built  time.Time
}

func (r *Reconciler) expired(idx *index) bool {
	if r.ttl <= 0 {
		return true
	}
	return r.now().Sub(idx.built) > r.ttl
}

// buildIndex lists both sides concurrently.
func (r *Reconciler) buildIndex(ctx context.Context) (*index, error) {
	var (
		local, mirror       map[string]Item
		localErr, mirrorErr error
		wg                  sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		local, localErr = r.local.List(ctx)
	}()
	go func() {
		defer wg.Done()
		mirror, mirrorErr = r.mirror.List(ctx)
	}()
	wg.Wait()

	if localErr != nil {
		return nil, fmt.Errorf("%s: %w", r.local.Name(), localErr)
	}
	if mirrorErr != nil {
		return nil, fmt.Errorf("%s: %w", r.mirror.Name(), mirrorErr)
	}

	return &index{local: local, mirror: mirror, built: r.now()}, nil
}

// getOrBuildIndex returns the cached index, or builds a new one if it is
// missing or expired. Concurrent callers share one build.
func (r *Reconciler) getOrBuildIndex(ctx context.Context) (*index, error) {
	r.mu.RLock()
	idx := r.idx
	r.mu.RUnlock()

	if idx != nil && !r.expired(idx) {
		return idx, nil
	}

	result, err, _ := r.sf.Do("index", func() (interface{}, error) {
		// Double-check after acquiring singleflight lock
		r.mu.RLock()
		idx := r.idx
		r.mu.RUnlock()
		if idx != nil && !r.expired(idx) {
			return idx, nil
		}

		built, err := r.buildIndex(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.idx = built
		r.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*index), nil
}

// Invalidate drops the cached index so the next plan lists both sides again.
func (r *Reconciler) Invalidate() {
	r.mu.Lock()
	r.idx = nil
	r.mu.Unlock()
}
