package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Reconciler compares a local side with a mirror side.
type Reconciler struct {
	local  Side
	mirror Side
	ttl    time.Duration
	now    func() time.Time

	mu  sync.RWMutex
	idx *index
	sf  singleflight.Group
}

// New creates a Reconciler. Listings are reused for ttl; zero disables caching.
func New(local, mirror Side, ttl time.Duration) *Reconciler {
	return &Reconciler{local: local, mirror: mirror, ttl: ttl, now: time.Now}
}

// Plan builds results for every name on either side and the actions opts asks for.
// It does NOT execute actions; use Apply for that.
func (r *Reconciler) Plan(ctx context.Context, opts Options) (*Plan, error) {
	idx, err := r.getOrBuildIndex(ctx)
	if err != nil {
		return nil, err
	}

	results := buildResults(idx)
	summary, actions := buildPlanFromResults(results, opts)

	return &Plan{
		Results: results,
		Actions: actions,
		Summary: summary,
	}, nil
}

// buildResults creates one result per name in the union of both sides,
// sorted by name for deterministic output.
func buildResults(idx *index) []Result {
	union := make(map[string]struct{}, len(idx.local)+len(idx.mirror))
	for name := range idx.local {
		union[name] = struct{}{}
	}
	for name := range idx.mirror {
		union[name] = struct{}{}
	}

	results := make([]Result, 0, len(union))
	for name := range union {
		local, inLocal := idx.local[name]
		mirror, inMirror := idx.mirror[name]

		result := Result{
			Name:          name,
			LocalPresent:  inLocal,
			MirrorPresent: inMirror,
			Mismatch:      []string{},
		}
		if inLocal && inMirror && local.Size != mirror.Size {
			result.Mismatch = append(result.Mismatch, fmt.Sprintf("size: local=%d mirror=%d", local.Size, mirror.Size))
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Name < results[j].Name
	})
	return results
}

// buildPlanFromResults generates a summary and action plan from results.
func buildPlanFromResults(results []Result, opts Options) (PlanSummary, []Action) {
	var summary PlanSummary
	var actions []Action

	summary.TotalItems = len(results)

	for _, result := range results {
		if !result.LocalPresent {
			summary.MissingLocal++
		}
		if !result.MirrorPresent {
			summary.MissingMirror++
		}
		if len(result.Mismatch) > 0 {
			summary.Mismatches++
		}

		oneSided := result.LocalPresent != result.MirrorPresent

		// Purge takes precedence: a one-sided name is deleted, not copied
		if opts.DoPurge && oneSided {
			action := Action{Type: ActionDeleteLocal, Name: result.Name, Reason: "missing in mirror"}
			if result.MirrorPresent {
				action = Action{Type: ActionDeleteMirror, Name: result.Name, Reason: "missing locally"}
			}
			actions = append(actions, action)
			summary.PurgeActions++
			continue
		}

		if !opts.DoSync {
			continue
		}

		switch {
		case result.LocalPresent && !result.MirrorPresent:
			actions = append(actions, Action{Type: ActionUpload, Name: result.Name, Reason: "missing in mirror"})
			summary.SyncActions++
		case result.MirrorPresent && !result.LocalPresent:
			actions = append(actions, Action{Type: ActionRestore, Name: result.Name, Reason: "missing locally"})
			summary.SyncActions++
		case len(result.Mismatch) > 0:
			// The local copy was validated when it was downloaded
			actions = append(actions, Action{Type: ActionUpload, Name: result.Name, Reason: fmt.Sprintf("mismatch: %v", result.Mismatch)})
			summary.SyncActions++
		}
	}

	return summary, actions
}

// Apply executes the actions in a plan and returns how many ran.
// Requires opts.Confirmed=true and opts.DryRun=false to actually execute.
// It stops at the first failing action.
func (r *Reconciler) Apply(ctx context.Context, plan *Plan, opts Options) (executed int, err error) {
	if plan == nil || !opts.Confirmed || opts.DryRun {
		return 0, nil
	}
	if len(plan.Actions) > 0 {
		defer r.Invalidate()
	}

	for _, action := range plan.Actions {
		if err := ctx.Err(); err != nil {
			return executed, err
		}
		if err := r.apply(ctx, action); err != nil {
			return executed, fmt.Errorf("failed to %s %s: %w", action.Type, action.Name, err)
		}
		executed++
	}
	return executed, nil
}

func (r *Reconciler) apply(ctx context.Context, action Action) error {
	switch action.Type {
	case ActionUpload:
		return copyItem(ctx, r.local, r.mirror, action.Name)
	case ActionRestore:
		return copyItem(ctx, r.mirror, r.local, action.Name)
	case ActionDeleteLocal:
		return r.local.Delete(ctx, action.Name)
	case ActionDeleteMirror:
		return r.mirror.Delete(ctx, action.Name)
	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

func copyItem(ctx context.Context, from, to Side, name string) error {
	data, err := from.Read(ctx, name)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("%s returned an empty object", from.Name())
	}
	return to.Write(ctx, name, data)
}
