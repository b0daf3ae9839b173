package missingparts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"brick-manager/core/idfilter"
	"brick-manager/core/logger"
	"brick-manager/feature/catalog"
	"brick-manager/feature/missingparts/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoGateway is returned by Aggregate when the aggregator has no catalog gateway.
var ErrNoGateway = errors.New("missingparts: catalog gateway is required")

// ImageResolver maps a remote image URL to a local path. *imagecache.Cache implements it.
type ImageResolver interface {
	Resolve(ctx context.Context, sourceRef string) string
}

// Options controls which records an aggregation keeps.
type Options struct {
	// IncludeSpares keeps spare records. When false they are dropped entirely.
	IncludeSpares bool
	// Category keeps only records of this category id when set.
	Category *int
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithLogger sets the logger used for data-quality warnings.
func WithLogger(l *zap.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = logger.OrNop(l) }
}

// WithImageResolver resolves each distinct image URL of the output through r,
// running at most workers resolutions at once.
func WithImageResolver(r ImageResolver, workers int) AggregatorOption {
	return func(a *Aggregator) {
		a.images = r
		a.workers = workers
	}
}

// Aggregator turns ownership records into missing part records.
// It holds no per-call state and is safe for concurrent use.
type Aggregator struct {
	gateway catalog.Gateway
	images  ImageResolver
	workers int
	logger  *zap.Logger
}

// NewAggregator creates an Aggregator backed by gateway.
func NewAggregator(gateway catalog.Gateway, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		gateway: gateway,
		workers: 8,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers <= 0 {
		a.workers = 1
	}
	return a
}

// Aggregate restricts records by filter and opts, keeps those with a
// shortfall, resolves their catalog entries with a single bulk lookup and
// returns them flat and grouped by category. Records whose item has no
// catalog entry are skipped and reported in Result.Unresolved.
// Only a failing catalog lookup returns an error.
func (a *Aggregator) Aggregate(ctx context.Context, records []models.OwnershipRecord, filter idfilter.Filter, opts Options) (*models.Result, error) {
	if a.gateway == nil {
		return nil, ErrNoGateway
	}

	survivors := make([]models.OwnershipRecord, 0, len(records))
	for _, r := range records {
		if !filter.Allows(r.InternalID) {
			continue
		}
		if r.IsSpare && !opts.IncludeSpares {
			continue
		}
		if r.Shortfall() == 0 {
			continue
		}
		survivors = append(survivors, r)
	}

	refs := distinctRefs(survivors)
	index := make(map[string]models.CatalogEntry, len(refs))
	if len(refs) > 0 {
		entries, err := a.gateway.LookupBulk(ctx, refs)
		if err != nil {
			return nil, fmt.Errorf("catalog lookup failed: %w", err)
		}
		for _, e := range entries {
			if _, ok := index[e.ItemRef]; !ok {
				index[e.ItemRef] = e
			}
		}
	}

	result := &models.Result{
		Categorized:   make(map[int][]models.MissingPartRecord),
		Flat:          make([]models.MissingPartRecord, 0, len(survivors)),
		CategoryOrder: []int{},
		Unresolved:    []string{},
	}
	result.Summary.InvalidFilterTokens = len(filter.Invalid)

	unresolved := make(map[string]struct{})
	for _, r := range survivors {
		ref := strings.TrimSpace(r.ItemRef)
		entry, ok := index[ref]
		if !ok {
			if ref != "" {
				unresolved[ref] = struct{}{}
			}
			result.Summary.UnresolvedRecords++
			continue
		}
		if opts.Category != nil && entry.CategoryID != *opts.Category {
			continue
		}
		result.Flat = append(result.Flat, newMissingPart(r, entry))
	}

	if a.images != nil && len(result.Flat) > 0 {
		if err := a.resolveImages(ctx, result.Flat); err != nil {
			return nil, err
		}
	}

	for _, rec := range result.Flat {
		if _, ok := result.Categorized[rec.CategoryID]; !ok {
			result.CategoryOrder = append(result.CategoryOrder, rec.CategoryID)
		}
		result.Categorized[rec.CategoryID] = append(result.Categorized[rec.CategoryID], rec)
		addMissing(&result.Summary, rec.Kind, rec.IsSpare, rec.MissingQty)
	}
	result.Summary.Records = len(result.Flat)

	for ref := range unresolved {
		result.Unresolved = append(result.Unresolved, ref)
	}
	sort.Strings(result.Unresolved)

	if len(result.Unresolved) > 0 {
		a.logger.Warn("Skipped records without catalog entry",
			zap.Int("records", result.Summary.UnresolvedRecords),
			zap.Strings("item_refs", result.Unresolved))
	}

	return result, nil
}

// distinctRefs returns the non-empty item refs of records in first-appearance order.
func distinctRefs(records []models.OwnershipRecord) []string {
	seen := make(map[string]struct{}, len(records))
	refs := make([]string, 0, len(records))
	for _, r := range records {
		ref := strings.TrimSpace(r.ItemRef)
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}

func newMissingPart(r models.OwnershipRecord, e models.CatalogEntry) models.MissingPartRecord {
	location := e.Location
	if location == "" {
		location = models.DefaultLocation
	}
	return models.MissingPartRecord{
		Kind:         r.Kind,
		InternalID:   r.InternalID,
		SetNumber:    r.SetNumber,
		ItemRef:      e.ItemRef,
		DisplayName:  e.DisplayName,
		ColorRef:     r.ColorRef,
		MissingQty:   r.Shortfall(),
		CategoryID:   e.CategoryID,
		CategoryName: e.CategoryName,
		ImageURL:     e.ImageURL,
		Location:     location,
		IsSpare:      r.IsSpare,
	}
}

// resolveImages fills ImageLocalRef, resolving each distinct URL once.
func (a *Aggregator) resolveImages(ctx context.Context, records []models.MissingPartRecord) error {
	seen := make(map[string]struct{})
	var sources []string
	for _, rec := range records {
		if _, ok := seen[rec.ImageURL]; !ok {
			seen[rec.ImageURL] = struct{}{}
			sources = append(sources, rec.ImageURL)
		}
	}

	var mu sync.Mutex
	resolved := make(map[string]string, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for _, src := range sources {
		src := src
		g.Go(func() error {
			local := a.images.Resolve(gctx, src)
			mu.Lock()
			resolved[src] = local
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("image resolution failed: %w", err)
	}

	for i := range records {
		records[i].ImageLocalRef = resolved[records[i].ImageURL]
	}
	return nil
}

// addMissing adds qty to the summary bucket for the record kind.
func addMissing(s *models.Summary, kind models.RecordKind, spare bool, qty int) {
	if kind == models.KindMinifigurePart {
		s.MissingMinifigQty += qty
		return
	}
	s.MissingQty += qty
	if spare {
		s.MissingSpareQty += qty
	}
}

// Summarize computes dashboard totals over the records allowed by filter,
// spares included. It needs no catalog data.
func Summarize(records []models.OwnershipRecord, filter idfilter.Filter) models.Summary {
	s := models.Summary{InvalidFilterTokens: len(filter.Invalid)}
	for _, r := range records {
		if !filter.Allows(r.InternalID) {
			continue
		}
		s.Records++
		if r.Kind != models.KindMinifigurePart {
			s.OwnedQty += r.OwnedQty
		}
		addMissing(&s, r.Kind, r.IsSpare, r.Shortfall())
	}
	return s
}
