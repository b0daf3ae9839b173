package missingparts_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"brick-manager/core/idfilter"
	"brick-manager/feature/missingparts"
	"brick-manager/feature/missingparts/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) LookupBulk(ctx context.Context, refs []string) ([]models.CatalogEntry, error) {
	args := m.Called(ctx, refs)
	if entries, ok := args.Get(0).([]models.CatalogEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

// staticGateway answers from a fixed catalog and records every request.
type staticGateway struct {
	mu       sync.Mutex
	catalog  map[string]models.CatalogEntry
	requests [][]string
}

func (g *staticGateway) LookupBulk(ctx context.Context, refs []string) ([]models.CatalogEntry, error) {
	g.mu.Lock()
	g.requests = append(g.requests, append([]string(nil), refs...))
	g.mu.Unlock()

	var out []models.CatalogEntry
	for _, ref := range refs {
		if e, ok := g.catalog[ref]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

var testCatalog = map[string]models.CatalogEntry{
	"3001":   {ItemRef: "3001", DisplayName: "Brick 2 x 4", CategoryID: 11, CategoryName: "Bricks", ImageURL: "https://cdn.example.com/3001.jpg", Location: "Location: Shelf A, Level: 2, Box: B1"},
	"3002":   {ItemRef: "3002", DisplayName: "Brick 2 x 3", CategoryID: 11, CategoryName: "Bricks", ImageURL: "https://cdn.example.com/3002.jpg"},
	"3020":   {ItemRef: "3020", DisplayName: "Plate 2 x 4", CategoryID: 14, CategoryName: "Plates", ImageURL: "https://cdn.example.com/3020.jpg"},
	"973pr1": {ItemRef: "973pr1", DisplayName: "Torso Police", CategoryID: 0, CategoryName: "No Category"},
}

func part(id int, ref string, required, owned int, spare bool) models.OwnershipRecord {
	return models.OwnershipRecord{
		Kind:        models.KindPart,
		InternalID:  id,
		ItemRef:     ref,
		ColorRef:    "Red",
		RequiredQty: required,
		OwnedQty:    owned,
		IsSpare:     spare,
	}
}

func refsOf(records []models.MissingPartRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ItemRef)
	}
	return out
}

func TestAggregate_Scenarios(t *testing.T) {
	records := []models.OwnershipRecord{
		part(229, "3001", 4, 2, false),
		part(229, "3002", 1, 1, false),
	}

	t.Run("FilterMatches", func(t *testing.T) {
		a := missingparts.NewAggregator(&staticGateway{catalog: testCatalog})
		result, err := a.Aggregate(context.Background(), records, idfilter.Parse("229"), missingparts.Options{IncludeSpares: true})
		require.NoError(t, err)

		require.Len(t, result.Flat, 1)
		rec := result.Flat[0]
		assert.Equal(t, "3001", rec.ItemRef)
		assert.Equal(t, 2, rec.MissingQty)
		assert.Equal(t, 229, rec.InternalID)
		assert.Equal(t, "Brick 2 x 4", rec.DisplayName)
		assert.Equal(t, "Bricks", rec.CategoryName)
		assert.Equal(t, "Red", rec.ColorRef)
		assert.Equal(t, models.KindPart, rec.Kind)
		assert.Equal(t, "Location: Shelf A, Level: 2, Box: B1", rec.Location)

		assert.Equal(t, map[int][]models.MissingPartRecord{11: {rec}}, result.Categorized)
		assert.Equal(t, []int{11}, result.CategoryOrder)
	})

	t.Run("FilterExcludes", func(t *testing.T) {
		gw := &staticGateway{catalog: testCatalog}
		a := missingparts.NewAggregator(gw)
		result, err := a.Aggregate(context.Background(), records, idfilter.Parse("230"), missingparts.Options{IncludeSpares: true})
		require.NoError(t, err)

		assert.Empty(t, result.Flat)
		assert.Empty(t, result.Categorized)
		assert.Empty(t, gw.requests)
	})

	t.Run("SparesExcluded", func(t *testing.T) {
		a := missingparts.NewAggregator(&staticGateway{catalog: testCatalog})
		spare := []models.OwnershipRecord{part(229, "3001", 5, 0, true)}

		result, err := a.Aggregate(context.Background(), spare, idfilter.Filter{}, missingparts.Options{IncludeSpares: false})
		require.NoError(t, err)
		assert.Empty(t, result.Flat)

		result, err = a.Aggregate(context.Background(), spare, idfilter.Filter{}, missingparts.Options{IncludeSpares: true})
		require.NoError(t, err)
		require.Len(t, result.Flat, 1)
		assert.True(t, result.Flat[0].IsSpare)
		assert.Equal(t, 5, result.Summary.MissingSpareQty)
	})
}

func TestAggregate_ShortfallInvariant(t *testing.T) {
	var records []models.OwnershipRecord
	for required := 0; required <= 4; required++ {
		for owned := 0; owned <= 6; owned++ {
			records = append(records, part(1, "3001", required, owned, false))
		}
	}

	a := missingparts.NewAggregator(&staticGateway{catalog: testCatalog})
	result, err := a.Aggregate(context.Background(), records, idfilter.Filter{}, missingparts.Options{})
	require.NoError(t, err)

	want := 0
	for _, r := range records {
		if r.RequiredQty > r.OwnedQty {
			want++
		}
	}
	assert.Len(t, result.Flat, want)
	for _, rec := range result.Flat {
		assert.Greater(t, rec.MissingQty, 0)
	}
}

func TestAggregate_SingleBulkLookup(t *testing.T) {
	refs := []string{"3001", "3002", "3020", "973pr1"}
	var records []models.OwnershipRecord
	for i := 0; i < 200; i++ {
		records = append(records, part(i, refs[i%len(refs)], 3, 1, false))
	}

	gw := &staticGateway{catalog: testCatalog}
	a := missingparts.NewAggregator(gw)
	result, err := a.Aggregate(context.Background(), records, idfilter.Filter{}, missingparts.Options{})
	require.NoError(t, err)
	assert.Len(t, result.Flat, 200)

	require.Len(t, gw.requests, 1)
	got := gw.requests[0]
	sort.Strings(got)
	assert.Equal(t, []string{"3001", "3002", "3020", "973pr1"}, got)
}

func TestAggregate_OrderAndGrouping(t *testing.T) {
	records := []models.OwnershipRecord{
		part(1, "3020", 2, 0, false),
		part(1, "3001", 2, 0, false),
		part(2, "973pr1", 1, 0, false),
		part(2, "3020", 4, 1, false),
		part(3, "3002", 1, 0, false),
	}
	records[2].Kind = models.KindMinifigurePart

	a := missingparts.NewAggregator(&staticGateway{catalog: testCatalog})
	for i := 0; i < 5; i++ {
		result, err := a.Aggregate(context.Background(), records, idfilter.Filter{}, missingparts.Options{})
		require.NoError(t, err)

		assert.Equal(t, []string{"3020", "3001", "973pr1", "3020", "3002"}, refsOf(result.Flat))
		assert.Equal(t, []int{14, 11, 0}, result.CategoryOrder)
		assert.Equal(t, []string{"3020", "3020"}, refsOf(result.Categorized[14]))
		assert.Equal(t, []int{1, 2}, []int{result.Categorized[14][0].InternalID, result.Categorized[14][1].InternalID})
		assert.Equal(t, []string{"3001", "3002"}, refsOf(result.Categorized[11]))
		assert.Equal(t, models.DefaultLocation, result.Categorized[0][0].Location)

		assert.Equal(t, models.Summary{
			Records:           5,
			MissingQty:        2 + 2 + 3 + 1,
			MissingMinifigQty: 1,
		}, result.Summary)
	}
}

func TestAggregate_CategoryFilter(t *testing.T) {
	records := []models.OwnershipRecord{
		part(1, "3020", 2, 0, false),
		part(1, "3001", 2, 0, false),
		part(1, "unknown", 2, 0, false),
	}
	plates := 14

	a := missingparts.NewAggregator(&staticGateway{catalog: testCatalog})
	result, err := a.Aggregate(context.Background(), records, idfilter.Filter{}, missingparts.Options{Category: &plates})
	require.NoError(t, err)

	assert.Equal(t, []string{"3020"}, refsOf(result.Flat))
	assert.Equal(t, []int{14}, result.CategoryOrder)
	assert.Equal(t, []string{"unknown"}, result.Unresolved)
}

func TestAggregate_UnresolvedRefs(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	records := []models.OwnershipRecord{
		part(1, "zz-missing", 2, 0, false),
		part(1, "3001", 2, 0, false),
		part(2, "zz-missing", 1, 0, false),
		part(2, "aa-missing", 1, 0, false),
	}

	a := missingparts.NewAggregator(&staticGateway{catalog: testCatalog}, missingparts.WithLogger(zap.New(core)))
	result, err := a.Aggregate(context.Background(), records, idfilter.Filter{}, missingparts.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"3001"}, refsOf(result.Flat))
	assert.Equal(t, []string{"aa-missing", "zz-missing"}, result.Unresolved)
	assert.Equal(t, 3, result.Summary.UnresolvedRecords)
	assert.Equal(t, 1, logs.FilterMessage("Skipped records without catalog entry").Len())
}

func TestAggregate_GatewayFailure(t *testing.T) {
	gw := new(mockGateway)
	gw.On("LookupBulk", mock.Anything, []string{"3001"}).Return(nil, errors.New("db down"))

	a := missingparts.NewAggregator(gw)
	result, err := a.Aggregate(context.Background(), []models.OwnershipRecord{part(1, "3001", 2, 0, false)}, idfilter.Filter{}, missingparts.Options{})
	assert.Nil(t, result)
	assert.ErrorContains(t, err, "db down")
	gw.AssertExpectations(t)
}

func TestAggregate_NoGateway(t *testing.T) {
	_, err := missingparts.NewAggregator(nil).Aggregate(context.Background(), nil, idfilter.Filter{}, missingparts.Options{})
	assert.ErrorIs(t, err, missingparts.ErrNoGateway)
}

func TestAggregate_InvalidTokensCounted(t *testing.T) {
	a := missingparts.NewAggregator(&staticGateway{catalog: testCatalog})
	result, err := a.Aggregate(context.Background(), []models.OwnershipRecord{part(5, "3001", 1, 0, false)}, idfilter.Parse("5;x;y"), missingparts.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Summary.InvalidFilterTokens)
	assert.Len(t, result.Flat, 1)
}

// countingResolver maps every URL to a fake local path and counts calls per URL.
type countingResolver struct {
	mu     sync.Mutex
	calls  map[string]int
	active atomic.Int32
	peak   atomic.Int32
}

func (r *countingResolver) Resolve(ctx context.Context, src string) string {
	n := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}

	r.mu.Lock()
	r.calls[src]++
	r.mu.Unlock()
	if src == "" {
		return "static/default_image.png"
	}
	return "/cache/" + src[len(src)-8:]
}

func TestAggregate_ImageResolution(t *testing.T) {
	var records []models.OwnershipRecord
	for i := 0; i < 40; i++ {
		records = append(records, part(i, []string{"3001", "3002", "3020", "973pr1"}[i%4], 2, 0, false))
	}

	resolver := &countingResolver{calls: make(map[string]int)}
	a := missingparts.NewAggregator(&staticGateway{catalog: testCatalog}, missingparts.WithImageResolver(resolver, 2))
	result, err := a.Aggregate(context.Background(), records, idfilter.Filter{}, missingparts.Options{})
	require.NoError(t, err)

	assert.Len(t, resolver.calls, 4)
	for src, n := range resolver.calls {
		assert.Equal(t, 1, n, "url %q", src)
	}
	assert.LessOrEqual(t, resolver.peak.Load(), int32(2))

	for _, rec := range result.Flat {
		if rec.ImageURL == "" {
			assert.Equal(t, "static/default_image.png", rec.ImageLocalRef)
			continue
		}
		assert.Equal(t, "/cache/"+rec.ImageURL[len(rec.ImageURL)-8:], rec.ImageLocalRef)
	}
}

func TestAggregate_Concurrent(t *testing.T) {
	a := missingparts.NewAggregator(&staticGateway{catalog: testCatalog})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records := []models.OwnershipRecord{part(i, "3001", i+1, 0, false)}
			result, err := a.Aggregate(context.Background(), records, idfilter.Parse(fmt.Sprint(i)), missingparts.Options{})
			assert.NoError(t, err)
			if assert.Len(t, result.Flat, 1) {
				assert.Equal(t, i+1, result.Flat[0].MissingQty)
			}
		}(i)
	}
	wg.Wait()
}

func TestSummarize(t *testing.T) {
	fig := part(2, "973pr1", 2, 0, false)
	fig.Kind = models.KindMinifigurePart
	records := []models.OwnershipRecord{
		part(1, "3001", 4, 1, false),
		part(1, "3001", 2, 0, true),
		part(1, "3020", 3, 3, false),
		fig,
		part(9, "3001", 10, 0, false),
	}

	s := missingparts.Summarize(records, idfilter.Parse("1-2"))
	assert.Equal(t, models.Summary{
		Records:           4,
		OwnedQty:          4,
		MissingQty:        5,
		MissingSpareQty:   2,
		MissingMinifigQty: 2,
	}, s)
}
