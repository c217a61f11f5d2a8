package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scentdb/pkg/models"
)

// fakeStore keeps records in memory and can be scripted to fail
// specific upsert calls or to silently drop records (for exercising
// the reconciliation path).
type fakeStore struct {
	records    map[string]models.Fragrance
	failCalls  map[int]bool // 1-based UpsertBatch call numbers to fail
	dropIDs    map[string]bool
	upsertCall int
	batchSizes []int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:   make(map[string]models.Fragrance),
		failCalls: make(map[int]bool),
		dropIDs:   make(map[string]bool),
	}
}

func (s *fakeStore) ExistsBatch(_ context.Context, ids []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := s.records[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (s *fakeStore) UpsertBatch(_ context.Context, records []models.Fragrance) (int, error) {
	s.upsertCall++
	s.batchSizes = append(s.batchSizes, len(records))
	if s.failCalls[s.upsertCall] {
		return 0, errors.New("store rejected batch")
	}
	n := 0
	for _, f := range records {
		if s.dropIDs[f.ID] {
			n++ // accepted but never lands
			continue
		}
		s.records[f.ID] = f
		n++
	}
	return n, nil
}

func (s *fakeStore) Count(_ context.Context) (int, error) { return len(s.records), nil }

func (s *fakeStore) QueryIDs(_ context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(s.records))
	for id := range s.records {
		out[id] = struct{}{}
	}
	return out, nil
}

func nRecords(n int) []models.Fragrance {
	out := make([]models.Fragrance, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("brand__frag-%03d", i)
		out = append(out, models.Fragrance{
			ID: id, BrandID: "brand", Name: fmt.Sprintf("Frag %03d", i),
			Slug: fmt.Sprintf("frag-%03d", i), Gender: models.GenderUnisex,
		})
	}
	return out
}

func TestRunImportsAllBatches(t *testing.T) {
	store := newFakeStore()
	im := New(store, 50)

	report, err := im.Run(context.Background(), nRecords(120))
	require.NoError(t, err)

	assert.Equal(t, []int{50, 50, 20}, store.batchSizes)
	assert.Equal(t, 120, report.Submitted)
	assert.Equal(t, 120, report.Imported)
	assert.Empty(t, report.FailedBatches)
	assert.Empty(t, report.MissingAfter)
	assert.True(t, report.Clean())
}

func TestRunSecondBatchFailureIsIsolated(t *testing.T) {
	store := newFakeStore()
	store.failCalls[2] = true
	im := New(store, 50)

	var seen []int
	im.OnBatch = func(batch, total int, ids []string, err error) {
		seen = append(seen, batch)
		assert.Equal(t, 3, total)
	}

	report, err := im.Run(context.Background(), nRecords(120))
	require.NoError(t, err, "a failed batch must not abort the run")

	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, 70, report.Imported) // batches 1 and 3
	require.Len(t, report.FailedBatches, 1)
	assert.Equal(t, 2, report.FailedBatches[0].Batch)
	assert.Len(t, report.FailedBatches[0].IDs, 50)
	assert.Contains(t, report.FailedBatches[0].Error, "rejected")

	// Failed-batch records are attributed to the batch failure, not
	// double-reported as a reconciliation gap.
	assert.Empty(t, report.MissingAfter)
	assert.Len(t, report.FailedBatchIDs(), 50)
	assert.False(t, report.Clean())
}

func TestRunSkipsExistingRecords(t *testing.T) {
	store := newFakeStore()
	records := nRecords(10)
	store.records[records[0].ID] = records[0]
	store.records[records[5].ID] = records[5]

	im := New(store, 4)
	report, err := im.Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 2, report.SkippedExisting)
	assert.Equal(t, 8, report.Imported)
}

func TestRunReportsReconciliationGap(t *testing.T) {
	store := newFakeStore()
	records := nRecords(6)
	store.dropIDs[records[3].ID] = true

	im := New(store, 3)
	report, err := im.Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 6, report.Imported) // store claimed success
	require.Len(t, report.MissingAfter, 1)
	assert.Equal(t, records[3].ID, report.MissingAfter[0])
	assert.False(t, report.Clean())
}

func TestRunEmptyInput(t *testing.T) {
	im := New(newFakeStore(), 50)
	report, err := im.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, report.Submitted)
	assert.True(t, report.Clean())
}

type fakeBrandStore struct {
	brands map[string]models.Brand
	fail   bool
}

func (s *fakeBrandStore) UpsertBrandBatch(_ context.Context, brands []models.Brand) (int, error) {
	if s.fail {
		return 0, errors.New("brand upsert failed")
	}
	for _, b := range brands {
		s.brands[b.ID] = b
	}
	return len(brands), nil
}

func (s *fakeBrandStore) BrandIDs(_ context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(s.brands))
	for id := range s.brands {
		out[id] = struct{}{}
	}
	return out, nil
}

func TestImportBrands(t *testing.T) {
	store := &fakeBrandStore{brands: map[string]models.Brand{
		"dior": {ID: "dior", Name: "Dior", Slug: "dior"},
	}}

	report, err := ImportBrands(context.Background(), store, []models.Brand{
		{ID: "dior", Name: "Dior", Slug: "dior"},
		{ID: "chanel", Name: "Chanel", Slug: "chanel"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.SkippedExisting)
	assert.Equal(t, 1, report.Imported)
	assert.Contains(t, store.brands, "chanel")
}

func TestImportBrandsFailureIsReported(t *testing.T) {
	store := &fakeBrandStore{brands: map[string]models.Brand{}, fail: true}
	report, err := ImportBrands(context.Background(), store, []models.Brand{
		{ID: "dior", Name: "Dior", Slug: "dior"},
	})
	require.NoError(t, err)
	require.Len(t, report.FailedBatches, 1)
	assert.Zero(t, report.Imported)
}
