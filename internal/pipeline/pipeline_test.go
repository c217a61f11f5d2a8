package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scentdb/internal/scoring"
	"scentdb/internal/validate"
	"scentdb/pkg/models"
)

type memStore struct {
	fragrances map[string]models.Fragrance
	brands     map[string]models.Brand
	reports    []models.RunReport
	calls      []string
}

func newMemStore() *memStore {
	return &memStore{
		fragrances: make(map[string]models.Fragrance),
		brands:     make(map[string]models.Brand),
	}
}

func (s *memStore) ExistsBatch(_ context.Context, ids []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := s.fragrances[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (s *memStore) UpsertBatch(_ context.Context, records []models.Fragrance) (int, error) {
	s.calls = append(s.calls, "fragrances")
	for _, f := range records {
		s.fragrances[f.ID] = f
	}
	return len(records), nil
}

func (s *memStore) Count(context.Context) (int, error) { return len(s.fragrances), nil }

func (s *memStore) QueryIDs(context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(s.fragrances))
	for id := range s.fragrances {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *memStore) UpsertBrandBatch(_ context.Context, brands []models.Brand) (int, error) {
	s.calls = append(s.calls, "brands")
	for _, b := range brands {
		s.brands[b.ID] = b
	}
	return len(brands), nil
}

func (s *memStore) BrandIDs(context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(s.brands))
	for id := range s.brands {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *memStore) SaveRunReport(_ context.Context, report models.RunReport) error {
	s.reports = append(s.reports, report)
	return nil
}

type memSink struct {
	events []Event
}

func (s *memSink) Publish(e Event) { s.events = append(s.events, e) }

func testRunner(store Store) *Runner {
	return NewRunner(store, scoring.Context{}, validate.Context{}, 100)
}

func TestRunRecordsEndToEnd(t *testing.T) {
	store := newMemStore()
	sink := &memSink{}
	r := testRunner(store)
	r.Events = sink

	recs := []models.SourceRecord{
		{"brand_name": "Dior", "name": "Sauvage EDT", "gender": "for men",
			"rating": 4.2, "reviews": 851, "year": 2015, "accords": "fresh spicy, amber"},
		{"brand_name": "Chanel", "perfume": "Bleu de Chanel", "gender": "men",
			"rating_value": 4.4, "rating_count": "19,581", "launch_year": 2010},
		// duplicate of the first, poorer quality: collapses away
		{"brand_name": "Dior", "name": "Sauvage EDT", "gender": "men"},
		// unrecoverable: no name, no usable id
		{"brand_name": "Mystery"},
	}

	report, err := r.RunRecords(context.Background(), recs, map[string]int{"test": 4})

	require.NoError(t, err)
	assert.Equal(t, 4, report.SourceRecords)
	assert.Equal(t, 1, report.Dropped)
	assert.Equal(t, 3, report.Scored)
	assert.Equal(t, 2, report.Deduplicated)
	assert.Equal(t, 2, report.Valid)
	assert.Zero(t, report.Invalid)
	assert.Equal(t, 2, report.Brands)
	assert.Equal(t, 2, report.Import.Imported)
	assert.Zero(t, report.Import.FailedValidation)
	assert.True(t, report.Import.Clean())

	// brands land before the fragrances that reference them
	require.GreaterOrEqual(t, len(store.calls), 2)
	assert.Equal(t, "brands", store.calls[0])

	// the richer duplicate won
	f, ok := store.fragrances["dior__sauvage-edt"]
	require.True(t, ok)
	require.NotNil(t, f.RatingValue)
	assert.InDelta(t, 4.2, *f.RatingValue, 1e-9)

	// run summary persisted and mirrored to the event sink
	require.Len(t, store.reports, 1)
	assert.Equal(t, report.RunID, store.reports[0].RunID)
	require.NotEmpty(t, sink.events)
	assert.Equal(t, "done", sink.events[len(sink.events)-1].Stage)
}

func TestRunRecordsInvalidRecordsAreReported(t *testing.T) {
	store := newMemStore()
	r := testRunner(store)

	recs := []models.SourceRecord{
		{"brand_name": "Dior", "name": "Sauvage", "gender": "men", "rating": "9.9"},
		{"brand_name": "Chanel", "name": "No 5", "gender": "women"},
	}

	report, err := r.RunRecords(context.Background(), recs, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Valid)
	assert.Equal(t, 1, report.Invalid)
	assert.Equal(t, 1, report.Import.Imported)
	assert.Equal(t, 1, report.Import.FailedValidation)
	_, stored := store.fragrances["dior__sauvage"]
	assert.False(t, stored)
}

func TestRunRecordsSkipsExisting(t *testing.T) {
	store := newMemStore()
	store.fragrances["dior__sauvage"] = models.Fragrance{ID: "dior__sauvage"}
	r := testRunner(store)

	recs := []models.SourceRecord{
		{"brand_name": "Dior", "name": "Sauvage", "gender": "men"},
	}

	report, err := r.RunRecords(context.Background(), recs, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Import.SkippedExisting)
	assert.Zero(t, report.Import.Imported)
}

func TestRunWithoutCollector(t *testing.T) {
	r := testRunner(newMemStore())
	_, err := r.Run(context.Background())
	require.Error(t, err)
}

func TestDeriveBrands(t *testing.T) {
	records := []models.Fragrance{
		{ID: "dior__sauvage", BrandID: "dior", BrandName: "Dior"},
		{ID: "dior__homme", BrandID: "dior", BrandName: "Dior"},
		{ID: "yves-saint-laurent__y", BrandID: "yves-saint-laurent"},
	}
	ctx := scoring.Context{Tiers: []scoring.Tier{{
		Name: "luxury", Multiplier: 1.3,
		Brands: map[string]struct{}{"dior": {}},
	}}}

	brands := DeriveBrands(records, ctx)

	require.Len(t, brands, 2)
	assert.Equal(t, "dior", brands[0].ID)
	assert.Equal(t, "Dior", brands[0].Name)
	assert.Equal(t, "luxury", brands[0].Tier)
	assert.Equal(t, 2, brands[0].FragranceCount)

	// no display name from any source: recovered from the slug
	assert.Equal(t, "Yves Saint Laurent", brands[1].Name)
	assert.Empty(t, brands[1].Tier)
}
