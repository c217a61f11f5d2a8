// Package importer drives bulk writes into the store: fixed-size
// batches, whole-batch failure semantics, and a post-import
// reconciliation pass that proves what actually landed.
package importer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"scentdb/pkg/models"
)

// Store is the external database the pipeline writes to. UpsertBatch
// must be idempotent: resubmitting the same batch is always safe.
type Store interface {
	ExistsBatch(ctx context.Context, ids []string) (map[string]struct{}, error)
	UpsertBatch(ctx context.Context, records []models.Fragrance) (int, error)
	Count(ctx context.Context) (int, error)
	QueryIDs(ctx context.Context) (map[string]struct{}, error)
}

// BrandStore receives the derived brand rows. Brands go in first;
// fragrances reference them.
type BrandStore interface {
	UpsertBrandBatch(ctx context.Context, brands []models.Brand) (int, error)
	BrandIDs(ctx context.Context) (map[string]struct{}, error)
}

// Importer submits validated records to a Store in bounded batches.
//
// A batch the store rejects is reported whole: there is no automatic
// sub-batch retry, the caller decides whether to bisect and
// resubmit. One bad batch never aborts the run.
type Importer struct {
	Store     Store
	BatchSize int

	// OnBatch, when set, is invoked after every batch attempt.
	OnBatch func(batch, total int, ids []string, err error)
}

func New(store Store, batchSize int) *Importer {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Importer{Store: store, BatchSize: batchSize}
}

// Run imports records and reconciles the store state afterwards.
// The returned error is only non-nil when the store itself could not
// be interrogated; per-batch failures live inside the report.
func (im *Importer) Run(ctx context.Context, records []models.Fragrance) (*models.ImportReport, error) {
	report := &models.ImportReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Submitted: len(records),
	}
	defer func() { report.Elapsed = time.Since(report.StartedAt) }()

	if len(records) == 0 {
		return report, nil
	}

	ids := make([]string, 0, len(records))
	for _, f := range records {
		ids = append(ids, f.ID)
	}

	// Existence pre-check: records already in the store are skipped,
	// not rewritten.
	existing, err := im.existsAll(ctx, ids)
	if err != nil {
		return report, fmt.Errorf("existence check: %w", err)
	}

	fresh := make([]models.Fragrance, 0, len(records))
	for _, f := range records {
		if _, ok := existing[f.ID]; ok {
			report.SkippedExisting++
			continue
		}
		fresh = append(fresh, f)
	}

	batches := partition(fresh, im.BatchSize)
	failed := make(map[string]struct{})

	for i, batch := range batches {
		batchIDs := make([]string, 0, len(batch))
		for _, f := range batch {
			batchIDs = append(batchIDs, f.ID)
		}

		n, err := im.Store.UpsertBatch(ctx, batch)
		if im.OnBatch != nil {
			im.OnBatch(i+1, len(batches), batchIDs, err)
		}
		if err != nil {
			log.Printf("[importer] batch %d/%d failed (%d records): %v", i+1, len(batches), len(batch), err)
			report.FailedBatches = append(report.FailedBatches, models.BatchFailure{
				Batch: i + 1,
				IDs:   batchIDs,
				Error: err.Error(),
			})
			for _, id := range batchIDs {
				failed[id] = struct{}{}
			}
			continue
		}
		report.Imported += n
	}

	// Reconciliation: every id we believe we wrote must be
	// retrievable. A gap here is a store-side inconsistency, not a
	// pipeline bug, and gets its own report category.
	present, err := im.Store.QueryIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("reconciliation query: %w", err)
	}
	for _, id := range ids {
		if _, failedBatch := failed[id]; failedBatch {
			continue // already attributed to a batch failure
		}
		if _, ok := present[id]; !ok {
			report.MissingAfter = append(report.MissingAfter, id)
		}
	}
	if len(report.MissingAfter) > 0 {
		log.Printf("[importer] reconciliation gap: %d records accepted but not retrievable", len(report.MissingAfter))
	}

	return report, nil
}

func (im *Importer) existsAll(ctx context.Context, ids []string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for _, chunk := range partition(ids, im.BatchSize) {
		found, err := im.Store.ExistsBatch(ctx, chunk)
		if err != nil {
			return nil, err
		}
		for id := range found {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// ImportBrands writes the derived brand rows, skipping ones already
// present. Brand volume is small; a single batch per call is fine.
func ImportBrands(ctx context.Context, store BrandStore, brands []models.Brand) (*models.ImportReport, error) {
	report := &models.ImportReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Submitted: len(brands),
	}
	defer func() { report.Elapsed = time.Since(report.StartedAt) }()

	if len(brands) == 0 {
		return report, nil
	}

	existing, err := store.BrandIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("brand existence check: %w", err)
	}

	fresh := make([]models.Brand, 0, len(brands))
	ids := make([]string, 0, len(brands))
	for _, b := range brands {
		if _, ok := existing[b.ID]; ok {
			report.SkippedExisting++
			continue
		}
		fresh = append(fresh, b)
		ids = append(ids, b.ID)
	}

	if len(fresh) > 0 {
		n, err := store.UpsertBrandBatch(ctx, fresh)
		if err != nil {
			report.FailedBatches = append(report.FailedBatches, models.BatchFailure{
				Batch: 1,
				IDs:   ids,
				Error: err.Error(),
			})
			return report, nil
		}
		report.Imported += n
	}
	return report, nil
}

// partition slices a set into batches of at most size elements,
// preserving order.
func partition[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
