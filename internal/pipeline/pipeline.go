// Package pipeline wires acquisition, normalization, scoring,
// deduplication, validation and import into one run with a single
// summary report.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"scentdb/internal/dedup"
	"scentdb/internal/importer"
	"scentdb/internal/normalize"
	"scentdb/internal/scoring"
	"scentdb/internal/source"
	"scentdb/internal/validate"
	"scentdb/pkg/models"
)

// Store is the persistence surface a run needs: record and brand
// batch import plus run report bookkeeping.
type Store interface {
	importer.Store
	importer.BrandStore
	SaveRunReport(ctx context.Context, report models.RunReport) error
}

// Runner executes pipeline runs. Collector may be nil when records
// are handed in directly (file imports).
type Runner struct {
	Collector *source.Collector
	Store     Store
	Scoring   scoring.Context
	Validate  validate.Context
	BatchSize int
	Events    Sink
}

func NewRunner(store Store, scoringCtx scoring.Context, validateCtx validate.Context, batchSize int) *Runner {
	return &Runner{
		Store:     store,
		Scoring:   scoringCtx,
		Validate:  validateCtx,
		BatchSize: batchSize,
		Events:    nopSink{},
	}
}

// Run collects from every configured source and pushes the records
// through the full pipeline.
func (r *Runner) Run(ctx context.Context) (*models.RunReport, error) {
	if r.Collector == nil {
		return nil, fmt.Errorf("pipeline: no collector configured")
	}

	recs, breakdown := r.Collector.CollectAll(ctx)
	return r.RunRecords(ctx, recs, breakdown)
}

// RunRecords pushes already-collected raw records through the
// pipeline: normalize, score, select, deduplicate, validate, import,
// reconcile. Per-record failures are accumulated into the report;
// only infrastructure failures (store unavailable) abort the run.
func (r *Runner) RunRecords(ctx context.Context, recs []models.SourceRecord, breakdown map[string]int) (*models.RunReport, error) {
	report := &models.RunReport{
		RunID:           uuid.NewString(),
		StartedAt:       time.Now().UTC(),
		SourceRecords:   len(recs),
		SourceBreakdown: breakdown,
	}
	r.publish(report.RunID, "collect", fmt.Sprintf("collected %d records", len(recs)), len(recs))

	// Normalize. Unmappable records are dropped and counted, never fatal.
	normalized, droppedErrs := normalize.All(recs)
	report.Dropped = len(droppedErrs)
	for _, err := range droppedErrs {
		log.Printf("[pipeline] dropped: %v", err)
	}
	r.publish(report.RunID, "normalize", fmt.Sprintf("normalized %d records, dropped %d", len(normalized), len(droppedErrs)), len(normalized))

	// Score and select.
	scored := scoring.Apply(normalized, r.Scoring)
	report.Scored = len(scored)
	selected := scoring.TopN(scored, r.Scoring.TopN)
	r.publish(report.RunID, "score", fmt.Sprintf("scored %d, selected %d", len(scored), len(selected)), len(selected))

	// Deduplicate ids, then repair colliding display names.
	deduped, stats := dedup.Deduplicate(selected)
	renamed, nameCollisions := dedup.DisambiguateNames(deduped)
	collisions := append(stats.Collisions, nameCollisions...)
	report.Deduplicated = len(renamed)
	report.Collisions = len(collisions)
	for _, c := range collisions {
		log.Printf("[pipeline] collision: %s -> %s (%s)", c.OriginalID, c.AssignedID, c.Reason)
	}
	r.publish(report.RunID, "dedup",
		fmt.Sprintf("%d records after dedup (%d removed, %d split, %d collisions)",
			len(renamed), stats.Removed, stats.Split, len(collisions)), len(renamed))

	// Validate.
	valid, invalid := validate.Partition(renamed, r.Validate)
	report.Valid = len(valid)
	report.Invalid = len(invalid)
	for _, inv := range invalid {
		log.Printf("[pipeline] invalid %s: %v", inv.Record.ID, inv.Violations)
	}
	r.publish(report.RunID, "validate", fmt.Sprintf("%d valid, %d rejected", len(valid), len(invalid)), len(valid))

	// Brands first, so fragrance rows always reference an existing brand.
	brands := DeriveBrands(valid, r.Scoring)
	report.Brands = len(brands)
	brandReport, err := importer.ImportBrands(ctx, r.Store, brands)
	if err != nil {
		return nil, fmt.Errorf("pipeline: import brands: %w", err)
	}
	report.BrandImport = *brandReport
	r.publish(report.RunID, "brands", fmt.Sprintf("imported %d brands", brandReport.Imported), brandReport.Imported)

	// Fragrances.
	im := importer.New(r.Store, r.BatchSize)
	im.OnBatch = func(batch, total int, ids []string, err error) {
		msg := fmt.Sprintf("batch %d/%d done", batch, total)
		if err != nil {
			msg = fmt.Sprintf("batch %d/%d failed: %v", batch, total, err)
		}
		r.publish(report.RunID, "import", msg, len(ids))
	}
	importReport, err := im.Run(ctx, valid)
	if err != nil {
		return nil, fmt.Errorf("pipeline: import: %w", err)
	}
	importReport.RunID = report.RunID
	importReport.FailedValidation = len(invalid)
	report.Import = *importReport

	report.CompletedAt = time.Now().UTC()
	report.ElapsedSeconds = report.CompletedAt.Sub(report.StartedAt).Seconds()

	if err := r.Store.SaveRunReport(ctx, *report); err != nil {
		// The import itself landed; a report bookkeeping failure is
		// logged, not fatal.
		log.Printf("[pipeline] save run report: %v", err)
	}
	r.publish(report.RunID, "done",
		fmt.Sprintf("run complete: %d imported, %d skipped, %d failed batches",
			importReport.Imported, importReport.SkippedExisting, len(importReport.FailedBatches)),
		importReport.Imported)

	return report, nil
}

func (r *Runner) publish(runID, stage, msg string, count int) {
	log.Printf("[pipeline] %s: %s", stage, msg)
	if r.Events == nil {
		return
	}
	r.Events.Publish(Event{
		RunID:   runID,
		Stage:   stage,
		Message: msg,
		Count:   count,
		Time:    time.Now().UTC(),
	})
}
