package models

import "time"

// BatchFailure records one batch the Store rejected as a whole. The
// orchestrator does not retry at sub-batch granularity; the caller
// decides whether to bisect and resubmit.
type BatchFailure struct {
	Batch int      `json:"batch"` // 1-based batch number
	IDs   []string `json:"ids"`
	Error string   `json:"error"`
}

// ImportReport aggregates the outcome of one import run. Per-record
// failures are accumulated here instead of aborting the run; the
// report is the user-visible unit of truth for what landed and what
// did not.
type ImportReport struct {
	RunID            string         `json:"run_id"`
	StartedAt        time.Time      `json:"started_at"`
	Elapsed          time.Duration  `json:"elapsed"`
	Submitted        int            `json:"submitted"`
	Imported         int            `json:"imported"`
	SkippedExisting  int            `json:"skipped_existing"`
	FailedValidation int            `json:"failed_validation"`
	FailedBatches    []BatchFailure `json:"failed_batches,omitempty"`
	MissingAfter     []string       `json:"missing_after_import,omitempty"`
}

// FailedBatchIDs flattens the record IDs of all failed batches.
func (r *ImportReport) FailedBatchIDs() []string {
	var ids []string
	for _, b := range r.FailedBatches {
		ids = append(ids, b.IDs...)
	}
	return ids
}

// Clean reports whether the run finished with nothing to chase:
// no failed batches and no reconciliation gap.
func (r *ImportReport) Clean() bool {
	return len(r.FailedBatches) == 0 && len(r.MissingAfter) == 0
}

// RunReport is the full pipeline run summary: stage counters plus
// the import report, persisted to the import_runs table.
type RunReport struct {
	RunID           string         `json:"run_id"`
	StartedAt       time.Time      `json:"started_at"`
	SourceRecords   int            `json:"source_records"`
	Dropped         int            `json:"dropped_normalization"`
	Scored          int            `json:"scored"`
	Deduplicated    int            `json:"deduplicated"`
	Collisions      int            `json:"collision_warnings"`
	Valid           int            `json:"valid"`
	Invalid         int            `json:"invalid"`
	Brands          int            `json:"brands"`
	Import          ImportReport   `json:"import"`
	BrandImport     ImportReport   `json:"brand_import"`
	ElapsedSeconds  float64        `json:"elapsed_seconds"`
	CompletedAt     time.Time      `json:"completed_at"`
	Notes           string         `json:"notes,omitempty"`
	SourceBreakdown map[string]int `json:"source_breakdown,omitempty"`
}
