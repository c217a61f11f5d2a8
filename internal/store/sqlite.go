// Package store is the sqlite implementation of the pipeline's
// Store contract plus the catalog queries the API serves from.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"scentdb/pkg/models"
)

type SQLite struct {
	DB *sql.DB
}

func New(db *sql.DB) *SQLite {
	return &SQLite{DB: db}
}

const fragranceColumns = `id, brand_id, name, slug, gender, accords, top_notes, middle_notes,
	base_notes, perfumers, rating_value, rating_count, year, priority_score,
	sample_available, sample_price_usd, source_url, data_source`

// UpsertBatch inserts or updates fragrances by id inside one
// transaction. Safe to call repeatedly with the same batch; the
// whole batch succeeds or fails together.
func (s *SQLite) UpsertBatch(ctx context.Context, records []models.Fragrance) (int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fragrances (`+fragranceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  brand_id = excluded.brand_id,
		  name = excluded.name,
		  slug = excluded.slug,
		  gender = excluded.gender,
		  accords = excluded.accords,
		  top_notes = excluded.top_notes,
		  middle_notes = excluded.middle_notes,
		  base_notes = excluded.base_notes,
		  perfumers = excluded.perfumers,
		  rating_value = excluded.rating_value,
		  rating_count = excluded.rating_count,
		  year = excluded.year,
		  priority_score = excluded.priority_score,
		  sample_available = excluded.sample_available,
		  sample_price_usd = excluded.sample_price_usd,
		  source_url = excluded.source_url,
		  data_source = excluded.data_source
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, f := range records {
		if _, err := stmt.ExecContext(ctx,
			f.ID,
			f.BrandID,
			f.Name,
			f.Slug,
			f.Gender,
			marshalList(f.Accords),
			marshalList(f.TopNotes),
			marshalList(f.MiddleNotes),
			marshalList(f.BaseNotes),
			marshalList(f.Perfumers),
			nullFloat(f.RatingValue),
			nullInt(f.RatingCount),
			nullInt(f.Year),
			f.PriorityScore,
			f.SampleAvail,
			nullInt(f.SamplePrice),
			nullString(f.SourceURL),
			nullString(f.DataSource),
		); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", f.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(records), nil
}

// ExistsBatch reports which of the given ids are already present.
func (s *SQLite) ExistsBatch(ctx context.Context, ids []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id FROM fragrances WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("exists query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("exists scan: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM fragrances`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// QueryIDs returns every fragrance id in the store, used by the
// importer's reconciliation pass.
func (s *SQLite) QueryIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id FROM fragrances`)
	if err != nil {
		return nil, fmt.Errorf("ids query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ids scan: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (s *SQLite) UpsertBrandBatch(ctx context.Context, brands []models.Brand) (int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO brands (id, name, slug, tier, fragrance_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  name = excluded.name,
		  slug = excluded.slug,
		  tier = excluded.tier,
		  fragrance_count = excluded.fragrance_count
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare brand upsert: %w", err)
	}
	defer stmt.Close()

	for _, b := range brands {
		if _, err := stmt.ExecContext(ctx, b.ID, b.Name, b.Slug, nullString(b.Tier), b.FragranceCount); err != nil {
			return 0, fmt.Errorf("upsert brand %s: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(brands), nil
}

func (s *SQLite) BrandIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id FROM brands`)
	if err != nil {
		return nil, fmt.Errorf("brand ids query: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("brand ids scan: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// SaveRunReport persists a pipeline run summary as JSON.
func (s *SQLite) SaveRunReport(ctx context.Context, report models.RunReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO import_runs (run_id, started_at, completed_at, report)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
		  completed_at = excluded.completed_at,
		  report = excluded.report
	`, report.RunID, report.StartedAt.UTC(), report.CompletedAt.UTC(), string(payload))
	if err != nil {
		return fmt.Errorf("save run report: %w", err)
	}
	return nil
}

// ListRunReports returns the most recent run summaries, newest first.
func (s *SQLite) ListRunReports(ctx context.Context, limit int) ([]models.RunReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT report FROM import_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []models.RunReport
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("list runs scan: %w", err)
		}
		var r models.RunReport
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decode run report: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func marshalList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
