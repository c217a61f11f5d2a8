package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"scentdb/pkg/models"
)

// ErrNotFound is returned by single-row lookups when no row matches.
var ErrNotFound = errors.New("not found")

// Filter narrows catalog listings. Zero values mean "no constraint".
type Filter struct {
	BrandID string
	Gender  string
	Query   string // substring match on name
	Limit   int
	Offset  int
}

// ListFragrances returns catalog entries ordered by priority score,
// highest first.
func (s *SQLite) ListFragrances(ctx context.Context, f Filter) ([]models.Fragrance, error) {
	query := `SELECT ` + fragranceColumns + ` FROM fragrances WHERE 1=1`
	var args []any

	if f.BrandID != "" {
		query += ` AND brand_id = ?`
		args = append(args, f.BrandID)
	}
	if f.Gender != "" {
		query += ` AND gender = ?`
		args = append(args, f.Gender)
	}
	if f.Query != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+f.Query+"%")
	}

	query += ` ORDER BY priority_score DESC, id`
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, f.Offset)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list fragrances: %w", err)
	}
	defer rows.Close()

	return scanFragrances(rows)
}

// CountFragrances counts catalog entries matching the filter,
// ignoring its limit and offset.
func (s *SQLite) CountFragrances(ctx context.Context, f Filter) (int, error) {
	query := `SELECT COUNT(*) FROM fragrances WHERE 1=1`
	var args []any

	if f.BrandID != "" {
		query += ` AND brand_id = ?`
		args = append(args, f.BrandID)
	}
	if f.Gender != "" {
		query += ` AND gender = ?`
		args = append(args, f.Gender)
	}
	if f.Query != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+f.Query+"%")
	}

	var n int
	if err := s.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count fragrances: %w", err)
	}
	return n, nil
}

func (s *SQLite) GetFragrance(ctx context.Context, id string) (models.Fragrance, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+fragranceColumns+` FROM fragrances WHERE id = ?`, id)
	f, err := scanFragrance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Fragrance{}, ErrNotFound
	}
	return f, err
}

func (s *SQLite) ListBrands(ctx context.Context) ([]models.Brand, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, slug, tier, fragrance_count
		FROM brands
		ORDER BY fragrance_count DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var out []models.Brand
	for rows.Next() {
		var b models.Brand
		var tier sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &b.Slug, &tier, &b.FragranceCount); err != nil {
			return nil, fmt.Errorf("brand scan: %w", err)
		}
		b.Tier = tier.String
		out = append(out, b)
	}
	return out, rows.Err()
}

// EmptyNameRecords finds stored rows whose display name is blank,
// the target of the name-recovery repair pass.
func (s *SQLite) EmptyNameRecords(ctx context.Context) ([]models.Fragrance, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+fragranceColumns+` FROM fragrances WHERE name = '' OR name IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("empty names query: %w", err)
	}
	defer rows.Close()
	return scanFragrances(rows)
}

// DuplicateNameGroups returns rows that share a (brand_id, name)
// pair with at least one other row, grouped together for the
// display-name disambiguation repair pass.
func (s *SQLite) DuplicateNameGroups(ctx context.Context) ([]models.Fragrance, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+fragranceColumns+` FROM fragrances
		WHERE (brand_id, name) IN (
			SELECT brand_id, name FROM fragrances
			GROUP BY brand_id, name
			HAVING COUNT(*) > 1
		)
		ORDER BY brand_id, name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("duplicate names query: %w", err)
	}
	defer rows.Close()
	return scanFragrances(rows)
}

// UpdateIdentity rewrites a row's name and slug in place, keeping
// the id stable. Used by repair passes which never rename ids.
func (s *SQLite) UpdateIdentity(ctx context.Context, id, name, slug string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE fragrances SET name = ?, slug = ? WHERE id = ?`, name, slug, id)
	if err != nil {
		return fmt.Errorf("update identity %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update identity %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanFragrances(rows *sql.Rows) ([]models.Fragrance, error) {
	var out []models.Fragrance
	for rows.Next() {
		f, err := scanFragrance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFragrance(row rowScanner) (models.Fragrance, error) {
	var (
		f           models.Fragrance
		accords     string
		topNotes    string
		middleNotes string
		baseNotes   string
		perfumers   string
		rating      sql.NullFloat64
		count       sql.NullInt64
		year        sql.NullInt64
		price       sql.NullInt64
		sourceURL   sql.NullString
		dataSource  sql.NullString
	)
	err := row.Scan(
		&f.ID, &f.BrandID, &f.Name, &f.Slug, &f.Gender,
		&accords, &topNotes, &middleNotes, &baseNotes, &perfumers,
		&rating, &count, &year, &f.PriorityScore,
		&f.SampleAvail, &price, &sourceURL, &dataSource,
	)
	if err != nil {
		return models.Fragrance{}, err
	}

	f.Accords = unmarshalList(accords)
	f.TopNotes = unmarshalList(topNotes)
	f.MiddleNotes = unmarshalList(middleNotes)
	f.BaseNotes = unmarshalList(baseNotes)
	f.Perfumers = unmarshalList(perfumers)
	if rating.Valid {
		f.RatingValue = models.Float64Ptr(rating.Float64)
	}
	if count.Valid {
		f.RatingCount = models.IntPtr(int(count.Int64))
	}
	if year.Valid {
		f.Year = models.IntPtr(int(year.Int64))
	}
	if price.Valid {
		f.SamplePrice = models.IntPtr(int(price.Int64))
	}
	f.SourceURL = sourceURL.String
	f.DataSource = dataSource.String
	return f, nil
}

func unmarshalList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
