package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"scentdb/pkg/models"
)

// KaggleCSV reads the semicolon-separated Kaggle fragrance dump.
// That dump spreads list fields over numbered columns (mainaccord1..5,
// Perfumer1/Perfumer2), uses comma decimal separators in ratings and
// thousands separators in review counts; the numbered columns are
// collapsed here, the numeric quirks are left to the record accessors.
type KaggleCSV struct {
	Path string
}

func NewKaggleCSV(path string) *KaggleCSV {
	return &KaggleCSV{Path: path}
}

func (s *KaggleCSV) Name() string { return "kaggle-csv" }

func (s *KaggleCSV) FetchAll(_ context.Context) ([]models.SourceRecord, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("kaggle-csv: open %s: %w", s.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return nil, fmt.Errorf("kaggle-csv: read header: %w", err)
	}

	var out []models.SourceRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("kaggle-csv: read row: %w", err)
		}
		if len(row) == 0 {
			continue
		}

		rec := mapRow(header, row)
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

// columnAliases maps the dump's header names (lowercased) onto the
// record keys the normalizer's alias table understands.
var columnAliases = map[string]string{
	"perfume":      "perfume",
	"brand":        "brand",
	"gender":       "gender",
	"rating value": "rating_value",
	"rating count": "rating_count",
	"year":         "year",
	"top":          "top",
	"middle":       "middle",
	"base":         "base",
	"url":          "url",
	"country":      "country",
}

func mapRow(header map[string]int, row []string) models.SourceRecord {
	name := valueAt(header, row, "perfume")
	brand := valueAt(header, row, "brand")
	if name == "" && brand == "" {
		return nil
	}

	rec := models.SourceRecord{}
	for col, key := range columnAliases {
		if v := valueAt(header, row, col); v != "" {
			rec[key] = v
		}
	}

	if accords := numberedColumns(header, row, "mainaccord", 5); len(accords) > 0 {
		rec["accords"] = accords
	}
	if perfumers := numberedColumns(header, row, "perfumer", 2); len(perfumers) > 0 {
		rec["perfumers"] = perfumers
	}
	return rec
}

// numberedColumns collects "{prefix}1".."{prefix}N" values in order,
// skipping blanks.
func numberedColumns(header map[string]int, row []string, prefix string, n int) []string {
	var out []string
	for i := 1; i <= n; i++ {
		v := valueAt(header, row, fmt.Sprintf("%s%d", prefix, i))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
