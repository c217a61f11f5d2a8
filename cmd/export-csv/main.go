package main

import (
	"context"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"scentdb/internal/store"
	"scentdb/pkg/database"
	"scentdb/pkg/models"
)

func main() {
	var (
		fragOut  = flag.String("fragrances", "data/fragrances.csv", "output CSV path for fragrances")
		brandOut = flag.String("brands", "data/brands.csv", "output CSV path for brands")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	s := store.New(db)
	if err := exportFragrances(ctx, s, *fragOut); err != nil {
		log.Fatalf("export fragrances failed: %v", err)
	}
	if err := exportBrands(ctx, s, *brandOut); err != nil {
		log.Fatalf("export brands failed: %v", err)
	}

	log.Printf("exported fragrances to %s and brands to %s", *fragOut, *brandOut)
}

func exportFragrances(ctx context.Context, s *store.SQLite, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"id", "brand_id", "name", "slug", "gender", "accords",
		"top_notes", "middle_notes", "base_notes", "perfumers",
		"rating_value", "rating_count", "year", "priority_score",
		"sample_available", "sample_price_usd", "source_url", "data_source",
	}); err != nil {
		return err
	}

	// Page through the catalog; the export must not depend on the
	// default listing limit.
	const pageSize = 500
	for offset := 0; ; offset += pageSize {
		page, err := s.ListFragrances(ctx, store.Filter{Limit: pageSize, Offset: offset})
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}
		for _, rec := range page {
			if err := w.Write(fragranceRow(rec)); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func fragranceRow(f models.Fragrance) []string {
	return []string{
		f.ID,
		f.BrandID,
		f.Name,
		f.Slug,
		f.Gender,
		strings.Join(f.Accords, ","),
		strings.Join(f.TopNotes, ","),
		strings.Join(f.MiddleNotes, ","),
		strings.Join(f.BaseNotes, ","),
		strings.Join(f.Perfumers, ","),
		floatField(f.RatingValue),
		intField(f.RatingCount),
		intField(f.Year),
		strconv.FormatFloat(f.PriorityScore, 'f', 4, 64),
		strconv.FormatBool(f.SampleAvail),
		intField(f.SamplePrice),
		f.SourceURL,
		f.DataSource,
	}
}

func exportBrands(ctx context.Context, s *store.SQLite, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "name", "slug", "tier", "fragrance_count"}); err != nil {
		return err
	}

	brands, err := s.ListBrands(ctx)
	if err != nil {
		return err
	}
	for _, b := range brands {
		if err := w.Write([]string{
			b.ID,
			b.Name,
			b.Slug,
			b.Tier,
			strconv.Itoa(b.FragranceCount),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func intField(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatField(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
