package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"scentdb/internal/normalize"
	"scentdb/internal/store"
	"scentdb/pkg/database"
	"scentdb/pkg/models"
)

// archiveRecord is the flat shape the mirror-server serves and the
// archive source consumes; round-tripping an export through the
// pipeline reproduces the catalog.
type archiveRecord struct {
	ID          string   `json:"id"`
	BrandName   string   `json:"brand_name"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Gender      string   `json:"gender"`
	Accords     []string `json:"accords,omitempty"`
	TopNotes    []string `json:"top_notes,omitempty"`
	MiddleNotes []string `json:"middle_notes,omitempty"`
	BaseNotes   []string `json:"base_notes,omitempty"`
	Perfumers   []string `json:"perfumers,omitempty"`
	RatingValue *float64 `json:"rating_value,omitempty"`
	RatingCount *int     `json:"rating_count,omitempty"`
	Year        *int     `json:"year,omitempty"`
	SourceURL   string   `json:"source_url,omitempty"`
}

func main() {
	var (
		outPath = flag.String("out", "data/archive.json", "output JSON path")
		limit   = flag.Int("limit", 0, "max records to export, 0 = all")
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
	brands, err := s.ListBrands(ctx)
	if err != nil {
		log.Fatalf("list brands failed: %v", err)
	}
	brandNames := make(map[string]string, len(brands))
	for _, b := range brands {
		brandNames[b.ID] = b.Name
	}

	var out []archiveRecord
	const pageSize = 500
	for offset := 0; ; offset += pageSize {
		page, err := s.ListFragrances(ctx, store.Filter{Limit: pageSize, Offset: offset})
		if err != nil {
			log.Fatalf("list fragrances failed: %v", err)
		}
		if len(page) == 0 {
			break
		}
		for _, f := range page {
			out = append(out, toArchive(f, brandNames))
			if *limit > 0 && len(out) >= *limit {
				break
			}
		}
		if *limit > 0 && len(out) >= *limit {
			break
		}
	}

	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		log.Fatalf("mkdir failed: %v", err)
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("marshal failed: %v", err)
	}
	if err := os.WriteFile(*outPath, b, 0o644); err != nil {
		log.Fatalf("write %s failed: %v", *outPath, err)
	}

	log.Printf("exported %d records to %s", len(out), *outPath)
}

func toArchive(f models.Fragrance, brandNames map[string]string) archiveRecord {
	brand := brandNames[f.BrandID]
	if brand == "" {
		brand = normalize.NameFromSlug(f.BrandID)
	}
	return archiveRecord{
		ID:          f.ID,
		BrandName:   brand,
		Name:        f.Name,
		Slug:        f.Slug,
		Gender:      f.Gender,
		Accords:     f.Accords,
		TopNotes:    f.TopNotes,
		MiddleNotes: f.MiddleNotes,
		BaseNotes:   f.BaseNotes,
		Perfumers:   f.Perfumers,
		RatingValue: f.RatingValue,
		RatingCount: f.RatingCount,
		Year:        f.Year,
		SourceURL:   f.SourceURL,
	}
}
