package main

import (
	"context"
	"flag"
	"log"
	"time"

	"scentdb/internal/pipeline"
	"scentdb/internal/scoring"
	"scentdb/internal/source"
	"scentdb/internal/store"
	"scentdb/internal/validate"
	"scentdb/pkg/config"
	"scentdb/pkg/database"
)

func main() {
	var (
		in      = flag.String("in", "data/fra_cleaned.csv", "input semicolon-separated CSV path")
		cfgPath = flag.String("config", "config/scoring.toml", "scoring/validation config path")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	runner := pipeline.NewRunner(
		store.New(db),
		scoring.NewContext(cfg.Scoring),
		validate.NewContext(cfg.Validation),
		cfg.Import.BatchSize,
	)
	runner.Collector = source.NewCollector(source.NewKaggleCSV(*in))

	report, err := runner.Run(ctx)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}

	log.Printf("imported %d records from %s (%d skipped, %d invalid)",
		report.Import.Imported, *in, report.Import.SkippedExisting, report.Invalid)
}
