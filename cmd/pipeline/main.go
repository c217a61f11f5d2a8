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
		cfgPath    = flag.String("config", "config/scoring.toml", "scoring/validation config path")
		archiveURL = flag.String("archive", "", "archive base URL (optional)")
		kagglePath = flag.String("kaggle", "", "Kaggle CSV dump path (optional)")
		jsonPath   = flag.String("json", "", "local JSON dump path (optional)")
		timeout    = flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	// Ensure schema exists
	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	var sources []source.Source
	if *archiveURL != "" {
		sources = append(sources, source.NewArchive(*archiveURL))
	}
	if *kagglePath != "" {
		sources = append(sources, source.NewKaggleCSV(*kagglePath))
	}
	if *jsonPath != "" {
		sources = append(sources, source.NewJSONFile(*jsonPath))
	}
	if len(sources) == 0 {
		log.Fatal("no sources configured: pass -archive, -kaggle and/or -json")
	}

	runner := pipeline.NewRunner(
		store.New(db),
		scoring.NewContext(cfg.Scoring),
		validate.NewContext(cfg.Validation),
		cfg.Import.BatchSize,
	)
	runner.Collector = source.NewCollector(sources...)

	report, err := runner.Run(ctx)
	if err != nil {
		log.Fatalf("pipeline run failed: %v", err)
	}

	log.Printf("run %s: %d collected, %d imported, %d skipped, %d invalid, %d collisions",
		report.RunID, report.SourceRecords, report.Import.Imported,
		report.Import.SkippedExisting, report.Invalid, report.Collisions)
	if !report.Import.Clean() {
		log.Printf("run %s finished with gaps: %d failed batches, %d missing after reconciliation",
			report.RunID, len(report.Import.FailedBatches), len(report.Import.MissingAfter))
	}
}
