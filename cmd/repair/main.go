package main

import (
	"context"
	"flag"
	"log"
	"time"

	"scentdb/internal/repair"
	"scentdb/internal/store"
	"scentdb/pkg/database"
)

func main() {
	timeout := flag.Duration("timeout", 2*time.Minute, "repair sweep timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	report, err := repair.Run(ctx, store.New(db))
	if err != nil {
		log.Fatalf("repair failed: %v", err)
	}

	log.Printf("repair complete: %d names recovered, %d renamed", report.NamesRecovered, report.NamesRenamed)
	for _, id := range report.Unrecoverable {
		log.Printf("unrecoverable: %s", id)
	}
	for _, c := range report.Unresolved {
		log.Printf("unresolved collision: %s (%s)", c.OriginalID, c.Reason)
	}
}
