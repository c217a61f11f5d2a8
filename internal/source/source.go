// Package source holds the data-acquisition adapters. Each adapter
// speaks one external format (archive JSON API, Kaggle CSV dump,
// local JSON file) and yields raw SourceRecords; mapping onto the
// canonical shape is the normalizer's job, not the adapter's.
package source

import (
	"context"
	"log"

	"scentdb/pkg/models"
)

// Source is implemented by each external data source. Each source is
// responsible for fetching its own data format; it does not normalize.
type Source interface {
	Name() string
	FetchAll(ctx context.Context) ([]models.SourceRecord, error)
}

// Collector coordinates calls to multiple sources and concatenates
// their raw records, tagging each with the source it came from.
type Collector struct {
	Sources []Source
}

func NewCollector(sources ...Source) *Collector {
	return &Collector{Sources: sources}
}

// CollectAll fetches from every source. A broken source is logged and
// skipped; one dead feed should not kill the whole acquisition run.
// The returned map counts records per source name.
func (c *Collector) CollectAll(ctx context.Context) ([]models.SourceRecord, map[string]int) {
	var all []models.SourceRecord
	counts := make(map[string]int)

	for _, src := range c.Sources {
		log.Printf("[source] fetching from %s", src.Name())
		recs, err := src.FetchAll(ctx)
		if err != nil {
			log.Printf("[source] source %s error: %v", src.Name(), err)
			continue
		}

		for _, rec := range recs {
			if rec == nil {
				continue
			}
			if !rec.Has("data_source") {
				rec["data_source"] = src.Name()
			}
			all = append(all, rec)
		}
		counts[src.Name()] = len(recs)
	}

	return all, counts
}
