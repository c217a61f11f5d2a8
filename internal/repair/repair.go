// Package repair fixes identity damage in already-imported data:
// rows whose display name was lost upstream, and brand/name pairs
// that collide across distinct products. Ids are never rewritten;
// they are referenced by URL and by other tables.
package repair

import (
	"context"
	"fmt"
	"log"
	"strings"

	"scentdb/internal/dedup"
	"scentdb/internal/normalize"
	"scentdb/pkg/models"
)

// Store is the slice of persistence the repair passes need.
type Store interface {
	EmptyNameRecords(ctx context.Context) ([]models.Fragrance, error)
	DuplicateNameGroups(ctx context.Context) ([]models.Fragrance, error)
	UpdateIdentity(ctx context.Context, id, name, slug string) error
}

// Report summarizes one repair sweep.
type Report struct {
	NamesRecovered int               `json:"names_recovered"`
	NamesRenamed   int               `json:"names_renamed"`
	Unrecoverable  []string          `json:"unrecoverable,omitempty"`
	Unresolved     []dedup.Collision `json:"unresolved,omitempty"`
}

// Run executes both passes: name recovery first, so a recovered name
// can still be disambiguated in the same sweep.
func Run(ctx context.Context, store Store) (*Report, error) {
	report := &Report{}

	if err := recoverNames(ctx, store, report); err != nil {
		return nil, err
	}
	if err := disambiguate(ctx, store, report); err != nil {
		return nil, err
	}
	return report, nil
}

// recoverNames rebuilds blank display names from the slug half of the
// canonical id, the same recovery the normalizer applies at intake.
func recoverNames(ctx context.Context, store Store, report *Report) error {
	records, err := store.EmptyNameRecords(ctx)
	if err != nil {
		return fmt.Errorf("repair: load empty names: %w", err)
	}

	for _, f := range records {
		_, slug, ok := strings.Cut(f.ID, "__")
		if !ok || slug == "" {
			report.Unrecoverable = append(report.Unrecoverable, f.ID)
			log.Printf("[repair] %s: no recoverable name in id", f.ID)
			continue
		}

		name := normalize.NameFromSlug(slug)
		if err := store.UpdateIdentity(ctx, f.ID, name, slug); err != nil {
			return fmt.Errorf("repair: recover %s: %w", f.ID, err)
		}
		report.NamesRecovered++
		log.Printf("[repair] %s: recovered name %q", f.ID, name)
	}
	return nil
}

// disambiguate appends distinguishing tokens to display names that
// collide within a brand. Groups with no token to work with are
// surfaced, not guessed at.
func disambiguate(ctx context.Context, store Store, report *Report) error {
	records, err := store.DuplicateNameGroups(ctx)
	if err != nil {
		return fmt.Errorf("repair: load duplicate names: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	// DisambiguateNames amends the slice in place; keep the originals
	// to detect which rows actually changed.
	before := make([]string, len(records))
	for i, f := range records {
		before[i] = f.Name
	}

	renamed, unresolved := dedup.DisambiguateNames(records)
	report.Unresolved = append(report.Unresolved, unresolved...)

	for i, f := range renamed {
		if f.Name == before[i] {
			continue
		}
		if err := store.UpdateIdentity(ctx, f.ID, f.Name, f.Slug); err != nil {
			return fmt.Errorf("repair: rename %s: %w", f.ID, err)
		}
		report.NamesRenamed++
		log.Printf("[repair] %s: renamed %q -> %q", f.ID, before[i], f.Name)
	}
	return nil
}
