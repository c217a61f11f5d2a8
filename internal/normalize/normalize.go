package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"scentdb/pkg/models"
)

// ErrUnrecoverableIdentity marks a record whose name is empty and
// whose id carries no usable name part either. Such records are
// dropped and counted; they never abort a run.
var ErrUnrecoverableIdentity = errors.New("unrecoverable identity")

// aliasTable maps each canonical field to its known source key
// names in priority order. Sources disagree on naming ("accords" vs
// "main_accords", "year" vs "launch_year"); the first present key
// wins, making the precedence declarative instead of scattered
// through conditionals.
var aliasTable = map[string][]string{
	"brand":          {"brand_name", "brand"},
	"name":           {"name", "perfume", "title"},
	"gender":         {"gender", "sex"},
	"accords":        {"accords", "main_accords"},
	"year":           {"year", "launch_year"},
	"rating_value":   {"rating_value", "rating"},
	"rating_count":   {"rating_count", "reviews", "votes"},
	"priority_score": {"priority_score", "popularity_score"},
	"top_notes":      {"top_notes", "top"},
	"middle_notes":   {"middle_notes", "middle", "heart_notes"},
	"base_notes":     {"base_notes", "base"},
	"perfumers":      {"perfumers", "perfumer"},
	"source_url":     {"source_url", "fragrantica_url", "url"},
	"sample_price":   {"sample_price_usd", "sample_price"},
}

// key resolves the first source key present on rec for a canonical
// field, or "" when no alias matched.
func key(rec models.SourceRecord, field string) string {
	for _, k := range aliasTable[field] {
		if rec.Has(k) {
			return k
		}
	}
	return ""
}

// Record maps one raw SourceRecord onto the canonical Fragrance
// shape: aliases resolved, brand/name slugged, gender classified,
// comma-joined note strings split into lists.
//
// Concentration suffixes (EDT, Parfum, Intense, ...) embedded in the
// name are deliberately kept: they are exactly what distinguishes
// otherwise-identical identities, and stripping them is the dedup
// engine's call to make, not ours.
func Record(rec models.SourceRecord) (models.Fragrance, error) {
	brand := rec.String(key(rec, "brand"))
	name := rec.String(key(rec, "name"))
	rawID := rec.String("id")

	brandID := Slugify(brand)
	slug := ""

	if name != "" && brand != "" {
		name = stripBrandPrefix(name, brand)
	}

	if name == "" {
		// Rescue name/slug from the id suffix, as the repair
		// tooling does for records already in the store.
		recoveredBrand, recoveredSlug, ok := splitID(rawID)
		if !ok || recoveredSlug == "" {
			return models.Fragrance{}, fmt.Errorf("record %q: %w", rawID, ErrUnrecoverableIdentity)
		}
		if brandID == "" {
			brandID = recoveredBrand
		}
		slug = recoveredSlug
		name = NameFromSlug(recoveredSlug)
	} else {
		// A source-supplied slug is kept when already well-formed,
		// so re-normalizing a canonical record is a no-op even when
		// its slug is not mechanically derivable from the name.
		slug = rec.String("slug")
		if slug == "" || Slugify(slug) != slug {
			slug = Slugify(name)
		}
	}

	if brandID == "" || slug == "" {
		return models.Fragrance{}, fmt.Errorf("record %q: %w", rawID, ErrUnrecoverableIdentity)
	}

	f := models.Fragrance{
		ID:          brandID + "__" + slug,
		BrandID:     brandID,
		BrandName:   brand,
		Name:        name,
		Slug:        slug,
		Gender:      Gender(rec.String(key(rec, "gender"))),
		Accords:     listField(rec, "accords"),
		TopNotes:    listField(rec, "top_notes"),
		MiddleNotes: listField(rec, "middle_notes"),
		BaseNotes:   listField(rec, "base_notes"),
		Perfumers:   perfumers(rec),
		RatingValue: rec.Float(key(rec, "rating_value")),
		RatingCount: rec.Int(key(rec, "rating_count")),
		Year:        rec.Int(key(rec, "year")),
		SamplePrice: rec.Int(key(rec, "sample_price")),
		SourceURL:   rec.String(key(rec, "source_url")),
		DataSource:  rec.String("data_source"),
		SampleAvail: true,
	}
	if f.Accords == nil {
		f.Accords = []string{}
	}
	if score := rec.Float(key(rec, "priority_score")); score != nil {
		f.PriorityScore = *score
	}
	return f, nil
}

// All normalizes a batch, accumulating per-record failures instead
// of aborting: one unmappable record never kills the run.
func All(recs []models.SourceRecord) (out []models.Fragrance, dropped []error) {
	out = make([]models.Fragrance, 0, len(recs))
	for _, rec := range recs {
		f, err := Record(rec)
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		out = append(out, f)
	}
	return out, dropped
}

// stripBrandPrefix removes a leading "{brand} - " / "{brand}: "
// from the display name; sources often repeat the brand there.
func stripBrandPrefix(name, brand string) string {
	re := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(brand) + `\s*[-:]?\s*`)
	cleaned := strings.TrimSpace(re.ReplaceAllString(name, ""))
	if cleaned == "" {
		return name
	}
	return cleaned
}

// splitID splits a canonical "{brand_id}__{slug}" id.
func splitID(id string) (brandID, slug string, ok bool) {
	brandID, slug, ok = strings.Cut(id, "__")
	return brandID, slug, ok
}

func listField(rec models.SourceRecord, field string) []string {
	return rec.Strings(key(rec, field))
}

func perfumers(rec models.SourceRecord) []string {
	raw := rec.Strings(key(rec, "perfumers"))
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if strings.EqualFold(p, "unknown") {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
