package pipeline

import (
	"sort"

	"scentdb/internal/normalize"
	"scentdb/internal/scoring"
	"scentdb/pkg/models"
)

// DeriveBrands builds one Brand row per distinct brand_id in the
// record set. Brands are not sourced independently; they are entirely
// derived from the fragrances that reference them, so counts and
// display names always agree with the catalog.
func DeriveBrands(records []models.Fragrance, scoringCtx scoring.Context) []models.Brand {
	byID := make(map[string]*models.Brand)

	for _, f := range records {
		b, ok := byID[f.BrandID]
		if !ok {
			_, tier := scoringCtx.TierFor(f.BrandID)
			b = &models.Brand{
				ID:   f.BrandID,
				Slug: f.BrandID,
				Tier: tier,
			}
			byID[f.BrandID] = b
		}
		b.FragranceCount++
		// Prefer a source-supplied display name over one recovered
		// from the slug.
		if b.Name == "" || (f.BrandName != "" && b.Name == normalize.NameFromSlug(b.ID)) {
			if f.BrandName != "" {
				b.Name = f.BrandName
			} else if b.Name == "" {
				b.Name = normalize.NameFromSlug(f.BrandID)
			}
		}
	}

	out := make([]models.Brand, 0, len(byID))
	for _, b := range byID {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
