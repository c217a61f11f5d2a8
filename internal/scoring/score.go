package scoring

import (
	"math"
	"sort"

	"scentdb/pkg/models"
)

// Score computes the priority score for one record. Pure and
// deterministic: identical (record, context) inputs always produce
// the same float.
//
// Base score is rating * ln(reviews + 1); records missing either
// signal score 0 and drop out of ranking (they may still be valid
// for import). Multiplicative boosts follow in a fixed order: brand
// tier, recency, curated bestseller, curated classic.
func Score(f models.Fragrance, ctx Context) float64 {
	rating, reviews := f.Rating()
	if rating <= 0 || reviews <= 0 {
		return 0
	}

	score := rating * math.Log(float64(reviews)+1)

	mult, _ := ctx.TierFor(f.BrandID)
	score *= mult
	score *= recencyBoost(f.Year)

	if ctx.BestsellerBoost > 0 && matchesCurated(ctx.Bestsellers, f.Name) {
		score *= ctx.BestsellerBoost
	}
	if ctx.ClassicBoost > 0 && matchesCurated(ctx.Classics, f.Name) {
		score *= ctx.ClassicBoost
	}
	return score
}

func recencyBoost(year *int) float64 {
	if year == nil {
		return 1.0
	}
	switch y := *year; {
	case y >= 2020:
		return 1.2
	case y >= 2015:
		return 1.1
	case y >= 2010:
		return 1.05
	default:
		return 1.0
	}
}

// Apply annotates every record with its priority score and fills in
// the derived sample price where the source supplied none.
func Apply(records []models.Fragrance, ctx Context) []models.Fragrance {
	for i := range records {
		records[i].PriorityScore = Score(records[i], ctx)
		if records[i].SamplePrice == nil {
			records[i].SamplePrice = models.IntPtr(SamplePrice(records[i], ctx))
		}
	}
	return records
}

// SamplePrice derives a sample price in USD from brand tier and
// rating: luxury brands command a premium, highly-rated fragrances
// a smaller one.
func SamplePrice(f models.Fragrance, ctx Context) int {
	if _, tier := ctx.TierFor(f.BrandID); tier == "luxury" {
		return 20
	}
	rating, _ := f.Rating()
	switch {
	case rating >= 4.5:
		return 18
	case rating >= 4.0:
		return 16
	default:
		return 15
	}
}

// TopN keeps the n highest-scoring records. The sort is stable and
// ties keep their original input order, so selection is
// deterministic for any input permutation of distinct records.
func TopN(records []models.Fragrance, n int) []models.Fragrance {
	if n <= 0 || n >= len(records) {
		return records
	}
	sorted := make([]models.Fragrance, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PriorityScore > sorted[j].PriorityScore
	})
	return sorted[:n]
}
