package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scentdb/pkg/config"
	"scentdb/pkg/models"
)

func testContext() Context {
	return NewContext(config.ScoringConfig{
		TopN: 0,
		Tiers: []config.TierConfig{
			{Name: "luxury", Multiplier: 1.8, Brands: []string{"dior", "chanel", "creed"}},
			{Name: "premium", Multiplier: 1.5, Brands: []string{"ysl", "dior"}}, // dior overlaps
			{Name: "popular", Multiplier: 1.3, Brands: []string{"versace"}},
			{Name: "niche", Multiplier: 1.1, Brands: []string{"le-labo"}},
		},
		Bestsellers: config.CuratedConfig{Boost: 3.0, Names: []string{"Sauvage", "Bleu de Chanel"}},
		Classics:    config.CuratedConfig{Boost: 2.0, Names: []string{"Eau Sauvage"}},
	})
}

func rated(brandID, name string, rating float64, reviews int, year int) models.Fragrance {
	f := models.Fragrance{
		BrandID:     brandID,
		Name:        name,
		RatingValue: models.Float64Ptr(rating),
		RatingCount: models.IntPtr(reviews),
	}
	if year > 0 {
		f.Year = models.IntPtr(year)
	}
	return f
}

func TestScoreUnratedIsZero(t *testing.T) {
	ctx := testContext()
	assert.Zero(t, Score(models.Fragrance{BrandID: "dior", Name: "Sauvage"}, ctx))
	assert.Zero(t, Score(rated("dior", "Sauvage", 0, 100, 2020), ctx))
	assert.Zero(t, Score(rated("dior", "Sauvage", 4.5, 0, 2020), ctx))
}

func TestScoreFormula(t *testing.T) {
	ctx := testContext()

	// No tier, no curated match, recency >= 2020:
	// 4.2 * ln(851) * 1.2 * 1.0 = 34.00
	got := Score(rated("phlur", "Missing Person", 4.2, 850, 2024), ctx)
	assert.InDelta(t, 4.2*math.Log(851)*1.2, got, 1e-12)
	assert.InDelta(t, 34.00, got, 0.005)
}

func TestScoreTierOrderResolvesOverlap(t *testing.T) {
	ctx := testContext()
	// dior is listed in both luxury and premium; the first tier in
	// configured order wins.
	mult, name := ctx.TierFor("dior")
	assert.Equal(t, 1.8, mult)
	assert.Equal(t, "luxury", name)

	mult, name = ctx.TierFor("unknown-brand")
	assert.Equal(t, 1.0, mult)
	assert.Empty(t, name)
}

func TestScoreRecencyBands(t *testing.T) {
	ctx := testContext()
	base := 4.0 * math.Log(1001)

	cases := map[int]float64{2024: 1.2, 2020: 1.2, 2019: 1.1, 2015: 1.1, 2014: 1.05, 2010: 1.05, 2009: 1.0, 1985: 1.0}
	for year, boost := range cases {
		got := Score(rated("nobody", "Plain", 4.0, 1000, year), ctx)
		assert.InDelta(t, base*boost, got, 1e-9, "year %d", year)
	}

	// Missing year behaves like an old release.
	got := Score(rated("nobody", "Plain", 4.0, 1000, 0), ctx)
	assert.InDelta(t, base, got, 1e-9)
}

func TestScoreCuratedBoostsCompound(t *testing.T) {
	ctx := testContext()

	// "Sauvage" is a bestseller; "Eau Sauvage" matches both lists
	// (bestseller matching is substring-based) so both boosts apply.
	plain := Score(rated("nobody", "Plain", 4.3, 5000, 1966), ctx)
	bestseller := Score(rated("nobody", "Sauvage", 4.3, 5000, 1966), ctx)
	both := Score(rated("nobody", "Eau Sauvage", 4.3, 5000, 1966), ctx)

	assert.InDelta(t, plain*3.0, bestseller, 1e-9)
	assert.InDelta(t, plain*3.0*2.0, both, 1e-9)
}

func TestScoreCuratedMatchIgnoresCaseHyphensSpaces(t *testing.T) {
	ctx := testContext()
	a := Score(rated("nobody", "bleu-de-chanel", 4.4, 2000, 2010), ctx)
	b := Score(rated("nobody", "BLEU DE CHANEL", 4.4, 2000, 2010), ctx)
	assert.Equal(t, a, b)
	assert.Greater(t, a, Score(rated("nobody", "Plain", 4.4, 2000, 2010), ctx))
}

func TestScoreDeterministic(t *testing.T) {
	ctx := testContext()
	f := rated("dior", "Sauvage EDP", 4.35, 19581, 2018)
	assert.Equal(t, Score(f, ctx), Score(f, ctx))
}

func TestScoreMonotonicInReviews(t *testing.T) {
	ctx := testContext()
	prev := 0.0
	for reviews := 1; reviews <= 1_000_000; reviews *= 10 {
		got := Score(rated("nobody", "Plain", 4.0, reviews, 2000), ctx)
		assert.GreaterOrEqual(t, got, prev, "reviews=%d", reviews)
		prev = got
	}
}

func TestApplyFillsScoreAndSamplePrice(t *testing.T) {
	ctx := testContext()
	out := Apply([]models.Fragrance{
		rated("dior", "Sauvage", 4.3, 1000, 2015),   // luxury tier price
		rated("nobody", "Great", 4.6, 1000, 2015),   // rating >= 4.5
		rated("nobody", "Good", 4.2, 1000, 2015),    // rating >= 4.0
		rated("nobody", "Average", 3.5, 1000, 2015), // base price
	}, ctx)

	require.Len(t, out, 4)
	for _, f := range out {
		require.NotNil(t, f.SamplePrice)
		assert.Greater(t, f.PriorityScore, 0.0)
	}
	assert.Equal(t, 20, *out[0].SamplePrice)
	assert.Equal(t, 18, *out[1].SamplePrice)
	assert.Equal(t, 16, *out[2].SamplePrice)
	assert.Equal(t, 15, *out[3].SamplePrice)
}

func TestApplyKeepsSuppliedSamplePrice(t *testing.T) {
	ctx := testContext()
	f := rated("dior", "Sauvage", 4.3, 1000, 2015)
	f.SamplePrice = models.IntPtr(7)
	out := Apply([]models.Fragrance{f}, ctx)
	assert.Equal(t, 7, *out[0].SamplePrice)
}

func TestTopNStableOnTies(t *testing.T) {
	records := []models.Fragrance{
		{ID: "a", PriorityScore: 10},
		{ID: "b", PriorityScore: 30},
		{ID: "c", PriorityScore: 10},
		{ID: "d", PriorityScore: 20},
	}
	top := TopN(records, 3)
	require.Len(t, top, 3)
	assert.Equal(t, "b", top[0].ID)
	assert.Equal(t, "d", top[1].ID)
	assert.Equal(t, "a", top[2].ID) // tie with c broken by input order

	// n >= len keeps everything untouched.
	assert.Len(t, TopN(records, 10), 4)
	assert.Len(t, TopN(records, 0), 4)
}
