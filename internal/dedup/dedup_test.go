package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scentdb/internal/normalize"
	"scentdb/pkg/models"
)

func frag(brandID, name string) models.Fragrance {
	slug := normalize.Slugify(name)
	return models.Fragrance{
		ID:      brandID + "__" + slug,
		BrandID: brandID,
		Name:    name,
		Slug:    slug,
		Gender:  models.GenderUnisex,
	}
}

func ids(records []models.Fragrance) []string {
	out := make([]string, 0, len(records))
	for _, f := range records {
		out = append(out, f.ID)
	}
	return out
}

func TestDeduplicatePassThrough(t *testing.T) {
	in := []models.Fragrance{frag("dior", "Sauvage"), frag("chanel", "Bleu de Chanel")}
	out, stats := Deduplicate(in)
	assert.Equal(t, ids(in), ids(out))
	assert.Zero(t, stats.Groups)
	assert.Zero(t, stats.Removed)
	assert.Empty(t, stats.Collisions)
}

func TestDeduplicateKeepsRichestRecord(t *testing.T) {
	// Scenario: identical identity, one copy carries a review count.
	poor := frag("dior", "Sauvage")
	rich := frag("dior", "Sauvage")
	rich.RatingCount = models.IntPtr(19581)

	out, stats := Deduplicate([]models.Fragrance{poor, rich})
	require.Len(t, out, 1)
	require.NotNil(t, out[0].RatingCount)
	assert.Equal(t, 19581, *out[0].RatingCount)
	assert.Equal(t, 1, stats.Groups)
	assert.Equal(t, 1, stats.Removed)
}

func TestDeduplicateTieKeepsFirstSeen(t *testing.T) {
	a := frag("dior", "Sauvage")
	a.SourceURL = "https://a.example"
	b := frag("dior", "Sauvage")
	b.SourceURL = "https://b.example"

	out, _ := Deduplicate([]models.Fragrance{a, b})
	require.Len(t, out, 1)
	assert.Equal(t, "https://a.example", out[0].SourceURL)
}

func TestDeduplicateSplitsDistinctConcentrations(t *testing.T) {
	// Two distinct products misfiled under one id: the names carry
	// the concentration, the slugs were both collapsed to "sauvage".
	edp := frag("dior", "Sauvage Eau de Parfum")
	edp.ID, edp.Slug = "dior__sauvage", "sauvage"
	edt := frag("dior", "Sauvage Eau de Toilette")
	edt.ID, edt.Slug = "dior__sauvage", "sauvage"

	out, stats := Deduplicate([]models.Fragrance{edp, edt})
	require.Len(t, out, 2)
	assert.Equal(t, 2, stats.Split)
	assert.Empty(t, VerifyUnique(out))

	assert.Equal(t, "dior__sauvage-eau-de-parfum-edp", out[0].ID)
	assert.Equal(t, "Sauvage Eau de Parfum EDP", out[0].Name)
	assert.Equal(t, "dior__sauvage-eau-de-toilette-edt", out[1].ID)
}

func TestDeduplicateSplitsWhenNameAlreadyCarriesToken(t *testing.T) {
	// The Parfum flanker's name already spells out its concentration,
	// but both records were collapsed to the plain "sauvage" id. The
	// flanker must still be re-identified off the shared id, not
	// merged into the plain record.
	flanker := frag("dior", "Sauvage Parfum")
	flanker.ID, flanker.Slug = "dior__sauvage", "sauvage"
	plain := frag("dior", "Sauvage")

	out, stats := Deduplicate([]models.Fragrance{flanker, plain})
	require.Len(t, out, 2)
	assert.Equal(t, 1, stats.Split)
	assert.Zero(t, stats.Removed)
	assert.Empty(t, VerifyUnique(out))

	// Name untouched, identity recomputed from it.
	assert.Equal(t, "Sauvage Parfum", out[0].Name)
	assert.Equal(t, "dior__sauvage-parfum", out[0].ID)
	assert.Equal(t, "sauvage-parfum", out[0].Slug)
	assert.Equal(t, "dior__sauvage", out[1].ID)
}

func TestDeduplicateSameTokenMembersCollapse(t *testing.T) {
	a := frag("dior", "Sauvage EDP")
	b := frag("dior", "Sauvage EDP")
	b.RatingValue = models.Float64Ptr(4.4)

	out, stats := Deduplicate([]models.Fragrance{a, b})
	require.Len(t, out, 1)
	assert.NotNil(t, out[0].RatingValue)
	assert.Equal(t, 1, stats.Removed)
}

func TestDeduplicateFallbackAssignsInternalID(t *testing.T) {
	// A split lands on an id that already exists: the display name
	// stays untouched, the id gets a positional suffix and the
	// conflict is surfaced as a collision.
	existing := frag("dior", "Sauvage Eau de Parfum EDP")
	misfiled := frag("dior", "Sauvage Eau de Parfum")
	misfiled.ID, misfiled.Slug = "dior__sauvage", "sauvage"

	out, stats := Deduplicate([]models.Fragrance{existing, misfiled})
	require.Len(t, out, 2)
	assert.Empty(t, VerifyUnique(out))
	require.Len(t, stats.Collisions, 1)
	c := stats.Collisions[0]
	assert.Equal(t, "dior__sauvage-eau-de-parfum-edp", c.OriginalID)
	assert.Equal(t, "dior__sauvage-eau-de-parfum-edp-2", c.AssignedID)
	assert.Contains(t, c.Reason, "token split landed on an occupied id")

	for _, f := range out {
		assert.NotContains(t, f.Name, "(2)")
	}
}

func TestDeduplicateUniquenessInvariant(t *testing.T) {
	in := []models.Fragrance{
		frag("dior", "Sauvage"),
		frag("dior", "Sauvage"),
		frag("dior", "Sauvage Elixir"),
		frag("chanel", "Bleu de Chanel"),
		frag("chanel", "Bleu de Chanel Parfum"),
		frag("chanel", "Bleu de Chanel Parfum"),
		frag("ysl", "Y 2017"),
	}
	out, _ := Deduplicate(in)
	assert.Empty(t, VerifyUnique(out))
}

func TestDistinguisher(t *testing.T) {
	cases := map[string]string{
		"sauvage-eau-de-parfum":   "EDP",
		"sauvage-eau-de-toilette": "EDT",
		"sauvage-edp":             "EDP",
		"l-homme-edt":             "EDT",
		"pure-xs-eau-fraiche":     "Eau Fraiche",
		"dior-homme-parfum":       "Parfum",
		"acqua-di-parma-colonia":  "",
		"y-2017":                  "2017",
		"la-nuit-intense":         "Intense",
		"terre-d-hermes-sport":    "Sport",
		"sauvage-elixir":          "Elixir",
		"plain-name":              "",
	}
	for slug, want := range cases {
		assert.Equal(t, want, Distinguisher(slug), "slug %q", slug)
	}
}

func TestDistinguisherPrefersConcentrationOverYear(t *testing.T) {
	assert.Equal(t, "EDP", Distinguisher("sauvage-eau-de-parfum-2018"))
}

func TestQualityScore(t *testing.T) {
	empty := models.Fragrance{}
	assert.Zero(t, QualityScore(empty))

	full := models.Fragrance{
		RatingValue: models.Float64Ptr(4.2),
		RatingCount: models.IntPtr(100),
		TopNotes:    []string{"bergamot"},
		MiddleNotes: []string{"lavender"},
		BaseNotes:   []string{"ambroxan"},
		Perfumers:   []string{"Francois Demachy"},
		SourceURL:   "https://example.com",
	}
	assert.Equal(t, 10+10+5+5+5+3+1, QualityScore(full))
}

func TestDisambiguateNames(t *testing.T) {
	// Same display name, distinct ids whose slugs retain the
	// concentration: the token is appended back to the name.
	edp := frag("dior", "Sauvage")
	edp.ID, edp.Slug = "dior__sauvage-eau-de-parfum", "sauvage-eau-de-parfum"
	edt := frag("dior", "Sauvage")
	edt.ID, edt.Slug = "dior__sauvage-eau-de-toilette", "sauvage-eau-de-toilette"
	other := frag("chanel", "Bleu de Chanel")

	out, collisions := DisambiguateNames([]models.Fragrance{edp, edt, other})
	assert.Empty(t, collisions)
	assert.Equal(t, "Sauvage EDP", out[0].Name)
	assert.Equal(t, "Sauvage EDT", out[1].Name)
	assert.Equal(t, "Bleu de Chanel", out[2].Name)
	// IDs never change in a display-name repair.
	assert.Equal(t, "dior__sauvage-eau-de-parfum", out[0].ID)
}

func TestDisambiguateNamesSurfacesTokenless(t *testing.T) {
	a := frag("dior", "Sauvage")
	a.ID, a.Slug = "dior__sauvage", "sauvage"
	b := frag("dior", "Sauvage")
	b.ID, b.Slug = "dior__sauvage-2", "sauvage-2"

	out, collisions := DisambiguateNames([]models.Fragrance{a, b})
	require.Len(t, collisions, 2)
	assert.Equal(t, "Sauvage", out[0].Name)
	assert.Equal(t, "Sauvage", out[1].Name)
}
