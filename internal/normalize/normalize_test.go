package normalize

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scentdb/pkg/models"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Sauvage Eau de Parfum": "sauvage-eau-de-parfum",
		"Hermès":                "hermes",
		"  Tom Ford！ ":          "tom-ford",
		"L'Homme":               "l-homme",
		"N°5":                   "n-5",
		"--a--b--":              "a-b",
	}
	for in, want := range cases {
		got := Slugify(in)
		assert.Equal(t, want, got, "Slugify(%q)", in)
		assert.Regexp(t, slugPattern, got)
	}
}

func TestGenderWordBoundary(t *testing.T) {
	cases := map[string]string{
		"for women only":    models.GenderWomen,
		"for men":           models.GenderMen,
		"unisex blend":      models.GenderUnisex,
		"men's and women's": models.GenderUnisex, // both tokens -> fallback
		"Women":             models.GenderWomen,
		"":                  models.GenderUnisex,
	}
	for in, want := range cases {
		assert.Equal(t, want, Gender(in), "Gender(%q)", in)
	}
}

func TestRecordAliasPrecedence(t *testing.T) {
	f, err := Record(models.SourceRecord{
		"brand":        "Dior",
		"perfume":      "Sauvage",
		"gender":       "for men",
		"main_accords": []any{"fresh spicy", "amber"},
		"launch_year":  "2015",
		"rating":       "4,35",
		"votes":        "19,581",
	})
	require.NoError(t, err)

	assert.Equal(t, "dior__sauvage", f.ID)
	assert.Equal(t, "dior", f.BrandID)
	assert.Equal(t, "sauvage", f.Slug)
	assert.Equal(t, models.GenderMen, f.Gender)
	assert.Equal(t, []string{"fresh spicy", "amber"}, f.Accords)
	require.NotNil(t, f.Year)
	assert.Equal(t, 2015, *f.Year)
	require.NotNil(t, f.RatingValue)
	assert.InDelta(t, 4.35, *f.RatingValue, 1e-9)
	require.NotNil(t, f.RatingCount)
	assert.Equal(t, 19581, *f.RatingCount)
}

func TestRecordPrefersPrimaryAlias(t *testing.T) {
	f, err := Record(models.SourceRecord{
		"brand":        "Chanel",
		"name":         "Bleu de Chanel",
		"accords":      []any{"woody"},
		"main_accords": []any{"citrus"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"woody"}, f.Accords)
}

func TestRecordStripsBrandPrefix(t *testing.T) {
	f, err := Record(models.SourceRecord{
		"brand": "Creed",
		"name":  "Creed - Aventus",
	})
	require.NoError(t, err)
	assert.Equal(t, "Aventus", f.Name)
	assert.Equal(t, "creed__aventus", f.ID)
}

func TestRecordRecoversNameFromID(t *testing.T) {
	f, err := Record(models.SourceRecord{
		"id":    "ysl__l-homme-edt",
		"brand": "YSL",
	})
	require.NoError(t, err)
	assert.Equal(t, "L Homme EDT", f.Name)
	assert.Equal(t, "l-homme-edt", f.Slug)
	assert.Equal(t, "ysl__l-homme-edt", f.ID)
}

func TestRecordUnrecoverableIdentity(t *testing.T) {
	_, err := Record(models.SourceRecord{"id": "brand__", "brand": "Brand"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnrecoverableIdentity))

	_, err = Record(models.SourceRecord{"gender": "men"})
	assert.True(t, errors.Is(err, ErrUnrecoverableIdentity))
}

func TestRecordIsFixedPoint(t *testing.T) {
	first, err := Record(models.SourceRecord{
		"brand":     "Giorgio Armani",
		"name":      "Acqua di Giò",
		"gender":    "for men",
		"accords":   []any{"aquatic", "citrus"},
		"top_notes": "bergamot, neroli",
		"year":      1996,
	})
	require.NoError(t, err)

	// Feed the canonical record back in as a SourceRecord.
	again, err := Record(models.SourceRecord{
		"brand_name":   first.BrandName,
		"name":         first.Name,
		"slug":         first.Slug,
		"id":           first.ID,
		"gender":       first.Gender,
		"accords":      first.Accords,
		"top_notes":    first.TopNotes,
		"year":         *first.Year,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.Name, again.Name)
	assert.Equal(t, first.Slug, again.Slug)
	assert.Equal(t, first.Gender, again.Gender)
	assert.Equal(t, first.Accords, again.Accords)
	assert.Equal(t, first.TopNotes, again.TopNotes)
}

func TestRecordDropsUnknownPerfumers(t *testing.T) {
	f, err := Record(models.SourceRecord{
		"brand":     "Phlur",
		"name":      "Missing Person",
		"perfumers": "unknown, Constance Georges-Picot",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Constance Georges-Picot"}, f.Perfumers)
}

func TestAllAccumulatesDrops(t *testing.T) {
	out, dropped := All([]models.SourceRecord{
		{"brand": "Dior", "name": "Sauvage"},
		{"gender": "men"}, // unrecoverable
		{"brand": "Chanel", "name": "Bleu de Chanel"},
	})
	assert.Len(t, out, 2)
	require.Len(t, dropped, 1)
	assert.True(t, errors.Is(dropped[0], ErrUnrecoverableIdentity))
}
