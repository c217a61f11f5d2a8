package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scentdb/pkg/models"
)

func valid() models.Fragrance {
	return models.Fragrance{
		ID:      "dior__sauvage",
		BrandID: "dior",
		Name:    "Sauvage",
		Slug:    "sauvage",
		Gender:  models.GenderMen,
		Accords: []string{"fresh spicy"},
	}
}

func TestRecordValid(t *testing.T) {
	assert.Empty(t, Record(valid(), Context{}))
}

func TestRecordAccumulatesAllViolations(t *testing.T) {
	f := valid()
	f.Gender = ""
	f.RatingValue = models.Float64Ptr(7.0)
	f.ID = "dior__wrong-slug"

	errs := Record(f, Context{})
	require.GreaterOrEqual(t, len(errs), 3)

	fields := make(map[string]bool)
	for _, v := range errs {
		fields[v.Field] = true
	}
	assert.True(t, fields["gender"])
	assert.True(t, fields["rating_value"])
	assert.True(t, fields["id"])
}

func TestRecordRequiredFields(t *testing.T) {
	errs := Record(models.Fragrance{}, Context{})
	fields := make(map[string]int)
	for _, v := range errs {
		fields[v.Field]++
	}
	for _, f := range []string{"id", "brand_id", "name", "slug", "gender"} {
		assert.Contains(t, fields, f)
	}
}

func TestRecordGenderEnum(t *testing.T) {
	f := valid()
	f.Gender = "for men"
	errs := Record(f, Context{})
	require.Len(t, errs, 1)
	assert.Equal(t, "gender", errs[0].Field)
}

func TestRecordRanges(t *testing.T) {
	f := valid()
	f.RatingValue = models.Float64Ptr(5.0)
	f.SamplePrice = models.IntPtr(100)
	f.Year = models.IntPtr(1900)
	assert.Empty(t, Record(f, Context{}))

	f.RatingValue = models.Float64Ptr(-0.1)
	f.SamplePrice = models.IntPtr(101)
	f.Year = models.IntPtr(1899)
	errs := Record(f, Context{})
	assert.Len(t, errs, 3)
}

func TestRecordYearUpperBound(t *testing.T) {
	f := valid()
	f.Year = models.IntPtr(time.Now().Year() + 1)
	assert.Empty(t, Record(f, Context{}))

	f.Year = models.IntPtr(time.Now().Year() + 2)
	errs := Record(f, Context{})
	require.Len(t, errs, 1)
	assert.Equal(t, "year", errs[0].Field)
}

func TestRecordMalformedSlug(t *testing.T) {
	f := valid()
	f.Slug = "Sauvage--EDP-"
	f.ID = "dior__Sauvage--EDP-"
	errs := Record(f, Context{})
	require.Len(t, errs, 1)
	assert.Equal(t, "slug", errs[0].Field)
}

func TestBrand(t *testing.T) {
	assert.Empty(t, Brand(models.Brand{ID: "dior", Name: "Dior", Slug: "dior", Tier: "luxury"}, Context{}))

	errs := Brand(models.Brand{Tier: "bespoke"}, Context{})
	fields := make(map[string]bool)
	for _, v := range errs {
		fields[v.Field] = true
	}
	assert.True(t, fields["id"])
	assert.True(t, fields["name"])
	assert.True(t, fields["slug"])
	assert.True(t, fields["tier"])
}

func TestPartition(t *testing.T) {
	bad := valid()
	bad.Gender = "other"
	good := valid()

	ok, rejected := Partition([]models.Fragrance{good, bad}, Context{})
	assert.Len(t, ok, 1)
	require.Len(t, rejected, 1)
	assert.Equal(t, bad.ID, rejected[0].Record.ID)
	assert.NotEmpty(t, rejected[0].Violations)
}
