// Package validate checks canonical records against the target
// schema before they are allowed anywhere near the store. Checks
// never mutate and never short-circuit: a record's full violation
// list comes back in one pass, which is what makes batch
// diagnostics readable.
package validate

import (
	"fmt"
	"regexp"
	"time"

	"scentdb/pkg/config"
	"scentdb/pkg/models"
)

// SlugPattern is the well-formedness rule for slug and brand_id
// values: lowercase kebab, no leading/trailing/double hyphens.
var SlugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Violation is one schema/constraint failure on one record.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// Invalid pairs a rejected record with everything wrong with it.
type Invalid struct {
	Record     models.Fragrance
	Violations []Violation
}

// Context carries the externally-configured bounds. Zero values fall
// back to the schema defaults, so a bare Context{} is usable in
// tests.
type Context struct {
	MinYear        int
	MaxYearAhead   int
	MaxSamplePrice int
}

func NewContext(cfg config.ValidationConfig) Context {
	return Context{
		MinYear:        cfg.MinYear,
		MaxYearAhead:   cfg.MaxYearAhead,
		MaxSamplePrice: cfg.MaxSamplePrice,
	}
}

func (c Context) minYear() int {
	if c.MinYear > 0 {
		return c.MinYear
	}
	return 1900
}

func (c Context) maxYear() int {
	ahead := c.MaxYearAhead
	if ahead <= 0 {
		ahead = 1
	}
	return time.Now().Year() + ahead
}

func (c Context) maxSamplePrice() int {
	if c.MaxSamplePrice > 0 {
		return c.MaxSamplePrice
	}
	return 100
}

// Record checks one fragrance and returns every violation found.
// An empty result means the record may reach the store.
func Record(f models.Fragrance, ctx Context) []Violation {
	var errs []Violation
	add := func(field, format string, args ...any) {
		errs = append(errs, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	required := []struct{ field, value string }{
		{"id", f.ID},
		{"brand_id", f.BrandID},
		{"name", f.Name},
		{"slug", f.Slug},
		{"gender", f.Gender},
	}
	for _, r := range required {
		if r.value == "" {
			add(r.field, "missing required field")
		}
	}

	switch f.Gender {
	case "", models.GenderMen, models.GenderWomen, models.GenderUnisex:
	default:
		add("gender", "invalid value %q (must be men, women or unisex)", f.Gender)
	}

	if f.BrandID != "" && !SlugPattern.MatchString(f.BrandID) {
		add("brand_id", "malformed slug %q", f.BrandID)
	}
	if f.Slug != "" && !SlugPattern.MatchString(f.Slug) {
		add("slug", "malformed slug %q", f.Slug)
	}

	// Structural consistency: catches normalizer bugs before they
	// become store corruption.
	if f.ID != "" && f.ID != f.BrandID+"__"+f.Slug {
		add("id", "%q does not match %q__%q", f.ID, f.BrandID, f.Slug)
	}

	if f.RatingValue != nil {
		if v := *f.RatingValue; v < 0.0 || v > 5.0 {
			add("rating_value", "%.2f out of range [0.0, 5.0]", v)
		}
	}
	if f.RatingCount != nil && *f.RatingCount < 0 {
		add("rating_count", "%d is negative", *f.RatingCount)
	}
	if f.SamplePrice != nil {
		if p := *f.SamplePrice; p < 0 || p > ctx.maxSamplePrice() {
			add("sample_price_usd", "%d out of range [0, %d]", p, ctx.maxSamplePrice())
		}
	}
	if f.Year != nil {
		if y := *f.Year; y < ctx.minYear() || y > ctx.maxYear() {
			add("year", "%d outside plausible range [%d, %d]", y, ctx.minYear(), ctx.maxYear())
		}
	}

	return errs
}

// Brand checks a derived brand row.
func Brand(b models.Brand, ctx Context) []Violation {
	var errs []Violation
	if b.ID == "" {
		errs = append(errs, Violation{Field: "id", Message: "missing required field"})
	}
	if b.Name == "" {
		errs = append(errs, Violation{Field: "name", Message: "missing required field"})
	}
	if b.Slug == "" {
		errs = append(errs, Violation{Field: "slug", Message: "missing required field"})
	} else if !SlugPattern.MatchString(b.Slug) {
		errs = append(errs, Violation{Field: "slug", Message: fmt.Sprintf("malformed slug %q", b.Slug)})
	}
	if b.Tier != "" {
		ok := false
		for _, t := range models.BrandTiers {
			if b.Tier == t {
				ok = true
				break
			}
		}
		if !ok {
			errs = append(errs, Violation{Field: "tier", Message: fmt.Sprintf("invalid tier %q", b.Tier)})
		}
	}
	return errs
}

// Partition splits records into the import set and the rejects.
// Rejection is per record and never fatal to the run.
func Partition(records []models.Fragrance, ctx Context) (valid []models.Fragrance, invalid []Invalid) {
	valid = make([]models.Fragrance, 0, len(records))
	for _, f := range records {
		if errs := Record(f, ctx); len(errs) > 0 {
			invalid = append(invalid, Invalid{Record: f, Violations: errs})
			continue
		}
		valid = append(valid, f)
	}
	return valid, invalid
}
