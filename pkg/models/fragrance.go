package models

// Gender values allowed on a canonical fragrance record.
const (
	GenderMen    = "men"
	GenderWomen  = "women"
	GenderUnisex = "unisex"
)

// Fragrance is the normalized, internal form of a fragrance entry
// used by the pipeline and database layer.
//
// All external sources are mapped into this structure first,
// then we score, deduplicate, validate and write to the DB from
// this representation.
type Fragrance struct {
	ID            string   `json:"id"`                     // canonical ID: "{brand_id}__{slug}"
	BrandID       string   `json:"brand_id"`               // kebab slug of the brand name
	BrandName     string   `json:"brand_name,omitempty"`   // display brand name
	Name          string   `json:"name"`                   // display name, brand prefix stripped
	Slug          string   `json:"slug"`                   // kebab slug of Name
	Gender        string   `json:"gender"`                 // "men", "women" or "unisex"
	Accords       []string `json:"accords"`                // ordered scent classification tags
	TopNotes      []string `json:"top_notes,omitempty"`    //
	MiddleNotes   []string `json:"middle_notes,omitempty"` //
	BaseNotes     []string `json:"base_notes,omitempty"`   //
	Perfumers     []string `json:"perfumers,omitempty"`    // "unknown" entries dropped
	RatingValue   *float64 `json:"rating_value,omitempty"` // [0.0, 5.0] when present
	RatingCount   *int     `json:"rating_count,omitempty"` // non-negative when present
	Year          *int     `json:"year,omitempty"`         // launch year (optional)
	PriorityScore float64  `json:"priority_score"`         // computed, higher = more important
	SampleAvail   bool     `json:"sample_available"`
	SamplePrice   *int     `json:"sample_price_usd,omitempty"` // [0, 100] USD when present
	SourceURL     string   `json:"source_url,omitempty"`       // origin listing URL (if any)
	DataSource    string   `json:"data_source,omitempty"`      // name of the source that produced it
}

// Rating returns the rating value and review count with absent
// values mapped to zero. Scoring treats zero as "not rated".
func (f *Fragrance) Rating() (value float64, count int) {
	if f.RatingValue != nil {
		value = *f.RatingValue
	}
	if f.RatingCount != nil {
		count = *f.RatingCount
	}
	return value, count
}

// Brand is derived from the deduplicated fragrance set: one row per
// distinct brand_id, imported before the fragrances that reference it.
type Brand struct {
	ID             string `json:"id"`   // same as the fragrances' brand_id
	Name           string `json:"name"` // display name
	Slug           string `json:"slug"` // equals ID
	Tier           string `json:"tier,omitempty"`
	FragranceCount int    `json:"fragrance_count"`
}

// Brand tier values accepted by validation.
var BrandTiers = []string{"luxury", "premium", "designer", "mass", "niche", "celebrity"}

// Float64Ptr, IntPtr are small helpers for building optional fields.
func Float64Ptr(v float64) *float64 { return &v }
func IntPtr(v int) *int             { return &v }
