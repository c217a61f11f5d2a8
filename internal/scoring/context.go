package scoring

import (
	"strings"

	"scentdb/pkg/config"
)

// Tier is one brand prestige band with its score multiplier.
type Tier struct {
	Name       string
	Multiplier float64
	Brands     map[string]struct{} // keyed by brand_id
}

// Context carries every externally-supplied table the scorer needs:
// brand tiers, curated boost lists and selection limits. It is an
// immutable value passed into pure functions, so scoring stays
// deterministic and testable with no hidden global state.
type Context struct {
	// Tiers are checked in slice order; the first tier containing
	// the brand wins, so overlapping membership resolves the same
	// way every run.
	Tiers []Tier

	// Curated lists, stored in fuzzy-key form (lowercase, hyphens
	// and spaces removed). Both boosts apply when both lists match;
	// the compounding is deliberate.
	Bestsellers     []string
	BestsellerBoost float64
	Classics        []string
	ClassicBoost    float64

	// TopN caps how many records survive selection; 0 means keep all.
	TopN int

	// Quality thresholds used by monitoring and gap analysis.
	MinRating  float64
	MinReviews int
}

// NewContext builds a scoring context from loaded configuration.
func NewContext(cfg config.ScoringConfig) Context {
	ctx := Context{
		BestsellerBoost: cfg.Bestsellers.Boost,
		ClassicBoost:    cfg.Classics.Boost,
		TopN:            cfg.TopN,
		MinRating:       cfg.Thresholds.MinRating,
		MinReviews:      cfg.Thresholds.MinReviews,
	}
	for _, t := range cfg.Tiers {
		tier := Tier{
			Name:       t.Name,
			Multiplier: t.Multiplier,
			Brands:     make(map[string]struct{}, len(t.Brands)),
		}
		for _, b := range t.Brands {
			tier.Brands[b] = struct{}{}
		}
		ctx.Tiers = append(ctx.Tiers, tier)
	}
	for _, n := range cfg.Bestsellers.Names {
		ctx.Bestsellers = append(ctx.Bestsellers, fuzzyKey(n))
	}
	for _, n := range cfg.Classics.Names {
		ctx.Classics = append(ctx.Classics, fuzzyKey(n))
	}
	return ctx
}

// TierFor returns the multiplier and tier name for a brand, with
// ×1.0 and "" when no tier lists it.
func (c Context) TierFor(brandID string) (float64, string) {
	for _, t := range c.Tiers {
		if _, ok := t.Brands[brandID]; ok {
			return t.Multiplier, t.Name
		}
	}
	return 1.0, ""
}

// fuzzyKey folds a curated list entry or product name for matching:
// case, hyphens and spaces are ignored.
func fuzzyKey(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return s
}

func matchesCurated(list []string, name string) bool {
	k := fuzzyKey(name)
	if k == "" {
		return false
	}
	for _, entry := range list {
		if entry != "" && strings.Contains(k, entry) {
			return true
		}
	}
	return false
}
