// Package dedup enforces the catalog's identity invariant: after a
// pipeline run, no two records share a canonical id.
//
// Records grouped under one id are usually the same product reported
// by several sources and collapse to the richest copy. The escape
// valve is the disambiguation pass: when members carry a
// concentration, year or version token in their names, they are
// distinct products misfiled under one identity and are split
// instead of merged.
package dedup

import (
	"fmt"
	"regexp"
	"strings"

	"scentdb/internal/normalize"
	"scentdb/pkg/models"
)

// Collision flags an identity conflict the token heuristic could not
// resolve cleanly. Non-fatal, but surfaced for manual review.
type Collision struct {
	OriginalID string `json:"original_id"`
	AssignedID string `json:"assigned_id"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
}

// Stats summarizes one deduplication pass.
type Stats struct {
	Groups     int // duplicate groups encountered
	Removed    int // records dropped by quality selection
	Split      int // records re-identified by a distinguishing token
	Collisions []Collision
}

// Deduplicate collapses records sharing an id down to one record per
// identity. The output carries no duplicate ids; callers re-check
// that as a validation step rather than assuming it.
func Deduplicate(records []models.Fragrance) ([]models.Fragrance, Stats) {
	var stats Stats

	order, groups := groupByID(records)

	out := make([]models.Fragrance, 0, len(records))
	for _, id := range order {
		group := groups[id]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		stats.Groups++
		out = append(out, resolveGroup(id, group, &stats)...)
	}

	return enforceUnique(out, &stats), stats
}

// resolveGroup turns one duplicate group into one or more records.
func resolveGroup(id string, group []models.Fragrance, stats *Stats) []models.Fragrance {
	tokens := make([]string, len(group))
	any := false
	for i, m := range group {
		tokens[i] = Distinguisher(normalize.Slugify(m.Name))
		if tokens[i] != "" {
			any = true
		}
	}

	if !any {
		// No evidence the members are distinct products: keep the
		// richest copy, first-seen wins ties.
		stats.Removed += len(group) - 1
		return []models.Fragrance{qualityBest(group)}
	}

	// Token path: amend each tokened member's name and identity. The
	// name is only appended to when it does not already carry the
	// token, but the identity is always recomputed from the name, so
	// a member like "Sauvage Parfum" filed under the plain "sauvage"
	// id still splits away from it. Members that end up on the same
	// amended id (same token, or no token at all) are still the same
	// product and collapse.
	amended := make([]models.Fragrance, 0, len(group))
	for i, m := range group {
		if tok := tokens[i]; tok != "" {
			if !containsFold(m.Name, tok) {
				m.Name = m.Name + " " + tok
			}
			slug := normalize.Slugify(m.Name)
			if newID := m.BrandID + "__" + slug; newID != m.ID {
				m.Slug = slug
				m.ID = newID
				stats.Split++
			}
		}
		amended = append(amended, m)
	}

	order, sub := groupByID(amended)
	out := make([]models.Fragrance, 0, len(sub))
	for _, subID := range order {
		g := sub[subID]
		if len(g) > 1 {
			stats.Removed += len(g) - 1
		}
		out = append(out, qualityBest(g))
	}
	return out
}

// enforceUnique is the last-resort guarantee for the uniqueness
// invariant: any id still colliding (a split can land on an id that
// already existed elsewhere in the set) gets an internal numeric
// slug suffix. The display name is left alone; renaming a product
// "Something (2)" helps nobody, so the conflict is recorded as a
// collision for manual review instead.
func enforceUnique(records []models.Fragrance, stats *Stats) []models.Fragrance {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.Fragrance, 0, len(records))
	for _, f := range records {
		if _, dup := seen[f.ID]; dup {
			original := f.ID
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s-%d", original, n)
				if _, taken := seen[candidate]; !taken {
					f.Slug = fmt.Sprintf("%s-%d", f.Slug, n)
					f.ID = candidate
					break
				}
			}
			reason := "no distinguishing token, assigned positional id"
			if Distinguisher(f.Slug) != "" {
				reason = "token split landed on an occupied id, assigned positional id"
			}
			stats.Collisions = append(stats.Collisions, Collision{
				OriginalID: original,
				AssignedID: f.ID,
				Name:       f.Name,
				Reason:     reason,
			})
		}
		seen[f.ID] = struct{}{}
		out = append(out, f)
	}
	return out
}

// DisambiguateNames repairs duplicate (brand_id, name) display pairs
// across records whose ids already differ: the slug usually retains
// the concentration the display name lost, so the token is appended
// back to the name. Ids are not touched. Pairs with no token are
// surfaced as collisions rather than renamed.
func DisambiguateNames(records []models.Fragrance) ([]models.Fragrance, []Collision) {
	byName := make(map[string][]int)
	var order []string
	for i, f := range records {
		key := f.BrandID + "|" + strings.ToLower(f.Name)
		if _, ok := byName[key]; !ok {
			order = append(order, key)
		}
		byName[key] = append(byName[key], i)
	}

	var collisions []Collision
	for _, key := range order {
		idxs := byName[key]
		if len(idxs) == 1 {
			continue
		}
		for _, i := range idxs {
			f := &records[i]
			tok := Distinguisher(f.Slug)
			if tok == "" {
				collisions = append(collisions, Collision{
					OriginalID: f.ID,
					AssignedID: f.ID,
					Name:       f.Name,
					Reason:     "duplicate display name, no distinguishing token",
				})
				continue
			}
			if !containsFold(f.Name, tok) {
				f.Name = f.Name + " " + tok
			}
		}
	}
	return records, collisions
}

// VerifyUnique re-checks the uniqueness invariant on a final record
// set, returning the ids that appear more than once.
func VerifyUnique(records []models.Fragrance) []string {
	counts := make(map[string]int, len(records))
	for _, f := range records {
		counts[f.ID]++
	}
	var dups []string
	for _, f := range records {
		if counts[f.ID] > 1 {
			dups = append(dups, f.ID)
			counts[f.ID] = 0 // report each id once
		}
	}
	return dups
}

// QualityScore is the record-richness heuristic used to pick a
// duplicate group's representative: ratings weigh most, then note
// pyramids, then perfumer credits and a source link.
func QualityScore(f models.Fragrance) int {
	s := 0
	if f.RatingValue != nil {
		s += 10
	}
	if f.RatingCount != nil {
		s += 10
	}
	if len(f.TopNotes) > 0 {
		s += 5
	}
	if len(f.MiddleNotes) > 0 {
		s += 5
	}
	if len(f.BaseNotes) > 0 {
		s += 5
	}
	if len(f.Perfumers) > 0 {
		s += 3
	}
	if f.SourceURL != "" {
		s += 1
	}
	return s
}

func qualityBest(group []models.Fragrance) models.Fragrance {
	best := group[0]
	bestScore := QualityScore(best)
	for _, m := range group[1:] {
		// strictly greater: ties keep the first-seen record
		if s := QualityScore(m); s > bestScore {
			best, bestScore = m, s
		}
	}
	return best
}

// concentrations in check order: long forms first, so
// "eau-de-parfum" is not swallowed by the bare "parfum" entry.
var concentrations = []struct{ slug, display string }{
	{"eau-de-toilette", "EDT"},
	{"eau-de-parfum", "EDP"},
	{"eau-fraiche", "Eau Fraiche"},
	{"edt", "EDT"},
	{"edp", "EDP"},
	{"extrait", "Extrait"},
	{"parfum", "Parfum"},
	{"cologne", "Cologne"},
}

var versionWords = []string{"intense", "extreme", "absolu", "noir", "sport", "aqua", "fresh", "elixir"}

var yearToken = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// Distinguisher extracts the token that tells two same-identity
// records apart, scanning a slug for a concentration keyword, then a
// 4-digit year, then a version word. Empty when nothing distinguishes
// the record.
func Distinguisher(slug string) string {
	for _, c := range concentrations {
		if hasSlugToken(slug, c.slug) {
			return c.display
		}
	}
	if m := yearToken.FindString(strings.ReplaceAll(slug, "-", " ")); m != "" {
		return m
	}
	for _, w := range versionWords {
		if hasSlugToken(slug, w) {
			return strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return ""
}

// hasSlugToken matches tok on hyphen boundaries, so "edt" does not
// fire inside an unrelated word.
func hasSlugToken(slug, tok string) bool {
	return strings.Contains("-"+slug+"-", "-"+tok+"-")
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func groupByID(records []models.Fragrance) ([]string, map[string][]models.Fragrance) {
	groups := make(map[string][]models.Fragrance, len(records))
	var order []string
	for _, f := range records {
		if _, ok := groups[f.ID]; !ok {
			order = append(order, f.ID)
		}
		groups[f.ID] = append(groups[f.ID], f)
	}
	return order, groups
}
