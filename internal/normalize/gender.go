package normalize

import (
	"strings"
	"unicode"

	"scentdb/pkg/models"
)

// Gender classifies a raw gender string into men/women/unisex.
//
// Matching is on word-boundary tokens, never substrings: "women"
// contains "men" as a substring, so naive containment would classify
// every women's fragrance as men's. A string carrying both tokens
// (or neither) falls back to unisex.
func Gender(raw string) string {
	tokens := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	var women, men bool
	for _, t := range tokens {
		switch t {
		case "women", "womens":
			women = true
		case "men", "mens":
			men = true
		}
	}

	switch {
	case women && !men:
		return models.GenderWomen
	case men && !women:
		return models.GenderMen
	default:
		return models.GenderUnisex
	}
}
