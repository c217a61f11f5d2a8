package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent decomposes characters and drops combining marks, so
// "Hermès" slugs to "hermes" instead of "herm-s".
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts a display string to its canonical kebab slug:
// diacritics stripped, lowercased, every run of characters outside
// [a-z0-9] collapsed to a single hyphen, no leading/trailing hyphens.
func Slugify(s string) string {
	if folded, _, err := transform.String(deaccent, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	prevHyphen := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			prevHyphen = false
			continue
		}
		if !prevHyphen {
			b.WriteByte('-')
			prevHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// nameFixups repairs casing artifacts after the mechanical
// title-casing in NameFromSlug.
var nameFixups = strings.NewReplacer(
	" De ", " de ",
	" La ", " la ",
	" Le ", " le ",
	" Du ", " du ",
	" Et ", " & ",
	"Edp", "EDP",
	"Edt", "EDT",
)

// NameFromSlug reconstructs a display name from a kebab slug:
// "l-homme-edt" becomes "L Homme EDT". Lossy, but good enough to
// rescue records whose name field was lost upstream.
func NameFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return nameFixups.Replace(strings.Join(words, " "))
}
