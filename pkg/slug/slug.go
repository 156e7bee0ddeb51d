package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that carry no combining mark under NFD and need an explicit ASCII form.
var letterReplacer = strings.NewReplacer(
	"ı", "i",
	"ß", "ss",
	"ø", "o",
	"æ", "ae",
	"œ", "oe",
	"ł", "l",
	"đ", "d",
	"þ", "th",
)

// Generate creates a URL- and filename-friendly slug from the given name.
// Accented Latin letters are folded to ASCII.
//
// Examples:
//   - "Wireless Headphones" → "wireless-headphones"
//   - "Çocuk Ürünleri" → "cocuk-urunleri"
//   - "Crème Brûlée  (500g)" → "creme-brulee-500g"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = letterReplacer.Replace(s)

	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = folded
	}

	s = slugRegexp.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
