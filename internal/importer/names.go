package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes combining marks after canonical decomposition, so
// "Teléfono" and "telefono" fold to the same name.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FoldName lowercases, trims and strips accents. Two column names that fold
// equal are the same column for alias resolution.
func FoldName(s string) string {
	return strings.ToLower(stripMarks(strings.TrimSpace(s)))
}

// NormalizeColumnName reduces a header to snake_case ASCII-ish form:
// "Teléfono (móvil)" becomes "telefono_movil".
func NormalizeColumnName(s string) string {
	folded := FoldName(s)
	var b strings.Builder
	b.Grow(len(folded))
	lastUnderscore := true
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}
