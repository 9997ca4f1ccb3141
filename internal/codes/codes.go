// Package codes suggests entity codes from display names. Suggestions are
// advisory; code uniqueness is the persistence layer's concern.
package codes

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxLen = 12

// foldDiacritics strips combining marks so "Empatía" folds to "Empatia".
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Suggest derives an upper-snake code from a name: diacritics folded,
// non-alphanumerics collapsed to single underscores, truncated to 12
// characters. Returns "" for a name with no usable characters.
func Suggest(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToUpper(folded) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	code := strings.Trim(b.String(), "_")
	if len(code) > maxLen {
		code = strings.Trim(code[:maxLen], "_")
	}
	return code
}
