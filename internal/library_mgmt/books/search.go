package books

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks so that "Énergies" matches "energies".
// Most of the catalog is French, so accent-insensitive search matters.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases and removes diacritics for search matching.
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// SearchText builds the folded haystack stored alongside each book.
func SearchText(title, author, isbn string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{title, author, isbn} {
		if f := Fold(p); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}
