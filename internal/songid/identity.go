package songid

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Identity describes the currently playing song. Values are immutable; a new
// song produces a new Identity, never an in-place mutation.
type Identity struct {
	ID     string
	Title  string
	Artist string
	Lyrics string
}

var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Derive produces a stable id from title and artist: diacritics folded,
// lowercased, non-alphanumerics collapsed into single dashes. "Beyoncé" and
// "Beyonce" derive the same id.
func Derive(title, artist string) string {
	return slug(strings.TrimSpace(title) + " " + strings.TrimSpace(artist))
}

func slug(input string) string {
	folded, _, err := transform.String(foldMarks, input)
	if err != nil {
		folded = input
	}
	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
