package guard

import (
	"html"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// zeroWidthRunes are stripped during normalization: U+200B..U+200F,
// U+2060, and U+FEFF, per §4.5.
var zeroWidthRunes = map[rune]struct{}{
	0x200B: {}, 0x200C: {}, 0x200D: {}, 0x200E: {}, 0x200F: {},
	0x2060: {}, 0xFEFF: {},
}

// unusualWhitespace collapses to a regular ASCII space during
// normalization: NBSP, the Unicode space-separator block, and the
// ideographic space.
var unusualWhitespace = map[rune]struct{}{
	0x00A0: {}, // NBSP
	0x2000: {}, 0x2001: {}, 0x2002: {}, 0x2003: {}, 0x2004: {},
	0x2005: {}, 0x2006: {}, 0x2007: {}, 0x2008: {}, 0x2009: {},
	0x200A: {}, 0x202F: {}, 0x205F: {},
	0x3000: {}, // ideographic space
}

// Normalize applies the full §4.5 normalization pass: NFKC, zero-width
// stripping, unusual-whitespace collapsing, fullwidth folding, and one
// pass each of HTML-entity and URL-percent decoding. URL decoding errors
// are tolerated: if any %-sequence is malformed, the whole string is left
// URL-undecoded.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = width.Fold.String(s) // fullwidth digits/letters -> ASCII

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if _, drop := zeroWidthRunes[r]; drop {
			continue
		}
		if _, collapse := unusualWhitespace[r]; collapse {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	s = b.String()

	s = html.UnescapeString(s)
	// PathUnescape (not QueryUnescape) decodes %XX sequences without also
	// folding literal '+' into a space, which would corrupt ordinary text.
	if decoded, err := url.PathUnescape(s); err == nil {
		s = decoded
	}

	return s
}
