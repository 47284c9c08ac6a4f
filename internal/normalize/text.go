// Package normalize fills the Job Record fields an adapter left empty, using
// only the posting's own text as evidence.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// typographic folds curly quotes, primes and dash variants to ASCII.
var typographic = runes.Map(func(r rune) rune {
	switch r {
	case '‘', '’', '‚', '‛', '′', '´', '`':
		return '\''
	case '“', '”', '„', '‟', '″':
		return '"'
	case '‐', '‑', '‒', '–', '—', '―', '−':
		return '-'
	}
	return r
})

// Text applies compatibility normalization (NFKC: ligatures, non-breaking
// spaces, ellipsis) and folds typographic punctuation to ASCII.
func Text(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(transform.Chain(norm.NFKC, typographic), s)
	if err != nil {
		return s
	}
	return out
}

// fold is Text followed by lower-casing; the form every matcher works on.
func fold(s string) string {
	return strings.ToLower(Text(s))
}

// containsWord reports whether phrase occurs in text delimited by non
// alphanumeric characters (or the text edges) on both sides.
func containsWord(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	from := 0
	for from <= len(text) {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(phrase)
		if wordBoundaryBefore(text, start) && wordBoundaryAfter(text, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func wordBoundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func wordBoundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
