// Package commenttext cleans, measures, annotates and wraps comment text.
package commenttext

import (
	"strings"
	"unicode"
)

var normalizer = strings.NewReplacer(
	// NBSP
	"\u00a0", " ",

	"`", "'",
	"´", "'",
	"‘", "'",
	"’", "'",
	"‚", "'",
	"‛", "'",
	"\u0091", "'",
	"\u0092", "'",

	"“", `"`,
	"”", `"`,
	"„", `"`,
	"‟", `"`,
	"\u0093", `"`,
	"\u0094", `"`,

	"—", "-",
	"–", "-",
	"―", "-",
	"‒", "-",
	"\u0096", "-",
	"\u0097", "-",

	"…", "...",

	// zero width space, word joiner
	"\u200b", "",
	"\u2060", "",
)

// Normalize replaces typographic quotes, dashes, ellipses and non-breaking
// spaces with their ASCII forms and removes zero width characters. Leading
// whitespace before an initial @mention is dropped.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = normalizer.Replace(text)

	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	if len(trimmed) < len(text) && strings.HasPrefix(trimmed, "@") {
		text = trimmed
	}

	return text
}

// CleanForTextFile strips the code points that a text file renders as
// separate glyphs or not at all: skin tone modifiers, variation selectors
// and zero width joiners.
func CleanForTextFile(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case isSkinTone(r), r == '\ufe0e', r == '\ufe0f', r == '\u200d':
			return -1
		}
		return r
	}, text)
}

func isSkinTone(r rune) bool {
	return r >= 0x1F3FB && r <= 0x1F3FF
}
