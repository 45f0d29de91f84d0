package commenttext

import (
	"strings"
	"unicode/utf8"
)

// Symbols that render two columns wide in a monospace text file.
const wideSymbols = "❤❣♾❄☕✅⚠✊☮✝⚖"

// Width returns the number of columns a line takes in a text file.
//
// It is a heuristic, not grapheme cluster width: every code point counts one
// column, the symbols above count two, keycap and skin tone modifiers count
// zero, and a pair of regional indicators renders as a single flag column.
func Width(line string) int {
	n := utf8.RuneCountInString(line)

	pendingIndicator := false
	for _, r := range line {
		switch {
		case strings.ContainsRune(wideSymbols, r):
			n++
		case r == '\u20e3', isSkinTone(r):
			n--
		}

		if isRegionalIndicator(r) {
			if pendingIndicator {
				n--
				pendingIndicator = false
			} else {
				pendingIndicator = true
			}
		} else {
			pendingIndicator = false
		}
	}

	return n
}

func isRegionalIndicator(r rune) bool {
	return r >= 0x1F1E6 && r <= 0x1F1FF
}

// Pad returns the number of spaces needed to fill line up to width columns.
func Pad(line string, width int) int {
	if diff := width - Width(line); diff > 0 {
		return diff
	}
	return 0
}
