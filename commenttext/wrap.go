package commenttext

import (
	"slices"
	"strings"
)

// SplitToLines wraps line to at most width runes per line.
func SplitToLines(line string, width int) []string {
	return strings.Split(string(wrap([]rune(line), width, nil)), "\n")
}

// wrap inserts line breaks into buf so that no line exceeds width runes.
// It breaks at the last space of a window (a space right after a full window
// counts), else just after the last '/', '?' or '&', else at the window
// edge. spans must be ordered by descending From; their ranges and values
// follow every edit.
func wrap(buf []rune, width int, spans []*Span) []rune {
	if width < 1 {
		width = 1
	}

	start := 0
	for start < len(buf) {
		end := start + width - 1
		if end >= len(buf) {
			break
		}

		if i := lastIndex(buf, start, min(end+1, len(buf)-1), func(r rune) bool { return r == ' ' }); i >= 0 {
			buf[i] = '\n'
			start = i + 1
			resyncAt(buf, spans, i)
			continue
		}

		nl := end + 1
		if i := lastIndex(buf, start, end, func(r rune) bool { return r == '/' || r == '?' || r == '&' }); i >= 0 {
			nl = i + 1
		}
		buf = slices.Insert(buf, nl, '\n')
		start = nl + 1
		shift(buf, spans, nl, 1)
	}

	if n := len(buf); n > 0 && buf[n-1] == '\n' {
		buf = buf[:n-1]
		shift(buf, spans, n-1, -1)
	}

	return buf
}

func lastIndex(buf []rune, from, to int, match func(rune) bool) int {
	for i := to; i >= from; i-- {
		if match(buf[i]) {
			return i
		}
	}
	return -1
}

// resyncAt refreshes the values of spans covering index i.
func resyncAt(buf []rune, spans []*Span, i int) {
	for _, s := range spans {
		if s.From <= i && i < s.To {
			s.Value = string(buf[s.From:s.To])
		}
	}
}

// shift moves spans after an insertion (delta 1) or removal (delta -1) at
// index at. Spans at or after the edit move, spans straddling it stretch.
func shift(buf []rune, spans []*Span, at, delta int) {
	for _, s := range spans {
		switch {
		case at <= s.From:
			s.From += delta
			s.To += delta
		case at < s.To:
			s.To += delta
			s.Value = string(buf[s.From:s.To])
		default:
			// ordered by descending From, nothing further is affected
			return
		}
	}
}
