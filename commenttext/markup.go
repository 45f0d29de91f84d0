package commenttext

import (
	"fmt"
	"html"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Markup renders comment lines as HTML with styled authors and linked URLs,
// hashtags and timestamps.
type Markup struct {
	// URL of the video. Timestamps are only linked when it is set.
	URL          string
	HashtagURL   string
	LowerHashtag bool
	Roster       *Roster
}

// ToHTML renders a line that needs no wrapping.
func (m *Markup) ToHTML(line string, checkReplied bool) string {
	spans := Extract(line, checkReplied, m.Roster, m.URL != "")
	if len(spans) == 0 {
		return html.EscapeString(line)
	}
	return m.render([]rune(line), spans)
}

// SplitToHTMLLines wraps line to width runes and renders every resulting line.
// A span broken across lines is opened on its first line and closed on its last.
func (m *Markup) SplitToHTMLLines(line string, width int, checkReplied bool) []string {
	spans := Extract(line, checkReplied, m.Roster, m.URL != "")
	if len(spans) == 0 {
		lines := SplitToLines(line, width)
		for i := range lines {
			lines[i] = html.EscapeString(lines[i])
		}
		return lines
	}

	buf := wrap([]rune(line), width, spans)
	return strings.Split(m.render(buf, spans), "\n")
}

type marker struct {
	span  *Span
	start string
	end   string
}

// render wraps every span in a pair of unique markers, escapes the buffer and
// then swaps each marker pair for the finished element.
func (m *Markup) render(buf []rune, spans []*Span) string {
	markers := make([]marker, 0, len(spans))
	for _, s := range spans {
		mk := marker{span: s, start: uuid.NewString(), end: uuid.NewString()}
		buf = slices.Insert(buf, s.To, []rune(mk.end)...)
		buf = slices.Insert(buf, s.From, []rune(mk.start)...)
		markers = append(markers, mk)
	}

	out := html.EscapeString(string(buf))

	for _, mk := range markers {
		from := strings.Index(out, mk.start)
		to := strings.Index(out, mk.end)
		if from < 0 || to < from {
			continue
		}
		to += len(mk.end)

		prefix, suffix := m.element(mk.span)
		out = out[:from] + wrapValue(mk.span.Value, prefix, suffix) + out[to:]
	}

	return out
}

// element returns the opening and closing markup of a span. Both are empty
// when the span cannot be linked.
func (m *Markup) element(s *Span) (string, string) {
	value := strings.ReplaceAll(s.Value, "\n", "")

	switch s.Kind {
	case KindRepliedAuthor:
		return "<span class='replied-author'>", "</span>"
	case KindOtherAuthor:
		return "<span class='other-author'>", "</span>"
	case KindLink:
		return fmt.Sprintf("<a href='%s'>", html.EscapeString(value)), "</a>"
	case KindHashtag:
		tag := strings.TrimPrefix(value, "#")
		if m.LowerHashtag {
			tag = strings.ToLower(tag)
		}
		return fmt.Sprintf("<a href='%s'>", html.EscapeString(m.HashtagURL+"/"+tag)), "</a>"
	case KindTimestamp:
		seconds, ok := ParseTimestamp(value)
		if !ok {
			return "", ""
		}
		return fmt.Sprintf("<a href='%s'>", html.EscapeString(TimestampURL(m.URL, seconds))), "</a>"
	case KindHeart:
		return "<span class='heart'>", "</span>"
	}
	return "", ""
}

func wrapValue(value, prefix, suffix string) string {
	parts := strings.Split(value, "\n")
	for i := range parts {
		parts[i] = html.EscapeString(parts[i])
	}
	parts[0] = prefix + parts[0]
	parts[len(parts)-1] += suffix
	return strings.Join(parts, "\n")
}

// ParseTimestamp converts M:SS, MM:SS or H:MM:SS into seconds. Hours must be
// below 24 and minutes and seconds below 60.
func ParseTimestamp(value string) (int, bool) {
	parts := strings.Split(value, ":")
	if len(value) <= 5 {
		parts = append([]string{"0"}, parts...)
	}
	if len(parts) == 2 {
		parts = append(parts, "0")
	}
	if len(parts) != 3 {
		return 0, false
	}

	limits := [3]int{24, 60, 60}
	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n >= limits[i] {
			return 0, false
		}
		fields[i] = n
	}

	return fields[0]*3600 + fields[1]*60 + fields[2], true
}

// TimestampURL links a video URL to a position in seconds.
func TimestampURL(url string, seconds int) string {
	return fmt.Sprintf("%s&t=%ds", url, seconds)
}
