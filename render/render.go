// Package render writes a processed comment forest as a text or HTML transcript.
package render

import (
	"bufio"
	_ "embed"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/robertmeta/ytcomments/commenttext"
	"github.com/robertmeta/ytcomments/model"
	"github.com/robertmeta/ytcomments/tree"
)

//go:embed copy.js
var copyScript string

// Replies deeper than this stop narrowing the line length.
const repliesDeep = 8

// CommentError reports a comment that could not be rendered. The comment and
// its replies are left out of the transcript.
type CommentError struct {
	// Comment is a best-effort rendering of the failed comment.
	Comment string
	// Lost is the number of comments left out, the failed comment included.
	Lost int
	Err  error
}

func (e *CommentError) Error() string {
	return fmt.Sprintf("failed to write comment (%d lost): %v", e.Lost, e.Err)
}

func (e *CommentError) Unwrap() error {
	return e.Err
}

// Options configures a Writer.
type Options struct {
	Settings *model.Settings
	Site     model.WebsiteInfo
	Video    model.VideoInfo
	HTML     bool

	// Indents caches indentation strings. A fresh cache is used when nil.
	Indents *IndentCache

	// OnError is called for every comment that fails to render.
	OnError func(*CommentError)
}

// Writer renders one transcript.
type Writer struct {
	settings   *model.Settings
	site       model.WebsiteInfo
	video      model.VideoInfo
	html       bool
	indentSize int
	lineLength int
	minWidth   int
	markup     *commenttext.Markup
	indents    *IndentCache
	onError    func(*CommentError)

	// lines renders a single comment; replaced in tests.
	lines func(c *model.Comment, indentCount int) []string
}

// New creates a Writer.
func New(opts Options) *Writer {
	s := opts.Settings
	if s == nil {
		s = &model.Settings{}
	}

	w := &Writer{
		settings:   s,
		site:       opts.Site,
		video:      opts.Video,
		html:       opts.HTML,
		indentSize: s.IndentSizeFor(opts.HTML),
		lineLength: s.TextLineLengthFor(opts.HTML),
		indents:    opts.Indents,
		onError:    opts.OnError,
	}

	w.minWidth = max(model.TextLineMinLength-repliesDeep*w.indentSize, model.TextLineMinLength/2)

	if w.indents == nil {
		w.indents = NewIndentCache()
	}

	w.markup = &commenttext.Markup{
		URL:          s.URL,
		HashtagURL:   opts.Site.HashtagURL,
		LowerHashtag: opts.Site.LowerHashtag,
	}

	w.lines = w.commentLines
	return w
}

// printer writes lines and remembers the first error.
type printer struct {
	w   *bufio.Writer
	err error
}

func (p *printer) line(parts ...string) {
	if p.err != nil {
		return
	}
	for _, s := range parts {
		if _, err := p.w.WriteString(s); err != nil {
			p.err = err
			return
		}
	}
	if err := p.w.WriteByte('\n'); err != nil {
		p.err = err
	}
}

// Write renders the forest to out. It returns the number of comments that
// were left out because they failed to render.
func (w *Writer) Write(out io.Writer, forest *tree.Forest) (int, error) {
	w.markup.Roster = forest.Roster

	p := &printer{w: bufio.NewWriter(out)}

	if w.html {
		w.writeHead(p, forest)
	}

	if !w.settings.HideHeader {
		w.writeHeader(p)
	}

	lost := 0
	for i, c := range forest.Comments {
		lost += w.writeTopLevel(p, c, i == 0, i == len(forest.Comments)-1)
	}

	if w.html {
		if w.settings.ShowCopyLinks {
			p.line()
			p.line("<script>")
			p.line(strings.TrimRight(copyScript, "\n"))
			p.line("</script>")
		}
		p.line()
		p.line("</body>")
		p.line("</html>")
	}

	if p.err != nil {
		return lost, fmt.Errorf("failed to write comments: %w", p.err)
	}
	if err := p.w.Flush(); err != nil {
		return lost, fmt.Errorf("failed to write comments: %w", err)
	}
	return lost, nil
}

func (w *Writer) writeHead(p *printer, forest *tree.Forest) {
	theme := LightTheme
	if w.settings.DarkTheme {
		theme = DarkTheme
	}

	css := styleSheet{
		theme:           theme,
		lineLength:      w.lineLength,
		header:          !w.settings.HideHeader,
		youTube:         forest.HasYouTube,
		copyLinks:       w.settings.ShowCopyLinks,
		highlightWidths: w.highlightWidths(forest.Comments, 0),
	}

	p.line("<!DOCTYPE html>")
	p.line("<html lang='en' xmlns='http://www.w3.org/1999/xhtml'>")
	p.line("<head>")
	p.line("    <meta charset='utf-8' />")
	p.line("    <title>", html.EscapeString(w.video.Title), "</title>")
	p.line("    <style>")
	if p.err == nil {
		var sb strings.Builder
		css.write(&sb)
		_, p.err = p.w.WriteString(sb.String())
	}
	p.line("    </style>")
	p.line("</head>")
	p.line("<body>")
	p.line()
}

// highlightWidths collects the text widths of highlighted comments.
func (w *Writer) highlightWidths(comments []*model.Comment, indentCount int) []int {
	var widths []int
	for _, c := range comments {
		if c.IsHighlighted {
			widths = append(widths, w.lineWidthFor(c, indentCount))
		}
		widths = append(widths, w.highlightWidths(c.Replies(), indentCount+w.indentSize)...)
	}
	return widths
}

func (w *Writer) writeHeader(p *printer) {
	v := w.video
	s := w.settings

	if w.html {
		p.line("<pre class='header'>")

		if s.URL == "" {
			p.line(html.EscapeString(v.Title))
		} else {
			p.line(link(s.URL, v.Title))
		}

		for _, name := range []string{v.Uploader, v.UploaderID} {
			switch {
			case name == "":
			case v.UploaderURL == "":
				p.line(html.EscapeString(name))
			default:
				p.line(link(v.UploaderURL, name))
			}
		}
	} else {
		p.line(v.Title)
		for _, l := range []string{v.Uploader, v.UploaderID, s.URL} {
			if l != "" {
				p.line(l)
			}
		}
	}

	if v.Description != "" && !s.HideVideoDescription {
		p.line()
		for _, l := range w.descriptionLines() {
			p.line(l)
		}
	}

	if w.html {
		p.line("</pre>")
	}
}

func link(href, text string) string {
	return fmt.Sprintf("<a href='%s'>%s</a>", html.EscapeString(href), html.EscapeString(text))
}

func (w *Writer) writeTopLevel(p *printer, c *model.Comment, first, last bool) int {
	s := w.settings

	if !(s.HideHeader && first) {
		if !s.HideCommentSeparators {
			p.line()
			if w.html {
				p.line("<hr />")
			} else {
				p.line(strings.Repeat("─", w.lineLength))
			}
		}
		p.line()
	}

	if w.html {
		p.line(fmt.Sprintf("<pre id='c%d'>", c.CommentNumber))
		if s.ShowCommentNavigationLinks && !(first && last) {
			p.line(navLink("↓ Next", "Next", c.CommentNumber+1, last), "  ", navLink("↑ Prev", "Previous", c.CommentNumber-1, first))
		}
	}

	lost := w.writeCommentAndReplies(p, c, 0, nil)

	if w.html {
		p.line("</pre>")
	}

	return lost
}

func navLink(label, title string, target int, disabled bool) string {
	if disabled {
		return fmt.Sprintf("<a class='link disabled-link'><span class='nav-comment'>%s</span></a>", html.EscapeString(label))
	}
	return fmt.Sprintf("<a class='link' href='#c%d' title='%s Comment #%d'><span class='nav-comment'>%s</span></a>",
		target, title, target, html.EscapeString(label))
}

// writeCommentAndReplies writes a comment and, depth-first, its replies.
// isLast holds, for the comment and each of its ancestor replies, whether it
// is the last reply of its parent. It returns the number of lost comments.
func (w *Writer) writeCommentAndReplies(p *printer, c *model.Comment, indentCount int, isLast []bool) int {
	lines, err := w.safeLines(c, indentCount)
	if err != nil {
		ce := &CommentError{Comment: Describe(c), Lost: c.SubtreeSize(), Err: err}
		if w.onError != nil {
			w.onError(ce)
		}
		return ce.Lost
	}

	if c.IsReply() && len(isLast) > 0 {
		w.writeIndented(p, c, lines, indentCount, isLast)
	} else {
		for _, l := range lines {
			p.line(l)
		}
	}

	if c.Len() == 0 {
		return 0
	}

	indentCount += w.indentSize
	indent := w.indents.Pipe(strings.Repeat(" ", indentCount-w.indentSize)+"│", w.indentSize, isLast)

	lost := 0
	replies := c.Replies()
	for i, r := range replies {
		isLast = append(isLast, i == len(replies)-1)
		p.line(indent)
		lost += w.writeCommentAndReplies(p, r, indentCount, isLast)
		isLast = isLast[:len(isLast)-1]
	}
	return lost
}

func (w *Writer) writeIndented(p *printer, c *model.Comment, lines []string, indentCount int, isLast []bool) {
	size := w.indentSize
	pad := strings.Repeat(" ", indentCount-size)
	last := isLast[len(isLast)-1]

	connector, guide := "├", "│"
	if last {
		connector, guide = "└", " "
	}

	first := pad + connector + strings.Repeat("─", size-2) + " "
	second := pad + guide + strings.Repeat(" ", size-1)
	rest := second

	if c.IsHighlighted {
		if w.html {
			first = pad + connector + strings.Repeat("─", size-1)
		} else {
			first = pad + "│" + strings.Repeat(" ", size-1)
			second = pad + connector + strings.Repeat("─", size-1)
		}
	}

	first = w.indents.Pipe(first, size, isLast)
	second = w.indents.Pipe(second, size, isLast)
	rest = w.indents.Pipe(rest, size, isLast)

	for i, l := range lines {
		switch i {
		case 0:
			p.line(first, l)
		case 1:
			p.line(second, l)
		default:
			p.line(rest, l)
		}
	}
}

// safeLines renders a comment, turning a panic into an error.
func (w *Writer) safeLines(c *model.Comment, indentCount int) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic rendering comment %s: %v", c.ID, r)
		}
	}()
	return w.lines(c, indentCount), nil
}

// Describe renders a comment as plain text with default settings. When that
// fails too it falls back to the author, time and raw text.
func Describe(c *model.Comment) (s string) {
	defer func() {
		if recover() != nil {
			s = c.DisplayAuthor()
			if c.TimeText != "" {
				s += " " + c.TimeText
			}
			s += "\n" + c.Text
		}
	}()

	w := New(Options{
		Settings: &model.Settings{TextLineLength: model.IntPtr(model.TextLineMaxLength)},
		Site:     model.YouTube,
	})
	w.minWidth = model.TextLineMinLength / 2
	return strings.Join(w.commentLines(c, 0), "\n")
}
