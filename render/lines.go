package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/robertmeta/ytcomments/commenttext"
	"github.com/robertmeta/ytcomments/model"
)

// widthFor returns the render width of a comment indented by indentCount
// columns. Deep replies never get narrower than the floor.
func (w *Writer) widthFor(indentCount int) int {
	return max(w.lineLength-indentCount, w.minWidth)
}

// lineWidthFor returns the width available to the text of a comment.
func (w *Writer) lineWidthFor(c *model.Comment, indentCount int) int {
	width := w.widthFor(indentCount)
	if !w.html && c.IsHighlighted {
		// "│ " + line + " │"
		width -= 4
	}
	return width
}

// commentLines renders a comment, without its replies, into lines.
func (w *Writer) commentLines(c *model.Comment, indentCount int) []string {
	s := w.settings
	widthCh := w.widthFor(indentCount)
	lineCh := w.lineWidthFor(c, indentCount)

	var borderTop, borderMiddle, borderBottom, borderClose string
	if w.html && c.IsHighlighted {
		border := func(pos string) string {
			return fmt.Sprintf("<span class='highlight highlight-%d highlight-border-%s'>", lineCh, pos)
		}
		borderTop, borderMiddle, borderBottom, borderClose = border("top"), border("middle"), border("bottom"), "</span>"
	}

	id := ""
	if w.html {
		id = htmlID(c)
	}

	uploaderID := w.video.UploaderID
	favorited := c.IsFavorited && uploaderID != ""

	commentLink := ""
	if s.ShowCommentLink || w.html {
		commentLink = w.site.CommentLink(c.ID)
	}

	kind := "Comment"
	if c.IsReply() {
		kind = "Reply"
	}

	// boxed frames a text line inside the highlight border.
	boxed := func(left, line string) string {
		return left + " " + line + strings.Repeat(" ", commenttext.Pad(line, lineCh)) + " │"
	}

	var lines []string
	emit := func(line string) {
		lines = append(lines, line)
	}

	if c.IsPinned {
		pinned := "Pinned"
		if uploaderID != "" {
			pinned += " by " + uploaderID
		}
		if w.html {
			emit("<span class='pinned'>" + html.EscapeString(pinned) + "</span>")
		} else {
			emit(pinned)
		}
	}

	if !w.html && c.IsHighlighted {
		emit("┌" + strings.Repeat("─", widthCh-2) + "┐")
	}

	// Header
	if w.html {
		emit(borderTop + w.htmlHeader(c, id, commentLink, kind) + borderClose)
	} else {
		header := c.DisplayAuthor()
		if !s.HideTime && c.TimeText != "" {
			header += " " + c.TimeText
		}
		if c.IsHighlighted {
			left := "│"
			if c.IsReply() {
				left = "┤"
			}
			emit(boxed(left, header))
		} else {
			emit(header)
		}

		if s.ShowCommentLink && commentLink != "" {
			href := s.URL + commentLink
			if c.IsHighlighted {
				emit(boxed("│", href))
			} else {
				emit(href)
			}
		}
	}

	// Body
	text := c.Text
	if !w.html {
		text = commenttext.CleanForTextFile(text)
	}
	bodyLines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	bodyClass := "comment"
	if c.IsReply() {
		bodyClass = "reply"
	}
	dataID := ""
	if s.ShowCopyLinks {
		dataID = fmt.Sprintf(" data-id='%s'", id)
	}

	for i, line := range bodyLines {
		line = strings.TrimSpace(line)
		isLastLine := i == len(bodyLines)-1
		checkReplied := i == 0

		var length int
		if w.html {
			length = len([]rune(line))
		} else {
			length = commenttext.Width(line)
		}

		if w.html {
			var rendered []string
			if length <= lineCh {
				if c.IsHighlighted && length == 0 {
					line = " "
				}
				rendered = []string{w.markup.ToHTML(line, checkReplied)}
			} else {
				rendered = w.markup.SplitToHTMLLines(line, lineCh, checkReplied)
				for k := range rendered {
					rendered[k] = strings.TrimSpace(rendered[k])
					if c.IsHighlighted && rendered[k] == "" {
						rendered[k] = " "
					}
				}
			}

			for k, r := range rendered {
				border := borderMiddle
				if s.HideLikes && isLastLine && k == len(rendered)-1 {
					border = borderBottom
				}
				emit(fmt.Sprintf("%s<span class='%s'%s>%s</span>%s", border, bodyClass, dataID, r, borderClose))
			}
			continue
		}

		inner := []string{line}
		if length > lineCh {
			// Wrapping counts runes; wide glyphs take the columns they add.
			wrapCh := lineCh
			if extra := length - len([]rune(line)); extra > 0 {
				wrapCh = max(lineCh-extra, 1)
			}
			inner = commenttext.SplitToLines(line, wrapCh)
		}
		for _, l := range inner {
			l = strings.TrimSpace(l)
			if c.IsHighlighted {
				emit(boxed("│", l))
			} else {
				emit(l)
			}
		}
	}

	// Likes
	if !s.HideLikes {
		likes := fmt.Sprintf("%d Like", c.LikeCount)
		if c.LikeCount != 1 {
			likes += "s"
		}
		switch {
		case w.html:
			emit(borderBottom + "<span class='likes'>" + html.EscapeString(likes) + "</span>" + borderClose)
		case c.IsHighlighted:
			emit(boxed("│", likes))
		default:
			emit(likes)
		}
	}

	if !w.html && c.IsHighlighted {
		corner := "└"
		if c.Len() > 0 && !favorited {
			corner = "├"
		}
		emit(corner + strings.Repeat("─", widthCh-2) + "┘")
	}

	if favorited {
		if w.html {
			emit("<span class='favorited'><span class='heart'>" + html.EscapeString("❤") + "</span>" + html.EscapeString(" by "+uploaderID) + "</span>")
		} else {
			emit("♥ by " + uploaderID)
		}
	}

	return lines
}

// htmlHeader renders the author, time, comment link and copy affordance of a comment.
func (w *Writer) htmlHeader(c *model.Comment, id, commentLink, kind string) string {
	s := w.settings

	anchor := ""
	if c.IsReply() {
		anchor = fmt.Sprintf(" id='%s'", id)
	}

	class := "author"
	switch {
	case c.Author == "":
	case c.AuthorIsYouTube():
		class = "youtube"
	case c.AuthorIsUploader:
		class = "uploader"
	}

	var sb strings.Builder

	name := html.EscapeString(c.DisplayAuthor())
	if c.AuthorURL == "" {
		fmt.Fprintf(&sb, "<span%s class='%s'>%s</span>", anchor, class, name)
	} else {
		fmt.Fprintf(&sb, "<a%s href='%s'><span class='%s'>%s</span></a>", anchor, html.EscapeString(c.AuthorURL), class, name)
	}

	if !s.HideTime && c.TimeText != "" {
		t := html.EscapeString(c.TimeText)
		if s.URL == "" || commentLink == "" {
			fmt.Fprintf(&sb, " <span class='time'>%s</span>", t)
		} else {
			fmt.Fprintf(&sb, " <a href='%s'><span class='time'>%s</span></a>", html.EscapeString(s.URL+commentLink), t)
		}
	}

	if s.ShowCommentLink && commentLink != "" {
		if s.URL == "" {
			fmt.Fprintf(&sb, " <span class='comment-link-text'>%s</span>", html.EscapeString(commentLink))
		} else {
			fmt.Fprintf(&sb, " <a class='link' href='%s'><span class='comment-link'>Highlighted %s</span></a>", html.EscapeString(s.URL+commentLink), kind)
		}
	}

	if s.ShowCopyLinks {
		fmt.Fprintf(&sb, " <span class='copy-text' data-id='%s' title='Copy %s To Clipboard'>Copy</span>", id, kind)
	}

	return sb.String()
}

func htmlID(c *model.Comment) string {
	if c.IsReply() {
		return fmt.Sprintf("c%dr%d", c.CommentNumber, c.ReplyNumber)
	}
	return fmt.Sprintf("c%d", c.CommentNumber)
}

// descriptionLines renders the video description wrapped to the line length.
func (w *Writer) descriptionLines() []string {
	text := w.video.Description
	if !w.html {
		text = commenttext.CleanForTextFile(text)
	}

	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)

		var length int
		if w.html {
			length = len([]rune(line))
		} else {
			length = commenttext.Width(line)
		}

		switch {
		case length <= w.lineLength && w.html:
			lines = append(lines, w.markup.ToHTML(line, false))
		case length <= w.lineLength:
			lines = append(lines, line)
		case w.html:
			for _, l := range w.markup.SplitToHTMLLines(line, w.lineLength, false) {
				lines = append(lines, strings.TrimSpace(l))
			}
		default:
			for _, l := range commenttext.SplitToLines(line, w.lineLength) {
				lines = append(lines, strings.TrimSpace(l))
			}
		}
	}
	return lines
}
