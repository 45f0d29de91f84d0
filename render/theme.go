package render

import (
	"fmt"
	"io"
	"slices"
)

// RGB is a CSS color.
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Theme holds the colors of an HTML transcript.
type Theme struct {
	Text            RGB
	Background      RGB
	Author          RGB
	SmallElement    RGB
	FavoritedBg     RGB
	HeaderBg        RGB
	Highlight       RGB
	HighlightBg     RGB
	HighlightBorder RGB
	Link            RGB
	CopySuccess     RGB
	CopyFailure     RGB
}

var (
	LightTheme = Theme{
		Text:            RGB{15, 15, 15},
		Background:      RGB{255, 255, 255},
		Author:          RGB{15, 128, 15},
		SmallElement:    RGB{96, 96, 96},
		FavoritedBg:     RGB{229, 235, 238},
		HeaderBg:        RGB{242, 242, 242},
		Highlight:       RGB{15, 15, 15},
		HighlightBg:     RGB{255, 228, 196},
		HighlightBorder: RGB{183, 136, 0},
		Link:            RGB{0, 0, 238},
		CopySuccess:     RGB{15, 170, 15},
		CopyFailure:     RGB{255, 15, 15},
	}

	DarkTheme = Theme{
		Text:            RGB{241, 241, 241},
		Background:      RGB{15, 15, 15},
		Author:          RGB{15, 128, 15},
		SmallElement:    RGB{170, 170, 170},
		FavoritedBg:     RGB{96, 96, 96},
		HeaderBg:        RGB{39, 39, 39},
		Highlight:       RGB{15, 15, 15},
		HighlightBg:     RGB{105, 137, 134},
		HighlightBorder: RGB{0, 114, 124},
		Link:            RGB{62, 166, 255},
		CopySuccess:     RGB{15, 170, 15},
		CopyFailure:     RGB{213, 15, 15},
	}

	heartColor     = RGB{255, 0, 51}
	youTubeColor   = RGB{255, 255, 255}
	youTubeBgColor = RGB{255, 0, 0}
)

// styleSheet describes what the generated CSS has to cover.
type styleSheet struct {
	theme           Theme
	lineLength      int
	header          bool
	youTube         bool
	copyLinks       bool
	highlightWidths []int
}

func (s styleSheet) write(out io.Writer) {
	t := s.theme
	rule := func(format string, args ...any) {
		fmt.Fprintf(out, "        "+format+"\n", args...)
	}

	rule("* { font-family: Consolas, monospace; }")
	rule("html, body { color: %s; background-color: %s; line-height: 1; }", t.Text, t.Background)
	rule("pre * { display: inline-block; }")
	rule("a:link { color: %s; }", t.Link)
	if s.header {
		rule(".header { background-color: %s; min-width: %dch; max-width: %dch; }", t.HeaderBg, s.lineLength, s.lineLength)
	}
	rule(".comment { }")
	rule(".reply { }")
	if s.youTube {
		rule(".youtube { color: %s; background-color: %s; font-weight: bold; padding: 0px 6px 0px 6px; }", youTubeColor, youTubeBgColor)
	}
	rule(".uploader { color: %s; background-color: %s; font-weight: bold; padding: 0px 6px 0px 6px; }", t.Background, t.Text)
	rule(".author { color: %s; font-weight: bold; }", t.Text)
	rule(".replied-author { color: %s; font-weight: bold; }", t.Author)
	rule(".other-author { color: %s; }", t.Author)
	rule(".pinned, .time, .likes, .comment-link-text { color: %s; font-size: smaller; }", t.SmallElement)
	rule(".favorited { color: %s; background-color: %s; padding: 3px 6px 3px 6px; border-radius: 15px; }", t.Text, t.FavoritedBg)
	rule(".heart { color: %s; }", heartColor)

	if len(s.highlightWidths) > 0 {
		rule(".highlight { color: %s; background-color: %s; }", t.Highlight, t.HighlightBg)
		rule(".highlight-border-top, .highlight-border-middle, .highlight-border-bottom { border: solid 1px %s; padding-left: 1px; padding-right: 1px; }", t.HighlightBorder)
		rule(".highlight-border-top { border-bottom: none; padding-top: 1px; }")
		rule(".highlight-border-middle { border-top: none; border-bottom: none; }")
		rule(".highlight-border-bottom { border-top: none; margin-bottom: 1px; }")

		widths := slices.Clone(s.highlightWidths)
		slices.Sort(widths)
		for _, w := range slices.Compact(widths) {
			rule(".highlight-%d { min-width: %dch; max-width: %dch; }", w, w, w)
		}
	}

	if s.copyLinks {
		rule(".copy-text { color: %s; font-size: smaller; cursor: pointer; }", t.Link)
		rule(".copy-text-success { color: %s; }", t.CopySuccess)
		rule(".copy-text-failure { color: %s; }", t.CopyFailure)
		rule(".copy-text-success, .copy-text-failure { font-weight: bold; pointer-events: none; cursor: default; }")
	}

	rule(".comment-link { font-size: smaller; }")
	rule(".nav-comment { }")
	rule(".link { text-decoration: none; }")
	rule(".link:link, .link:visited { color: %s; }", t.Link)
	rule(".disabled-link { color: %s; pointer-events: none; cursor: default; opacity: 0.5; }", t.Link)
}
