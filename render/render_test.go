package render

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/robertmeta/ytcomments/commenttext"
	"github.com/robertmeta/ytcomments/model"
	"github.com/robertmeta/ytcomments/tree"
)

const videoURL = "https://www.youtube.com/watch?v=abc"

func threeComments() []*model.Comment {
	return []*model.Comment{
		{ID: "a", Parent: "root", Author: "@alice", Text: "hello", TimeText: "1 day ago", LikeCount: 1},
		{ID: "b", Parent: "a", Author: "@bob", Text: "hi"},
		{ID: "c", Parent: "a", Author: "@carol", Text: "yo", LikeCount: 2},
	}
}

func renderString(t *testing.T, forest *tree.Forest, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	lost, err := New(opts).Write(&buf, forest)
	require.NoError(t, err)
	assert.Zero(t, lost)
	return buf.String()
}

func TestWrite_Text(t *testing.T) {
	t.Run("replies are connected to their parent", func(t *testing.T) {
		settings := &model.Settings{HideHeader: true}
		forest := tree.Process(threeComments(), settings)

		got := renderString(t, forest, Options{Settings: settings, Site: model.YouTube})

		want := strings.Join([]string{
			"@alice 1 day ago",
			"hello",
			"1 Like",
			"│",
			"├── @bob",
			"│   hi",
			"│   0 Likes",
			"│",
			"└── @carol",
			"    yo",
			"    2 Likes",
			"",
		}, "\n")
		assert.Equal(t, want, got)
	})

	t.Run("header and separators", func(t *testing.T) {
		settings := &model.Settings{URL: videoURL, HideLikes: true}
		forest := tree.Process([]*model.Comment{
			{ID: "x", Author: "@xena", Text: "first"},
			{ID: "y", Author: "@yuri", Text: "second"},
		}, settings)
		video := model.VideoInfo{Title: "T", Uploader: "U", UploaderID: "@u", Description: "line one"}

		got := renderString(t, forest, Options{Settings: settings, Site: model.YouTube, Video: video})

		separator := strings.Repeat("─", model.DefaultTextLineLength)
		want := strings.Join([]string{
			"T", "U", "@u", videoURL,
			"",
			"line one",
			"",
			separator,
			"",
			"@xena",
			"first",
			"",
			separator,
			"",
			"@yuri",
			"second",
			"",
		}, "\n")
		assert.Equal(t, want, got)
	})

	t.Run("deep chains keep the guides of open ancestors", func(t *testing.T) {
		settings := &model.Settings{HideHeader: true, HideLikes: true}
		top := &model.Comment{ID: "a", Author: "@alice", Text: "top"}
		r1 := &model.Comment{ID: "b", Parent: "a", Author: "@bob", Text: "one"}
		r2 := &model.Comment{ID: "c", Parent: "a", Author: "@carol", Text: "two"}
		r3 := &model.Comment{ID: "d", Parent: "a", Author: "@dave", Text: "three"}
		top.Add(r1)
		r1.Add(r2)
		top.Add(r3)
		forest := &tree.Forest{Comments: []*model.Comment{top}}

		got := renderString(t, forest, Options{Settings: settings, Site: model.YouTube})

		want := strings.Join([]string{
			"@alice",
			"top",
			"│",
			"├── @bob",
			"│   one",
			"│   │",
			"│   └── @carol",
			"│       two",
			"│",
			"└── @dave",
			"    three",
			"",
		}, "\n")
		assert.Equal(t, want, got)
	})

	t.Run("highlighted comments are boxed", func(t *testing.T) {
		settings := &model.Settings{
			HideHeader:     true,
			HideLikes:      true,
			TextLineLength: model.IntPtr(80),
			SearchItems: []model.SearchItem{
				model.AuthorSearch{SearchFlags: model.NewSearchFlags(true, false), Author: "alice"},
			},
		}
		forest := tree.Process([]*model.Comment{{ID: "a", Author: "@alice", Text: "hi"}}, settings)

		got := renderString(t, forest, Options{Settings: settings, Site: model.YouTube})

		lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
		require.Len(t, lines, 4)
		assert.True(t, strings.HasPrefix(lines[0], "┌─"))
		assert.True(t, strings.HasPrefix(lines[1], "│ @alice "))
		assert.True(t, strings.HasPrefix(lines[2], "│ hi "))
		assert.True(t, strings.HasPrefix(lines[3], "└─"))
		for _, l := range lines {
			assert.Equal(t, 80, commenttext.Width(l), l)
			assert.True(t, strings.HasSuffix(l, "┐") || strings.HasSuffix(l, "│") || strings.HasSuffix(l, "┘"), l)
		}
	})

	t.Run("wide glyphs stay inside the highlight box", func(t *testing.T) {
		settings := &model.Settings{
			HideHeader:     true,
			HideLikes:      true,
			TextLineLength: model.IntPtr(80),
			SearchItems: []model.SearchItem{
				model.AuthorSearch{SearchFlags: model.NewSearchFlags(true, false), Author: "alice"},
			},
		}
		text := strings.Repeat("love ❤ ✅ ", 15)
		forest := tree.Process([]*model.Comment{{ID: "a", Author: "@alice", Text: text}}, settings)

		got := renderString(t, forest, Options{Settings: settings, Site: model.YouTube})

		lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
		require.Greater(t, len(lines), 4)
		for _, l := range lines {
			assert.Equal(t, 80, commenttext.Width(l), l)
		}
	})

	t.Run("long lines are wrapped", func(t *testing.T) {
		settings := &model.Settings{HideHeader: true, HideLikes: true, TextLineLength: model.IntPtr(80)}
		text := strings.Repeat("word ", 30)
		forest := tree.Process([]*model.Comment{{ID: "a", Author: "@alice", Text: text}}, settings)

		got := renderString(t, forest, Options{Settings: settings, Site: model.YouTube})

		lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
		require.Greater(t, len(lines), 2)
		for _, l := range lines[1:] {
			assert.LessOrEqual(t, commenttext.Width(l), 80)
		}
	})
}

func TestWrite_HTML(t *testing.T) {
	settings := &model.Settings{
		URL:                        videoURL,
		ShowCommentLink:            true,
		ShowCopyLinks:              true,
		ShowCommentNavigationLinks: true,
		SearchItems: []model.SearchItem{
			model.AuthorSearch{SearchFlags: model.NewSearchFlags(true, false), Author: "@bob"},
		},
	}
	comments := []*model.Comment{
		{ID: "a", Author: "@alice", AuthorIsUploader: true, IsPinned: true, Text: "Great video #Go at 1:23 https://example.com/x?a=1&b=2"},
		{ID: "b", Parent: "a", Author: "@bob", Text: "@alice thanks ❤", IsFavorited: true},
		{ID: "c", Author: "@YouTube", Text: "second <b>"},
	}
	forest := tree.Process(comments, settings)
	video := model.VideoInfo{Title: "Title <1>", UploaderID: "@alice", UploaderURL: "https://www.youtube.com/@alice", Description: "Desc #tag"}

	got := renderString(t, forest, Options{Settings: settings, Site: model.YouTube, Video: video, HTML: true})

	assertWellFormed(t, got)

	for _, want := range []string{
		"<title>Title &lt;1&gt;</title>",
		"<pre class='header'>",
		"<pre id='c1'>",
		"<pre id='c2'>",
		"<span class='pinned'>Pinned by @alice</span>",
		"class='uploader'>@alice</span>",
		"class='youtube'>@YouTube</span>",
		"second &lt;b&gt;",
		"href='" + videoURL + "&amp;t=83s'",
		"href='" + videoURL + "&amp;lc=a'",
		"href='#c2' title='Next Comment #2'",
		"<a class='link disabled-link'><span class='nav-comment'>↑ Prev</span></a>",
		"class='replied-author'",
		"<span class='favorited'>",
		"data-id='c1r1'",
		".youtube {",
		"<script>",
	} {
		assert.Contains(t, got, want)
	}

	// The reply is highlighted; its width class is declared and used.
	width := model.DefaultHTMLTextLineLength - model.DefaultIndentSize
	assert.Contains(t, got, ".highlight-"+strconv.Itoa(width)+" {")
	assert.Contains(t, got, "highlight highlight-"+strconv.Itoa(width)+" highlight-border-top")
}

func assertWellFormed(t *testing.T, doc string) {
	t.Helper()

	void := map[string]bool{"meta": true, "hr": true, "br": true}
	z := html.NewTokenizer(strings.NewReader(doc))

	var stack []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			require.ErrorIs(t, z.Err(), io.EOF)
			assert.Empty(t, stack, "unclosed elements")
			return
		case html.StartTagToken:
			name, _ := z.TagName()
			if !void[string(name)] {
				stack = append(stack, string(name))
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			require.NotEmpty(t, stack, "unexpected </%s>", name)
			require.Equal(t, stack[len(stack)-1], string(name))
			stack = stack[:len(stack)-1]
		}
	}
}

func TestWrite_LostComment(t *testing.T) {
	a := &model.Comment{ID: "a", Author: "@alice", Text: "top"}
	b := &model.Comment{ID: "b", Parent: "a", Author: "@bob", Text: "broken"}
	c := &model.Comment{ID: "c", Parent: "a", Author: "@carol", Text: "fine"}
	d := &model.Comment{ID: "d", Parent: "a", Author: "@dave", Text: "child of broken"}
	a.Add(b)
	b.Add(d)
	a.Add(c)

	var errs []*CommentError
	w := New(Options{
		Settings: &model.Settings{HideHeader: true},
		Site:     model.YouTube,
		OnError:  func(e *CommentError) { errs = append(errs, e) },
	})
	w.lines = func(c *model.Comment, _ int) []string {
		if c.ID == "b" {
			panic("boom")
		}
		return []string{c.ID}
	}

	var buf bytes.Buffer
	lost, err := w.Write(&buf, &tree.Forest{Comments: []*model.Comment{a}})
	require.NoError(t, err)

	assert.Equal(t, 2, lost)
	assert.Equal(t, "a\n│\n│\n└── c\n", buf.String())

	require.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].Lost)
	assert.Contains(t, errs[0].Comment, "@bob")
	assert.Contains(t, errs[0].Comment, "broken")
	assert.ErrorContains(t, errs[0], "boom")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWrite_WriterError(t *testing.T) {
	settings := &model.Settings{}
	forest := tree.Process(threeComments(), settings)

	_, err := New(Options{Settings: settings, Site: model.YouTube}).Write(failingWriter{}, forest)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestDescribe(t *testing.T) {
	c := &model.Comment{ID: "a", Author: "", Text: "some text", TimeText: "2 days ago", LikeCount: 3}
	assert.Equal(t, "Author Missing 2 days ago\nsome text\n3 Likes", Describe(c))
}

func TestIndentCache(t *testing.T) {
	cache := NewIndentCache()

	tests := []struct {
		name   string
		indent string
		isLast []bool
		want   string
	}{
		{"no ancestors", "├── ", nil, "├── "},
		{"open ancestors get guides", "        ├── ", []bool{false, false, true}, "│   │   ├── "},
		{"closed ancestor stays blank", "        └── ", []bool{true, false, true}, "    │   └── "},
		{"occupied column untouched", "│", []bool{false}, "│"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cache.Pipe(tt.indent, 4, tt.isLast))
		})
	}

	n := cache.Len()
	assert.Equal(t, "│   │   ├── ", cache.Pipe("        ├── ", 4, []bool{false, false, true}))
	assert.Equal(t, n, cache.Len(), "cached entry reused")

	deep := []bool{false, false, false, false, false, false, true}
	assert.Equal(t, "│ │ │ │ │ │ ├─", cache.Pipe("            ├─", 2, deep))
	assert.Equal(t, n, cache.Len(), "deep chains are not cached")
}
