package main

import (
	"github.com/urfave/cli/v2"

	"github.com/robertmeta/ytcomments/config"
	"github.com/robertmeta/ytcomments/model"
)

func sharedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "yt-dlp", Usage: "yt-dlp executable (default: yt-dlp on PATH)", EnvVars: []string{"YTCOMMENTS_YT_DLP"}},
		&cli.BoolFlag{Name: "html", Usage: "Write an HTML transcript instead of text"},
		&cli.BoolFlag{Name: "html-and-text", Usage: "Write both HTML and text transcripts"},
		&cli.BoolFlag{Name: "dark-theme", Usage: "Use the dark HTML theme"},
		&cli.BoolFlag{Name: "delete-json-file", Usage: "Delete the JSON file once the transcripts are written"},
		&cli.BoolFlag{Name: "disable-threading", Usage: "Keep replies in their original order"},
		&cli.BoolFlag{Name: "hide-comment-separators", Usage: "Do not separate top-level comments"},
		&cli.BoolFlag{Name: "hide-header", Usage: "Do not write the video header"},
		&cli.BoolFlag{Name: "hide-likes", Usage: "Do not write like counts"},
		&cli.BoolFlag{Name: "hide-replies", Usage: "Write top-level comments only"},
		&cli.BoolFlag{Name: "hide-time", Usage: "Do not write comment times"},
		&cli.BoolFlag{Name: "hide-video-description", Usage: "Do not write the video description"},
		&cli.IntFlag{Name: "indent-size", Usage: "Reply indentation (2-10)"},
		&cli.BoolFlag{Name: "show-comment-link", Usage: "Write a link to each comment"},
		&cli.BoolFlag{Name: "show-comment-navigation-links", Usage: "Add next/previous links between top-level comments (HTML)"},
		&cli.BoolFlag{Name: "show-copy-links", Usage: "Add copy-to-clipboard links (HTML)"},
		&cli.IntFlag{Name: "text-line-length", Usage: "Line length (80-320)"},
	}
}

func downloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "path", Aliases: []string{"P"}, Usage: "Download directory (default: current directory)"},
		&cli.IntFlag{Name: "max-comments", Usage: "Maximum number of comments"},
		&cli.IntFlag{Name: "max-parents", Usage: "Maximum number of top-level comments"},
		&cli.IntFlag{Name: "max-replies", Usage: "Maximum number of replies"},
		&cli.IntFlag{Name: "max-replies-per-thread", Usage: "Maximum number of replies per thread"},
		&cli.BoolFlag{Name: "sort-new", Usage: "Download the newest comments first"},
		&cli.BoolFlag{Name: "sort-top", Usage: "Download the top comments first"},
		&cli.BoolFlag{Name: "filename-sanitization", Usage: "Use the legacy filename sanitization of yt-dlp"},
		&cli.BoolFlag{Name: "only-download-comments", Usage: "Download the JSON file and stop"},
		&cli.BoolFlag{Name: "restrict-filenames", Usage: "Restrict filenames to ASCII characters"},
		&cli.IntFlag{Name: "trim-title", Usage: "Trim the video title in the filename to this many characters"},
		&cli.BoolFlag{Name: "update-yt-dlp", Usage: "Update yt-dlp before downloading"},
		&cli.BoolFlag{Name: "windows-filenames", Usage: "Force Windows-compatible filenames"},
		&cli.StringFlag{Name: "yt-dlp-options", Usage: "Additional yt-dlp options"},
	}
}

// Search flags: u(ploader), a(uthor), t(ext); h(ighlight), f(ilter);
// i(gnore case).
func searchFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.BoolFlag{Name: "uh", Usage: "Highlight comments by the uploader"},
		&cli.BoolFlag{Name: "uf", Usage: "Filter conversations with comments by the uploader"},
		&cli.BoolFlag{Name: "uhf", Usage: "Highlight and filter comments by the uploader"},
	}
	for _, f := range searchTextFlags {
		flags = append(flags, &cli.StringSliceFlag{Name: f.name, Usage: f.usage})
	}
	return flags
}

type searchTextFlag struct {
	name       string
	usage      string
	author     bool
	highlight  bool
	filter     bool
	ignoreCase bool
}

var searchTextFlags = []searchTextFlag{
	{"ah", "Highlight comments by author", true, true, false, false},
	{"af", "Filter conversations by author", true, false, true, false},
	{"ahf", "Highlight and filter by author", true, true, true, false},
	{"ahi", "Highlight comments by author, ignoring case", true, true, false, true},
	{"afi", "Filter conversations by author, ignoring case", true, false, true, true},
	{"ahfi", "Highlight and filter by author, ignoring case", true, true, true, true},
	{"th", "Highlight comments containing text", false, true, false, false},
	{"tf", "Filter conversations by text", false, false, true, false},
	{"thf", "Highlight and filter by text", false, true, true, false},
	{"thi", "Highlight comments containing text, ignoring case", false, true, false, true},
	{"tfi", "Filter conversations by text, ignoring case", false, false, true, true},
	{"thfi", "Highlight and filter by text, ignoring case", false, true, true, true},
}

// buildSettings starts from the configuration file and applies the flags
// that were set on the command line.
func buildSettings(c *cli.Context, file *config.File, download bool) (*model.Settings, error) {
	s := file.Settings
	s.Download = download

	strs := []struct {
		name string
		dst  *string
	}{
		{"yt-dlp", &s.YtDlp},
		{"path", &s.DownloadPath},
		{"yt-dlp-options", &s.YtDlpOptions},
		{"url", &s.URL},
	}
	for _, o := range strs {
		if c.IsSet(o.name) {
			*o.dst = c.String(o.name)
		}
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"html", &s.ToHTML},
		{"html-and-text", &s.ToHTMLAndText},
		{"dark-theme", &s.DarkTheme},
		{"delete-json-file", &s.DeleteJSONFile},
		{"disable-threading", &s.DisableThreading},
		{"hide-comment-separators", &s.HideCommentSeparators},
		{"hide-header", &s.HideHeader},
		{"hide-likes", &s.HideLikes},
		{"hide-replies", &s.HideReplies},
		{"hide-time", &s.HideTime},
		{"hide-video-description", &s.HideVideoDescription},
		{"show-comment-link", &s.ShowCommentLink},
		{"show-comment-navigation-links", &s.ShowCommentNavigationLinks},
		{"show-copy-links", &s.ShowCopyLinks},
		{"sort-new", &s.SortNew},
		{"sort-top", &s.SortTop},
		{"filename-sanitization", &s.FilenameSanitization},
		{"only-download-comments", &s.OnlyDownloadComments},
		{"restrict-filenames", &s.RestrictFilenames},
		{"update-yt-dlp", &s.UpdateYtDlp},
		{"windows-filenames", &s.WindowsFilenames},
	}
	for _, o := range bools {
		if c.IsSet(o.name) {
			*o.dst = c.Bool(o.name)
		}
	}

	ints := []struct {
		name string
		dst  **int
	}{
		{"indent-size", &s.IndentSize},
		{"text-line-length", &s.TextLineLength},
		{"max-comments", &s.MaxComments},
		{"max-parents", &s.MaxParents},
		{"max-replies", &s.MaxReplies},
		{"max-replies-per-thread", &s.MaxRepliesPerThread},
		{"trim-title", &s.TrimTitle},
	}
	for _, o := range ints {
		if c.IsSet(o.name) {
			*o.dst = model.IntPtr(c.Int(o.name))
		}
	}

	if download && s.DownloadPath == "" {
		s.DownloadPath = "."
	}

	items, err := file.SearchItems()
	if err != nil {
		return nil, err
	}
	s.SearchItems = append(items, searchItems(c)...)

	return &s, nil
}

func searchItems(c *cli.Context) []model.SearchItem {
	var items []model.SearchItem

	for _, u := range []struct {
		name              string
		highlight, filter bool
	}{
		{"uh", true, false},
		{"uf", false, true},
		{"uhf", true, true},
	} {
		if c.Bool(u.name) {
			items = append(items, model.UploaderSearch{SearchFlags: model.NewSearchFlags(u.highlight, u.filter)})
		}
	}

	for _, f := range searchTextFlags {
		flags := model.NewSearchFlags(f.highlight, f.filter)
		for _, v := range c.StringSlice(f.name) {
			if v == "" {
				continue
			}
			if f.author {
				items = append(items, model.AuthorSearch{SearchFlags: flags, Author: v, IgnoreCase: f.ignoreCase})
			} else {
				items = append(items, model.TextSearch{SearchFlags: flags, Text: v, IgnoreCase: f.ignoreCase})
			}
		}
	}

	return items
}
