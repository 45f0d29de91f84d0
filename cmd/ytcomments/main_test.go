package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/robertmeta/ytcomments/config"
	"github.com/robertmeta/ytcomments/console"
	"github.com/robertmeta/ytcomments/model"
	"github.com/robertmeta/ytcomments/pipeline"
	"github.com/robertmeta/ytcomments/tree"
	"github.com/robertmeta/ytcomments/ytdlp"
)

// parseSettings runs a command with the given flags and returns the settings
// built from them.
func parseSettings(t *testing.T, file *config.File, download bool, args ...string) *model.Settings {
	t.Helper()

	flags := append(sharedFlags(), searchFlags()...)
	if download {
		flags = append(flags, downloadFlags()...)
	} else {
		flags = append(flags, &cli.StringFlag{Name: "url"})
	}

	var got *model.Settings
	app := &cli.App{
		Name: "test",
		Commands: []*cli.Command{{
			Name:  "run",
			Flags: flags,
			Action: func(c *cli.Context) error {
				s, err := buildSettings(c, file, download)
				got = s
				return err
			},
		}},
	}

	require.NoError(t, app.Run(append([]string{"test", "run"}, args...)))
	require.NotNil(t, got)
	return got
}

func TestBuildSettings(t *testing.T) {
	s := parseSettings(t, &config.File{}, true,
		"--max-comments", "100",
		"--sort-top",
		"-P", "/tmp/dl",
		"--trim-title", "20",
		"--html-and-text",
		"--indent-size", "2",
		"--yt-dlp-options", "--cookies c.txt",
	)

	assert.True(t, s.Download)
	assert.Equal(t, model.IntPtr(100), s.MaxComments)
	assert.Nil(t, s.MaxParents)
	assert.True(t, s.SortTop)
	assert.Equal(t, "/tmp/dl", s.DownloadPath)
	assert.Equal(t, model.IntPtr(20), s.TrimTitle)
	assert.True(t, s.ToHTMLAndText)
	assert.Equal(t, model.IntPtr(2), s.IndentSize)
	assert.Equal(t, "--cookies c.txt", s.YtDlpOptions)
	assert.Empty(t, s.SearchItems)
}

func TestBuildSettings_DefaultDownloadPath(t *testing.T) {
	s := parseSettings(t, &config.File{}, true)
	assert.Equal(t, ".", s.DownloadPath)

	s = parseSettings(t, &config.File{}, false)
	assert.Empty(t, s.DownloadPath)
}

func TestBuildSettings_ConfigFile(t *testing.T) {
	file := &config.File{
		Settings: model.Settings{
			DarkTheme:      true,
			HideLikes:      true,
			TextLineLength: model.IntPtr(100),
			DownloadPath:   "/from/config",
		},
		Search: []config.Search{{Kind: "uploader", Highlight: true}},
	}

	s := parseSettings(t, file, false, "--hide-likes=false", "--text-line-length", "200", "--url", "https://www.youtube.com/watch?v=abc")

	assert.True(t, s.DarkTheme, "kept from file")
	assert.False(t, s.HideLikes, "flag overrides file")
	assert.Equal(t, model.IntPtr(200), s.TextLineLength)
	assert.Equal(t, "/from/config", s.DownloadPath)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", s.URL)
	assert.Equal(t, []model.SearchItem{
		model.UploaderSearch{SearchFlags: model.NewSearchFlags(true, false)},
	}, s.SearchItems)

	assert.True(t, file.Settings.HideLikes, "file settings are left alone")
}

func TestSearchItems(t *testing.T) {
	s := parseSettings(t, &config.File{}, false,
		"--uhf",
		"--ah", "@bob",
		"--ahi", "carol",
		"--tf", "Go",
		"--tf", "Rust",
		"--thfi", "generics",
	)

	assert.Equal(t, []model.SearchItem{
		model.UploaderSearch{SearchFlags: model.NewSearchFlags(true, true)},
		model.AuthorSearch{SearchFlags: model.NewSearchFlags(true, false), Author: "@bob"},
		model.AuthorSearch{SearchFlags: model.NewSearchFlags(true, false), Author: "carol", IgnoreCase: true},
		model.TextSearch{SearchFlags: model.NewSearchFlags(false, true), Text: "Go"},
		model.TextSearch{SearchFlags: model.NewSearchFlags(false, true), Text: "Rust"},
		model.TextSearch{SearchFlags: model.NewSearchFlags(true, true), Text: "generics", IgnoreCase: true},
	}, s.SearchItems)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid settings", model.ErrLineLength, ExitUsageError},
		{"wrapped", fmt.Errorf("%w: x", pipeline.ErrJSONFileNotFound), ExitUsageError},
		{"bad url", fmt.Errorf("%w 'x'", model.ErrInvalidURL), ExitUsageError},
		{"yt-dlp exit", &ytdlp.ExitError{Code: 2}, ExitGeneralError},
		{"no json file", ytdlp.ErrNoJSONFile, ExitGeneralError},
		{"interrupted", fmt.Errorf("yt-dlp interrupted: %w", context.Canceled), ExitGeneralError},
		{"bad json", fmt.Errorf("failed to parse comments: boom"), ExitDataError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	p := console.NewPlain(&buf, 0)

	for _, e := range []pipeline.Event{
		{Kind: pipeline.EventStart, Stage: pipeline.StageLoad, Path: "v.json"},
		{Kind: pipeline.EventProgress, Stage: pipeline.StageDownload, Message: "[download] 10%"},
		{Kind: pipeline.EventWarning, Stage: pipeline.StageVideoInfo, Message: "Failed to get video info", Err: &ytdlp.ExitError{Code: 1}},
		{Kind: pipeline.EventCommentError, Stage: pipeline.StageWrite, Message: "@bob\nbroken", Lost: 2, Err: fmt.Errorf("boom")},
		{Kind: pipeline.EventFinish, Stage: pipeline.StageWrite, Path: "v.txt", Elapsed: 1500 * time.Microsecond},
		{Kind: pipeline.EventFinish, Stage: pipeline.StageLoad},
	} {
		printEvent(p, e)
	}

	assert.Equal(t, "Loading v.json\n"+
		"[download] 10%\n"+
		"Failed to get video info: yt-dlp failed. Exit code 1\n"+
		"Failed to write comment (2 lost): boom\n"+
		"@bob\nbroken\n"+
		"Wrote v.txt (2ms)\n", buf.String())
}

func TestPrintSummary(t *testing.T) {
	tests := []struct {
		name   string
		result *pipeline.Result
		want   string
	}{
		{
			name:   "download only",
			result: &pipeline.Result{Run: &model.Run{JSONFile: "v.json"}},
			want:   "Comments saved to v.json\n",
		},
		{
			name:   "all kept",
			result: &pipeline.Result{Run: &model.Run{Total: 3, Kept: 3, Duration: time.Second}, Forest: &tree.Forest{}},
			want:   "\nComments: 3\nProcess time: 1s\n",
		},
		{
			name:   "discarded and lost",
			result: &pipeline.Result{Run: &model.Run{Total: 5, Kept: 3, Lost: 1, Duration: time.Second}, Forest: &tree.Forest{}},
			want:   "\nComments: 3 of 5 (2 discarded)\nLost comments: 1\nProcess time: 1s\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printSummary(console.NewPlain(&buf, 0), tt.result)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
