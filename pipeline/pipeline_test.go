package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertmeta/ytcomments/model"
	"github.com/robertmeta/ytcomments/store"
	"github.com/robertmeta/ytcomments/ytdlp"
)

const videoURL = "https://www.youtube.com/watch?v=abc"

const fixture = `[
  {
    "id": "a",
    "parent": "root",
    "text": "Hello there",
    "like_count": 3,
    "author": "@alice",
    "author_is_uploader": true,
    "author_url": "https://www.youtube.com/channel/UCabc",
    "_time_text": "1 day ago"
  },
  {
    "id": "a.b",
    "parent": "a",
    "text": "@alice thanks",
    "like_count": 1,
    "author": "@bob",
    "_time_text": "1 hour ago"
  }
]`

func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "video.json")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))
	return path
}

func fakeYtDlp(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}

	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func drain(ch chan Event) []Event {
	var events []Event
	for len(ch) > 0 {
		events = append(events, <-ch)
	}
	return events
}

func stages(events []Event, kind EventKind) []Stage {
	var out []Stage
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e.Stage)
		}
	}
	return out
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRun_Convert(t *testing.T) {
	dir := t.TempDir()
	jsonFile := writeFixture(t, dir)
	events := make(chan Event, 64)

	res, err := New(Options{
		Settings: &model.Settings{JSONFile: jsonFile, ToHTMLAndText: true},
		Events:   events,
	}).Run(context.Background())
	require.NoError(t, err)

	txt := filepath.Join(dir, "video.txt")
	html := filepath.Join(dir, "video.html")
	assert.Equal(t, []string{txt, html}, res.Run.Outputs)
	assert.Equal(t, 2, res.Run.Total)
	assert.Equal(t, 2, res.Run.Kept)
	assert.Zero(t, res.Run.Lost)
	assert.False(t, res.Run.Failed())

	// No metadata: the title comes from the file name and the uploader from
	// the comments.
	assert.Equal(t, "video", res.Video.Title)
	assert.Equal(t, "@alice", res.Video.UploaderID)
	assert.Equal(t, "https://www.youtube.com/@alice", res.Video.UploaderURL)

	text, err := os.ReadFile(txt)
	require.NoError(t, err)
	assert.Contains(t, string(text), strings.Join([]string{
		"@alice 1 day ago",
		"Hello there",
		"3 Likes",
		"│",
		"└── @bob 1 hour ago",
		"    @alice thanks",
		"    1 Like",
	}, "\n"))

	page, err := os.ReadFile(html)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(page), "<!DOCTYPE html>"))
	assert.Contains(t, string(page), "<title>video</title>")

	got := drain(events)
	assert.Equal(t, []Stage{StageLoad, StageProcess, StageWrite, StageWrite}, stages(got, EventStart))
	assert.Equal(t, []Stage{StageLoad, StageProcess, StageWrite, StageWrite}, stages(got, EventFinish))
}

func TestRun_SettingsUntouched(t *testing.T) {
	dir := t.TempDir()
	settings := &model.Settings{
		JSONFile: writeFixture(t, dir),
		URL:      "https://www.youtube.com/watch?v=abc&t=10s",
		YtDlp:    fakeYtDlp(t, "exit 1"),
	}

	res, err := New(Options{Settings: settings}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://www.youtube.com/watch?v=abc&t=10s", settings.URL)
	assert.Equal(t, videoURL, res.Run.URL)
}

func TestRun_Formats(t *testing.T) {
	dir := t.TempDir()

	res, err := New(Options{
		Settings: &model.Settings{JSONFile: writeFixture(t, dir)},
		Formats:  []Format{FormatJSON},
	}).Run(context.Background())
	require.NoError(t, err)

	out := filepath.Join(dir, "video.tree.json")
	assert.Equal(t, []string{out}, res.Run.Outputs)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"comment_number": 1`)
	assert.Contains(t, string(data), `"replies": [`)
}

func TestRun_DeleteJSONFile(t *testing.T) {
	dir := t.TempDir()
	jsonFile := writeFixture(t, dir)
	events := make(chan Event, 64)

	_, err := New(Options{
		Settings: &model.Settings{JSONFile: jsonFile, DeleteJSONFile: true},
		Events:   events,
	}).Run(context.Background())
	require.NoError(t, err)

	assert.NoFileExists(t, jsonFile)
	assert.FileExists(t, filepath.Join(dir, "video.txt"))
	assert.Contains(t, stages(drain(events), EventFinish), StageDelete)
}

func TestRun_Validation(t *testing.T) {
	dir := t.TempDir()
	jsonFile := writeFixture(t, dir)
	txtFile := filepath.Join(dir, "video.txt")
	require.NoError(t, os.WriteFile(txtFile, nil, 0o644))

	tests := []struct {
		name     string
		settings *model.Settings
		want     error
	}{
		{"missing JSON file", &model.Settings{JSONFile: filepath.Join(dir, "nope.json")}, ErrJSONFileNotFound},
		{"not a JSON file", &model.Settings{JSONFile: txtFile}, model.ErrNotJSONFile},
		{"invalid URL", &model.Settings{JSONFile: jsonFile, URL: "https://www.youtube.com/feed"}, model.ErrInvalidURL},
		{"line length", &model.Settings{JSONFile: jsonFile, TextLineLength: model.IntPtr(20)}, model.ErrLineLength},
		{"yt-dlp missing", &model.Settings{JSONFile: jsonFile, YtDlp: filepath.Join(dir, "no-yt-dlp")}, ErrYtDlpNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(Options{Settings: tt.settings}).Run(context.Background())
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, res.Run.Failed())
			assert.Empty(t, res.Run.Outputs)
		})
	}

	t.Run("download path missing", func(t *testing.T) {
		_, err := New(Options{Settings: &model.Settings{
			Download:     true,
			URL:          videoURL,
			YtDlp:        fakeYtDlp(t, "exit 0"),
			DownloadPath: filepath.Join(dir, "missing"),
		}}).Run(context.Background())
		assert.ErrorIs(t, err, ErrDownloadPathNotFound)
	})
}

func TestRun_Download(t *testing.T) {
	src := writeFixture(t, t.TempDir())
	dir := t.TempDir()
	jsonFile := filepath.Join(dir, "Alice - Video.json")

	binary := fakeYtDlp(t, strings.Join([]string{
		`if [ "$1" = "--print" ]; then`,
		`  printf '[title]Fetched title[title]\n[uploader]Alice[uploader]\n[uploader_id][uploader_id]\n[uploader_url][uploader_url]\n'`,
		`  exit 0`,
		`fi`,
		`echo "[youtube] abc: Downloading webpage"`,
		`cp "` + src + `" "` + jsonFile + `"`,
		`echo "[info] Writing '%(comments)#+j' to: ` + jsonFile + `"`,
	}, "\n"))

	db := newStore(t)
	events := make(chan Event, 64)

	res, err := New(Options{
		Settings: &model.Settings{Download: true, URL: videoURL, YtDlp: binary, DownloadPath: dir},
		Store:    db,
		Events:   events,
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, jsonFile, res.Run.JSONFile)
	assert.Equal(t, "Fetched title", res.Video.Title)
	assert.Equal(t, "Alice", res.Video.Uploader)
	assert.Equal(t, "@alice", res.Video.UploaderID)
	assert.FileExists(t, filepath.Join(dir, "Alice - Video.txt"))

	got := drain(events)
	assert.Contains(t, stages(got, EventFinish), StageDownload)
	assert.Contains(t, stages(got, EventFinish), StageVideoInfo)
	assert.Contains(t, got, Event{Kind: EventProgress, Stage: StageDownload, Message: "[youtube] abc: Downloading webpage"})

	// Metadata and run are stored.
	cached, err := db.GetVideo(videoURL, 0)
	require.NoError(t, err)
	assert.Equal(t, "Fetched title", cached.Title)

	runs, err := db.GetRuns(store.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "Fetched title", runs[0].Title)
	assert.Equal(t, 2, runs[0].Kept)
}

func TestRun_DownloadFailure(t *testing.T) {
	binary := fakeYtDlp(t, strings.Join([]string{
		`if [ "$1" = "--print" ]; then exec sleep 5; fi`,
		`echo "ERROR: unavailable" 1>&2`,
		`exit 1`,
	}, "\n"))

	db := newStore(t)
	events := make(chan Event, 64)

	_, err := New(Options{
		Settings: &model.Settings{Download: true, URL: videoURL, YtDlp: binary, DownloadPath: t.TempDir()},
		Store:    db,
		Events:   events,
	}).Run(context.Background())

	var exitErr *ytdlp.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)

	assert.Empty(t, stages(drain(events), EventWarning), "cancelled video info is not reported")

	runs, err := db.GetRuns(store.QueryOptions{FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Contains(t, runs[0].Error, "Exit code 1")
}

func TestRun_OnlyDownloadComments(t *testing.T) {
	src := writeFixture(t, t.TempDir())
	dir := t.TempDir()
	jsonFile := filepath.Join(dir, "video.json")

	binary := fakeYtDlp(t, strings.Join([]string{
		`if [ "$1" = "--print" ]; then exit 1; fi`,
		`cp "` + src + `" "` + jsonFile + `"`,
		`echo "[info] Writing '%(comments)#+j' to: ` + jsonFile + `"`,
	}, "\n"))

	res, err := New(Options{Settings: &model.Settings{
		Download:             true,
		OnlyDownloadComments: true,
		URL:                  videoURL,
		YtDlp:                binary,
		DownloadPath:         dir,
	}}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, jsonFile, res.Run.JSONFile)
	assert.Nil(t, res.Forest)
	assert.NoFileExists(t, filepath.Join(dir, "video.txt"))
}

type fakeFeed struct {
	feedURL, videoID string
	info             model.VideoInfo
	err              error
}

func (f *fakeFeed) Fetch(_ context.Context, feedURL, videoID string) (model.VideoInfo, error) {
	f.feedURL, f.videoID = feedURL, videoID
	return f.info, f.err
}

func TestRun_FeedFallback(t *testing.T) {
	binary := fakeYtDlp(t, "echo 'ERROR: Sign in to confirm' 1>&2\nexit 1")
	source := &fakeFeed{info: model.VideoInfo{Title: "From feed", Uploader: "Alice", UploaderURL: "https://www.youtube.com/channel/UCabc"}}
	events := make(chan Event, 64)

	res, err := New(Options{
		Settings: &model.Settings{JSONFile: writeFixture(t, t.TempDir()), URL: videoURL, YtDlp: binary},
		Feed:     source,
		Events:   events,
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "https://www.youtube.com/feeds/videos.xml?channel_id=UCabc", source.feedURL)
	assert.Equal(t, "abc", source.videoID)
	assert.Equal(t, "From feed", res.Video.Title)
	assert.Equal(t, "@alice", res.Video.UploaderID)
	assert.Equal(t, "https://www.youtube.com/channel/UCabc", res.Video.UploaderURL, "feed uploader URL is kept")

	assert.Equal(t, []Stage{StageVideoInfo}, stages(drain(events), EventWarning))
}

func TestRun_VideoCache(t *testing.T) {
	db := newStore(t)
	require.NoError(t, db.SaveVideo(videoURL, model.VideoInfo{Title: "Cached", UploaderID: "@alice"}))

	// A yt-dlp that would fail proves the cache is used.
	binary := fakeYtDlp(t, "exit 1")

	res, err := New(Options{
		Settings:      &model.Settings{JSONFile: writeFixture(t, t.TempDir()), URL: videoURL, YtDlp: binary},
		Store:         db,
		VideoCacheTTL: time.Hour,
	}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Cached", res.Video.Title)
	assert.Empty(t, res.Video.UploaderURL, "uploader id came from the cache")
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatText, "/dl/video.txt"},
		{FormatHTML, "/dl/video.html"},
		{FormatJSON, "/dl/video.tree.json"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputPath("/dl/video.json", tt.format))
	}
}
