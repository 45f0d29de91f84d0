// Package pipeline runs a conversion: it validates the settings, downloads
// the comments when asked to, fetches the video metadata in the background,
// builds the comment forest and writes the transcripts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/robertmeta/ytcomments/commentjson"
	"github.com/robertmeta/ytcomments/commenttext"
	"github.com/robertmeta/ytcomments/feed"
	"github.com/robertmeta/ytcomments/logger"
	"github.com/robertmeta/ytcomments/model"
	"github.com/robertmeta/ytcomments/render"
	"github.com/robertmeta/ytcomments/store"
	"github.com/robertmeta/ytcomments/tree"
	"github.com/robertmeta/ytcomments/ytdlp"
)

var (
	ErrYtDlpNotFound        = errors.New("yt-dlp not found")
	ErrJSONFileNotFound     = errors.New("JSON file not found")
	ErrDownloadPathNotFound = errors.New("download path not found")
)

// feedTimeout bounds the channel feed fallback.
const feedTimeout = 30 * time.Second

// Format is an output file format.
type Format int

const (
	FormatText Format = iota
	FormatHTML
	// FormatJSON writes the processed forest as nested JSON.
	FormatJSON
)

// Ext returns the file extension written for the format.
func (f Format) Ext() string {
	switch f {
	case FormatHTML:
		return ".html"
	case FormatJSON:
		return ".tree.json"
	default:
		return ".txt"
	}
}

// Store caches video metadata and records runs.
type Store interface {
	GetVideo(url string, maxAge time.Duration) (model.VideoInfo, error)
	SaveVideo(url string, v model.VideoInfo) error
	SaveRun(r *model.Run) error
}

// VideoSource looks up video metadata by channel feed.
type VideoSource interface {
	Fetch(ctx context.Context, feedURL, videoID string) (model.VideoInfo, error)
}

// Options configures a Pipeline.
type Options struct {
	Settings *model.Settings
	Logger   logger.Logger

	// Formats overrides the formats selected by the settings.
	Formats []Format

	// Store, when set, caches video metadata and records the run.
	Store Store

	// VideoCacheTTL bounds the age of cached video metadata. Zero accepts
	// any age.
	VideoCacheTTL time.Duration

	// Feed, when set, is asked for the video metadata yt-dlp could not print.
	Feed VideoSource

	// Events receives progress messages. Sends block until received or the
	// context is done. The channel is not closed.
	Events chan<- Event
}

// Result describes a completed run.
type Result struct {
	Run    *model.Run
	Video  model.VideoInfo
	Forest *tree.Forest
}

// Pipeline runs conversions.
type Pipeline struct {
	opts Options
	log  logger.Logger
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	l := opts.Logger
	if l == nil {
		l = logger.NewNopLogger()
	}
	if opts.Settings == nil {
		opts.Settings = &model.Settings{}
	}
	return &Pipeline{opts: opts, log: l}
}

// Run executes one conversion. The run is recorded in the store whether it
// succeeds or not.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := time.Now()

	// The caller's settings stay untouched.
	s := *p.opts.Settings

	run := &model.Run{Started: started, URL: s.URL, JSONFile: s.JSONFile}
	result := &Result{Run: run}

	err := p.run(ctx, &s, result)

	run.Duration = time.Since(started)
	if err != nil {
		run.Error = err.Error()
	}
	p.saveRun(run)

	return result, err
}

func (p *Pipeline) run(ctx context.Context, s *model.Settings, result *Result) error {
	run := result.Run

	site, err := p.prepare(ctx, s)
	if err != nil {
		return err
	}
	run.URL = s.URL

	runner := ytdlp.NewRunner(s.YtDlp, p.log)

	// Video info runs next to the download and is cancelled when the
	// download fails.
	infoCtx, cancelInfo := context.WithTimeout(ctx, ytdlp.DefaultTimeout)
	defer cancelInfo()

	var (
		g      errgroup.Group
		video  model.VideoInfo
		cached bool
	)
	if s.URL != "" {
		video, cached = p.cachedVideo(s.URL)
		if !cached && s.YtDlp != "" {
			g.Go(func() error {
				start := time.Now()
				p.emit(ctx, Event{Kind: EventStart, Stage: StageVideoInfo})
				info, err := runner.VideoInfo(infoCtx, s.URL, s.HideVideoDescription)
				if err != nil {
					return err
				}
				video = info
				p.emit(ctx, Event{Kind: EventFinish, Stage: StageVideoInfo, Elapsed: time.Since(start)})
				return nil
			})
		}
	}

	if s.Download {
		path, err := p.download(ctx, runner, s)
		if err != nil {
			cancelInfo()
			_ = g.Wait()
			return err
		}
		s.JSONFile = path
		run.JSONFile = path

		if s.OnlyDownloadComments {
			cancelInfo()
			_ = g.Wait()
			return nil
		}
	}

	if err := g.Wait(); err != nil {
		if !errors.Is(err, context.Canceled) {
			p.log.Warn("failed to get video info", logger.String("url", s.URL), logger.Error(err))
			p.emit(ctx, Event{Kind: EventWarning, Stage: StageVideoInfo, Message: "Failed to get video info", Err: err})
		}
	} else if !cached && video.Title != "" {
		p.cacheVideo(s.URL, video)
	}

	comments, err := p.load(ctx, s.JSONFile)
	if err != nil {
		return err
	}

	start := time.Now()
	p.emit(ctx, Event{Kind: EventStart, Stage: StageProcess})
	forest := tree.Process(comments, s)
	p.log.Debug("comments processed",
		logger.Int("total", forest.Total),
		logger.Int("kept", forest.Kept),
		logger.Duration("elapsed", time.Since(start)))
	p.emit(ctx, Event{Kind: EventFinish, Stage: StageProcess, Elapsed: time.Since(start)})

	result.Forest = forest
	run.Total = forest.Total
	run.Kept = forest.Kept

	video = p.completeVideo(ctx, s, site, video, comments, forest)
	result.Video = video
	run.Title = video.Title

	for _, format := range p.formats(s) {
		path, lost, err := p.write(ctx, s, site, video, forest, format)
		if err != nil {
			return err
		}
		run.Outputs = append(run.Outputs, path)
		run.Lost += lost
	}

	if s.DeleteJSONFile {
		p.emit(ctx, Event{Kind: EventStart, Stage: StageDelete, Path: s.JSONFile})
		if err := os.Remove(s.JSONFile); err != nil {
			return fmt.Errorf("failed to delete JSON file: %w", err)
		}
		p.emit(ctx, Event{Kind: EventFinish, Stage: StageDelete, Path: s.JSONFile})
	}

	return nil
}

// prepare resolves defaults, cleans the URL and validates the settings.
func (p *Pipeline) prepare(ctx context.Context, s *model.Settings) (model.WebsiteInfo, error) {
	if s.YtDlp == "" && (s.Download || s.URL != "") && ytdlp.Accessible(ctx, ytdlp.DefaultBinary) {
		s.YtDlp = ytdlp.DefaultBinary
	}

	cleaned, site, err := model.ParseVideoURL(s.URL)
	if err != nil {
		return model.WebsiteInfo{}, err
	}
	s.URL = cleaned

	if err := s.Validate(); err != nil {
		return model.WebsiteInfo{}, err
	}

	if s.YtDlp != "" {
		if _, err := exec.LookPath(s.YtDlp); err != nil {
			return model.WebsiteInfo{}, fmt.Errorf("%w: %s", ErrYtDlpNotFound, s.YtDlp)
		}
	}

	if s.Download {
		if fi, err := os.Stat(s.DownloadPath); err != nil || !fi.IsDir() {
			return model.WebsiteInfo{}, fmt.Errorf("%w: %s", ErrDownloadPathNotFound, s.DownloadPath)
		}
	} else if _, err := os.Stat(s.JSONFile); err != nil {
		return model.WebsiteInfo{}, fmt.Errorf("%w: %s", ErrJSONFileNotFound, s.JSONFile)
	}

	return site, nil
}

func (p *Pipeline) download(ctx context.Context, runner *ytdlp.Runner, s *model.Settings) (string, error) {
	start := time.Now()
	p.emit(ctx, Event{Kind: EventStart, Stage: StageDownload, Message: s.URL})

	args := ytdlp.DownloadArgs(s)
	p.log.Info("downloading comments", logger.String("command", ytdlp.CommandLine(runner.Binary, args)))

	path, err := runner.Download(ctx, args, s.DownloadPath, func(l ytdlp.Line) {
		p.emit(ctx, Event{Kind: EventProgress, Stage: StageDownload, Message: l.Text, Stderr: l.Stderr})
	})
	if err != nil {
		return "", err
	}

	p.emit(ctx, Event{Kind: EventFinish, Stage: StageDownload, Path: path, Elapsed: time.Since(start)})
	return path, nil
}

func (p *Pipeline) load(ctx context.Context, path string) ([]*model.Comment, error) {
	start := time.Now()
	p.emit(ctx, Event{Kind: EventStart, Stage: StageLoad, Path: path})

	comments, err := commentjson.Load(path)
	if err != nil {
		return nil, err
	}

	p.log.Debug("comments loaded", logger.String("path", path), logger.Int("count", len(comments)))
	p.emit(ctx, Event{Kind: EventFinish, Stage: StageLoad, Path: path, Elapsed: time.Since(start)})
	return comments, nil
}

// completeVideo fills in what the video metadata lacks: the channel feed for
// a missing title, the JSON file name as a last resort, and the uploader from
// the comments.
func (p *Pipeline) completeVideo(ctx context.Context, s *model.Settings, site model.WebsiteInfo, video model.VideoInfo, comments []*model.Comment, forest *tree.Forest) model.VideoInfo {
	if video.Title == "" && p.opts.Feed != nil && s.URL != "" {
		if info, ok := p.feedVideo(ctx, s.URL, comments); ok {
			video = info
			p.cacheVideo(s.URL, video)
		}
	}

	if video.Title == "" {
		base := filepath.Base(s.JSONFile)
		video.Title = commenttext.Normalize(strings.TrimSuffix(base, filepath.Ext(base)))
	}

	if video.UploaderID == "" && forest.UploaderID != "" {
		video.UploaderID = forest.UploaderID
		if video.UploaderURL == "" && site.ChannelURL != "" {
			video.UploaderURL = site.ChannelURL + "/" + forest.UploaderID
		}
	}

	return video
}

func (p *Pipeline) feedVideo(ctx context.Context, videoURL string, comments []*model.Comment) (model.VideoInfo, bool) {
	videoID := feed.VideoID(videoURL)
	if videoID == "" {
		return model.VideoInfo{}, false
	}

	var feedURL string
	for _, c := range comments {
		if c.AuthorIsUploader && c.AuthorURL != "" {
			if u, ok := feed.FeedURL(c.AuthorURL); ok {
				feedURL = u
				break
			}
		}
	}
	if feedURL == "" {
		return model.VideoInfo{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, feedTimeout)
	defer cancel()

	info, err := p.opts.Feed.Fetch(ctx, feedURL, videoID)
	if err != nil {
		p.log.Debug("channel feed fallback failed", logger.String("feed", feedURL), logger.Error(err))
		return model.VideoInfo{}, false
	}
	return info, true
}

func (p *Pipeline) formats(s *model.Settings) []Format {
	if len(p.opts.Formats) > 0 {
		return p.opts.Formats
	}
	var formats []Format
	if s.WritesText() {
		formats = append(formats, FormatText)
	}
	if s.WritesHTML() {
		formats = append(formats, FormatHTML)
	}
	return formats
}

// OutputPath returns the file written next to jsonFile in the given format.
func OutputPath(jsonFile string, format Format) string {
	return strings.TrimSuffix(jsonFile, filepath.Ext(jsonFile)) + format.Ext()
}

func (p *Pipeline) write(ctx context.Context, s *model.Settings, site model.WebsiteInfo, video model.VideoInfo, forest *tree.Forest, format Format) (string, int, error) {
	path := OutputPath(s.JSONFile, format)

	start := time.Now()
	p.emit(ctx, Event{Kind: EventStart, Stage: StageWrite, Path: path})

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	lost := 0
	if format == FormatJSON {
		err = commentjson.Generate(f, forest, video, s.URL)
	} else {
		w := render.New(render.Options{
			Settings: s,
			Site:     site,
			Video:    video,
			HTML:     format == FormatHTML,
			OnError: func(e *render.CommentError) {
				p.log.Warn("comment left out", logger.Int("lost", e.Lost), logger.Error(e.Err))
				p.emit(ctx, Event{Kind: EventCommentError, Stage: StageWrite, Path: path, Message: e.Comment, Lost: e.Lost, Err: e.Err})
			},
		})
		lost, err = w.Write(f, forest)
	}
	if err != nil {
		return "", lost, err
	}

	if err := f.Close(); err != nil {
		return "", lost, fmt.Errorf("failed to close %s: %w", path, err)
	}

	p.emit(ctx, Event{Kind: EventFinish, Stage: StageWrite, Path: path, Lost: lost, Elapsed: time.Since(start)})
	return path, lost, nil
}

func (p *Pipeline) cachedVideo(url string) (model.VideoInfo, bool) {
	if p.opts.Store == nil {
		return model.VideoInfo{}, false
	}
	v, err := p.opts.Store.GetVideo(url, p.opts.VideoCacheTTL)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			p.log.Warn("failed to read video cache", logger.Error(err))
		}
		return model.VideoInfo{}, false
	}
	p.log.Debug("video info cached", logger.String("url", url))
	return v, true
}

func (p *Pipeline) cacheVideo(url string, v model.VideoInfo) {
	if p.opts.Store == nil || url == "" {
		return
	}
	if err := p.opts.Store.SaveVideo(url, v); err != nil {
		p.log.Warn("failed to cache video info", logger.Error(err))
	}
}

func (p *Pipeline) saveRun(run *model.Run) {
	if p.opts.Store == nil {
		return
	}
	if err := p.opts.Store.SaveRun(run); err != nil {
		p.log.Warn("failed to record run", logger.Error(err))
	}
}

func (p *Pipeline) emit(ctx context.Context, e Event) {
	if p.opts.Events == nil {
		return
	}
	select {
	case p.opts.Events <- e:
	case <-ctx.Done():
	}
}
