package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"

	"github.com/robertmeta/ytcomments/config"
	"github.com/robertmeta/ytcomments/console"
	"github.com/robertmeta/ytcomments/feed"
	"github.com/robertmeta/ytcomments/logger"
	"github.com/robertmeta/ytcomments/model"
	"github.com/robertmeta/ytcomments/pipeline"
	"github.com/robertmeta/ytcomments/store"
	"github.com/robertmeta/ytcomments/ytdlp"
)

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitDataError    = 3
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	app := &cli.App{
		Name:           "ytcomments",
		Usage:          "Convert YouTube comments into text and HTML transcripts",
		Version:        "0.1.0",
		DefaultCommand: "convert",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultPath(),
				Usage:   "Configuration file path",
				EnvVars: []string{config.EnvConfig},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Value:   config.DefaultDatabasePath(),
				Usage:   "History database file path",
				EnvVars: []string{config.EnvDatabase},
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record runs or cache video info",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Write debug logs to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "Convert a downloaded comments JSON file",
				ArgsUsage: "<json-file>",
				Flags: append(append([]cli.Flag{
					&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "Video URL, for links and video info"},
				}, sharedFlags()...), searchFlags()...),
				Action: convert,
			},
			{
				Name:      "download",
				Usage:     "Download the comments of a video with yt-dlp and convert them",
				ArgsUsage: "<url>",
				Flags:     append(append(downloadFlags(), sharedFlags()...), searchFlags()...),
				Action:    download,
			},
			{
				Name:      "export",
				Usage:     "Write the processed comment tree of a JSON file as nested JSON",
				ArgsUsage: "<json-file>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "Video URL"},
					&cli.StringFlag{Name: "yt-dlp", Usage: "yt-dlp executable (default: yt-dlp on PATH)", EnvVars: []string{"YTCOMMENTS_YT_DLP"}},
					&cli.BoolFlag{Name: "disable-threading", Usage: "Keep replies in their original order"},
					&cli.BoolFlag{Name: "hide-replies", Usage: "Export top-level comments only"},
				}, searchFlags()...),
				Action: export,
			},
			{
				Name:  "history",
				Usage: "List previous runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"l"},
						Value:   50,
						Usage:   "Maximum number of runs to return",
					},
					&cli.IntFlag{
						Name:    "offset",
						Aliases: []string{"o"},
						Value:   0,
						Usage:   "Offset for pagination",
					},
					&cli.BoolFlag{
						Name:    "failed",
						Aliases: []string{"f"},
						Usage:   "Show only failed runs",
					},
					&cli.StringFlag{
						Name:    "since",
						Aliases: []string{"s"},
						Usage:   "Show runs since duration (e.g., 7d, 2w, 3m, 1y)",
					},
					&cli.StringFlag{
						Name:  "url",
						Usage: "Show runs of one video URL",
					},
				},
				Action: listRuns,
				Subcommands: []*cli.Command{
					{
						Name:      "prune",
						Usage:     "Delete runs older than a duration",
						ArgsUsage: "<duration>",
						Action:    pruneRuns,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func getStore(c *cli.Context) (*store.Store, error) {
	return openStore(c.String("db"))
}

func openStore(dbPath string) (*store.Store, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	s, err := store.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return s, nil
}

func getLogger(c *cli.Context) (logger.Logger, func()) {
	if !c.Bool("verbose") {
		return logger.NewNopLogger(), func() {}
	}
	l, err := logger.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return logger.NewNopLogger(), func() {}
	}
	return l, func() { _ = l.Sync() }
}

func loadConfig(c *cli.Context) (*config.File, error) {
	// The default file is optional; one named on the command line is not.
	return config.Load(c.String("config"), !c.IsSet("config"))
}

func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func convert(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: ytcomments convert <json-file>", ExitUsageError)
	}
	return runPipeline(c, false, nil, func(s *model.Settings) {
		s.JSONFile = c.Args().Get(0)
	})
}

func download(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: ytcomments download <url>", ExitUsageError)
	}
	return runPipeline(c, true, nil, func(s *model.Settings) {
		s.URL = c.Args().Get(0)
	})
}

func export(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: ytcomments export <json-file>", ExitUsageError)
	}
	return runPipeline(c, false, []pipeline.Format{pipeline.FormatJSON}, func(s *model.Settings) {
		s.JSONFile = c.Args().Get(0)
	})
}

func runPipeline(c *cli.Context, isDownload bool, formats []pipeline.Format, input func(*model.Settings)) error {
	file, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}

	settings, err := buildSettings(c, file, isDownload)
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}
	input(settings)

	ttl, err := file.CacheTTL()
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}

	log, flush := getLogger(c)
	defer flush()

	printer := console.New(os.Stdout)

	opts := pipeline.Options{
		Settings:      settings,
		Logger:        log,
		Formats:       formats,
		VideoCacheTTL: ttl,
		Feed:          feed.NewFetcher(),
	}

	if !c.Bool("no-history") {
		// History is best effort; a broken database does not stop a conversion.
		dbPath := c.String("db")
		if file.Database != "" && !c.IsSet("db") {
			dbPath = file.Database
		}
		s, err := openStore(dbPath)
		if err != nil {
			printer.Warn(err.Error())
		} else {
			defer s.Close()
			opts.Store = s
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	events := make(chan pipeline.Event, 64)
	opts.Events = events

	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events {
			printEvent(printer, e)
		}
	}()

	result, err := pipeline.New(opts).Run(ctx)
	close(events)
	<-done

	if err != nil {
		printer.Error(err.Error())
		return cli.Exit("", exitCode(err))
	}

	printSummary(printer, result)
	return nil
}

// exitCode maps a run error to the process exit code.
func exitCode(err error) int {
	usage := []error{
		model.ErrJSONFileRequired,
		model.ErrNotJSONFile,
		model.ErrURLRequired,
		model.ErrYtDlpRequired,
		model.ErrDownloadPathRequired,
		model.ErrIndentSize,
		model.ErrLineLength,
		model.ErrTrimTitle,
		model.ErrMaxComments,
		model.ErrInvalidURL,
		pipeline.ErrYtDlpNotFound,
		pipeline.ErrJSONFileNotFound,
		pipeline.ErrDownloadPathNotFound,
	}
	for _, target := range usage {
		if errors.Is(err, target) {
			return ExitUsageError
		}
	}

	var exitErr *ytdlp.ExitError
	if errors.As(err, &exitErr) || errors.Is(err, ytdlp.ErrNoJSONFile) || errors.Is(err, context.Canceled) {
		return ExitGeneralError
	}

	return ExitDataError
}

func printEvent(p *console.Printer, e pipeline.Event) {
	switch e.Kind {
	case pipeline.EventStart:
		switch e.Stage {
		case pipeline.StageDownload:
			p.Heading("Downloading comments of " + e.Message)
		case pipeline.StageVideoInfo:
			p.Faint("Fetching video info")
		case pipeline.StageLoad:
			p.Println("Loading " + e.Path)
		case pipeline.StageProcess:
			p.Println("Processing comments")
		case pipeline.StageWrite:
			p.Println("Writing " + e.Path)
		case pipeline.StageDelete:
			p.Println("Deleting " + e.Path)
		}
	case pipeline.EventFinish:
		switch e.Stage {
		case pipeline.StageDownload:
			p.Success("Downloaded " + e.Path)
		case pipeline.StageWrite:
			p.Success(fmt.Sprintf("Wrote %s (%s)", e.Path, e.Elapsed.Round(time.Millisecond)))
		case pipeline.StageDelete:
			p.Success("Deleted " + e.Path)
		}
	case pipeline.EventProgress:
		p.Progress(e.Message, e.Stderr)
	case pipeline.EventWarning:
		if e.Err != nil {
			p.Warn(fmt.Sprintf("%s: %v", e.Message, e.Err))
		} else {
			p.Warn(e.Message)
		}
	case pipeline.EventCommentError:
		p.Error(fmt.Sprintf("Failed to write comment (%d lost): %v", e.Lost, e.Err))
		p.Faint(e.Message)
	}
}

func printSummary(p *console.Printer, r *pipeline.Result) {
	run := r.Run
	if r.Forest == nil {
		p.Success("Comments saved to " + run.JSONFile)
		return
	}

	p.Println("")
	if run.Kept == run.Total {
		p.Printf("Comments: %d", run.Total)
	} else {
		p.Printf("Comments: %d of %d (%d discarded)", run.Kept, run.Total, run.Total-run.Kept)
	}
	if run.Lost > 0 {
		p.Warn(fmt.Sprintf("Lost comments: %d", run.Lost))
	}
	p.Printf("Process time: %s", run.Duration.Round(time.Millisecond))
}

func listRuns(c *cli.Context) error {
	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	opts, err := store.BuildQueryOptions(
		c.Int("limit"),
		c.Int("offset"),
		c.Bool("failed"),
		c.String("since"),
		c.String("url"),
	)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid query options: %v", err), ExitUsageError)
	}

	runs, err := s.GetRuns(opts)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to get runs: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"count":  len(runs),
		"limit":  opts.Limit,
		"offset": opts.Offset,
		"runs":   runs,
	})
}

func pruneRuns(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: ytcomments history prune <duration>", ExitUsageError)
	}

	d, err := store.ParseDuration(c.Args().Get(0))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid duration: %v", err), ExitUsageError)
	}

	s, err := getStore(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}
	defer s.Close()

	deleted, err := s.DeleteRuns(time.Now().Add(-d))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to delete runs: %v", err), ExitDataError)
	}

	return outputJSON(map[string]interface{}{
		"deleted": deleted,
	})
}
