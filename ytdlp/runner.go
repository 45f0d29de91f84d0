package ytdlp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/robertmeta/ytcomments/logger"
	"github.com/robertmeta/ytcomments/model"
)

// DefaultTimeout bounds a single yt-dlp invocation.
const DefaultTimeout = 10 * time.Minute

// ErrNoJSONFile is returned when yt-dlp succeeded but the comments file
// cannot be found.
var ErrNoJSONFile = errors.New("yt-dlp failed. Failed to retrieve JSON file")

// ExitError reports a non-zero yt-dlp exit code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	switch e.Code {
	case 2:
		return "yt-dlp failed. Error in user-provided options"
	case 100:
		return "yt-dlp failed. yt-dlp must restart for update to complete"
	case 101:
		return "yt-dlp failed. Download was cancelled"
	default:
		return fmt.Sprintf("yt-dlp failed. Exit code %d", e.Code)
	}
}

// Line is one line of yt-dlp output.
type Line struct {
	Text   string
	Stderr bool
}

// Runner runs yt-dlp.
type Runner struct {
	Binary  string
	Timeout time.Duration
	Logger  logger.Logger
}

// NewRunner returns a runner for the given binary. An empty binary means
// yt-dlp on PATH.
func NewRunner(binary string, l logger.Logger) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Runner{Binary: binary, Timeout: DefaultTimeout, Logger: l}
}

// Run executes yt-dlp with args and returns its output lines, stdout and
// stderr interleaved in arrival order. onLine, when set, sees every line as
// it arrives; calls are serialized.
func (r *Runner) Run(ctx context.Context, args []string, onLine func(Line)) ([]string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	r.Logger.Debug("running yt-dlp", logger.String("command", CommandLine(r.Binary, args)))

	cmd := exec.CommandContext(ctx, r.Binary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open yt-dlp output: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open yt-dlp error output: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	var (
		mu    sync.Mutex
		lines []string
	)
	read := func(rd io.Reader, isStderr bool) error {
		scanner := bufio.NewScanner(rd)
		scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			text := strings.TrimRight(scanner.Text(), "\r")

			mu.Lock()
			lines = append(lines, text)
			if onLine != nil {
				onLine(Line{Text: text, Stderr: isStderr})
			}
			mu.Unlock()
		}
		return scanner.Err()
	}

	var g errgroup.Group
	g.Go(func() error { return read(stdout, false) })
	g.Go(func() error { return read(stderr, true) })
	readErr := g.Wait()

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return lines, fmt.Errorf("yt-dlp interrupted: %w", ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return lines, &ExitError{Code: exitErr.ExitCode()}
	}
	if waitErr != nil {
		return lines, fmt.Errorf("failed to run yt-dlp: %w", waitErr)
	}
	if readErr != nil {
		return lines, fmt.Errorf("failed to read yt-dlp output: %w", readErr)
	}

	return lines, nil
}

// Download runs a comments download built by DownloadArgs and returns the
// path of the JSON file it wrote.
func (r *Runner) Download(ctx context.Context, args []string, downloadPath string, onLine func(Line)) (string, error) {
	lines, err := r.Run(ctx, args, onLine)
	if err != nil {
		return "", err
	}

	path, ok := FindJSONFile(lines, downloadPath)
	if !ok {
		return "", ErrNoJSONFile
	}

	r.Logger.Debug("comments file written", logger.String("path", path))
	return path, nil
}

// VideoInfo prints and parses the metadata of videoURL.
func (r *Runner) VideoInfo(ctx context.Context, videoURL string, hideDescription bool) (model.VideoInfo, error) {
	lines, err := r.Run(ctx, VideoInfoArgs(videoURL, hideDescription), nil)
	if err != nil {
		return model.VideoInfo{}, err
	}

	info, ok := ParseVideoInfo(strings.Join(lines, "\n"))
	if !ok {
		return model.VideoInfo{}, fmt.Errorf("failed to parse video info of %s", videoURL)
	}
	return info, nil
}

var versionRegexp = regexp.MustCompile(`^\d+[.-]\d+[.-]\d+$`)

// Accessible reports whether binary runs and prints a yt-dlp version.
func Accessible(ctx context.Context, binary string) bool {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, binary, "--version").Output()
	if err != nil {
		return false
	}
	return versionRegexp.MatchString(strings.TrimSpace(string(out)))
}
