// Package ytdlp drives the yt-dlp downloader: it builds command lines, runs
// the process and makes sense of what it prints.
package ytdlp

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/robertmeta/ytcomments/model"
)

// DefaultBinary is the name yt-dlp is looked up by on PATH.
const DefaultBinary = "yt-dlp"

// CommentsTemplate is the output template that prints the comment list.
const CommentsTemplate = "%(comments)#+j"

// JSONFileName returns the output file name template. trimTitle, when set,
// limits the title to that many characters.
func JSONFileName(trimTitle *int) string {
	title := "%(title)s"
	if trimTitle != nil && *trimTitle >= 1 {
		title = fmt.Sprintf("%%(title).%ds", *trimTitle)
	}
	return "%(uploader&{} - |)s" + title + ".json"
}

// DownloadArgs returns the arguments that write the comments of s.URL to a
// JSON file under s.DownloadPath.
func DownloadArgs(s *model.Settings) []string {
	args := []string{
		"--write-comments",
		"--print-to-file", CommentsTemplate, JSONFileName(s.TrimTitle),
		"--skip-download",
		"--no-write-info-json",
		"-P", s.DownloadPath,
	}

	if extractorArgs := ExtractorArgs(s); extractorArgs != "" {
		args = append(args, "--extractor-args", extractorArgs)
	}

	if s.FilenameSanitization {
		args = append(args, "--compat-options", "filename-sanitization")
	}
	if s.RestrictFilenames {
		args = append(args, "--restrict-filenames")
	}
	if s.WindowsFilenames {
		args = append(args, "--windows-filenames")
	}
	if s.UpdateYtDlp {
		args = append(args, "-U")
	}

	args = append(args, SplitOptions(s.YtDlpOptions)...)

	return append(args, s.URL)
}

// ExtractorArgs returns the --extractor-args value for the comment limits and
// sort order, or "" when yt-dlp defaults apply.
func ExtractorArgs(s *model.Settings) string {
	count := func(n *int) string {
		if n == nil {
			return "all"
		}
		return strconv.Itoa(*n)
	}

	var parts []string

	limits := strings.Join([]string{count(s.MaxComments), count(s.MaxParents), count(s.MaxReplies), count(s.MaxRepliesPerThread)}, ",")
	if limits != "all,all,all,all" {
		parts = append(parts, "max_comments="+limits)
	}

	switch {
	case s.SortTop:
		parts = append(parts, "comment_sort=top")
	case s.SortNew:
		parts = append(parts, "comment_sort=new")
	}

	if len(parts) == 0 {
		return ""
	}

	return Extractor(s.URL) + ":" + strings.Join(parts, ";")
}

// Extractor derives the yt-dlp extractor name from a video URL host, for
// example www.youtube.com becomes youtube.
func Extractor(videoURL string) string {
	host := videoURL
	if u, err := url.Parse(videoURL); err == nil && u.Host != "" {
		host = u.Hostname()
	}

	host = strings.ToLower(host)
	for _, s := range []string{"www.", ".com", ".net", ".org", ".tv"} {
		host = strings.ReplaceAll(host, s, "")
	}
	return host
}

// VideoInfoFields are the yt-dlp fields read into model.VideoInfo.
var VideoInfoFields = []string{"title", "uploader", "uploader_id", "uploader_url", "description"}

// VideoInfoArgs returns the arguments that print the video metadata of
// videoURL without downloading anything.
func VideoInfoArgs(videoURL string, hideDescription bool) []string {
	var prints []string
	for _, field := range VideoInfoFields {
		if hideDescription && field == "description" {
			continue
		}
		prints = append(prints, fmt.Sprintf("[%s]%%(%s|)s[%s]", field, field, field))
	}

	return []string{
		"--print", strings.Join(prints, "\n"),
		"--skip-download",
		"--no-write-info-json",
		videoURL,
	}
}

// SplitOptions splits user-provided options on whitespace. Single and double
// quotes group words.
func SplitOptions(options string) []string {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inWord  bool
	)

	for _, r := range options {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}

	if inWord {
		args = append(args, current.String())
	}

	return args
}

// CommandLine renders args the way a shell user would type them.
func CommandLine(binary string, args []string) string {
	quoted := make([]string, 0, len(args)+1)
	for _, a := range append([]string{binary}, args...) {
		if a == "" || strings.ContainsAny(a, " \t\n\"'&;|()<>$%") {
			a = strconv.Quote(a)
		}
		quoted = append(quoted, a)
	}
	return strings.Join(quoted, " ")
}
