package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Layout bounds and defaults.
const (
	IndentMinSize     = 2
	IndentMaxSize     = 10
	DefaultIndentSize = 4

	TextLineMinLength         = 80
	TextLineMaxLength         = 320
	DefaultTextLineLength     = 120
	DefaultHTMLTextLineLength = 150
)

var (
	ErrJSONFileRequired     = errors.New("JSON file is required")
	ErrNotJSONFile          = errors.New("file is not a JSON file")
	ErrURLRequired          = errors.New("URL is required")
	ErrYtDlpRequired        = errors.New("yt-dlp path is required")
	ErrDownloadPathRequired = errors.New("download path is required")
	ErrIndentSize           = errors.New("indent size out of range")
	ErrLineLength           = errors.New("text line length out of range")
	ErrTrimTitle            = errors.New("trim title out of range")
	ErrMaxComments          = errors.New("maximum comment counts must not be negative")
)

// Settings holds every option of a conversion run. It is not modified once
// a run starts.
type Settings struct {
	Download bool `yaml:"-"`

	// Convert
	JSONFile string `yaml:"json_file"`

	// Download
	DownloadPath         string `yaml:"download_path"`
	MaxComments          *int   `yaml:"max_comments"`
	MaxParents           *int   `yaml:"max_parents"`
	MaxReplies           *int   `yaml:"max_replies"`
	MaxRepliesPerThread  *int   `yaml:"max_replies_per_thread"`
	SortNew              bool   `yaml:"sort_new"`
	SortTop              bool   `yaml:"sort_top"`
	FilenameSanitization bool   `yaml:"filename_sanitization"`
	OnlyDownloadComments bool   `yaml:"only_download_comments"`
	RestrictFilenames    bool   `yaml:"restrict_filenames"`
	TrimTitle            *int   `yaml:"trim_title"`
	UpdateYtDlp          bool   `yaml:"update_yt_dlp"`
	WindowsFilenames     bool   `yaml:"windows_filenames"`
	YtDlpOptions         string `yaml:"yt_dlp_options"`

	// Shared
	URL                        string `yaml:"url"`
	YtDlp                      string `yaml:"yt_dlp"`
	ToHTML                     bool   `yaml:"to_html"`
	ToHTMLAndText              bool   `yaml:"to_html_and_text"`
	DarkTheme                  bool   `yaml:"dark_theme"`
	DeleteJSONFile             bool   `yaml:"delete_json_file"`
	DisableThreading           bool   `yaml:"disable_threading"`
	HideCommentSeparators      bool   `yaml:"hide_comment_separators"`
	HideHeader                 bool   `yaml:"hide_header"`
	HideLikes                  bool   `yaml:"hide_likes"`
	HideReplies                bool   `yaml:"hide_replies"`
	HideTime                   bool   `yaml:"hide_time"`
	HideVideoDescription       bool   `yaml:"hide_video_description"`
	IndentSize                 *int   `yaml:"indent_size"`
	ShowCommentLink            bool   `yaml:"show_comment_link"`
	ShowCommentNavigationLinks bool   `yaml:"show_comment_navigation_links"`
	ShowCopyLinks              bool   `yaml:"show_copy_links"`
	TextLineLength             *int   `yaml:"text_line_length"`

	SearchItems []SearchItem `yaml:"-"`
}

// Validate checks the required inputs of the selected mode and the numeric
// options against their bounds. It does not touch the file system.
func (s *Settings) Validate() error {
	if s.Download {
		if s.URL == "" {
			return ErrURLRequired
		}
		if s.YtDlp == "" {
			return ErrYtDlpRequired
		}
		if s.DownloadPath == "" {
			return ErrDownloadPathRequired
		}
	} else {
		if s.JSONFile == "" {
			return ErrJSONFileRequired
		}
		if !strings.EqualFold(filepath.Ext(s.JSONFile), ".json") {
			return fmt.Errorf("%w: %s", ErrNotJSONFile, s.JSONFile)
		}
	}

	if s.IndentSize != nil {
		if *s.IndentSize < IndentMinSize || *s.IndentSize > IndentMaxSize {
			return fmt.Errorf("%w: %d (must be between %d and %d characters)", ErrIndentSize, *s.IndentSize, IndentMinSize, IndentMaxSize)
		}
	}

	if s.TextLineLength != nil {
		if *s.TextLineLength < TextLineMinLength || *s.TextLineLength > TextLineMaxLength {
			return fmt.Errorf("%w: %d (must be between %d and %d characters)", ErrLineLength, *s.TextLineLength, TextLineMinLength, TextLineMaxLength)
		}
	}

	if s.Download && s.TrimTitle != nil && *s.TrimTitle < 1 {
		return fmt.Errorf("%w: %d (minimum length is 1 character)", ErrTrimTitle, *s.TrimTitle)
	}

	for _, n := range []*int{s.MaxComments, s.MaxParents, s.MaxReplies, s.MaxRepliesPerThread} {
		if n != nil && *n < 0 {
			return ErrMaxComments
		}
	}

	return nil
}

// WritesText reports whether a text transcript is produced.
func (s *Settings) WritesText() bool {
	return s.ToHTMLAndText || !s.ToHTML
}

// WritesHTML reports whether an HTML transcript is produced.
func (s *Settings) WritesHTML() bool {
	return s.ToHTMLAndText || s.ToHTML
}

// IndentSizeFor returns the indentation size for the given output mode.
func (s *Settings) IndentSizeFor(html bool) int {
	if s.IndentSize != nil && *s.IndentSize >= IndentMinSize && *s.IndentSize <= IndentMaxSize {
		return *s.IndentSize
	}
	return DefaultIndentSize
}

// TextLineLengthFor returns the line length for the given output mode.
func (s *Settings) TextLineLengthFor(html bool) int {
	if s.TextLineLength != nil && *s.TextLineLength >= TextLineMinLength && *s.TextLineLength <= TextLineMaxLength {
		return *s.TextLineLength
	}
	if html {
		return DefaultHTMLTextLineLength
	}
	return DefaultTextLineLength
}

// HasFilter reports whether any search item is tagged as a filter.
func (s *Settings) HasFilter() bool {
	for _, item := range s.SearchItems {
		if item.Filter() {
			return true
		}
	}
	return false
}

// HighlightItems returns the search items tagged as highlight.
func (s *Settings) HighlightItems() []SearchItem {
	var items []SearchItem
	for _, item := range s.SearchItems {
		if item.Highlight() {
			items = append(items, item)
		}
	}
	return items
}

// FilterItems returns the search items tagged as filter.
func (s *Settings) FilterItems() []SearchItem {
	var items []SearchItem
	for _, item := range s.SearchItems {
		if item.Filter() {
			items = append(items, item)
		}
	}
	return items
}

// IntPtr returns a pointer to n. Handy for optional settings.
func IntPtr(n int) *int {
	return &n
}
