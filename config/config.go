// Package config loads the optional YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robertmeta/ytcomments/model"
	"github.com/robertmeta/ytcomments/store"
)

// Environment variables that override the default locations.
const (
	EnvConfig   = "YTCOMMENTS_CONFIG"
	EnvDatabase = "YTCOMMENTS_DB"
)

// File is the content of a configuration file. Settings keys sit at the top
// level next to the keys below.
type File struct {
	model.Settings `yaml:",inline"`

	// Database is the path of the history database.
	Database string `yaml:"database"`

	// VideoCacheTTL bounds how long cached video metadata is used, in the
	// history format: "12h", "7d", "2w", "3m" or "1y".
	VideoCacheTTL string `yaml:"video_cache_ttl"`

	Search []Search `yaml:"search"`
}

// Search is a search item as written in the file.
type Search struct {
	// Kind is one of uploader, author or text.
	Kind       string `yaml:"kind"`
	Value      string `yaml:"value"`
	IgnoreCase bool   `yaml:"ignore_case"`
	Highlight  bool   `yaml:"highlight"`
	Filter     bool   `yaml:"filter"`
}

// DefaultPath returns $YTCOMMENTS_CONFIG, or config.yaml under
// ~/.config/ytcomments.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ytcomments", "config.yaml")
}

// DefaultDatabasePath returns $YTCOMMENTS_DB, or ytcomments.db under
// ~/.local/share/ytcomments.
func DefaultDatabasePath() string {
	if p := os.Getenv(EnvDatabase); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "ytcomments.db"
	}
	return filepath.Join(home, ".local", "share", "ytcomments", "ytcomments.db")
}

// Load reads a configuration file. A missing file yields an empty
// configuration when optional is set.
func Load(path string, optional bool) (*File, error) {
	f := &File{}
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if _, err := f.CacheTTL(); err != nil {
		return nil, err
	}
	if _, err := f.SearchItems(); err != nil {
		return nil, err
	}

	return f, nil
}

// CacheTTL parses VideoCacheTTL. An empty value means no expiry.
func (f *File) CacheTTL() (time.Duration, error) {
	if f.VideoCacheTTL == "" {
		return 0, nil
	}
	d, err := store.ParseDuration(f.VideoCacheTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid video_cache_ttl: %w", err)
	}
	return d, nil
}

// SearchItems converts the search entries.
func (f *File) SearchItems() ([]model.SearchItem, error) {
	var items []model.SearchItem
	for i, s := range f.Search {
		flags := model.NewSearchFlags(s.Highlight, s.Filter)
		if !flags.IsHighlight && !flags.IsFilter {
			return nil, fmt.Errorf("search entry %d: neither highlight nor filter is set", i+1)
		}

		switch strings.ToLower(s.Kind) {
		case "uploader":
			items = append(items, model.UploaderSearch{SearchFlags: flags})
		case "author":
			if s.Value == "" {
				return nil, fmt.Errorf("search entry %d: author is empty", i+1)
			}
			items = append(items, model.AuthorSearch{SearchFlags: flags, Author: s.Value, IgnoreCase: s.IgnoreCase})
		case "text":
			if s.Value == "" {
				return nil, fmt.Errorf("search entry %d: text is empty", i+1)
			}
			items = append(items, model.TextSearch{SearchFlags: flags, Text: s.Value, IgnoreCase: s.IgnoreCase})
		default:
			return nil, fmt.Errorf("search entry %d: unknown kind %q", i+1, s.Kind)
		}
	}
	return items, nil
}
