package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s with diacritics removed (e == é) and, when ignoreCase is set,
// with case folded. Author and text search items, and reply threading, all
// compare strings through Fold so they share one normalization policy.
func Fold(s string, ignoreCase bool) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	if ignoreCase {
		folded = cases.Fold().String(folded)
	}
	return folded
}

// EqualFold compares two strings through Fold.
func EqualFold(a, b string, ignoreCase bool) bool {
	return Fold(a, ignoreCase) == Fold(b, ignoreCase)
}

// SearchItem is a highlight and/or filter predicate over comments.
type SearchItem interface {
	// Highlight reports whether matching comments are highlighted.
	Highlight() bool
	// Filter reports whether matching comments keep their conversation.
	Filter() bool
	// Match reports whether the comment satisfies the predicate.
	Match(c *Comment) bool
}

// SearchFlags holds the highlight and filter tags of a search item.
type SearchFlags struct {
	IsHighlight bool `json:"highlight" yaml:"highlight"`
	IsFilter    bool `json:"filter" yaml:"filter"`
}

// Highlight implements SearchItem.
func (f SearchFlags) Highlight() bool { return f.IsHighlight }

// Filter implements SearchItem.
func (f SearchFlags) Filter() bool { return f.IsFilter }

// UploaderSearch matches comments written by the uploader of the video.
type UploaderSearch struct {
	SearchFlags
}

// Match implements SearchItem.
func (s UploaderSearch) Match(c *Comment) bool {
	return c.AuthorIsUploader
}

// AuthorSearch matches comments by author name, with or without the leading '@'.
type AuthorSearch struct {
	SearchFlags
	Author     string
	IgnoreCase bool
}

// Match implements SearchItem.
func (s AuthorSearch) Match(c *Comment) bool {
	if s.Author == "" {
		return false
	}

	alt := "@" + s.Author
	if strings.HasPrefix(s.Author, "@") {
		alt = s.Author[1:]
	}

	author := Fold(c.Author, s.IgnoreCase)
	return author == Fold(s.Author, s.IgnoreCase) || author == Fold(alt, s.IgnoreCase)
}

// TextSearch matches comments whose text contains a substring.
type TextSearch struct {
	SearchFlags
	Text       string
	IgnoreCase bool
}

// Match implements SearchItem.
func (s TextSearch) Match(c *Comment) bool {
	if s.Text == "" {
		return false
	}
	return strings.Contains(Fold(c.Text, s.IgnoreCase), Fold(s.Text, s.IgnoreCase))
}

// NewSearchFlags builds flags from a highlight/filter pair.
func NewSearchFlags(highlight, filter bool) SearchFlags {
	return SearchFlags{IsHighlight: highlight, IsFilter: filter}
}
