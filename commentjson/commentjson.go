// Package commentjson reads the downloader's comment list and writes processed
// comment forests as nested JSON.
package commentjson

import (
	"fmt"
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/robertmeta/ytcomments/commenttext"
	"github.com/robertmeta/ytcomments/model"
	"github.com/robertmeta/ytcomments/tree"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is the root of an exported forest.
type Document struct {
	Video     model.VideoInfo `json:"video"`
	URL       string          `json:"url,omitempty"`
	Generated string          `json:"generated"`
	Total     int             `json:"total"`
	Kept      int             `json:"kept"`
	Comments  []Node          `json:"comments"`
}

// Node is an exported comment with its replies.
type Node struct {
	ID            string `json:"id"`
	Parent        string `json:"parent"`
	Author        string `json:"author"`
	AuthorURL     string `json:"author_url,omitempty"`
	IsUploader    bool   `json:"author_is_uploader,omitempty"`
	Text          string `json:"text"`
	TimeText      string `json:"time_text,omitempty"`
	LikeCount     int    `json:"like_count"`
	IsPinned      bool   `json:"is_pinned,omitempty"`
	IsFavorited   bool   `json:"is_favorited,omitempty"`
	CommentNumber int    `json:"comment_number"`
	ReplyNumber   int    `json:"reply_number,omitempty"`
	IsHighlighted bool   `json:"highlighted,omitempty"`
	Replies       []Node `json:"replies,omitempty"`
}

// Parse reads a comment list. Comment text is normalized on the way in.
func Parse(r io.Reader) ([]*model.Comment, error) {
	var comments []*model.Comment
	if err := json.NewDecoder(r).Decode(&comments); err != nil {
		return nil, fmt.Errorf("failed to parse comments: %w", err)
	}

	// Skip null entries
	kept := comments[:0]
	for _, c := range comments {
		if c == nil {
			continue
		}
		c.Text = commenttext.Normalize(c.Text)
		kept = append(kept, c)
	}

	return kept, nil
}

// Load reads a comment list file.
func Load(path string) ([]*model.Comment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open comments file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Generate writes the forest as an indented JSON document.
func Generate(w io.Writer, forest *tree.Forest, video model.VideoInfo, url string) error {
	doc := Document{
		Video:     video,
		URL:       url,
		Generated: time.Now().UTC().Format(time.RFC3339),
		Total:     forest.Total,
		Kept:      forest.Kept,
		Comments:  nodes(forest.Comments),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode comments: %w", err)
	}

	return nil
}

func nodes(comments []*model.Comment) []Node {
	out := make([]Node, 0, len(comments))
	for _, c := range comments {
		out = append(out, Node{
			ID:            c.ID,
			Parent:        c.Parent,
			Author:        c.Author,
			AuthorURL:     c.AuthorURL,
			IsUploader:    c.AuthorIsUploader,
			Text:          c.Text,
			TimeText:      c.TimeText,
			LikeCount:     c.LikeCount,
			IsPinned:      c.IsPinned,
			IsFavorited:   c.IsFavorited,
			CommentNumber: c.CommentNumber,
			ReplyNumber:   c.ReplyNumber,
			IsHighlighted: c.IsHighlighted,
			Replies:       nodes(c.Replies()),
		})
	}
	return out
}
