// Package tree turns a flat comment list into an ordered, threaded, filtered
// and numbered comment forest.
package tree

import (
	"github.com/robertmeta/ytcomments/commenttext"
	"github.com/robertmeta/ytcomments/model"
)

// Forest is the result of processing a comment list.
type Forest struct {
	// Comments are the surviving top-level comments in order.
	Comments []*model.Comment

	// Total is the number of records that were loaded.
	Total int

	// Kept is the number of comments in the forest, replies included.
	Kept int

	// UploaderID is the author of the first comment written by the uploader.
	UploaderID string

	// HasYouTube is set when the platform account commented.
	HasYouTube bool

	// Roster holds the distinct authors of all loaded records.
	Roster *commenttext.Roster
}

// Discarded returns the number of loaded comments that did not make it into
// the forest.
func (f *Forest) Discarded() int {
	return f.Total - f.Kept
}

// Process builds the forest: replies are attached to their top-level comment
// (or dropped when settings hide replies), re-threaded, filtered, and finally
// numbered and highlighted.
func Process(comments []*model.Comment, settings *model.Settings) *Forest {
	f := &Forest{Total: len(comments)}

	authors := make([]string, 0, len(comments))
	for _, c := range comments {
		if f.UploaderID == "" && c.AuthorIsUploader {
			f.UploaderID = c.Author
		}
		if c.AuthorIsYouTube() {
			f.HasYouTube = true
		}
		authors = append(authors, c.Author)
	}
	f.Roster = commenttext.NewRoster(authors)

	if settings.HideReplies {
		f.Comments = TopLevel(comments)
	} else {
		f.Comments = Build(comments)
	}

	if !settings.DisableThreading {
		Thread(f.Comments)
	}

	f.Comments = Filter(f.Comments, settings.FilterItems())

	f.Kept = Enumerate(f.Comments, settings.HighlightItems())

	return f
}

// TopLevel returns the top-level comments, dropping every reply.
func TopLevel(comments []*model.Comment) []*model.Comment {
	var top []*model.Comment
	for _, c := range comments {
		if c.IsTopLevel() {
			top = append(top, c)
		}
	}
	return top
}

// Build attaches every reply to the top-level comment it names as parent, in
// the original order, and returns the top-level comments. Replies whose parent
// is not a top-level comment of the list are dropped.
func Build(comments []*model.Comment) []*model.Comment {
	top := TopLevel(comments)

	byID := make(map[string]*model.Comment, len(top))
	for _, c := range top {
		if _, ok := byID[c.ID]; !ok {
			byID[c.ID] = c
		}
	}

	for _, c := range comments {
		if !c.IsReply() {
			continue
		}
		if parent, ok := byID[c.Parent]; ok {
			parent.Add(c)
		}
	}

	return top
}

// Enumerate numbers the forest and evaluates the highlight items against every
// comment. Top-level comments are numbered from 1; within a tree, replies are
// numbered depth-first from 1 with the top-level comment as 0. It returns the
// number of comments in the forest.
func Enumerate(forest []*model.Comment, highlight []model.SearchItem) int {
	count := 0
	for i, top := range forest {
		replyNumber := 0
		top.Walk(func(c *model.Comment) bool {
			c.CommentNumber = i + 1
			c.ReplyNumber = replyNumber
			replyNumber++
			count++

			c.IsHighlighted = false
			for _, item := range highlight {
				if item.Match(c) {
					c.IsHighlighted = true
					break
				}
			}
			return true
		})
	}
	return count
}

// Size returns the number of comments in the forest, replies included.
func Size(forest []*model.Comment) int {
	n := 0
	for _, c := range forest {
		n += c.SubtreeSize()
	}
	return n
}
