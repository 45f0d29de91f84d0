// Package model defines the core data structures for ytcomments.
package model

import (
	"strings"
)

// AuthorMissing is shown in place of an empty author name.
const AuthorMissing = "Author Missing"

// Comment is a single comment or reply record, and a node in the comment forest.
//
// The exported fields mirror the downloader's JSON record. A comment owns its
// replies in order; the owner pointer is a non-owning back reference that is set
// by Add and cleared by Remove, RemoveFunc and Clear.
type Comment struct {
	ID               string `json:"id"`
	Parent           string `json:"parent"`
	Text             string `json:"text"`
	LikeCount        int    `json:"like_count"`
	Author           string `json:"author"`
	AuthorIsUploader bool   `json:"author_is_uploader"`
	AuthorURL        string `json:"author_url"`
	IsFavorited      bool   `json:"is_favorited"`
	TimeText         string `json:"_time_text"`
	IsPinned         bool   `json:"is_pinned"`

	CommentNumber int  `json:"-"`
	ReplyNumber   int  `json:"-"`
	IsHighlighted bool `json:"-"`

	owner   *Comment
	replies []*Comment
}

// IsTopLevel returns true if the comment has no parent.
func (c *Comment) IsTopLevel() bool {
	return c.Parent == "" || c.Parent == "root"
}

// IsReply returns true if the comment references a parent comment.
func (c *Comment) IsReply() bool {
	return !c.IsTopLevel()
}

// AuthorIsYouTube reports whether the comment was written by the platform account.
func (c *Comment) AuthorIsYouTube() bool {
	return c.Author == "@YouTube"
}

// DisplayAuthor returns the author name, or AuthorMissing when there is none.
func (c *Comment) DisplayAuthor() string {
	if c.Author == "" {
		return AuthorMissing
	}
	return c.Author
}

// Owner returns the comment this comment is currently attached to, or nil.
func (c *Comment) Owner() *Comment {
	return c.owner
}

// Replies returns the ordered replies. The slice must not be modified by callers.
func (c *Comment) Replies() []*Comment {
	return c.replies
}

// Len returns the number of direct replies.
func (c *Comment) Len() int {
	return len(c.replies)
}

// Add appends a reply and makes this comment its owner.
// A reply that is attached elsewhere is detached first.
func (c *Comment) Add(reply *Comment) {
	if reply.owner != nil {
		reply.owner.Remove(reply)
	}
	c.replies = append(c.replies, reply)
	reply.owner = c
}

// Remove detaches a direct reply. It returns false if reply is not a direct reply.
func (c *Comment) Remove(reply *Comment) bool {
	for i, r := range c.replies {
		if r == reply {
			c.replies = append(c.replies[:i], c.replies[i+1:]...)
			reply.owner = nil
			return true
		}
	}
	return false
}

// RemoveFunc detaches every direct reply for which match returns true
// and returns how many were removed.
func (c *Comment) RemoveFunc(match func(*Comment) bool) int {
	kept := c.replies[:0]
	removed := 0
	for _, r := range c.replies {
		if match(r) {
			r.owner = nil
			removed++
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(c.replies); i++ {
		c.replies[i] = nil
	}
	c.replies = kept
	return removed
}

// Clear detaches all replies.
func (c *Comment) Clear() {
	for _, r := range c.replies {
		r.owner = nil
	}
	c.replies = nil
}

// SubtreeSize returns the number of comments in this comment's subtree, itself included.
func (c *Comment) SubtreeSize() int {
	n := 1
	for _, r := range c.replies {
		n += r.SubtreeSize()
	}
	return n
}

// Walk visits the comment and its replies depth-first, in order.
// Walking stops at a subtree when fn returns false.
func (c *Comment) Walk(fn func(*Comment) bool) {
	if !fn(c) {
		return
	}
	for _, r := range c.replies {
		r.Walk(fn)
	}
}

// Compare orders comments by id. Ids are unique, so this is a strict total order.
func (c *Comment) Compare(other *Comment) int {
	return strings.Compare(c.ID, other.ID)
}

// VideoInfo is the metadata of the video the comments belong to.
type VideoInfo struct {
	Title       string `json:"title"`
	Uploader    string `json:"uploader,omitempty"`
	UploaderID  string `json:"uploader_id,omitempty"`
	UploaderURL string `json:"uploader_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// String returns the non-empty fields one per line, description last.
func (v *VideoInfo) String() string {
	var sb strings.Builder
	for _, s := range []string{v.Title, v.Uploader, v.UploaderID, v.UploaderURL} {
		if s != "" {
			sb.WriteString(s)
			sb.WriteString("\n")
		}
	}
	if v.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(v.Description)
		sb.WriteString("\n")
	}
	return sb.String()
}

// DisplayUploader returns the uploader name, falling back to the uploader id.
func (v *VideoInfo) DisplayUploader() string {
	if v.Uploader != "" {
		return v.Uploader
	}
	return v.UploaderID
}
