package tree

import (
	"github.com/robertmeta/ytcomments/commenttext"
	"github.com/robertmeta/ytcomments/model"
)

// Thread re-parents replies to the earlier reply they answer. A reply that
// starts with an @mention is moved under the nearest earlier sibling written
// by that author. Author names are compared ignoring diacritics but not case.
func Thread(forest []*model.Comment) {
	for _, top := range forest {
		if top.Len() > 0 {
			ThreadReplies(top)
		}
	}
}

// ThreadReplies threads the direct replies of one top-level comment.
func ThreadReplies(top *model.Comment) {
	type move struct {
		reply  *model.Comment
		parent *model.Comment
	}

	replies := top.Replies()

	// Matches are found on the original order before anything is moved
	var moves []move
	for i, reply := range replies {
		replied, ok := commenttext.RepliedAuthor(reply.Text)
		if !ok {
			continue
		}

		name := model.Fold(replied.Name, false)
		for j := i - 1; j >= 0; j-- {
			if model.Fold(replies[j].Author, false) == name {
				moves = append(moves, move{reply: reply, parent: replies[j]})
				break
			}
		}
	}

	for _, m := range moves {
		m.parent.Add(m.reply)
	}
}
