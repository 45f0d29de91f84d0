package tree

import (
	"slices"

	"github.com/robertmeta/ytcomments/model"
)

// Filter keeps the conversations that match any of the filter items. A
// matching comment keeps its whole ancestor chain up to the top-level comment;
// everything else is removed. Filter is a no-op when items is empty.
func Filter(forest []*model.Comment, items []model.SearchItem) []*model.Comment {
	if len(forest) == 0 || len(items) == 0 {
		return forest
	}

	var kept []*model.Comment
	for _, top := range forest {
		top.Walk(func(c *model.Comment) bool {
			if matchAny(c, items) {
				kept = append(kept, c)
			}
			return true
		})
	}

	// Add ancestors of matching replies. Duplicates are harmless for the lookups below.
	for _, c := range slices.Clone(kept) {
		for p := c.Owner(); p != nil; p = p.Owner() {
			kept = append(kept, p)
		}
	}

	slices.SortFunc(kept, (*model.Comment).Compare)

	isKept := func(c *model.Comment) bool {
		_, found := slices.BinarySearchFunc(kept, c, (*model.Comment).Compare)
		return found
	}

	forest = slices.DeleteFunc(forest, func(c *model.Comment) bool {
		return !isKept(c)
	})

	for _, top := range forest {
		removeUnkept(top, isKept)
	}

	return forest
}

func removeUnkept(c *model.Comment, isKept func(*model.Comment) bool) {
	c.RemoveFunc(func(r *model.Comment) bool {
		return !isKept(r)
	})
	for _, r := range c.Replies() {
		removeUnkept(r, isKept)
	}
}

func matchAny(c *model.Comment, items []model.SearchItem) bool {
	for _, item := range items {
		if item.Match(c) {
			return true
		}
	}
	return false
}
