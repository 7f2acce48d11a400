package handlers

import (
	"github.com/kinshiphq/backend/internal/models"
)

// collectRelevantReplies filters the flat reply set down to replies reachable
// from the given top-level comments. The parent of a reply may itself be a
// reply that has not been accepted yet, so the scan repeats until a full pass
// adds nothing. Replies whose ancestry never reaches an accepted comment
// (orphans, or descendants of a deleted comment) are dropped.
func collectRelevantReplies(topLevel []*models.Comment, replies []*models.Comment) []*models.Comment {
	accepted := make(map[string]bool, len(topLevel))
	for _, c := range topLevel {
		accepted[c.ID] = true
	}

	taken := make(map[string]bool, len(replies))
	var relevant []*models.Comment

	for {
		added := false
		for _, r := range replies {
			if taken[r.ID] || r.ParentID == nil {
				continue
			}
			if accepted[*r.ParentID] {
				taken[r.ID] = true
				accepted[r.ID] = true
				relevant = append(relevant, r)
				added = true
			}
		}
		if !added {
			break
		}
	}

	return relevant
}

// buildReplyTree attaches each relevant reply to its parent's Replies slice.
// The input order is the query order (created_at ascending), so every level
// of the resulting tree stays chronological without re-sorting.
func buildReplyTree(topLevel []*models.Comment, relevant []*models.Comment) {
	byParent := make(map[string][]*models.Comment, len(relevant))
	for _, r := range relevant {
		byParent[*r.ParentID] = append(byParent[*r.ParentID], r)
	}

	for _, c := range topLevel {
		attachReplies(c, byParent)
	}
}

func attachReplies(c *models.Comment, byParent map[string][]*models.Comment) {
	children := byParent[c.ID]
	if len(children) == 0 {
		return
	}
	c.Replies = children
	for _, child := range children {
		attachReplies(child, byParent)
	}
}
