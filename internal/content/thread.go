package content

import "pulse/internal/models"

// Thread groups a post's flat comment list into a nested view by following
// parent ids. Order within each level is append order. A comment whose
// parent id matches nothing in the list is shown at the top level rather
// than dropped.
func Thread(comments []models.Comment) []models.CommentNode {
	byID := make(map[string]bool, len(comments))
	for _, c := range comments {
		byID[c.ID] = true
	}
	children := make(map[string][]models.Comment)
	var roots []models.Comment
	for _, c := range comments {
		if c.ParentID != "" && byID[c.ParentID] {
			children[c.ParentID] = append(children[c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}
	return build(roots, children)
}

func build(cs []models.Comment, children map[string][]models.Comment) []models.CommentNode {
	var nodes []models.CommentNode
	for _, c := range cs {
		nodes = append(nodes, models.CommentNode{
			Comment: c,
			Replies: build(children[c.ID], children),
		})
	}
	return nodes
}
