package flow

import "github.com/kazukitoyoda1215-max/Supporton/internal/models"

// Resolve descends from root through children matching each id of path in
// turn. It returns nil as soon as an id is missing at its level. An empty path
// resolves to root.
func Resolve(root *models.FlowNode, path []string) *models.FlowNode {
	current := root
	for _, id := range path {
		current = child(current, id)
		if current == nil {
			return nil
		}
	}
	return current
}

// Breadcrumbs returns the nodes resolved along path, stopping at the first id
// that does not match. The root itself is not included.
func Breadcrumbs(root *models.FlowNode, path []string) []*models.FlowNode {
	crumbs := make([]*models.FlowNode, 0, len(path))
	current := root
	for _, id := range path {
		current = child(current, id)
		if current == nil {
			break
		}
		crumbs = append(crumbs, current)
	}
	return crumbs
}

// JumpTo truncates path so that it ends at id. Jumping to the root or to an id
// not on the path yields an empty path.
func JumpTo(path []string, id string) []string {
	for i, p := range path {
		if p == id {
			return append([]string(nil), path[:i+1]...)
		}
	}
	return []string{}
}

// Walk visits the tree depth-first, parents before children, passing the id
// path from the root to each node. Returning false skips the node's children.
func Walk(root *models.FlowNode, fn func(n *models.FlowNode, path []string) bool) {
	var visit func(n *models.FlowNode, path []string)
	visit = func(n *models.FlowNode, path []string) {
		if !fn(n, path) {
			return
		}
		for _, c := range n.Children {
			visit(c, append(path[:len(path):len(path)], c.ID))
		}
	}
	if root != nil {
		visit(root, []string{})
	}
}

func child(n *models.FlowNode, id string) *models.FlowNode {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.ID == id {
			return c
		}
	}
	return nil
}
