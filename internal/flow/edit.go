package flow

import (
	"fmt"
	"strings"

	"github.com/kazukitoyoda1215-max/Supporton/internal/apperr"
	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
)

// AddChild returns a copy of root with a new node titled title appended to the
// children of the node at path.
func AddChild(root *models.FlowNode, path []string, id, title string) (*models.FlowNode, *models.FlowNode, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil, fmt.Errorf("flow: add child: title is required: %w", apperr.ErrInvalid)
	}
	next := root.Clone()
	parent := Resolve(next, path)
	if parent == nil {
		return nil, nil, fmt.Errorf("flow: add child: path %v: %w", path, apperr.ErrNotFound)
	}
	node := &models.FlowNode{ID: id, Title: title, Children: []*models.FlowNode{}}
	parent.Children = append(parent.Children, node)
	return next, node, nil
}

// SetContent returns a copy of root with content and template replaced on the
// node at path. The root itself carries no content.
func SetContent(root *models.FlowNode, path []string, content, template string) (*models.FlowNode, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("flow: set content: root has no content: %w", apperr.ErrInvalid)
	}
	next := root.Clone()
	node := Resolve(next, path)
	if node == nil {
		return nil, fmt.Errorf("flow: set content: path %v: %w", path, apperr.ErrNotFound)
	}
	node.Content = content
	node.Template = template
	return next, nil
}

// DeleteChild returns a copy of root without childID under the node parentID,
// which may sit anywhere in the tree.
func DeleteChild(root *models.FlowNode, parentID, childID string) (*models.FlowNode, error) {
	next := root.Clone()
	var parent *models.FlowNode
	Walk(next, func(n *models.FlowNode, _ []string) bool {
		if parent != nil {
			return false
		}
		if n.ID == parentID {
			parent = n
			return false
		}
		return true
	})
	if parent == nil {
		return nil, fmt.Errorf("flow: delete: parent %q: %w", parentID, apperr.ErrNotFound)
	}
	kept := parent.Children[:0]
	found := false
	for _, c := range parent.Children {
		if c.ID == childID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return nil, fmt.Errorf("flow: delete: child %q of %q: %w", childID, parentID, apperr.ErrNotFound)
	}
	parent.Children = kept
	return next, nil
}
