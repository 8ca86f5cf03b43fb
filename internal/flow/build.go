package flow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kazukitoyoda1215-max/Supporton/internal/labels"
	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
)

// ErrAmbiguousParent is matched by every *AmbiguousParentError.
var ErrAmbiguousParent = errors.New("flow: ambiguous parent")

// AmbiguousParentError reports a parent reference matching several nodes.
type AmbiguousParentError struct {
	RowIndex   int
	Child      string
	Parent     string
	Candidates int
}

func (e *AmbiguousParentError) Error() string {
	return fmt.Sprintf("flow: row %d %q: parent %q matches %d rows; parent titles must be unique",
		e.RowIndex, e.Child, e.Parent, e.Candidates)
}

// Is makes errors.Is(err, ErrAmbiguousParent) work.
func (e *AmbiguousParentError) Is(target error) bool {
	return target == ErrAmbiguousParent
}

// WarningKind classifies non-fatal build findings.
type WarningKind string

const (
	// WarnOrphan marks a node whose parent title matched nothing; it was attached to the root.
	WarnOrphan WarningKind = "orphan"
	// WarnSkipped marks a row dropped for failing validation.
	WarnSkipped WarningKind = "skipped"
	// WarnUnreachable marks a node caught in a parent cycle and therefore not reachable from the root.
	WarnUnreachable WarningKind = "unreachable"
)

// Warning is a non-fatal finding from Build.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	RowIndex int         `json:"row"`
	Title    string      `json:"title,omitempty"`
	Parent   string      `json:"parent,omitempty"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: row %d %q (parent %q)", w.Kind, w.RowIndex, w.Title, w.Parent)
}

// Result is the output of Build.
type Result struct {
	Root     *models.FlowNode
	Warnings []Warning
	// Nodes is the number of materialized rows.
	Nodes int
}

// rootMarkers are parent values that mean "attach to the root".
var rootMarkers = map[string]struct{}{
	"":     {},
	"root": {},
	"ルート":  {},
	"-":    {},
}

// NodeID returns the synthetic id for a row: title + "_" + row index.
func NodeID(title string, index int) string {
	return title + "_" + strconv.Itoa(index)
}

// Build turns flat rows into a rooted tree. Rows keep their relative order as
// sibling order. Title and Parent are matched after trimming. A parent reference matching more than one row fails the whole
// build; one matching nothing attaches the row to the root with a warning.
func Build(rows []Row, m labels.Mapping) (*Result, error) {
	type entry struct {
		row  Row
		node *models.FlowNode
	}

	res := &Result{}
	entries := make([]entry, 0, len(rows))
	byTitle := make(map[string][]*models.FlowNode)

	for _, row := range rows {
		row.Title = strings.TrimSpace(row.Title)
		row.Parent = strings.TrimSpace(row.Parent)
		if err := row.Validate(); err != nil {
			res.Warnings = append(res.Warnings, Warning{Kind: WarnSkipped, RowIndex: row.Index, Parent: row.Parent})
			continue
		}
		node := &models.FlowNode{
			ID:          NodeID(row.Title, row.Index),
			Title:       row.Title,
			Content:     row.Content,
			Template:    row.Template,
			Icon:        m.Icon(row.Icon),
			Color:       m.Color(row.Color),
			Description: row.Description,
			Children:    []*models.FlowNode{},
		}
		entries = append(entries, entry{row: row, node: node})
		byTitle[row.Title] = append(byTitle[row.Title], node)
	}

	root := models.NewRoot()
	for _, e := range entries {
		if _, ok := rootMarkers[e.row.Parent]; ok {
			root.Children = append(root.Children, e.node)
			continue
		}
		candidates := byTitle[e.row.Parent]
		switch len(candidates) {
		case 0:
			res.Warnings = append(res.Warnings, Warning{
				Kind: WarnOrphan, RowIndex: e.row.Index, Title: e.row.Title, Parent: e.row.Parent,
			})
			root.Children = append(root.Children, e.node)
		case 1:
			candidates[0].Children = append(candidates[0].Children, e.node)
		default:
			return nil, &AmbiguousParentError{
				RowIndex:   e.row.Index,
				Child:      e.row.Title,
				Parent:     e.row.Parent,
				Candidates: len(candidates),
			}
		}
	}

	// Each node has exactly one parent, so a parent cycle can never be entered
	// from the root. Such nodes are dropped from the snapshot; report them.
	reachable := make(map[*models.FlowNode]struct{}, len(entries))
	Walk(root, func(n *models.FlowNode, _ []string) bool {
		reachable[n] = struct{}{}
		return true
	})
	for _, e := range entries {
		if _, ok := reachable[e.node]; !ok {
			res.Warnings = append(res.Warnings, Warning{
				Kind: WarnUnreachable, RowIndex: e.row.Index, Title: e.row.Title, Parent: e.row.Parent,
			})
		}
	}

	res.Root = root
	res.Nodes = len(entries)
	return res, nil
}
