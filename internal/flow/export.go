package flow

import (
	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
	"github.com/kazukitoyoda1215-max/Supporton/internal/tabular"
)

// ExportHeader is the column order of ExportCSV.
var ExportHeader = []string{"id", "parentId", "title", "content", "template"}

// ExportRow is one flattened node. The root is row 0 with an empty ParentID.
type ExportRow struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Template string `json:"template"`
}

// Export flattens the tree depth-first, each parent before its children.
func Export(root *models.FlowNode) []ExportRow {
	var rows []ExportRow
	var visit func(n *models.FlowNode, parentID string)
	visit = func(n *models.FlowNode, parentID string) {
		rows = append(rows, ExportRow{
			ID:       n.ID,
			ParentID: parentID,
			Title:    n.Title,
			Content:  n.Content,
			Template: n.Template,
		})
		for _, c := range n.Children {
			visit(c, n.ID)
		}
	}
	if root != nil {
		visit(root, "")
	}
	return rows
}

// ExportCSV encodes Export(root) as CSV with ExportHeader.
func ExportCSV(root *models.FlowNode) ([]byte, error) {
	rows := Export(root)
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{r.ID, r.ParentID, r.Title, r.Content, r.Template}
	}
	return tabular.Encode(ExportHeader, records)
}
