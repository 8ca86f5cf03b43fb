package flow

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
)

// Match is a search hit with the id path that navigates to it.
type Match struct {
	Node *models.FlowNode `json:"node"`
	Path []string         `json:"path"`
}

// Search returns nodes whose title fuzzily matches query (case-insensitive),
// in tree order. The root never matches.
func Search(root *models.FlowNode, query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	var out []Match
	Walk(root, func(n *models.FlowNode, path []string) bool {
		if len(path) > 0 && fuzzy.MatchFold(query, n.Title) {
			out = append(out, Match{Node: n, Path: path})
		}
		return true
	})
	return out
}
