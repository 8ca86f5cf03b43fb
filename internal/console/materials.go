package console

import (
	"strings"

	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
)

// Default framing of the materials message.
const (
	DefaultMaterialHeader = "お世話になっております。\n下記の資料をご確認ください。"
	DefaultMaterialFooter = "ご不明な点がございましたら、お気軽にお問い合わせください。"
)

// Materials is the catalog of documents agents can send.
type Materials struct {
	Header string
	Footer string
	Items  []models.Material
}

// Materials returns the catalog entries.
func (s *Service) Materials() []models.Material {
	if s.materials.Items == nil {
		return []models.Material{}
	}
	return s.materials.Items
}

// MaterialText composes a message listing the selected documents in catalog
// order. Unknown ids are ignored; an empty selection yields "".
func (s *Service) MaterialText(ids []string) string {
	selected := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		selected[id] = struct{}{}
	}
	var blocks []string
	for _, m := range s.materials.Items {
		if _, ok := selected[m.ID]; ok {
			blocks = append(blocks, "■ "+m.Name+"\n"+m.URL)
		}
	}
	if len(blocks) == 0 {
		return ""
	}

	header, footer := s.materials.Header, s.materials.Footer
	if header == "" {
		header = DefaultMaterialHeader
	}
	if footer == "" {
		footer = DefaultMaterialFooter
	}
	return header + "\n\n" + strings.Join(blocks, "\n\n") + "\n\n" + footer
}
