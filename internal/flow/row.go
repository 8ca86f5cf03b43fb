// Package flow builds, navigates, edits and exports the call-handling tree.
//
// Every function here is pure: trees handed in are never mutated, edits
// return a new root.
package flow

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kazukitoyoda1215-max/Supporton/internal/tabular"
)

// Column aliases accepted in the flow sheet.
var (
	TitleColumns       = []string{"タイトル", "title"}
	ParentColumns      = []string{"親カテゴリ", "parent", "parent-category"}
	ContentColumns     = []string{"本文", "body", "content"}
	TemplateColumns    = []string{"テンプレート", "template"}
	IconColumns        = []string{"アイコン", "icon"}
	ColorColumns       = []string{"色", "color"}
	DescriptionColumns = []string{"説明", "補足", "description", "supplement"}
)

// Row is one validated line of the flow sheet.
type Row struct {
	// Index is the position in the decoded sheet, counting rows that are later
	// skipped. Node ids are derived from it.
	Index       int
	Title       string
	Parent      string
	Content     string
	Template    string
	Icon        string
	Color       string
	Description string
}

// Validate requires a title that is not blank after trimming.
func (r Row) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.By(notBlank)),
	)
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_title_blank", "title is required")
	}
	return nil
}

// RowsFromRecords maps decoded records onto Rows. Title and Parent are trimmed;
// body text fields are kept verbatim.
func RowsFromRecords(records []tabular.Record) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = Row{
			Index:       i,
			Title:       strings.TrimSpace(rec.First(TitleColumns...)),
			Parent:      strings.TrimSpace(rec.First(ParentColumns...)),
			Content:     rec.First(ContentColumns...),
			Template:    rec.First(TemplateColumns...),
			Icon:        rec.First(IconColumns...),
			Color:       rec.First(ColorColumns...),
			Description: rec.First(DescriptionColumns...),
		}
	}
	return rows
}
