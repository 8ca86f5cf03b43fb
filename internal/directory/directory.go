// Package directory filters, decodes and exports the phone directory.
package directory

import (
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
	"github.com/kazukitoyoda1215-max/Supporton/internal/tabular"
)

// ExportHeader is the column order of ExportCSV.
var ExportHeader = []string{"id", "number", "name", "note", "type"}

// Filter returns the entries whose name or note contains query
// case-insensitively, or whose number contains it verbatim. An empty query
// returns entries unchanged.
func Filter(entries []models.PhoneEntry, query string) []models.PhoneEntry {
	if query == "" {
		return entries
	}
	lower := strings.ToLower(query)
	out := make([]models.PhoneEntry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Name), lower) ||
			strings.Contains(e.Number, lower) ||
			strings.Contains(strings.ToLower(e.Note), lower) {
			out = append(out, e)
		}
	}
	return out
}

// Validate requires a number and a name.
func Validate(e models.PhoneEntry) error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Number, validation.Required),
		validation.Field(&e.Name, validation.Required),
		validation.Field(&e.Type, validation.In(models.PhoneSafe, models.PhoneWarning, models.PhoneDanger)),
	)
}

// FromRecords decodes phone sheet records. A missing id falls back to the
// number, then to a timestamp unique within the batch.
func FromRecords(records []tabular.Record, now time.Time) []models.PhoneEntry {
	out := make([]models.PhoneEntry, 0, len(records))
	for i, rec := range records {
		number := rec.First("number", "電話番号")
		id := rec.First("id")
		if id == "" {
			id = number
		}
		if id == "" {
			id = strconv.FormatInt(now.UnixMilli(), 10) + "_" + strconv.Itoa(i)
		}
		out = append(out, models.PhoneEntry{
			ID:     id,
			Number: number,
			Name:   rec.First("name", "名称"),
			Note:   rec.First("note", "備考"),
			Type:   models.ParsePhoneType(rec["type"]),
		})
	}
	return out
}

// ExportCSV encodes entries with ExportHeader.
func ExportCSV(entries []models.PhoneEntry) ([]byte, error) {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.ID, e.Number, e.Name, e.Note, string(e.Type)}
	}
	return tabular.Encode(ExportHeader, rows)
}

// Seed returns the built-in directory installed on first local launch.
func Seed() []models.PhoneEntry {
	return []models.PhoneEntry{
		{ID: "ft_elec", Number: "050-1790-0165", Name: "FT発信（電気・ガス）", Note: "名乗り：すまえる", Type: models.PhoneSafe},
		{ID: "ft_net", Number: "050-1781-0028", Name: "FT（回線）", Note: "ファーストチーム担当窓口", Type: models.PhoneSafe},
		{ID: "sm_sto", Number: "050-5785-7954", Name: "すまえる（ストエネ）", Note: "担当窓口", Type: models.PhoneSafe},
		{ID: "sm_sup", Number: "050-5785-7964", Name: "すまえる（スマサポ・ベンダー・すま直）", Note: "担当窓口", Type: models.PhoneSafe},
		{ID: "sm_itn", Number: "050-5785-7963", Name: "すまえる（イタンジ）", Note: "担当窓口", Type: models.PhoneSafe},
		{ID: "itn_out_ap", Number: "050-5785-7984", Name: "イタンジ（AP発信）", Note: "現行の発信番号", Type: models.PhoneSafe},
		{ID: "itn_out_rusu1", Number: "050-5785-8001", Name: "イタンジ（長期留守）", Note: "長期留守時の発信番号", Type: models.PhoneSafe},
		{ID: "itn_out_rusu2", Number: "0800-080-4004", Name: "イタンジ（長期留守②）", Note: "長期留守時の発信番号②", Type: models.PhoneSafe},
	}
}
