// Package labels resolves human-entered color and icon labels (e.g. "青",
// "電話") into the tokens the console renders with.
package labels

import (
	"maps"
	"strings"

	"github.com/kazukitoyoda1215-max/Supporton/internal/tabular"
)

// ColorPrefix marks a resolved value as a color token.
const ColorPrefix = "bg-"

// Column aliases accepted in the label-override sheet.
var (
	LabelColumns = []string{"ラベル", "名称", "キー", "label", "display-name", "key"}
	ValueColumns = []string{"値", "システム値", "コード", "value", "system-value", "code"}
)

var defaultColors = map[string]string{
	"青": "bg-blue-500", "ブルー": "bg-blue-500", "blue": "bg-blue-500",
	"赤": "bg-red-500", "レッド": "bg-red-500", "red": "bg-red-500",
	"ピンク": "bg-pink-500", "pink": "bg-pink-500",
	"緑": "bg-green-500", "グリーン": "bg-green-500", "green": "bg-green-500",
	"黄": "bg-yellow-500", "イエロー": "bg-yellow-500",
}

var defaultIcons = map[string]string{
	"電話": "Phone", "phone": "Phone", "スマホ": "Smartphone",
	"電気": "Zap", "zap": "Zap", "ガス": "Flame", "gas": "Flame",
	"水": "Droplet", "水道": "Droplet", "wifi": "Wifi", "回線": "Wifi",
	"PC": "Monitor", "ヘルプ": "HelpCircle", "チェック": "CheckCircle",
	"注意": "AlertCircle", "警告": "AlertTriangle", "ホーム": "Home",
	"設定": "Settings", "検索": "Search", "リンク": "ExternalLink",
}

// Mapping is the effective label lookup.
type Mapping struct {
	Colors map[string]string
	Icons  map[string]string
}

// Defaults returns a fresh copy of the built-in mapping.
func Defaults() Mapping {
	return Mapping{Colors: maps.Clone(defaultColors), Icons: maps.Clone(defaultIcons)}
}

// Resolve overlays override rows onto the defaults. Rows missing a label or a
// value are ignored. A nil slice yields the defaults.
func Resolve(records []tabular.Record) Mapping {
	m := Defaults()
	for _, rec := range records {
		label := strings.TrimSpace(rec.First(LabelColumns...))
		value := strings.TrimSpace(rec.First(ValueColumns...))
		if label == "" || value == "" {
			continue
		}
		if strings.HasPrefix(value, ColorPrefix) {
			m.Colors[label] = value
		} else {
			m.Icons[label] = value
		}
	}
	return m
}

// Color resolves a color label. Unmapped labels pass through trimmed; an empty
// label yields "".
func (m Mapping) Color(label string) string {
	return lookup(m.Colors, label)
}

// Icon resolves an icon label the same way as Color.
func (m Mapping) Icon(label string) string {
	return lookup(m.Icons, label)
}

func lookup(table map[string]string, label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	if v, ok := table[label]; ok && v != "" {
		return v
	}
	return label
}
