package mcpserver

// SheetFormatGuide describes the spreadsheet layouts the console syncs from.
// LLM consumers should read it before drafting or fixing a sheet.
const SheetFormatGuide = `# Supporton Sheet Format

Sheets are published to the web as CSV. The first row is the header; column
names may be Japanese or English. Blank lines are ignored.

## Flow sheet

| Column | Aliases | Required | Meaning |
|---|---|---|---|
| タイトル | title | yes | Button label. The same title may appear on several rows. |
| 親カテゴリ | parent, parent-category | no | Title of the parent row. Empty, ` + "`root`" + `, ` + "`ルート`" + ` or ` + "`-`" + ` puts the row at the top level. |
| 本文 | body, content | no | Script or procedure. A row with a body is an answer page. |
| テンプレート | template | no | Text agents copy with one click. |
| 色 | color | no | Label such as 青, 赤, ピンク, or a ` + "`bg-`" + ` token. |
| アイコン | icon | no | Label such as 電話, 回線, 水, ガス. |
| 説明 | 補足, description, supplement | no | Short note shown under the button. |

### Rules

1. **Titles used as a parent must be unique.** If a parent value matches more
   than one row the whole sync is rejected and the previous tree stays live.
2. **Titles never used as a parent may repeat.** Each row gets its own id
   (` + "`title_row`" + `, row counted from 0 after the header).
3. **Unknown parents** are attached to the top level and reported as warnings.
4. **Sibling order** follows row order.
5. Rows with an empty title are skipped.

### Example

` + "```" + `csv
タイトル,親カテゴリ,本文,色
ネット回線,-,,青
キャンセル,ネット回線,解約手順は...,赤
電気サービス,,,青
キャンセル,電気サービス,電気の解約は...,赤
` + "```" + `

Both キャンセル rows are valid because their parents differ.

## Label sheet (optional)

Two columns mapping a label to a color or icon value. Label column: ラベル,
名称, キー, label, display-name or key. Value column: 値, システム値, コード,
value, system-value or code. Values starting with ` + "`bg-`" + ` are colors; anything
else is an icon name. Entries override the built-in labels.

## Phone sheet

Columns ` + "`id`" + `, ` + "`number`" + ` (電話番号), ` + "`name`" + ` (名称), ` + "`note`" + ` (備考) and ` + "`type`" + `
(` + "`safe`" + `, ` + "`warning`" + ` or ` + "`danger`" + `; anything else is ` + "`safe`" + `). A sheet with no
data rows is rejected.
`
