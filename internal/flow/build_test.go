package flow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazukitoyoda1215-max/Supporton/internal/labels"
	"github.com/kazukitoyoda1215-max/Supporton/internal/models"
	"github.com/kazukitoyoda1215-max/Supporton/internal/tabular"
)

func rows(specs ...[6]string) []Row {
	out := make([]Row, len(specs))
	for i, s := range specs {
		out[i] = Row{Index: i, Title: s[0], Parent: s[1], Content: s[2], Template: s[3], Icon: s[4], Color: s[5]}
	}
	return out
}

func titles(nodes []*models.FlowNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Title
	}
	return out
}

func TestBuild_RepeatedTitlesUnderDifferentParents(t *testing.T) {
	res, err := Build(rows(
		[6]string{"ネット回線", "", "", "", "", "青"},
		[6]string{"キャンセル", "ネット回線", "解約手順は...", "", "", "赤"},
		[6]string{"電気サービス", "", "", "", "", "青"},
		[6]string{"キャンセル", "電気サービス", "電気の解約は...", "", "", "赤"},
	), labels.Defaults())
	require.NoError(t, err)

	root := res.Root
	assert.Equal(t, models.RootID, root.ID)
	require.Equal(t, []string{"ネット回線", "電気サービス"}, titles(root.Children))

	net, elec := root.Children[0], root.Children[1]
	assert.Equal(t, "bg-blue-500", net.Color)
	require.Len(t, net.Children, 1)
	require.Len(t, elec.Children, 1)
	assert.Equal(t, "解約手順は...", net.Children[0].Content)
	assert.Equal(t, "電気の解約は...", elec.Children[0].Content)
	assert.Equal(t, "bg-red-500", net.Children[0].Color)
	assert.NotEqual(t, net.Children[0].ID, elec.Children[0].ID)
	assert.Equal(t, "キャンセル_1", net.Children[0].ID)
	assert.Equal(t, "キャンセル_3", elec.Children[0].ID)
	assert.Empty(t, res.Warnings)
}

func TestBuild_AmbiguousParentFails(t *testing.T) {
	res, err := Build(rows(
		[6]string{"キャンセル", "", "", "", "", ""},
		[6]string{"キャンセル", "", "", "", "", ""},
		[6]string{"違約金", "キャンセル", "", "", "", ""},
	), labels.Defaults())

	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrAmbiguousParent))
	var amb *AmbiguousParentError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, "違約金", amb.Child)
	assert.Equal(t, "キャンセル", amb.Parent)
	assert.Equal(t, 2, amb.Candidates)
	assert.Contains(t, err.Error(), "違約金")
	assert.Contains(t, err.Error(), "キャンセル")
}

func TestBuild_RootMarkersAndOrphans(t *testing.T) {
	res, err := Build(rows(
		[6]string{"A", "-", "", "", "", ""},
		[6]string{"B", "root", "", "", "", ""},
		[6]string{"C", "ルート", "", "", "", ""},
		[6]string{"D", "存在しない", "", "", "", ""},
		[6]string{"E", "A", "", "", "", ""},
	), labels.Defaults())
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C", "D"}, titles(res.Root.Children))
	assert.Equal(t, []string{"E"}, titles(res.Root.Children[0].Children))
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnOrphan, res.Warnings[0].Kind)
	assert.Equal(t, 3, res.Warnings[0].RowIndex)
}

func TestBuild_BlankTitlesKeepOriginalIndex(t *testing.T) {
	res, err := Build(rows(
		[6]string{"", "", "", "", "", ""},
		[6]string{"A", "", "", "", "", ""},
	), labels.Defaults())
	require.NoError(t, err)

	require.Len(t, res.Root.Children, 1)
	assert.Equal(t, "A_1", res.Root.Children[0].ID)
	assert.Equal(t, 1, res.Nodes)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnSkipped, res.Warnings[0].Kind)
}

func TestBuild_TrimsTitleAndParent(t *testing.T) {
	res, err := Build(rows(
		[6]string{"   ", "", "", "", "", ""},
		[6]string{"A", "", "", "", "", ""},
		[6]string{"B", " A ", "", "", "", ""},
		[6]string{" C ", " ルート ", "", "", "", ""},
	), labels.Defaults())
	require.NoError(t, err)

	require.Equal(t, []string{"A", "C"}, titles(res.Root.Children))
	a := res.Root.Children[0]
	assert.Equal(t, "A_1", a.ID)
	require.Len(t, a.Children, 1)
	assert.Equal(t, "B_2", a.Children[0].ID)
	assert.Equal(t, "C_3", res.Root.Children[1].ID)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnSkipped, res.Warnings[0].Kind)
	assert.Equal(t, 0, res.Warnings[0].RowIndex)
}

func TestRowValidate_RejectsBlankTitle(t *testing.T) {
	assert.Error(t, Row{Title: " \t "}.Validate())
	assert.NoError(t, Row{Title: "A"}.Validate())
}

func TestBuild_DuplicateTitlesNeverReferencedCoexist(t *testing.T) {
	res, err := Build(rows(
		[6]string{"よくある質問", "", "", "", "", ""},
		[6]string{"よくある質問", "", "", "", "", ""},
	), labels.Defaults())
	require.NoError(t, err)
	require.Len(t, res.Root.Children, 2)
	assert.NotEqual(t, res.Root.Children[0].ID, res.Root.Children[1].ID)
}

func TestBuild_LabelsResolveOrPassThrough(t *testing.T) {
	res, err := Build(rows(
		[6]string{"水道", "", "本文", "", " 水 ", " 紫 "},
		[6]string{"空", "", "", "", "", ""},
	), labels.Defaults())
	require.NoError(t, err)

	water := res.Root.Children[0]
	assert.Equal(t, "Droplet", water.Icon)
	assert.Equal(t, "紫", water.Color)
	assert.True(t, water.IsAnswer())
	assert.Empty(t, res.Root.Children[1].Icon)
	assert.Empty(t, res.Root.Children[1].Color)
}

func TestBuild_Idempotent(t *testing.T) {
	input := rows(
		[6]string{"A", "", "", "", "", ""},
		[6]string{"B", "A", "x", "", "", ""},
		[6]string{"C", "A", "", "y", "", ""},
		[6]string{"B", "", "", "", "", ""},
	)
	first, err := Build(input, labels.Defaults())
	require.NoError(t, err)
	second, err := Build(input, labels.Defaults())
	require.NoError(t, err)
	assert.Equal(t, Export(first.Root), Export(second.Root))
}

func TestBuild_SelfReferenceIsUnreachable(t *testing.T) {
	res, err := Build(rows(
		[6]string{"A", "", "", "", "", ""},
		[6]string{"loop", "loop", "", "", "", ""},
	), labels.Defaults())
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, titles(res.Root.Children))
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnUnreachable, res.Warnings[0].Kind)
	assert.Len(t, Export(res.Root), 2)
}

func TestRowsFromRecords_Aliases(t *testing.T) {
	rs := RowsFromRecords([]tabular.Record{
		{"タイトル": " 料金 ", "親カテゴリ": " 電気 ", "本文": " 本文 ", "補足": "説明文"},
		{"title": "Billing", "parent": "-", "content": "c", "description": "d"},
	})
	require.Len(t, rs, 2)
	assert.Equal(t, Row{Index: 0, Title: "料金", Parent: "電気", Content: " 本文 ", Description: "説明文"}, rs[0])
	assert.Equal(t, 1, rs[1].Index)
	assert.Equal(t, "Billing", rs[1].Title)
	assert.Equal(t, "d", rs[1].Description)
}
