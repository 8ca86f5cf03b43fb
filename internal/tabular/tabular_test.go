package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_HeaderKeyedRecords(t *testing.T) {
	data := []byte("\ufeffタイトル, 親カテゴリ ,本文\nネット回線,-,\n\nキャンセル,ネット回線,\"解約手順は,\n次へ\"\n")

	recs, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "ネット回線", recs[0]["タイトル"])
	assert.Equal(t, "-", recs[0]["親カテゴリ"])
	assert.Equal(t, "解約手順は,\n次へ", recs[1]["本文"])
}

func TestDecode_ShortRowsAndEmptyInput(t *testing.T) {
	recs, err := Decode([]byte("a,b,c\n1\n"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "1", recs[0]["a"])
	assert.Empty(t, recs[0]["c"])

	recs, err = Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestRecord_First(t *testing.T) {
	r := Record{"名称": "", "name": "FT", "key": "k"}
	assert.Equal(t, "FT", r.First("名称", "name", "key"))
	assert.Equal(t, "", r.First("missing"))
}

func TestEncode_QuotesAndCRLF(t *testing.T) {
	out, err := Encode([]string{"id", "title"}, [][]string{{"a_0", "x,y"}})
	require.NoError(t, err)
	assert.Equal(t, "id,title\r\na_0,\"x,y\"\r\n", string(out))
}
