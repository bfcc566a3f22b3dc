package export

import (
	"bytes"
	"io"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"

	"github.com/connerohnesorge/sqlite-native-go/internal/engine"
)

func TestInferKinds(t *testing.T) {
	var rows = []engine.Row{
		{Values: []engine.ColumnValue{engine.Int(1), engine.Int(1), engine.Text("a"), engine.Blob{1}, engine.Null{}, engine.Blob{1}}},
		{Values: []engine.ColumnValue{engine.Int64(2), engine.Float64(1.5), engine.Int(3), engine.Null{}, engine.Null{}, engine.Int(1)}},
	}
	require.Equal(t,
		[]ColumnKind{KindInt64, KindDouble, KindString, KindBytes, KindString, KindString},
		InferKinds(6, rows))
}

func TestFieldNames(t *testing.T) {
	require.Equal(t,
		[]string{"id", "id_2", "column_3", "id_3"},
		FieldNames([]string{"id", "id", "", "id"}))
}

func TestWriteParquet(t *testing.T) {
	var columns = []string{"word", "id", "score", "data"}
	var rows = []engine.Row{
		{Columns: columns, Values: []engine.ColumnValue{engine.Text("hello"), engine.Int(1), engine.Float64(0.5), engine.Blob("ab")}},
		{Columns: columns, Values: []engine.ColumnValue{engine.Null{}, engine.Int(2), engine.Int(3), engine.Null{}}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, columns, rows))

	f, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Equal(t, int64(2), f.NumRows())

	var schema = f.Schema()
	var col = func(name string) int {
		leaf, ok := schema.Lookup(name)
		require.True(t, ok, name)
		return leaf.ColumnIndex
	}

	var got = make([]parquet.Row, 2)
	var reader = f.RowGroups()[0].Rows()
	defer reader.Close()

	n, err := reader.ReadRows(got)
	if err != io.EOF {
		require.NoError(t, err)
	}
	require.Equal(t, 2, n)

	require.Equal(t, "hello", string(got[0][col("word")].ByteArray()))
	require.Equal(t, int64(1), got[0][col("id")].Int64())
	require.Equal(t, 0.5, got[0][col("score")].Double())
	require.Equal(t, []byte("ab"), got[0][col("data")].ByteArray())

	require.True(t, got[1][col("word")].IsNull())
	require.Equal(t, int64(2), got[1][col("id")].Int64())
	require.Equal(t, 3.0, got[1][col("score")].Double())
	require.True(t, got[1][col("data")].IsNull())
}
