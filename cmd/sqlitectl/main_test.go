package main

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	sqlite "github.com/connerohnesorge/sqlite-native-go"
)

func TestReadScript(t *testing.T) {
	s, err := readScript("SELECT 1;", "ignored")
	require.NoError(t, err)
	require.Equal(t, "SELECT 1;", s)

	var path = filepath.Join(t.TempDir(), "script.sql")
	require.NoError(t, ioutil.WriteFile(path, []byte("CREATE TABLE t (a);"), 0o644))

	s, err = readScript("", path)
	require.NoError(t, err)
	require.Equal(t, "CREATE TABLE t (a);", s)

	_, err = readScript("", filepath.Join(t.TempDir(), "missing.sql"))
	require.Error(t, err)
}

func TestTextArgs(t *testing.T) {
	require.Equal(t, []sqlite.BindValue{sqlite.Text("a"), sqlite.Text("")}, textArgs([]string{"a", ""}))
	require.Empty(t, textArgs(nil))
}

func TestOutputTable(t *testing.T) {
	var rows = []sqlite.Row{
		{Columns: []string{"id", "name"}, Values: []sqlite.ColumnValue{sqlite.Int(1), sqlite.Text("alice")}},
		{Columns: []string{"id", "name"}, Values: []sqlite.ColumnValue{sqlite.Int(2), sqlite.Null{}}},
	}
	var buf bytes.Buffer
	require.NoError(t, outputTable(&buf, []string{"id", "name"}, rows))

	var out = buf.String()
	require.Contains(t, strings.ToLower(out), "name")
	require.Contains(t, out, "alice")
	require.Contains(t, out, "NULL")
}

func TestOutputJSON(t *testing.T) {
	var rows = []sqlite.Row{
		{Columns: []string{"id", "data"}, Values: []sqlite.ColumnValue{sqlite.Int(1), sqlite.Blob("ab")}},
	}
	var buf bytes.Buffer
	require.NoError(t, outputJSON(&buf, rows))
	require.Equal(t, `{"data":"YWI=","id":1}`+"\n", buf.String())
}
