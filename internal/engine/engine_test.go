package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/connerohnesorge/sqlite-native-go/internal/sqlitetest"
)

// openTest opens a Connection to |path| using a system SQLite library.
func openTest(t *testing.T, path string) *Connection {
	t.Helper()

	c, err := Open(context.Background(), path, Options{LibraryPath: sqlitetest.Library(t)})
	require.NoError(t, err)
	t.Cleanup(func() {
		if !c.Closed() {
			require.NoError(t, c.Close())
		}
	})
	return c
}

func openMemory(t *testing.T) *Connection {
	return openTest(t, ":memory:")
}

func openFile(t *testing.T) (*Connection, string) {
	var path = filepath.Join(t.TempDir(), "test.db")
	return openTest(t, path), path
}

func mustExec(t *testing.T, c *Connection, sql string, args ...BindValue) ExecResult {
	t.Helper()

	res, err := c.Exec(sql, args...)
	require.NoError(t, err)
	return res
}

func count(t *testing.T, c *Connection, table string) int {
	t.Helper()

	rows, err := c.Query("SELECT count(*) FROM " + table)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	return int(rows[0].Values[0].(Int))
}
