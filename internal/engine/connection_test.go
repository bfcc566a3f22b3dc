package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/connerohnesorge/sqlite-native-go/internal/purego"
	"github.com/connerohnesorge/sqlite-native-go/internal/sqlitetest"
)

func TestOpenAndClose(t *testing.T) {
	var c = openMemory(t)

	require.Regexp(t, `^3\.`, c.LibVersion())
	require.NotEmpty(t, c.SourceID())
	require.Equal(t, ":memory:", c.Path())
	require.False(t, c.Closed())

	require.NoError(t, c.Close())
	require.True(t, c.Closed())

	var ise *InvalidStateError
	require.ErrorAs(t, c.Close(), &ise)
}

func TestOpenFailures(t *testing.T) {
	var lib = sqlitetest.Library(t)

	_, err := Open(context.Background(), "/nonexistent/dir/x.db", Options{LibraryPath: lib})
	var oe *OpenError
	require.ErrorAs(t, err, &oe)
	require.Equal(t, purego.ResultCantOpen, oe.Code()&0xff)

	_, err = Open(context.Background(), ":memory:", Options{LibraryPath: "/nonexistent/libsqlite3.so"})
	require.ErrorAs(t, err, &oe)
	require.Equal(t, int32(-1), oe.Code())
}

func TestOpenReadOnly(t *testing.T) {
	var c, path = openFile(t)
	mustExec(t, c, "CREATE TABLE t (x)")
	require.NoError(t, c.Close())

	ro, err := Open(context.Background(), path, Options{LibraryPath: sqlitetest.Library(t), ReadOnly: true})
	require.NoError(t, err)
	defer ro.Close()

	_, err = ro.Exec("INSERT INTO t VALUES (1)")
	var nce *purego.NativeCallError
	require.ErrorAs(t, err, &nce)
	require.Equal(t, purego.ResultReadOnly, nce.PrimaryCode())

	_, err = Open(context.Background(), path+".missing", Options{LibraryPath: sqlitetest.Library(t), NoCreate: true})
	require.Error(t, err)
}

func TestClosedConnectionRejectsOperations(t *testing.T) {
	var c = openMemory(t)
	mustExec(t, c, "CREATE TABLE t (x BLOB)")
	mustExec(t, c, "INSERT INTO t VALUES (zeroblob(4))")

	stmt, err := c.Prepare("SELECT x FROM t")
	require.NoError(t, err)
	blob, err := c.OpenBlob("main", "t", "x", 1, false)
	require.NoError(t, err)

	require.NoError(t, c.Close())

	var ise *InvalidStateError
	_, err = c.Prepare("SELECT 1")
	require.ErrorAs(t, err, &ise)
	_, err = c.Exec("SELECT 1")
	require.ErrorAs(t, err, &ise)
	_, err = c.InTransaction()
	require.ErrorAs(t, err, &ise)
	_, err = c.Changes()
	require.ErrorAs(t, err, &ise)
	require.ErrorAs(t, c.Transaction(func() error { return nil }), &ise)

	_, err = stmt.Step()
	require.ErrorAs(t, err, &ise)
	require.Equal(t, "cannot step statement: connection is closed", err.Error())
	require.ErrorAs(t, stmt.Finalize(), &ise)
	require.ErrorAs(t, stmt.BindIndex(1, Int32(1)), &ise)

	_, err = blob.ReadAt(make([]byte, 4), 0)
	require.ErrorAs(t, err, &ise)
	require.ErrorAs(t, <-blob.ReadAtAsync(make([]byte, 4), 0), &ise)
	require.ErrorAs(t, blob.Close(), &ise)
}

func TestConnectionHelpers(t *testing.T) {
	var c = openMemory(t)

	mustExec(t, c, "CREATE TABLE t (x)")
	var res = mustExec(t, c, "INSERT INTO t VALUES (?), (?)", Int32(1), Int32(2))
	require.Equal(t, ExecResult{LastInsertID: 2, Changes: 2}, res)

	changes, err := c.Changes()
	require.NoError(t, err)
	require.Equal(t, 2, changes)

	mustExec(t, c, "DELETE FROM t WHERE x = 1")
	total, err := c.TotalChanges()
	require.NoError(t, err)
	require.Equal(t, 3, total)

	id, err := c.LastInsertID()
	require.NoError(t, err)
	require.Equal(t, int64(2), id)

	ok, err := c.Complete("SELECT 1;")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.Complete("SELECT 'unterminated;")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestExecScript(t *testing.T) {
	var c = openMemory(t)

	require.NoError(t, c.ExecScript(`
		CREATE TABLE t (x TEXT);
		INSERT INTO t VALUES ('a;b');
		CREATE TRIGGER tr AFTER INSERT ON t BEGIN
			INSERT INTO t SELECT 'trig;' WHERE new.x = 'c';
		END;
		INSERT INTO t VALUES ('c');
		SELECT * FROM t;
		-- trailing comment
	`))
	require.Equal(t, 3, count(t, c, "t"))

	var err = c.ExecScript("INSERT INTO t VALUES ('d'); SELEKT; INSERT INTO t VALUES ('e');")
	var pe *PrepareError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, 4, count(t, c, "t"))

	require.NoError(t, c.ExecScript("   "))
}

func TestStatementsFinalizedOnClose(t *testing.T) {
	var c = openMemory(t)

	var stmts []*Statement
	for i := 0; i != 3; i++ {
		s, err := c.Prepare("SELECT ?")
		require.NoError(t, err)
		require.NoError(t, s.BindIndex(1, Text("retained")))
		stmts = append(stmts, s)
	}
	require.NoError(t, stmts[0].Finalize())
	require.Len(t, c.stmts, 2)

	require.NoError(t, c.Close())
	for _, s := range stmts {
		require.Equal(t, stmtFinalized, s.state)
		require.Equal(t, 0, s.arena.len())
	}
}
