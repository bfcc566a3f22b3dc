package engine

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBlobReadWrite(t *testing.T) {
	var c = openMemory(t)
	mustExec(t, c, "CREATE TABLE b (data BLOB)")
	mustExec(t, c, "INSERT INTO b VALUES (zeroblob(10))")

	blob, err := c.OpenBlob("main", "b", "data", 1, true)
	require.NoError(t, err)
	require.Equal(t, 10, blob.Len())

	n, err := blob.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.NoError(t, <-blob.WriteAtAsync([]byte("world"), 5))

	var buf = make([]byte, 10)
	require.NoError(t, <-blob.ReadAtAsync(buf, 0))
	require.Equal(t, "helloworld", string(buf))

	// Growing the blob is not possible.
	_, err = blob.WriteAt([]byte("!"), 10)
	require.Error(t, err)

	// io.ReaderAt semantics at the end of the blob.
	n, err = blob.ReadAt(buf, 5)
	require.Equal(t, io.EOF, err)
	require.Equal(t, 5, n)
	require.Equal(t, "world", string(buf[:n]))

	n, err = blob.ReadAt(buf, 10)
	require.Equal(t, io.EOF, err)
	require.Zero(t, n)

	require.Error(t, <-blob.ReadAtAsync(buf, 5))

	var section = io.NewSectionReader(blob, 2, 6)
	all, err := io.ReadAll(section)
	require.NoError(t, err)
	require.Equal(t, "llowor", string(all))

	require.NoError(t, blob.Close())

	var ise *InvalidStateError
	require.ErrorAs(t, blob.Close(), &ise)
	_, err = blob.WriteAt([]byte("x"), 0)
	require.ErrorAs(t, err, &ise)

	rows, err := c.Query("SELECT data FROM b")
	require.NoError(t, err)
	require.Equal(t, Blob("helloworld"), rows[0].Values[0])
}

func TestBlobOpenFailures(t *testing.T) {
	var c = openMemory(t)
	mustExec(t, c, "CREATE TABLE b (data BLOB)")
	mustExec(t, c, "INSERT INTO b VALUES (zeroblob(1))")

	_, err := c.OpenBlob("main", "b", "data", 2, false)
	require.Error(t, err)
	_, err = c.OpenBlob("main", "b", "missing", 1, false)
	require.Error(t, err)

	ro, err := c.OpenBlob("main", "b", "data", 1, false)
	require.NoError(t, err)
	defer ro.Close()

	_, err = ro.WriteAt([]byte("x"), 0)
	require.Error(t, err)
}

func TestBlobRangeChecks(t *testing.T) {
	var c = openMemory(t)
	mustExec(t, c, "CREATE TABLE b (data BLOB)")
	mustExec(t, c, "INSERT INTO b VALUES (zeroblob(4))")

	blob, err := c.OpenBlob("main", "b", "data", 1, true)
	require.NoError(t, err)
	defer blob.Close()

	for _, off := range []int64{1 << 32, 1<<31 + 1, -1, 3} {
		n, err := blob.WriteAt([]byte("XY"), off)
		require.Error(t, err, "offset %d", off)
		require.Zero(t, n)

		require.Error(t, <-blob.WriteAtAsync([]byte("XY"), off), "offset %d", off)
		require.Error(t, <-blob.ReadAtAsync(make([]byte, 2), off), "offset %d", off)
	}
	_, err = blob.ReadAt(make([]byte, 2), -1)
	require.Error(t, err)

	n, err := blob.ReadAt(make([]byte, 2), 1<<32)
	require.Equal(t, io.EOF, err)
	require.Zero(t, n)

	// Nothing was written by the rejected calls.
	var buf = make([]byte, 4)
	_, err = blob.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0}, buf)

	// The last bytes of the blob remain writable.
	_, err = blob.WriteAt([]byte("XY"), 2)
	require.NoError(t, err)
	_, err = blob.ReadAt(buf, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 'X', 'Y'}, buf)
}

func TestBlobAsyncDoesNotBlockCaller(t *testing.T) {
	var c = openMemory(t)
	mustExec(t, c, "CREATE TABLE b (data BLOB)")
	mustExec(t, c, "INSERT INTO b VALUES (zeroblob(1 << 20))")

	blob, err := c.OpenBlob("main", "b", "data", 1, true)
	require.NoError(t, err)
	defer blob.Close()

	var payload = bytes.Repeat([]byte("abcd"), 1<<18)
	var writeCh = blob.WriteAtAsync(payload, 0)

	// The caller carries on with other work, including work on another
	// connection, while the write is outstanding.
	var other = openMemory(t)
	mustExec(t, other, "CREATE TABLE t (a INTEGER)")
	mustExec(t, other, "INSERT INTO t VALUES (1), (2), (3)")
	require.Equal(t, 3, count(t, other, "t"))

	select {
	case err = <-writeCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for async write")
	}

	var got = make([]byte, len(payload))
	var readCh = blob.ReadAtAsync(got, 0)
	require.Equal(t, 3, count(t, other, "t"))

	require.NoError(t, <-readCh)
	require.Equal(t, payload, got)
}
