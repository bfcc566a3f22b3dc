package engine

import (
	"io"

	"github.com/pkg/errors"

	"github.com/connerohnesorge/sqlite-native-go/internal/purego"
)

// BlobHandle is an open handle for incremental I/O on a single BLOB value. Its
// size is fixed when opened: writes cannot grow it.
type BlobHandle struct {
	conn   *Connection
	handle purego.BlobHandle
	size   int
	closed bool
}

// OpenBlob opens the BLOB in |column| of the row |rowid| of |table|, within
// database |schema| (usually "main"). Writes require |writable|.
func (c *Connection) OpenBlob(schema, table, column string, rowid int64, writable bool) (*BlobHandle, error) {
	if err := c.check("open blob"); err != nil {
		return nil, err
	}
	handle, err := c.lib.BlobOpen(c.db, schema, table, column, rowid, writable)
	if err != nil {
		return nil, err
	}
	var b = &BlobHandle{
		conn:   c,
		handle: handle,
		size:   c.lib.BlobBytes(handle),
	}
	c.mu.Lock()
	c.blobs[b] = struct{}{}
	c.mu.Unlock()

	return b, nil
}

func (b *BlobHandle) check(op string) error {
	if err := b.conn.check(op); err != nil {
		return err
	} else if b.closed {
		return &InvalidStateError{Op: op, State: "blob is closed"}
	}
	return nil
}

// Len returns the size of the BLOB in bytes.
func (b *BlobHandle) Len() int { return b.size }

// span verifies that |n| bytes at |off| lie within the BLOB. Native offsets
// and lengths are 32-bit, so everything is checked before narrowing.
func (b *BlobHandle) span(n int, off int64) error {
	if off < 0 {
		return errors.Errorf("negative blob offset %d", off)
	} else if int64(n) > int64(b.size)-off {
		return errors.Errorf("blob range [%d, %d) exceeds blob size %d", off, off+int64(n), b.size)
	}
	return nil
}

// ReadAt implements io.ReaderAt.
func (b *BlobHandle) ReadAt(p []byte, off int64) (int, error) {
	if err := b.check("read blob"); err != nil {
		return 0, err
	} else if off < 0 {
		return 0, errors.Errorf("negative blob offset %d", off)
	}
	if off >= int64(b.size) {
		return 0, io.EOF
	}
	var n = min(len(p), b.size-int(off))
	if err := b.conn.lib.BlobRead(b.conn.db, b.handle, p[:n], int(off)); err != nil {
		return 0, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt. Writing past the end of the BLOB fails
// and writes nothing.
func (b *BlobHandle) WriteAt(p []byte, off int64) (int, error) {
	if err := b.check("write blob"); err != nil {
		return 0, err
	} else if err = b.span(len(p), off); err != nil {
		return 0, err
	}
	if err := b.conn.lib.BlobWrite(b.conn.db, b.handle, p, int(off)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// ReadAtAsync fills |p| from offset |off| without blocking the caller. The
// returned channel receives the outcome once the read completes, and |p|
// must not be accessed until then. Unlike ReadAt, reading past the end of
// the BLOB fails.
func (b *BlobHandle) ReadAtAsync(p []byte, off int64) <-chan error {
	if err := b.check("read blob"); err != nil {
		return failed(err)
	} else if err = b.span(len(p), off); err != nil {
		return failed(err)
	}
	return b.conn.lib.BlobReadAsync(b.conn.db, b.handle, p, int(off))
}

// WriteAtAsync writes |p| at offset |off| without blocking the caller,
// under the completion contract of ReadAtAsync.
func (b *BlobHandle) WriteAtAsync(p []byte, off int64) <-chan error {
	if err := b.check("write blob"); err != nil {
		return failed(err)
	} else if err = b.span(len(p), off); err != nil {
		return failed(err)
	}
	return b.conn.lib.BlobWriteAsync(b.conn.db, b.handle, p, int(off))
}

func failed(err error) <-chan error {
	var ch = make(chan error, 1)
	ch <- err
	return ch
}

// Close releases the BlobHandle.
func (b *BlobHandle) Close() error {
	if err := b.check("close blob"); err != nil {
		return err
	}
	b.conn.mu.Lock()
	delete(b.conn.blobs, b)
	b.conn.mu.Unlock()

	return b.release()
}

func (b *BlobHandle) release() error {
	b.closed = true
	return b.conn.lib.BlobClose(b.conn.db, b.handle)
}
