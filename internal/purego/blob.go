package purego

import (
	"math"
	"runtime"

	"github.com/pkg/errors"
)

// BlobOpen opens a handle for incremental I/O on the blob stored in
// |schema|.|table|.|column| of row |rowid|.
func (s *SQLite) BlobOpen(db DB, schema, table, column string, rowid int64, writable bool) (BlobHandle, error) {
	var (
		blob  BlobHandle
		flags int32
	)
	if writable {
		flags = 1
	}
	var code = s.sqlite3BlobOpen(db, schema, table, column, rowid, flags, &blob)
	if err := s.Unwrap(db, code); err != nil {
		if blob != 0 {
			s.sqlite3BlobClose(blob)
		}
		return 0, err
	}
	return blob, nil
}

// BlobBytes returns the size in bytes of the open blob
func (s *SQLite) BlobBytes(blob BlobHandle) int {
	return int(s.sqlite3BlobBytes(blob))
}

// BlobRead reads len(p) bytes starting at |offset| into |p|
func (s *SQLite) BlobRead(db DB, blob BlobHandle, p []byte, offset int) error {
	if len(p) == 0 {
		return nil
	} else if err := checkSpan(len(p), offset); err != nil {
		return err
	}
	var code = s.sqlite3BlobRead(blob, bufferPtr(p), int32(len(p)), int32(offset))
	runtime.KeepAlive(p)
	return s.Unwrap(db, code)
}

// BlobWrite writes |p| starting at |offset|
func (s *SQLite) BlobWrite(db DB, blob BlobHandle, p []byte, offset int) error {
	if len(p) == 0 {
		return nil
	} else if err := checkSpan(len(p), offset); err != nil {
		return err
	}
	var code = s.sqlite3BlobWrite(blob, bufferPtr(p), int32(len(p)), int32(offset))
	runtime.KeepAlive(p)
	return s.Unwrap(db, code)
}

// checkSpan rejects lengths and offsets which do not fit the native int.
func checkSpan(n, offset int) error {
	if offset < 0 || int64(offset) > math.MaxInt32 || int64(n) > math.MaxInt32-int64(offset) {
		return errors.Errorf("blob range of %d bytes at offset %d is out of range", n, offset)
	}
	return nil
}

// BlobReadAsync runs BlobRead on its own goroutine. The returned channel
// receives exactly one value, after the native call has returned. |p| must
// not be touched by the caller until then.
func (s *SQLite) BlobReadAsync(db DB, blob BlobHandle, p []byte, offset int) <-chan error {
	var done = make(chan error, 1)
	go func() { done <- s.BlobRead(db, blob, p, offset) }()
	return done
}

// BlobWriteAsync runs BlobWrite on its own goroutine, with the same
// completion contract as BlobReadAsync.
func (s *SQLite) BlobWriteAsync(db DB, blob BlobHandle, p []byte, offset int) <-chan error {
	var done = make(chan error, 1)
	go func() { done <- s.BlobWrite(db, blob, p, offset) }()
	return done
}

// BlobClose closes the blob handle
func (s *SQLite) BlobClose(db DB, blob BlobHandle) error {
	return s.Unwrap(db, s.sqlite3BlobClose(blob))
}
