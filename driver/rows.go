package driver

import (
	"context"
	"database/sql/driver"
	"io"

	"github.com/connerohnesorge/sqlite-native-go/internal/engine"
)

// Rows implements the database/sql/driver.Rows interface, stepping the
// statement as rows are consumed
type Rows struct {
	stmt  *engine.Statement
	cols  []string
	ctx   context.Context
	owner *Stmt // Released on Close, if set.
	done  bool
}

// Columns returns the column names
func (r *Rows) Columns() []string {
	return r.cols
}

// Close resets the statement, and releases it if the Rows own it
func (r *Rows) Close() error {
	var err error
	if !r.done {
		r.done = true
		err = r.stmt.Reset()
	}
	if r.owner != nil {
		if cErr := r.owner.Close(); err == nil {
			err = cErr
		}
		r.owner = nil
	}
	if _, ok := err.(*engine.InvalidStateError); ok {
		err = nil // The connection closed first.
	}
	return err
}

// Next populates the provided slice with the next row values
func (r *Rows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	if err := r.ctx.Err(); err != nil {
		return err
	}

	ok, err := r.stmt.Step()
	if err != nil {
		return err
	} else if !ok {
		r.done = true
		if err = r.stmt.Reset(); err != nil {
			return err
		}
		return io.EOF
	}

	for i := range dest {
		v, err := r.stmt.Value(i)
		if err != nil {
			return err
		}
		dest[i] = engine.NativeValue(v)
	}
	return nil
}
