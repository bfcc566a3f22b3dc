// Package sqlite drives an embedded SQLite engine through purego, without
// cgo. The platform library is provisioned on first use: it is copied from
// a bundle shipped beside the executable or downloaded from a release, and
// cached per user.
//
// Usage:
//
//	conn, err := sqlite.Open(ctx, "app.db", sqlite.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	stmt, err := conn.Prepare("INSERT INTO greetings (word) VALUES (?)")
//	...
//	res, err := stmt.Exec(sqlite.Text("hello"))
//
// Importing the package also registers the "sqlite-native" database/sql
// driver.
package sqlite

import (
	"context"
	"io"

	"github.com/connerohnesorge/sqlite-native-go/internal/binary"
	"github.com/connerohnesorge/sqlite-native-go/internal/engine"
	"github.com/connerohnesorge/sqlite-native-go/internal/export"
	"github.com/connerohnesorge/sqlite-native-go/internal/purego"

	// Register the driver
	_ "github.com/connerohnesorge/sqlite-native-go/driver"
)

// Version returns the version of the sqlite-native-go module
const Version = "0.1.0"

type (
	Connection   = engine.Connection
	Statement    = engine.Statement
	BlobHandle   = engine.BlobHandle
	Options      = engine.Options
	Row          = engine.Row
	ExecResult   = engine.ExecResult
	BinaryConfig = binary.Config

	BindValue   = engine.BindValue
	ColumnValue = engine.ColumnValue
	Null        = engine.Null
	Bool        = engine.Bool
	Int32       = engine.Int32
	Int64       = engine.Int64
	Int         = engine.Int
	Float64     = engine.Float64
	Text        = engine.Text
	Blob        = engine.Blob
	Temporal    = engine.Temporal

	FetchError          = binary.FetchError
	NativeCallError     = purego.NativeCallError
	OpenError           = engine.OpenError
	PrepareError        = engine.PrepareError
	BindTypeError       = engine.BindTypeError
	BindNameError       = engine.BindNameError
	InvalidStateError   = engine.InvalidStateError
	ForcedRollbackError = engine.ForcedRollbackError
)

// Open provisions the native library and opens the database at |path|.
func Open(ctx context.Context, path string, opts Options) (*Connection, error) {
	return engine.Open(ctx, path, opts)
}

// Transact runs |fn| within a transaction of |c|, returning its result.
func Transact[T any](c *Connection, fn func() (T, error)) (T, error) {
	return engine.Transact(c, fn)
}

// ValueOf converts a Go value into a BindValue.
func ValueOf(v interface{}) (BindValue, error) {
	return engine.ValueOf(v)
}

// NativeValue converts a ColumnValue into nil, int64, float64, string or
// []byte.
func NativeValue(v ColumnValue) interface{} {
	return engine.NativeValue(v)
}

// ExportParquet executes |stmt| with |args| and writes every row it
// produces to |w| as a Parquet file.
func ExportParquet(w io.Writer, stmt *Statement, args ...BindValue) error {
	columns, err := stmt.ColumnNames()
	if err != nil {
		return err
	}
	rows, err := stmt.All(args...)
	if err != nil {
		return err
	}
	return export.WriteParquet(w, columns, rows)
}

// FormatValue renders a ColumnValue for display.
func FormatValue(v ColumnValue) string {
	return engine.FormatValue(v)
}
