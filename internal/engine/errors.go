package engine

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/connerohnesorge/sqlite-native-go/internal/purego"
)

// errEmptyStatement is the cause of a PrepareError for SQL text holding only
// whitespace or comments.
var errEmptyStatement = errors.New("no statement to prepare")

// OpenError is returned when a connection could not be opened.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("opening sqlite database %q: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// Code returns the native result code of the failed open, or -1 if the
// failure happened before the native engine was reached.
func (e *OpenError) Code() int32 {
	var nce *purego.NativeCallError
	if errors.As(e.Err, &nce) {
		return nce.Code
	}
	return -1
}

// PrepareError is returned when SQL text could not be compiled.
type PrepareError struct {
	SQL string
	Err error
}

func (e *PrepareError) Error() string {
	return fmt.Sprintf("preparing %q: %v", e.SQL, e.Err)
}

func (e *PrepareError) Unwrap() error { return e.Err }

// BindTypeError is returned when a value has no BindValue encoding.
type BindTypeError struct {
	Index int
	Value interface{}
}

func (e *BindTypeError) Error() string {
	if e.Index == 0 {
		return fmt.Sprintf("unsupported bind value of type %T", e.Value)
	}
	return fmt.Sprintf("unsupported bind value of type %T for parameter %d", e.Value, e.Index)
}

// BindNameError is returned when a named parameter does not exist.
type BindNameError struct {
	Name string
}

func (e *BindNameError) Error() string {
	return fmt.Sprintf("no parameter named %s", e.Name)
}

// InvalidStateError is returned by operations on a finalized statement,
// a closed blob, or any handle of a closed connection.
type InvalidStateError struct {
	Op    string
	State string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s: %s", e.Op, e.State)
}

// ForcedRollbackError is returned by a transaction whose body succeeded, but
// which the native engine rolled back on its own, as it does on some
// constraint conflicts and I/O or busy errors.
type ForcedRollbackError struct {
	Token string
}

func (e *ForcedRollbackError) Error() string {
	if e.Token == "" {
		return "transaction was rolled back by the database engine"
	}
	return fmt.Sprintf("savepoint %s was rolled back by the database engine", e.Token)
}
