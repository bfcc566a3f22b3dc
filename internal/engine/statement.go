package engine

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/connerohnesorge/sqlite-native-go/internal/purego"
)

// stmtState is the lifecycle state of a Statement.
type stmtState int

const (
	stmtCreated stmtState = iota
	stmtBound
	stmtRow  // Executing, with a row available.
	stmtDone // Executing, exhausted.
	stmtReset
	stmtFinalized
)

func (s stmtState) String() string {
	switch s {
	case stmtCreated:
		return "created"
	case stmtBound:
		return "bound"
	case stmtRow, stmtDone:
		return "executing"
	case stmtReset:
		return "reset"
	case stmtFinalized:
		return "finalized"
	}
	return "unknown"
}

// Statement is a compiled SQL statement of a Connection.
//
// Column counts and names are read once and cached. They become stale if a
// concurrent schema change alters the result shape between executions.
type Statement struct {
	conn   *Connection
	handle purego.Stmt
	sql    string
	state  stmtState
	arena  arena

	columnCount int // -1 until read.
	columnNames []string
	namesRead   []bool
	// Column types of the current row. Zero marks a type not yet read.
	rowTypes []int32
}

func newStatement(c *Connection, handle purego.Stmt, sql string) *Statement {
	return &Statement{
		conn:        c,
		handle:      handle,
		sql:         sql,
		columnCount: -1,
	}
}

// check returns an InvalidStateError if the Statement or its Connection
// may no longer be used.
func (s *Statement) check(op string) error {
	if err := s.conn.check(op); err != nil {
		return err
	} else if s.state == stmtFinalized {
		return &InvalidStateError{Op: op, State: "statement is finalized"}
	}
	return nil
}

// SQL returns the text the Statement was compiled from.
func (s *Statement) SQL() string { return s.sql }

// ExpandedSQL returns the text of the Statement with bound parameters
// substituted.
func (s *Statement) ExpandedSQL() (string, error) {
	if err := s.check("expand statement"); err != nil {
		return "", err
	}
	return s.conn.lib.ExpandedSQL(s.handle), nil
}

// ReadOnly reports whether the Statement makes no direct database changes.
func (s *Statement) ReadOnly() (bool, error) {
	if err := s.check("inspect statement"); err != nil {
		return false, err
	}
	return s.conn.lib.StmtReadonly(s.handle), nil
}

// ParamCount returns the largest parameter index of the Statement.
func (s *Statement) ParamCount() (int, error) {
	if err := s.check("inspect parameters"); err != nil {
		return 0, err
	}
	return s.conn.lib.BindParameterCount(s.handle), nil
}

// ParamName returns the name of parameter |idx|, including its prefix
// character, or "" for a positional parameter.
func (s *Statement) ParamName(idx int) (string, error) {
	if err := s.check("inspect parameters"); err != nil {
		return "", err
	}
	return s.conn.lib.BindParameterName(s.handle, idx), nil
}

// BindIndex binds |v| to the parameter at 1-based index |idx|.
func (s *Statement) BindIndex(idx int, v BindValue) error {
	if err := s.checkBind(); err != nil {
		return err
	}
	if err := s.bind(idx, v); err != nil {
		return err
	}
	s.state = stmtBound
	return nil
}

// BindName binds |v| to the named parameter |name|. A name without a
// prefix character is looked up as ":name".
func (s *Statement) BindName(name string, v BindValue) error {
	if err := s.checkBind(); err != nil {
		return err
	}
	if err := s.bindName(name, v); err != nil {
		return err
	}
	s.state = stmtBound
	return nil
}

// Bind binds |args| to parameters 1 through len(args).
func (s *Statement) Bind(args ...BindValue) error {
	if err := s.checkBind(); err != nil {
		return err
	}
	for i, v := range args {
		if err := s.bind(i+1, v); err != nil {
			return err
		}
	}
	if len(args) != 0 {
		s.state = stmtBound
	}
	return nil
}

// BindNamed binds each value of |args| to the parameter of its name.
func (s *Statement) BindNamed(args map[string]BindValue) error {
	if err := s.checkBind(); err != nil {
		return err
	}
	var names = make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.bindName(name, args[name]); err != nil {
			return err
		}
	}
	if len(args) != 0 {
		s.state = stmtBound
	}
	return nil
}

func (s *Statement) checkBind() error {
	if err := s.check("bind parameter"); err != nil {
		return err
	} else if s.state == stmtRow || s.state == stmtDone {
		return &InvalidStateError{Op: "bind parameter", State: "statement is executing"}
	}
	return nil
}

func (s *Statement) bindName(name string, v BindValue) error {
	if !strings.ContainsAny(name[:min(len(name), 1)], ":@$?") {
		name = ":" + name
	}
	var idx = s.conn.lib.BindParameterIndex(s.handle, name)
	if idx == 0 {
		return &BindNameError{Name: name}
	}
	return s.bind(idx, v)
}

// bind encodes |v| for the native engine. Null is never sent: unbound
// parameters already read as NULL.
func (s *Statement) bind(idx int, v BindValue) error {
	var lib, db = s.conn.lib, s.conn.db

	switch v := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		var i int32
		if v {
			i = 1
		}
		return lib.BindInt(db, s.handle, idx, i)
	case Int32:
		return lib.BindInt(db, s.handle, idx, int32(v))
	case Int64:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return lib.BindInt(db, s.handle, idx, int32(v))
		}
		return lib.BindInt64(db, s.handle, idx, int64(v))
	case Float64:
		return lib.BindDouble(db, s.handle, idx, float64(v))
	case Text:
		return lib.BindText(db, s.handle, idx, s.arena.text(string(v)))
	case Blob:
		return lib.BindBlob(db, s.handle, idx, s.arena.blob(v))
	case Temporal:
		return s.bind(idx, Text(time.Time(v).UTC().Format(TimeFormat)))
	default:
		return &BindTypeError{Index: idx, Value: v}
	}
}

// Step advances the Statement to its next row, reporting whether one is
// available. A failed step leaves the Statement exhausted, and an exhausted
// Statement must be Reset before it steps again.
func (s *Statement) Step() (bool, error) {
	if err := s.check("step statement"); err != nil {
		return false, err
	} else if s.state == stmtDone {
		return false, &InvalidStateError{Op: "step statement", State: "statement is exhausted"}
	}
	code, err := s.conn.lib.Step(s.conn.db, s.handle)
	for i := range s.rowTypes {
		s.rowTypes[i] = 0
	}
	if err != nil {
		s.state = stmtDone
		return false, err
	}
	if code == purego.ResultRow {
		s.state = stmtRow
		return true, nil
	}
	s.state = stmtDone
	return false, nil
}

// ColumnCount returns the number of result columns.
func (s *Statement) ColumnCount() (int, error) {
	if err := s.check("read columns"); err != nil {
		return 0, err
	}
	return s.columns(), nil
}

func (s *Statement) columns() int {
	if s.columnCount == -1 {
		s.columnCount = s.conn.lib.ColumnCount(s.handle)
		s.columnNames = make([]string, s.columnCount)
		s.namesRead = make([]bool, s.columnCount)
		s.rowTypes = make([]int32, s.columnCount)
	}
	return s.columnCount
}

// ColumnNames returns the names of all result columns.
func (s *Statement) ColumnNames() ([]string, error) {
	if err := s.check("read columns"); err != nil {
		return nil, err
	}
	var out = make([]string, s.columns())
	for i := range out {
		out[i] = s.columnName(i)
	}
	return out, nil
}

func (s *Statement) columnName(i int) string {
	if !s.namesRead[i] {
		s.columnNames[i] = s.conn.lib.ColumnName(s.handle, i)
		s.namesRead[i] = true
	}
	return s.columnNames[i]
}

func (s *Statement) columnType(i int) int32 {
	if s.rowTypes[i] == 0 {
		s.rowTypes[i] = s.conn.lib.ColumnType(s.handle, i)
	}
	return s.rowTypes[i]
}

// Value decodes column |i| of the current row.
func (s *Statement) Value(i int) (ColumnValue, error) {
	if err := s.check("read column"); err != nil {
		return nil, err
	} else if s.state != stmtRow {
		return nil, &InvalidStateError{Op: "read column", State: "no row is available"}
	} else if i < 0 || i >= s.columns() {
		return nil, &InvalidStateError{Op: "read column", State: "column index out of range"}
	}
	return s.decode(i), nil
}

// Row decodes every column of the current row.
func (s *Statement) Row() (Row, error) {
	if err := s.check("read row"); err != nil {
		return Row{}, err
	} else if s.state != stmtRow {
		return Row{}, &InvalidStateError{Op: "read row", State: "no row is available"}
	}
	return s.row(), nil
}

func (s *Statement) row() Row {
	var n = s.columns()
	var row = Row{
		Columns: make([]string, n),
		Values:  make([]ColumnValue, n),
	}
	for i := 0; i != n; i++ {
		row.Columns[i] = s.columnName(i)
		row.Values[i] = s.decode(i)
	}
	return row
}

// decode reads column |i| according to its type in the current row.
func (s *Statement) decode(i int) ColumnValue {
	var lib = s.conn.lib

	switch s.columnType(i) {
	case purego.TypeInteger:
		return narrow(lib.ColumnInt64(s.handle, i))
	case purego.TypeFloat:
		return Float64(lib.ColumnDouble(s.handle, i))
	case purego.TypeText:
		return Text(lib.ColumnText(s.handle, i))
	case purego.TypeBlob:
		if b, ok := lib.ColumnBlob(s.handle, i); ok {
			return Blob(b)
		}
		return Null{}
	default:
		return Null{}
	}
}

// Exec binds |args|, steps the Statement once, and resets it. Any row
// produced is discarded.
func (s *Statement) Exec(args ...BindValue) (ExecResult, error) {
	if err := s.Bind(args...); err != nil {
		return ExecResult{}, s.resetAfter(err)
	}

	var res ExecResult
	var _, err = s.Step()
	if err == nil {
		res.LastInsertID = s.conn.lib.LastInsertRowid(s.conn.db)
		res.Changes = s.conn.lib.Changes(s.conn.db)
	}
	return res, s.resetAfter(err)
}

// All binds |args|, steps the Statement to exhaustion collecting every row,
// and resets it.
func (s *Statement) All(args ...BindValue) ([]Row, error) {
	if err := s.Bind(args...); err != nil {
		return nil, s.resetAfter(err)
	}

	var rows []Row
	for {
		ok, err := s.Step()
		if err != nil {
			return nil, s.resetAfter(err)
		} else if !ok {
			break
		}
		rows = append(rows, s.row())
	}
	return rows, s.resetAfter(nil)
}

// One binds |args|, steps the Statement once, and resets it. It returns
// the row produced, if any.
func (s *Statement) One(args ...BindValue) (Row, bool, error) {
	if err := s.Bind(args...); err != nil {
		return Row{}, false, s.resetAfter(err)
	}

	ok, err := s.Step()
	var row Row
	if ok {
		row = s.row()
	}
	if err = s.resetAfter(err); err != nil {
		return Row{}, false, err
	}
	return row, ok, nil
}

// resetAfter resets the Statement following an operation which ended with
// |err|, which takes precedence over any reset failure.
func (s *Statement) resetAfter(err error) error {
	if s.state == stmtFinalized || s.conn.Closed() {
		return err
	}
	if rErr := s.Reset(); err == nil {
		err = rErr
	}
	return err
}

// Reset returns the Statement to its initial state, clears its bindings and
// releases retained bind buffers. A reset following a failed step reports
// that failure again.
func (s *Statement) Reset() error {
	if err := s.check("reset statement"); err != nil {
		return err
	}
	var lib, db = s.conn.lib, s.conn.db

	var err = lib.Reset(db, s.handle)
	if cErr := lib.ClearBindings(db, s.handle); err == nil {
		err = cErr
	}
	s.arena.release()
	s.state = stmtReset
	return err
}

// Finalize destroys the Statement. Later operations on it fail with an
// InvalidStateError, including a second Finalize.
func (s *Statement) Finalize() error {
	if err := s.check("finalize statement"); err != nil {
		return err
	}
	s.conn.forget(s)
	return s.release()
}

// release finalizes the native handle and drops retained buffers.
func (s *Statement) release() error {
	var err = s.conn.lib.Finalize(s.conn.db, s.handle)
	s.arena.release()
	s.state = stmtFinalized
	return err
}
