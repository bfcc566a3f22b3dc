package purego

import (
	"runtime"
	"unsafe"

	"github.com/pkg/errors"
)

// Open opens a database connection. On failure the returned handle is
// already closed, and the error carries the native code and message.
func (s *SQLite) Open(path string, flags int32) (DB, error) {
	var db DB

	if code := s.sqlite3OpenV2(path, &db, flags, nil); code != ResultOK {
		var err = s.Unwrap(db, code)
		if db != 0 {
			s.sqlite3CloseV2(db)
		}
		return 0, err
	}
	return db, nil
}

// CloseDB closes a database connection
func (s *SQLite) CloseDB(db DB) error {
	if db == 0 {
		return nil
	}
	return s.Unwrap(0, s.sqlite3CloseV2(db))
}

// LibVersion returns the version string of the loaded library
func (s *SQLite) LibVersion() string {
	return ptrToString(s.sqlite3Libversion())
}

// SourceID returns the check-in identifier of the loaded library
func (s *SQLite) SourceID() string {
	return ptrToString(s.sqlite3Sourceid())
}

// Changes returns the number of rows changed by the most recent statement
func (s *SQLite) Changes(db DB) int {
	return int(s.sqlite3Changes(db))
}

// TotalChanges returns the number of rows changed since the connection opened
func (s *SQLite) TotalChanges(db DB) int {
	return int(s.sqlite3TotalChanges(db))
}

// LastInsertRowid returns the rowid of the most recent successful insert
func (s *SQLite) LastInsertRowid(db DB) int64 {
	return s.sqlite3LastInsertRowid(db)
}

// GetAutocommit reports whether |db| is outside of any open transaction
func (s *SQLite) GetAutocommit(db DB) bool {
	return s.sqlite3GetAutocommit(db) != 0
}

// Complete reports whether |sql| ends with a complete SQL statement
func (s *SQLite) Complete(sql string) bool {
	return s.sqlite3Complete(sql) != 0
}

// Prepare compiles the leading statement of |sql|. It returns the statement
// handle, which is zero if |sql| held only whitespace or comments, and the
// byte offset of the first unconsumed character.
func (s *SQLite) Prepare(db DB, sql string) (Stmt, int, error) {
	var buf = make([]byte, len(sql)+1)
	copy(buf, sql)

	var (
		stmt Stmt
		tail uintptr
		base = bufferPtr(buf)
	)
	var code = s.sqlite3PrepareV2(db, base, int32(len(sql)), &stmt, &tail)
	runtime.KeepAlive(buf)

	if err := s.Unwrap(db, code); err != nil {
		return 0, 0, err
	}
	var offset = len(sql)
	if tail != 0 {
		offset = int(tail - uintptr(base))
	}
	return stmt, offset, nil
}

// Step advances |stmt|, returning SQLITE_ROW or SQLITE_DONE
func (s *SQLite) Step(db DB, stmt Stmt) (int32, error) {
	var code = s.sqlite3Step(stmt)
	if err := s.Unwrap(db, code, ResultRow, ResultDone); err != nil {
		return code, err
	}
	return code, nil
}

// Reset returns |stmt| to its initial state, ready to be re-executed
func (s *SQLite) Reset(db DB, stmt Stmt) error {
	return s.Unwrap(db, s.sqlite3Reset(stmt))
}

// ClearBindings resets all bound parameters of |stmt| to NULL
func (s *SQLite) ClearBindings(db DB, stmt Stmt) error {
	return s.Unwrap(db, s.sqlite3ClearBindings(stmt))
}

// Finalize destroys |stmt|
func (s *SQLite) Finalize(db DB, stmt Stmt) error {
	return s.Unwrap(db, s.sqlite3Finalize(stmt))
}

// SQL returns the original text of |stmt|
func (s *SQLite) SQL(stmt Stmt) string {
	return ptrToString(s.sqlite3Sql(stmt))
}

// ExpandedSQL returns the text of |stmt| with bound parameters expanded
func (s *SQLite) ExpandedSQL(stmt Stmt) string {
	var ptr = s.sqlite3ExpandedSql(stmt)
	if ptr == nil {
		return ""
	}
	defer s.sqlite3Free(ptr)
	return ptrToString(ptr)
}

// StmtReadonly reports whether |stmt| makes no direct changes to the database
func (s *SQLite) StmtReadonly(stmt Stmt) bool {
	return s.sqlite3StmtReadonly(stmt) != 0
}

// BindParameterCount returns the largest parameter index of |stmt|
func (s *SQLite) BindParameterCount(stmt Stmt) int {
	return int(s.sqlite3BindParameterCount(stmt))
}

// BindParameterIndex returns the index of the named parameter, or zero
func (s *SQLite) BindParameterIndex(stmt Stmt, name string) int {
	return int(s.sqlite3BindParameterIndex(stmt, name))
}

// BindParameterName returns the name of the parameter at |idx|, if any
func (s *SQLite) BindParameterName(stmt Stmt, idx int) string {
	return ptrToString(s.sqlite3BindParameterName(stmt, int32(idx)))
}

// BindNull binds NULL to the parameter at |idx|
func (s *SQLite) BindNull(db DB, stmt Stmt, idx int) error {
	return s.Unwrap(db, s.sqlite3BindNull(stmt, int32(idx)))
}

// BindInt binds a 32-bit integer to the parameter at |idx|
func (s *SQLite) BindInt(db DB, stmt Stmt, idx int, val int32) error {
	return s.Unwrap(db, s.sqlite3BindInt(stmt, int32(idx), val))
}

// BindInt64 binds a 64-bit integer to the parameter at |idx|
func (s *SQLite) BindInt64(db DB, stmt Stmt, idx int, val int64) error {
	return s.Unwrap(db, s.sqlite3BindInt64(stmt, int32(idx), val))
}

// BindDouble binds a float to the parameter at |idx|
func (s *SQLite) BindDouble(db DB, stmt Stmt, idx int, val float64) error {
	return s.Unwrap(db, s.sqlite3BindDouble(stmt, int32(idx), val))
}

// BindText binds UTF-8 text to the parameter at |idx|. SQLite keeps a
// reference to |buf| rather than copying it: the caller must keep |buf|
// alive and unmodified until the binding is cleared or the statement is
// finalized.
func (s *SQLite) BindText(db DB, stmt Stmt, idx int, buf []byte) error {
	if len(buf) > maxBindLength {
		return errors.Errorf("text parameter %d exceeds %d bytes", idx, maxBindLength)
	}
	var code = s.sqlite3BindText(stmt, int32(idx), bufferPtr(buf), int32(len(buf)), DestructorStatic)
	return s.Unwrap(db, code)
}

// BindBlob binds bytes to the parameter at |idx|, under the same retention
// contract as BindText.
func (s *SQLite) BindBlob(db DB, stmt Stmt, idx int, buf []byte) error {
	if len(buf) > maxBindLength {
		return errors.Errorf("blob parameter %d exceeds %d bytes", idx, maxBindLength)
	}
	var code = s.sqlite3BindBlob(stmt, int32(idx), bufferPtr(buf), int32(len(buf)), DestructorStatic)
	return s.Unwrap(db, code)
}

// maxBindLength is the largest length expressible to the 32-bit bind calls
const maxBindLength = 1<<31 - 1

// ColumnCount returns the number of columns in the result set of |stmt|
func (s *SQLite) ColumnCount(stmt Stmt) int {
	return int(s.sqlite3ColumnCount(stmt))
}

// ColumnName returns the name of column |col|
func (s *SQLite) ColumnName(stmt Stmt, col int) string {
	return ptrToString(s.sqlite3ColumnName(stmt, int32(col)))
}

// ColumnType returns the datatype code of column |col| in the current row
func (s *SQLite) ColumnType(stmt Stmt, col int) int32 {
	return s.sqlite3ColumnType(stmt, int32(col))
}

// ColumnInt64 returns column |col| of the current row as a 64-bit integer
func (s *SQLite) ColumnInt64(stmt Stmt, col int) int64 {
	return s.sqlite3ColumnInt64(stmt, int32(col))
}

// ColumnDouble returns column |col| of the current row as a float
func (s *SQLite) ColumnDouble(stmt Stmt, col int) float64 {
	return s.sqlite3ColumnDouble(stmt, int32(col))
}

// ColumnText returns column |col| of the current row as text
func (s *SQLite) ColumnText(stmt Stmt, col int) string {
	var ptr = s.sqlite3ColumnText(stmt, int32(col))
	if ptr == nil {
		return ""
	}
	// sqlite3_column_bytes must follow sqlite3_column_text, which may have
	// converted the value and changed its length.
	var n = int(s.sqlite3ColumnBytes(stmt, int32(col)))
	return string(unsafe.Slice((*byte)(ptr), n))
}

// ColumnBlob returns a copy of column |col| of the current row. The second
// result is false when SQLite reported a NULL data pointer.
func (s *SQLite) ColumnBlob(stmt Stmt, col int) ([]byte, bool) {
	var ptr = s.sqlite3ColumnBlob(stmt, int32(col))
	if ptr == nil {
		return nil, false
	}
	var n = int(s.sqlite3ColumnBytes(stmt, int32(col)))
	return ptrToBytes(ptr, n), true
}
