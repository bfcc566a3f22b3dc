package purego

import (
	"unsafe"

	"github.com/pkg/errors"
)

// SQLite represents a loaded SQLite library with its C API bound to typed
// function fields. The set of fields is the complete native surface used by
// this module; a library missing any of them fails to load.
type SQLite struct {
	lib *Library

	// Connection functions
	sqlite3OpenV2          func(filename string, ppDb *DB, flags int32, zVfs unsafe.Pointer) int32
	sqlite3CloseV2         func(db DB) int32
	sqlite3Errmsg          func(db DB) unsafe.Pointer
	sqlite3Errstr          func(code int32) unsafe.Pointer
	sqlite3Libversion      func() unsafe.Pointer
	sqlite3Sourceid        func() unsafe.Pointer
	sqlite3Changes         func(db DB) int32
	sqlite3TotalChanges    func(db DB) int32
	sqlite3LastInsertRowid func(db DB) int64
	sqlite3GetAutocommit   func(db DB) int32
	sqlite3Complete        func(sql string) int32
	sqlite3Free            func(ptr unsafe.Pointer)

	// Statement lifecycle functions
	sqlite3PrepareV2     func(db DB, zSql unsafe.Pointer, nByte int32, ppStmt *Stmt, pzTail *uintptr) int32
	sqlite3Step          func(stmt Stmt) int32
	sqlite3Reset         func(stmt Stmt) int32
	sqlite3Finalize      func(stmt Stmt) int32
	sqlite3ClearBindings func(stmt Stmt) int32
	sqlite3Sql           func(stmt Stmt) unsafe.Pointer
	sqlite3ExpandedSql   func(stmt Stmt) unsafe.Pointer
	sqlite3StmtReadonly  func(stmt Stmt) int32

	// Parameter binding functions
	sqlite3BindParameterCount func(stmt Stmt) int32
	sqlite3BindParameterIndex func(stmt Stmt, name string) int32
	sqlite3BindParameterName  func(stmt Stmt, idx int32) unsafe.Pointer
	sqlite3BindNull           func(stmt Stmt, idx int32) int32
	sqlite3BindInt            func(stmt Stmt, idx int32, val int32) int32
	sqlite3BindInt64          func(stmt Stmt, idx int32, val int64) int32
	sqlite3BindDouble         func(stmt Stmt, idx int32, val float64) int32
	sqlite3BindText           func(stmt Stmt, idx int32, data unsafe.Pointer, n int32, destructor uintptr) int32
	sqlite3BindBlob           func(stmt Stmt, idx int32, data unsafe.Pointer, n int32, destructor uintptr) int32

	// Column access functions
	sqlite3ColumnCount  func(stmt Stmt) int32
	sqlite3ColumnName   func(stmt Stmt, col int32) unsafe.Pointer
	sqlite3ColumnType   func(stmt Stmt, col int32) int32
	sqlite3ColumnInt64  func(stmt Stmt, col int32) int64
	sqlite3ColumnDouble func(stmt Stmt, col int32) float64
	sqlite3ColumnText   func(stmt Stmt, col int32) unsafe.Pointer
	sqlite3ColumnBlob   func(stmt Stmt, col int32) unsafe.Pointer
	sqlite3ColumnBytes  func(stmt Stmt, col int32) int32

	// Incremental blob I/O functions
	sqlite3BlobOpen  func(db DB, zDb, zTable, zColumn string, iRow int64, flags int32, ppBlob *BlobHandle) int32
	sqlite3BlobRead  func(blob BlobHandle, z unsafe.Pointer, n int32, offset int32) int32
	sqlite3BlobWrite func(blob BlobHandle, z unsafe.Pointer, n int32, offset int32) int32
	sqlite3BlobBytes func(blob BlobHandle) int32
	sqlite3BlobClose func(blob BlobHandle) int32
}

// symbol pairs a C entry point with the field it is bound to
type symbol struct {
	name string
	fn   interface{}
}

// catalog returns the fixed table of native entry points
func (s *SQLite) catalog() []symbol {
	return []symbol{
		{"sqlite3_open_v2", &s.sqlite3OpenV2},
		{"sqlite3_close_v2", &s.sqlite3CloseV2},
		{"sqlite3_errmsg", &s.sqlite3Errmsg},
		{"sqlite3_errstr", &s.sqlite3Errstr},
		{"sqlite3_libversion", &s.sqlite3Libversion},
		{"sqlite3_sourceid", &s.sqlite3Sourceid},
		{"sqlite3_changes", &s.sqlite3Changes},
		{"sqlite3_total_changes", &s.sqlite3TotalChanges},
		{"sqlite3_last_insert_rowid", &s.sqlite3LastInsertRowid},
		{"sqlite3_get_autocommit", &s.sqlite3GetAutocommit},
		{"sqlite3_complete", &s.sqlite3Complete},
		{"sqlite3_free", &s.sqlite3Free},

		{"sqlite3_prepare_v2", &s.sqlite3PrepareV2},
		{"sqlite3_step", &s.sqlite3Step},
		{"sqlite3_reset", &s.sqlite3Reset},
		{"sqlite3_finalize", &s.sqlite3Finalize},
		{"sqlite3_clear_bindings", &s.sqlite3ClearBindings},
		{"sqlite3_sql", &s.sqlite3Sql},
		{"sqlite3_expanded_sql", &s.sqlite3ExpandedSql},
		{"sqlite3_stmt_readonly", &s.sqlite3StmtReadonly},

		{"sqlite3_bind_parameter_count", &s.sqlite3BindParameterCount},
		{"sqlite3_bind_parameter_index", &s.sqlite3BindParameterIndex},
		{"sqlite3_bind_parameter_name", &s.sqlite3BindParameterName},
		{"sqlite3_bind_null", &s.sqlite3BindNull},
		{"sqlite3_bind_int", &s.sqlite3BindInt},
		{"sqlite3_bind_int64", &s.sqlite3BindInt64},
		{"sqlite3_bind_double", &s.sqlite3BindDouble},
		{"sqlite3_bind_text", &s.sqlite3BindText},
		{"sqlite3_bind_blob", &s.sqlite3BindBlob},

		{"sqlite3_column_count", &s.sqlite3ColumnCount},
		{"sqlite3_column_name", &s.sqlite3ColumnName},
		{"sqlite3_column_type", &s.sqlite3ColumnType},
		{"sqlite3_column_int64", &s.sqlite3ColumnInt64},
		{"sqlite3_column_double", &s.sqlite3ColumnDouble},
		{"sqlite3_column_text", &s.sqlite3ColumnText},
		{"sqlite3_column_blob", &s.sqlite3ColumnBlob},
		{"sqlite3_column_bytes", &s.sqlite3ColumnBytes},

		{"sqlite3_blob_open", &s.sqlite3BlobOpen},
		{"sqlite3_blob_read", &s.sqlite3BlobRead},
		{"sqlite3_blob_write", &s.sqlite3BlobWrite},
		{"sqlite3_blob_bytes", &s.sqlite3BlobBytes},
		{"sqlite3_blob_close", &s.sqlite3BlobClose},
	}
}

// Load opens the SQLite library at |path| and binds the full catalog
func Load(path string) (*SQLite, error) {
	lib, err := LoadLibrary(path)
	if err != nil {
		return nil, err
	}

	var s = &SQLite{lib: lib}
	if err = s.registerFunctions(); err != nil {
		_ = lib.Close() // Library closing errors not critical in error path
		return nil, err
	}
	return s, nil
}

// registerFunctions registers all SQLite C API functions
func (s *SQLite) registerFunctions() error {
	for _, sym := range s.catalog() {
		if err := s.lib.RegisterFunc(sym.fn, sym.name); err != nil {
			return errors.WithMessagef(err, "failed to register %s", sym.name)
		}
	}
	return nil
}

// Path returns the path the library was loaded from
func (s *SQLite) Path() string {
	if s.lib == nil {
		return ""
	}
	return s.lib.Path()
}

// Close closes the SQLite library
func (s *SQLite) Close() error {
	if s.lib != nil {
		return s.lib.Close()
	}
	return nil
}
