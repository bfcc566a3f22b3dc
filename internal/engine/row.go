package engine

// Row is a decoded result row.
type Row struct {
	Columns []string
	Values  []ColumnValue
}

// Get returns the value of the first column named |name|.
func (r Row) Get(name string) (ColumnValue, bool) {
	for i, col := range r.Columns {
		if col == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Map returns the row keyed by column name. Later duplicate names win.
func (r Row) Map() map[string]ColumnValue {
	var out = make(map[string]ColumnValue, len(r.Columns))
	for i, col := range r.Columns {
		out[col] = r.Values[i]
	}
	return out
}

// ExecResult is the outcome of a statement executed for its effects.
type ExecResult struct {
	// LastInsertID is the rowid of the most recent successful insert on
	// the connection.
	LastInsertID int64
	// Changes is the number of rows modified by the statement.
	Changes int
}
