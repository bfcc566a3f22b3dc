package driver

import (
	"context"
	"database/sql/driver"

	"github.com/connerohnesorge/sqlite-native-go/internal/engine"
)

// Stmt implements the database/sql/driver.Stmt interface
type Stmt struct {
	conn   *Conn
	stmt   *engine.Statement
	cached *cachedStmt // Nil if the statement is owned by this Stmt alone.
	closed bool
}

var (
	_ driver.Stmt             = (*Stmt)(nil)
	_ driver.StmtExecContext  = (*Stmt)(nil)
	_ driver.StmtQueryContext = (*Stmt)(nil)
)

// Close releases the statement back to the connection cache, or finalizes
// it if it is not cached
func (s *Stmt) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.cached != nil {
		s.conn.cache.release(s.cached)
		return nil
	}
	if s.conn.conn.Closed() {
		return nil // Already finalized with its connection.
	}
	return s.stmt.Finalize()
}

// NumInput returns the number of distinct placeholder parameters
func (s *Stmt) NumInput() int {
	n, err := s.stmt.ParamCount()
	if err != nil {
		return -1
	}
	return n
}

// Exec executes a statement that doesn't return rows
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.ExecContext(context.Background(), valuesToNamedValues(args))
}

// ExecContext executes a statement with context
func (s *Stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.bind(args); err != nil {
		return nil, err
	}
	res, err := s.stmt.Exec()
	if err != nil {
		return nil, err
	}
	return &Result{lastInsertID: res.LastInsertID, rowsAffected: int64(res.Changes)}, nil
}

// Query executes a query that returns rows
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.QueryContext(context.Background(), valuesToNamedValues(args))
}

// QueryContext executes a query with context
func (s *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return s.query(ctx, args)
}

func (s *Stmt) query(ctx context.Context, args []driver.NamedValue) (*Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.bind(args); err != nil {
		return nil, err
	}
	cols, err := s.stmt.ColumnNames()
	if err != nil {
		_ = s.stmt.Reset()
		return nil, err
	}
	return &Rows{stmt: s.stmt, cols: cols, ctx: ctx}, nil
}

// bind binds |args| by name, or else by ordinal position. Bindings of a
// previous execution were cleared by its reset.
func (s *Stmt) bind(args []driver.NamedValue) error {
	for _, arg := range args {
		v, err := engine.ValueOf(arg.Value)
		if err == nil {
			if arg.Name != "" {
				err = s.stmt.BindName(arg.Name, v)
			} else {
				err = s.stmt.BindIndex(arg.Ordinal, v)
			}
		}
		if err != nil {
			_ = s.stmt.Reset()
			return err
		}
	}
	return nil
}

// valuesToNamedValues converts []driver.Value to []driver.NamedValue
func valuesToNamedValues(args []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(args))
	for i, arg := range args {
		named[i] = driver.NamedValue{
			Ordinal: i + 1,
			Value:   arg,
		}
	}
	return named
}
