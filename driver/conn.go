package driver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strconv"

	"github.com/pkg/errors"

	"github.com/connerohnesorge/sqlite-native-go/internal/engine"
)

// Conn implements the database/sql/driver.Conn interface
type Conn struct {
	conn  *engine.Connection
	cache *stmtCache
}

var (
	_ driver.Conn               = (*Conn)(nil)
	_ driver.ConnPrepareContext = (*Conn)(nil)
	_ driver.ConnBeginTx        = (*Conn)(nil)
	_ driver.ExecerContext      = (*Conn)(nil)
	_ driver.QueryerContext     = (*Conn)(nil)
	_ driver.Pinger             = (*Conn)(nil)
	_ driver.NamedValueChecker  = (*Conn)(nil)
	_ driver.Validator          = (*Conn)(nil)
)

func connect(ctx context.Context, cfg *Config) (*Conn, error) {
	c, err := engine.Open(ctx, cfg.Path, cfg.Options)
	if err != nil {
		return nil, err
	}
	if cfg.BusyTimeoutMS != 0 {
		if _, err = c.Exec("PRAGMA busy_timeout = " + strconv.Itoa(cfg.BusyTimeoutMS)); err != nil {
			_ = c.Close()
			return nil, err
		}
	}
	return &Conn{conn: c, cache: newStmtCache(cfg.StmtCacheSize)}, nil
}

// Engine returns the underlying engine connection, for use with
// database/sql's Conn.Raw
func (c *Conn) Engine() *engine.Connection {
	return c.conn
}

// Prepare returns a prepared statement
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

// PrepareContext returns a prepared statement, reusing a cached one when it
// is not already in use
func (c *Conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.prepare(query)
}

func (c *Conn) prepare(query string) (*Stmt, error) {
	if cs, ok := c.cache.get(query); ok {
		return &Stmt{conn: c, stmt: cs.stmt, cached: cs}, nil
	}

	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	var s = &Stmt{conn: c, stmt: stmt}
	s.cached = c.cache.put(query, stmt)
	return s, nil
}

// Close finalizes cached statements and closes the connection
func (c *Conn) Close() error {
	c.cache.purge()
	return c.conn.Close()
}

// Begin starts a transaction
func (c *Conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx starts a transaction. Only the default and serializable isolation
// levels are supported, which SQLite provides.
func (c *Conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch sql.IsolationLevel(opts.Isolation) {
	case sql.LevelDefault, sql.LevelSerializable:
	default:
		return nil, errors.Errorf("unsupported isolation level %s", sql.IsolationLevel(opts.Isolation))
	}

	if _, err := c.conn.Exec("BEGIN"); err != nil {
		return nil, err
	}
	return &Tx{conn: c}, nil
}

// ExecContext executes a query that doesn't return rows. Without arguments,
// |query| may hold multiple statements.
func (c *Conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(args) == 0 {
		if err := c.conn.ExecScript(query); err != nil {
			return nil, err
		}
		return c.result()
	}

	s, err := c.prepare(query)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	return s.ExecContext(ctx, args)
}

func (c *Conn) result() (driver.Result, error) {
	id, err := c.conn.LastInsertID()
	if err != nil {
		return nil, err
	}
	changes, err := c.conn.Changes()
	if err != nil {
		return nil, err
	}
	return &Result{lastInsertID: id, rowsAffected: int64(changes)}, nil
}

// QueryContext executes a query that returns rows
func (c *Conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := c.prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, args)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	// The statement is released when |rows| closes.
	rows.owner = s
	return rows, nil
}

// Ping verifies the connection
func (c *Conn) Ping(ctx context.Context) error {
	if c.conn.Closed() {
		return driver.ErrBadConn
	}
	return ctx.Err()
}

// IsValid reports whether the connection may be reused
func (c *Conn) IsValid() bool {
	return !c.conn.Closed()
}

// CheckNamedValue accepts values the engine can bind, and defers the rest
// to the default conversion
func (c *Conn) CheckNamedValue(nv *driver.NamedValue) error {
	if _, err := engine.ValueOf(nv.Value); err != nil {
		return driver.ErrSkip
	}
	return nil
}

// Result implements driver.Result
type Result struct {
	lastInsertID int64
	rowsAffected int64
}

// LastInsertId returns the last insert ID
func (r *Result) LastInsertId() (int64, error) {
	return r.lastInsertID, nil
}

// RowsAffected returns the number of affected rows
func (r *Result) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}
