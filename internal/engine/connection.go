package engine

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/connerohnesorge/sqlite-native-go/internal/binary"
	"github.com/connerohnesorge/sqlite-native-go/internal/metrics"
	"github.com/connerohnesorge/sqlite-native-go/internal/purego"
)

// Options configure Open.
type Options struct {
	LibraryPath string `long:"lib" env:"LIB" description:"Path of the SQLite library to load, bypassing provisioning"`
	ReadOnly    bool   `long:"readonly" env:"READONLY" description:"Open the database read-only"`
	Memory      bool   `long:"memory" env:"MEMORY" description:"Open an in-memory database"`
	NoCreate    bool   `long:"no-create" env:"NO_CREATE" description:"Fail if the database does not already exist"`
	// Flags, when non-zero, are passed to sqlite3_open_v2 verbatim and
	// replace ReadOnly, Memory and NoCreate.
	Flags int32 `no-flag:"true"`

	Binary binary.Config `group:"Binary" namespace:"binary" env-namespace:"BINARY"`
}

func (o Options) flags() int32 {
	if o.Flags != 0 {
		return o.Flags
	}
	var flags = purego.OpenURI
	if o.ReadOnly {
		flags |= purego.OpenReadOnly
	} else {
		flags |= purego.OpenReadWrite
		if !o.NoCreate {
			flags |= purego.OpenCreate
		}
	}
	if o.Memory {
		flags |= purego.OpenMemory
	}
	return flags
}

// connState is the lifecycle state of a Connection.
type connState int

const (
	connOpen connState = iota
	connClosed
)

// Connection is an open native database connection. It owns every
// Statement and BlobHandle created from it, and closing it invalidates them all.
//
// A Connection does not serialize native calls: callers must not use a
// Connection, or its statements, from more than one goroutine at a time.
type Connection struct {
	id   uuid.UUID
	path string
	lib  *purego.SQLite
	db   purego.DB
	log  *log.Entry

	libVersion string
	sourceID   string

	// Sequence of savepoint tokens.
	savepoints atomic.Uint64

	mu    sync.Mutex // Guards |state|, |stmts| and |blobs|.
	state connState
	stmts map[*Statement]struct{}
	blobs map[*BlobHandle]struct{}
}

// Open provisions the native library, loads it, and opens a connection to
// the database at |path|. Each Connection loads its own library handle.
func Open(ctx context.Context, path string, opts Options) (*Connection, error) {
	libPath, err := binary.New(opts.Binary).Fetch(ctx, opts.LibraryPath)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	lib, err := purego.Load(libPath)
	if err != nil {
		metrics.LibraryLoadsTotal.WithLabelValues(metrics.Fail).Inc()
		return nil, &OpenError{Path: path, Err: err}
	}
	metrics.LibraryLoadsTotal.WithLabelValues(metrics.Ok).Inc()

	db, err := lib.Open(path, opts.flags())
	if err != nil {
		_ = lib.Close()
		return nil, &OpenError{Path: path, Err: err}
	}

	var c = &Connection{
		id:         uuid.New(),
		path:       path,
		lib:        lib,
		db:         db,
		libVersion: lib.LibVersion(),
		sourceID:   lib.SourceID(),
		stmts:      make(map[*Statement]struct{}),
		blobs:      make(map[*BlobHandle]struct{}),
	}
	c.log = log.WithFields(log.Fields{"conn": c.id.String(), "path": path})
	metrics.ConnectionsOpen.Inc()

	c.log.WithFields(log.Fields{
		"lib":     lib.Path(),
		"version": c.libVersion,
	}).Debug("opened sqlite connection")

	return c, nil
}

// ID uniquely identifies the Connection within the process.
func (c *Connection) ID() uuid.UUID { return c.id }

// Path returns the database path the Connection was opened with.
func (c *Connection) Path() string { return c.path }

// LibVersion returns the version of the loaded native library.
func (c *Connection) LibVersion() string { return c.libVersion }

// SourceID returns the check-in identifier of the loaded native library.
func (c *Connection) SourceID() string { return c.sourceID }

// Closed reports whether Close has been called.
func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == connClosed
}

// check returns an InvalidStateError if the Connection is closed.
func (c *Connection) check(op string) error {
	if c.Closed() {
		return &InvalidStateError{Op: op, State: "connection is closed"}
	}
	return nil
}

// Close finalizes every open statement, closes every open blob, closes the
// native connection and releases the library. It fails if the Connection
// is already closed.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.state == connClosed {
		c.mu.Unlock()
		return &InvalidStateError{Op: "close connection", State: "connection is closed"}
	}
	c.state = connClosed
	var stmts, blobs = c.stmts, c.blobs
	c.stmts, c.blobs = nil, nil
	c.mu.Unlock()

	var err error
	for b := range blobs {
		if bErr := b.release(); err == nil {
			err = bErr
		}
	}
	for s := range stmts {
		if sErr := s.release(); err == nil {
			err = sErr
		}
	}
	if dbErr := c.lib.CloseDB(c.db); err == nil {
		err = dbErr
	}
	if libErr := c.lib.Close(); err == nil {
		err = libErr
	}
	metrics.ConnectionsOpen.Dec()

	c.log.WithFields(log.Fields{
		"statements": len(stmts),
		"blobs":      len(blobs),
	}).Debug("closed sqlite connection")

	return err
}

// Prepare compiles the leading statement of |sql|. Text following the first
// complete statement is ignored.
func (c *Connection) Prepare(sql string) (*Statement, error) {
	s, _, err := c.prepare(sql)
	return s, err
}

// prepare compiles the leading statement of |sql| and also returns the
// uncompiled remainder.
func (c *Connection) prepare(sql string) (*Statement, string, error) {
	if err := c.check("prepare statement"); err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(sql) == "" {
		return nil, "", &PrepareError{SQL: sql, Err: errEmptyStatement}
	}

	handle, tail, err := c.lib.Prepare(c.db, sql)
	if err != nil {
		return nil, "", &PrepareError{SQL: sql, Err: err}
	} else if handle == 0 {
		return nil, "", &PrepareError{SQL: sql, Err: errEmptyStatement}
	}

	var s = newStatement(c, handle, sql[:tail])
	c.mu.Lock()
	c.stmts[s] = struct{}{}
	c.mu.Unlock()

	metrics.StatementsPreparedTotal.Inc()
	c.log.WithField("sql", s.sql).Trace("prepared statement")

	return s, sql[tail:], nil
}

// forget drops a finalized Statement from the registry.
func (c *Connection) forget(s *Statement) {
	c.mu.Lock()
	delete(c.stmts, s)
	c.mu.Unlock()
}

// Exec prepares |sql|, executes it once with |args|, and finalizes it.
func (c *Connection) Exec(sql string, args ...BindValue) (ExecResult, error) {
	s, err := c.Prepare(sql)
	if err != nil {
		return ExecResult{}, err
	}
	res, err := s.Exec(args...)
	if fErr := s.Finalize(); err == nil {
		err = fErr
	}
	return res, err
}

// Query prepares |sql|, returns all rows it produces with |args|, and
// finalizes it.
func (c *Connection) Query(sql string, args ...BindValue) ([]Row, error) {
	s, err := c.Prepare(sql)
	if err != nil {
		return nil, err
	}
	rows, err := s.All(args...)
	if fErr := s.Finalize(); err == nil {
		err = fErr
	}
	return rows, err
}

// ExecScript executes every statement of |sql| in order, discarding any
// rows they produce. Statements are delimited by the native parser, so
// terminators within literals, identifiers or triggers are handled.
func (c *Connection) ExecScript(sql string) error {
	for {
		if strings.TrimSpace(sql) == "" {
			return nil
		}
		s, rest, err := c.prepare(sql)
		if err != nil {
			var pe *PrepareError
			// A trailing comment compiles to no statement.
			if errors.As(err, &pe) && pe.Err == errEmptyStatement {
				return nil
			}
			return err
		}
		for {
			var ok bool
			if ok, err = s.Step(); err != nil || !ok {
				break
			}
		}
		if fErr := s.Finalize(); err == nil {
			err = fErr
		}
		if err != nil {
			return err
		}
		sql = rest
	}
}

// InTransaction reports whether a transaction is open on the Connection.
func (c *Connection) InTransaction() (bool, error) {
	if err := c.check("query transaction state"); err != nil {
		return false, err
	}
	return !c.lib.GetAutocommit(c.db), nil
}

// Changes returns the number of rows modified by the most recent statement.
func (c *Connection) Changes() (int, error) {
	if err := c.check("query changes"); err != nil {
		return 0, err
	}
	return c.lib.Changes(c.db), nil
}

// TotalChanges returns the number of rows modified since the Connection
// was opened.
func (c *Connection) TotalChanges() (int, error) {
	if err := c.check("query changes"); err != nil {
		return 0, err
	}
	return c.lib.TotalChanges(c.db), nil
}

// LastInsertID returns the rowid of the most recent successful insert.
func (c *Connection) LastInsertID() (int64, error) {
	if err := c.check("query last insert id"); err != nil {
		return 0, err
	}
	return c.lib.LastInsertRowid(c.db), nil
}

// Complete reports whether |sql| ends with a complete statement.
func (c *Connection) Complete(sql string) (bool, error) {
	if err := c.check("check statement completeness"); err != nil {
		return false, err
	}
	return c.lib.Complete(sql), nil
}
