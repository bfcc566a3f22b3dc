package engine

import (
	"context"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/connerohnesorge/sqlite-native-go/internal/metrics"
)

// frame is one level of a possibly nested transaction. The outermost frame
// is a native transaction, and nested frames are savepoints within it.
type frame struct {
	token     string
	outermost bool
}

func (f frame) begin() string {
	if f.outermost {
		return "BEGIN"
	}
	return "SAVEPOINT " + f.token
}

func (f frame) commit() string {
	if f.outermost {
		return "COMMIT"
	}
	return "RELEASE " + f.token
}

func (f frame) rollback() string {
	if f.outermost {
		return "ROLLBACK"
	}
	return "ROLLBACK TO " + f.token
}

func (f frame) kind() string {
	if f.outermost {
		return "transaction"
	}
	return "savepoint"
}

// Outcome labels of sqlite_transactions_total.
const (
	outcomeCommit   = "commit"
	outcomeRollback = "rollback"
	outcomeForced   = "forced_rollback"
	outcomePanic    = "panic"
)

// Transaction runs |fn| within a transaction. If a transaction is already
// open on the Connection, |fn| runs within a new savepoint of it instead.
//
// The frame commits if |fn| succeeds, and rolls back if |fn| fails or
// panics, in which case the error of |fn| is returned or its panic
// continues. If the native engine rolled back the transaction while |fn|
// ran, a *ForcedRollbackError is returned without committing.
func (c *Connection) Transaction(fn func() error) error {
	return c.TransactionContext(context.Background(), func(context.Context) error { return fn() })
}

// TransactionContext is Transaction with a Context, which is checked before
// the frame begins and passed to |fn|. Cancellation of |ctx| does not
// interrupt a native call already in progress.
func (c *Connection) TransactionContext(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	inTx, err := c.InTransaction()
	if err != nil {
		return err
	}

	var f = frame{outermost: !inTx}
	if !f.outermost {
		f.token = "sp_" + strconv.FormatUint(c.savepoints.Add(1), 10)
	}
	if _, err = c.Exec(f.begin()); err != nil {
		return err
	}

	var done bool
	defer func() {
		if done {
			return
		}
		// |fn| panicked, or exited its goroutine.
		var r = recover()
		c.rollback(f, outcomePanic)
		if r != nil {
			panic(r)
		}
	}()

	err = fn(ctx)
	done = true

	if err != nil {
		c.rollback(f, outcomeRollback)
		return err
	}
	if inTx, err = c.InTransaction(); err != nil {
		return err
	} else if !inTx {
		// Nothing remains open to commit or to roll back.
		metrics.TransactionsTotal.WithLabelValues(f.kind(), outcomeForced).Inc()
		c.log.WithField("token", f.token).Warn("transaction was rolled back by the database engine")
		return &ForcedRollbackError{Token: f.token}
	}
	if _, err = c.Exec(f.commit()); err != nil {
		c.rollback(f, outcomeRollback)
		return err
	}
	metrics.TransactionsTotal.WithLabelValues(f.kind(), outcomeCommit).Inc()
	return nil
}

// rollback issues the failure statement of |f|. Its own failure is logged,
// not returned.
func (c *Connection) rollback(f frame, outcome string) {
	metrics.TransactionsTotal.WithLabelValues(f.kind(), outcome).Inc()

	if _, err := c.Exec(f.rollback()); err != nil {
		c.log.WithFields(log.Fields{
			"err":   err,
			"token": f.token,
		}).Warn("failed to roll back transaction")
	}
}

// Transact runs |fn| as Connection.Transaction does, returning its result
// once the transaction has committed.
func Transact[T any](c *Connection, fn func() (T, error)) (T, error) {
	var out T
	var err = c.Transaction(func() error {
		var err error
		out, err = fn()
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
