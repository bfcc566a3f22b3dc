package engine

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/connerohnesorge/sqlite-native-go/internal/metrics"
)

func TestTransactionCommitAndRollback(t *testing.T) {
	var c = openMemory(t)
	mustExec(t, c, "CREATE TABLE t (x)")

	require.NoError(t, c.Transaction(func() error {
		inTx, err := c.InTransaction()
		require.NoError(t, err)
		require.True(t, inTx)

		_, err = c.Exec("INSERT INTO t VALUES (1)")
		return err
	}))
	require.Equal(t, 1, count(t, c, "t"))

	var cause = errors.New("body failed")
	var err = c.Transaction(func() error {
		mustExec(t, c, "INSERT INTO t VALUES (2)")
		return cause
	})
	require.Equal(t, cause, err)
	require.Equal(t, 1, count(t, c, "t"))

	inTx, err := c.InTransaction()
	require.NoError(t, err)
	require.False(t, inTx)
}

func TestNestedInnerRollbackOuterCommit(t *testing.T) {
	var c = openMemory(t)
	mustExec(t, c, "CREATE TABLE t (x)")

	var cause = errors.New("inner failed")
	require.NoError(t, c.Transaction(func() error {
		mustExec(t, c, "INSERT INTO t VALUES ('outer')")

		require.Equal(t, cause, c.Transaction(func() error {
			mustExec(t, c, "INSERT INTO t VALUES ('inner')")
			return cause
		}))
		return nil
	}))

	rows, err := c.Query("SELECT x FROM t")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, Text("outer"), rows[0].Values[0])
}

func TestNestedOuterRollbackDiscardsReleasedInner(t *testing.T) {
	var c = openMemory(t)
	mustExec(t, c, "CREATE TABLE t (x)")

	var cause = errors.New("outer failed")
	require.Equal(t, cause, c.Transaction(func() error {
		mustExec(t, c, "INSERT INTO t VALUES ('outer')")

		require.NoError(t, c.Transaction(func() error {
			mustExec(t, c, "INSERT INTO t VALUES ('inner')")
			return nil
		}))
		require.Equal(t, 2, count(t, c, "t"))
		return cause
	}))

	require.Equal(t, 0, count(t, c, "t"))
}

func TestSavepointTokensAreUnique(t *testing.T) {
	var c = openMemory(t)

	var expect = c.savepoints.Load() + 1
	require.NoError(t, c.Transaction(func() error {
		for i := 0; i != 100; i++ {
			require.NoError(t, c.Transaction(func() error { return nil }))
		}
		return nil
	}))
	require.Equal(t, expect+99, c.savepoints.Load())
}

func TestForcedRollback(t *testing.T) {
	var c = openMemory(t)
	mustExec(t, c, "CREATE TABLE u (x UNIQUE ON CONFLICT ROLLBACK)")
	mustExec(t, c, "INSERT INTO u VALUES (1)")

	var forced = metrics.TransactionsTotal.WithLabelValues("transaction", outcomeForced)
	var before = testutil.ToFloat64(forced)

	var err = c.Transaction(func() error {
		mustExec(t, c, "INSERT INTO u VALUES (2)")
		// The conflict aborts the whole transaction, and the body
		// chooses to carry on regardless.
		_, err := c.Exec("INSERT INTO u VALUES (1)")
		require.Error(t, err)
		return nil
	})
	var fre *ForcedRollbackError
	require.ErrorAs(t, err, &fre)
	require.Equal(t, before+1, testutil.ToFloat64(forced))

	require.Equal(t, 1, count(t, c, "u"))
	inTx, err := c.InTransaction()
	require.NoError(t, err)
	require.False(t, inTx)
}

func TestForcedRollbackWithinSavepoint(t *testing.T) {
	var c = openMemory(t)
	mustExec(t, c, "CREATE TABLE u (x UNIQUE ON CONFLICT ROLLBACK)")
	mustExec(t, c, "INSERT INTO u VALUES (1)")

	var inner error
	var err = c.Transaction(func() error {
		inner = c.Transaction(func() error {
			_, _ = c.Exec("INSERT INTO u VALUES (1)")
			return nil
		})
		return inner
	})
	var fre *ForcedRollbackError
	require.ErrorAs(t, inner, &fre)
	require.NotEmpty(t, fre.Token)
	require.Equal(t, inner, err)
}

func TestTransactionPanicRollsBack(t *testing.T) {
	var c = openMemory(t)
	mustExec(t, c, "CREATE TABLE t (x)")

	require.PanicsWithValue(t, "boom", func() {
		_ = c.Transaction(func() error {
			mustExec(t, c, "INSERT INTO t VALUES (1)")
			panic("boom")
		})
	})
	require.Equal(t, 0, count(t, c, "t"))

	inTx, err := c.InTransaction()
	require.NoError(t, err)
	require.False(t, inTx)
}

func TestCommitFailureRollsBack(t *testing.T) {
	var c = openMemory(t)
	mustExec(t, c, "PRAGMA foreign_keys = ON")
	mustExec(t, c, "CREATE TABLE parent (id INTEGER PRIMARY KEY)")
	mustExec(t, c, "CREATE TABLE child (pid REFERENCES parent (id) DEFERRABLE INITIALLY DEFERRED)")

	var err = c.Transaction(func() error {
		_, err := c.Exec("INSERT INTO child VALUES (7)")
		return err
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "FOREIGN KEY constraint failed")

	require.Equal(t, 0, count(t, c, "child"))
	inTx, err := c.InTransaction()
	require.NoError(t, err)
	require.False(t, inTx)
}

func TestTransactionContext(t *testing.T) {
	var c = openMemory(t)
	mustExec(t, c, "CREATE TABLE t (x)")

	type key struct{}
	var ctx = context.WithValue(context.Background(), key{}, "v")

	require.NoError(t, c.TransactionContext(ctx, func(ctx context.Context) error {
		require.Equal(t, "v", ctx.Value(key{}))
		_, err := c.Exec("INSERT INTO t VALUES (1)")
		return err
	}))
	require.Equal(t, 1, count(t, c, "t"))

	ctx, cancel := context.WithCancel(ctx)
	cancel()

	var called bool
	var err = c.TransactionContext(ctx, func(context.Context) error {
		called = true
		return nil
	})
	require.Equal(t, context.Canceled, err)
	require.False(t, called)
}

func TestTransact(t *testing.T) {
	var c = openMemory(t)
	mustExec(t, c, "CREATE TABLE t (x)")

	id, err := Transact(c, func() (int64, error) {
		res, err := c.Exec("INSERT INTO t VALUES ('a')")
		return res.LastInsertID, err
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	id, err = Transact(c, func() (int64, error) {
		_, _ = c.Exec("INSERT INTO t VALUES ('b')")
		return 99, errors.New("nope")
	})
	require.EqualError(t, err, "nope")
	require.Zero(t, id)
	require.Equal(t, 1, count(t, c, "t"))
}

func TestUncommittedWritesAreIsolated(t *testing.T) {
	var writer, path = openFile(t)
	mustExec(t, writer, "CREATE TABLE t (x)")

	var reader = openTest(t, path)

	require.NoError(t, writer.Transaction(func() error {
		mustExec(t, writer, "INSERT INTO t VALUES (1)")
		require.Equal(t, 1, count(t, writer, "t"))
		require.Equal(t, 0, count(t, reader, "t"))
		return nil
	}))
	require.Equal(t, 1, count(t, reader, "t"))
}
