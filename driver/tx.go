package driver

import (
	"database/sql/driver"

	log "github.com/sirupsen/logrus"

	"github.com/connerohnesorge/sqlite-native-go/internal/engine"
)

// Tx implements the database/sql/driver.Tx interface
type Tx struct {
	conn     *Conn
	finished bool
}

// Commit commits the transaction. If the database engine already rolled it
// back, an *engine.ForcedRollbackError is returned instead.
func (tx *Tx) Commit() error {
	if tx.finished {
		return driver.ErrBadConn
	}
	tx.finished = true

	inTx, err := tx.conn.conn.InTransaction()
	if err != nil {
		return err
	} else if !inTx {
		return &engine.ForcedRollbackError{}
	}

	if _, err = tx.conn.conn.Exec("COMMIT"); err != nil {
		if _, rbErr := tx.conn.conn.Exec("ROLLBACK"); rbErr != nil {
			log.WithField("err", rbErr).Warn("failed to roll back after failed commit")
		}
		return err
	}
	return nil
}

// Rollback rolls back the transaction, unless the database engine already
// did so
func (tx *Tx) Rollback() error {
	if tx.finished {
		return driver.ErrBadConn
	}
	tx.finished = true

	inTx, err := tx.conn.conn.InTransaction()
	if err != nil || !inTx {
		return err
	}
	_, err = tx.conn.conn.Exec("ROLLBACK")
	return err
}
