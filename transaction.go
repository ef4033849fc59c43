package bolt

import (
	"github.com/graphkit/bolt/errors"
	"github.com/graphkit/bolt/log"
)

// Tx represents a transaction
type Tx interface {
	// Commit commits and closes the transaction
	Commit() error
	// Rollback rolls back and closes the transaction
	Rollback() error
}

type boltTx struct {
	conn   *boltConn
	closed bool
}

func newBoltTx(conn *boltConn) *boltTx {
	return &boltTx{
		conn: conn,
	}
}

// Commit commits and closes the transaction
func (t *boltTx) Commit() error {
	if t.closed {
		return errors.New("Transaction already closed")
	}

	summary, err := t.conn.Exec("COMMIT", nil)
	if err != nil {
		return errors.Wrap(err, "An error occurred committing transaction")
	}
	log.Infof("Committed transaction: %#v", summary)

	t.conn.transaction = nil
	t.closed = true
	return nil
}

// Rollback rolls back and closes the transaction
func (t *boltTx) Rollback() error {
	if t.closed {
		return errors.New("Transaction already closed")
	}

	summary, err := t.conn.Exec("ROLLBACK", nil)
	if err != nil {
		return errors.Wrap(err, "An error occurred rolling back transaction")
	}
	log.Infof("Rolled back transaction: %#v", summary)

	t.conn.transaction = nil
	t.closed = true
	return nil
}
