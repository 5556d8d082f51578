package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// catalogTx runs fn inside one transaction on the catalog database.
// The transaction commits only when fn returns nil. A failed or panicking
// fn rolls everything back, and a rollback failure is joined to fn's error.
func (db *DB) catalogTx(ctx context.Context, fn func(context.Context, *sql.Tx) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("roll back catalog transaction: %w", rbErr))
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog transaction: %w", err)
	}
	committed = true
	return nil
}
