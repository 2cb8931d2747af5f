package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// WithTx runs fn inside a transaction.  The transaction is rolled back when fn
// returns an error and committed otherwise; the commit error is returned.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}
