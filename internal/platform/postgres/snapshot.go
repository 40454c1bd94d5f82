package postgres

import (
	"context"
	"database/sql"

	"github.com/corvid-labs/postboard/internal/store"
)

// txBeginner is implemented by *sql.DB but not by *sql.Tx.
type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var snapshotTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// readSnapshot runs fn so that every statement it issues sees the same
// snapshot. A store bound to a pool opens a read-only REPEATABLE READ
// transaction; a store already bound to a transaction reuses it.
func readSnapshot(ctx context.Context, db store.DBTX, entity string, fn func(db store.DBTX) error) error {
	beginner, ok := db.(txBeginner)
	if !ok {
		return fn(db)
	}

	tx, err := beginner.BeginTx(ctx, snapshotTxOptions)
	if err != nil {
		return store.NewStoreError(entity, "read", "failed to begin read transaction", MapError(err))
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return store.NewStoreError(entity, "read", "failed to end read transaction", MapError(err))
	}
	return nil
}
