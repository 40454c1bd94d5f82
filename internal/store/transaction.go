package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/corvid-labs/postboard/internal/platform/logger"
)

// TxFn is a function that executes within a database transaction.
// It receives the context and a transaction, and returns an error if the operation fails.
// The transaction is committed if the function returns nil, or rolled back if it returns an error.
//
// Implementations of TxRunner that are not backed by database/sql pass a nil
// tx; stores must accept a nil tx in WithTx.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// TxRunner runs a TxFn as one all-or-nothing unit.
type TxRunner interface {
	RunInTx(ctx context.Context, fn TxFn) error
}

// DBTxRunner is the TxRunner backed by a *sql.DB.
type DBTxRunner struct {
	db   *sql.DB
	opts *sql.TxOptions
}

// NewDBTxRunner creates a TxRunner for db using the READ COMMITTED isolation level.
func NewDBTxRunner(db *sql.DB) *DBTxRunner {
	if db == nil {
		panic("db cannot be nil")
	}
	return &DBTxRunner{
		db:   db,
		opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
	}
}

var _ TxRunner = (*DBTxRunner)(nil)

// RunInTx implements TxRunner.
func (r *DBTxRunner) RunInTx(ctx context.Context, fn TxFn) error {
	return runInTransaction(ctx, r.db, r.opts, fn)
}

// runInTransaction executes fn within a transaction begun with opts.
// If fn returns an error, the transaction is rolled back. Otherwise, it is committed.
// Panics roll back and are re-raised.
// Failures to begin or commit wrap ErrTransactionFailed.
func runInTransaction(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		log.Error("failed to begin transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: begin: %w", ErrTransactionFailed, err)
	}

	// Set up defer to handle panics and roll back the transaction if needed
	defer func() {
		if p := recover(); p != nil {
			txErr := tx.Rollback()
			if txErr != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", txErr.Error()),
					slog.Any("panic", p))
			} else {
				log.Error("rolled back transaction after panic",
					slog.Any("panic", p))
			}
			// ALLOW-PANIC: Propagating caught panic from transaction
			panic(p)
		}
	}()

	err = fn(ctx, tx)
	if err != nil {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			log.Error("failed to roll back transaction",
				slog.String("rollback_error", rollbackErr.Error()),
				slog.String("original_error", err.Error()))
			return fmt.Errorf(
				"error rolling back transaction: %v (original error: %w)",
				rollbackErr,
				err,
			)
		}
		log.Debug("rolled back transaction due to error",
			slog.String("error", err.Error()))
		return err
	}

	err = tx.Commit()
	if err != nil {
		log.Error("failed to commit transaction",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: commit: %w", ErrTransactionFailed, err)
	}

	log.Debug("transaction committed successfully")
	return nil
}
