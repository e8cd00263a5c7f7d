package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Tx is an open transaction scope. Repository calls made with the same Tx
// commit or roll back together. Passing a nil Tx runs the call on its own.
type Tx interface {
	Commit() error
	Rollback() error
}

// Transactor opens transaction scopes.
type Transactor interface {
	Begin(ctx context.Context) (Tx, error)
}

// RunInTx runs fn inside a new transaction. The transaction is rolled back if fn
// returns an error or panics, and committed otherwise. Cancelling ctx aborts it.
func RunInTx(ctx context.Context, t Transactor, fn func(tx Tx) error) (err error) {
	tx, err := t.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GORMTransactor is a GORM implementation of Transactor.
type GORMTransactor struct {
	db *gorm.DB
}

// NewGORMTransactor creates a new instance of GORMTransactor.
func NewGORMTransactor(db *gorm.DB) *GORMTransactor {
	return &GORMTransactor{db: db}
}

// Begin starts a transaction bound to ctx.
func (t *GORMTransactor) Begin(ctx context.Context) (Tx, error) {
	tx := t.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &gormTx{db: tx}, nil
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Commit() error {
	return t.db.Commit().Error
}

func (t *gormTx) Rollback() error {
	return t.db.Rollback().Error
}

// conn returns the handle a repository call must use: the transaction's
// session when tx came from a GORMTransactor, the root handle otherwise.
func conn(ctx context.Context, root *gorm.DB, tx Tx) *gorm.DB {
	if t, ok := tx.(*gormTx); ok && t != nil {
		return t.db.WithContext(ctx)
	}
	return root.WithContext(ctx)
}
