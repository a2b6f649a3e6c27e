package repository

import (
    "context"
    "database/sql"
)

// TxRunner abstracts transaction scoping so services can compose
// repository operations into one atomic unit without holding a
// *sql.DB themselves.  Tests substitute a runner that invokes fn
// directly.
type TxRunner interface {
    InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// DB wraps *sql.DB with the transaction discipline used throughout
// the codebase: begin, run, and roll back unless the function
// completed and the commit succeeded.
type DB struct {
    *sql.DB
}

// NewDB returns a TxRunner over the given database handle.
func NewDB(db *sql.DB) *DB { return &DB{DB: db} }

// InTx runs fn inside a transaction.  Any error from fn or from the
// commit rolls the transaction back and is returned to the caller.
func (d *DB) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
    tx, err := d.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(tx); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}
