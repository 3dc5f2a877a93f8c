// internal/database/executor.go
//
// Execution context shared by every uuid resolver.
//
// Context
// -------
// A resolver is written once against Executor and runs in two modes:
//
//   • Pool – each query borrows its own connection from the *sqlx.DB, so
//     independent sub-queries may run concurrently (Concurrent() == true).
//   • Tx   – every query goes through one *sqlx.Tx, serialized by a mutex,
//     so a resolution sees one snapshot (Concurrent() == false).
//
// Begin on a Pool opens a real transaction owned by the returned *Tx.
// Begin on a *Tx hands back a borrowed view of the same transaction, so a
// caller that already holds a transaction never gets a second one.  Commit
// and Rollback on a borrowed view are no-ops; the owner decides.
//
// Notes
// -----
// • Owned transactions are opened with BeginTxx(ctx), so database/sql rolls
//   them back on its own when ctx is cancelled.
// • Oxford commas, two spaces after periods.
package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/jmoiron/sqlx"
)

// Executor is the minimal capability a resolver needs: fetch one row, fetch
// all rows, or open (or reuse) a transaction.
type Executor interface {
	// Get scans exactly one row into dest; sql.ErrNoRows when absent.
	Get(ctx context.Context, dest any, query string, args ...any) error
	// Select scans every row into the slice pointed to by dest.
	Select(ctx context.Context, dest any, query string, args ...any) error
	// Begin opens a transaction on a pool or reuses the current one.
	Begin(ctx context.Context) (*Tx, error)
	// Concurrent reports whether independent queries may run in parallel.
	Concurrent() bool
}

//
// Pool provider
//

// Pool runs every query against the shared connection pool.
type Pool struct {
	db *sqlx.DB
}

// NewPool wraps db.  The caller keeps ownership of db.
func NewPool(db *sqlx.DB) *Pool { return &Pool{db: db} }

// DB exposes the wrapped pool for health checks.
func (p *Pool) DB() *sqlx.DB { return p.db }

func (p *Pool) Get(ctx context.Context, dest any, query string, args ...any) error {
	return p.db.GetContext(ctx, dest, query, args...)
}

func (p *Pool) Select(ctx context.Context, dest any, query string, args ...any) error {
	return p.db.SelectContext(ctx, dest, query, args...)
}

// Begin opens a read-only transaction owned by the returned *Tx.
func (p *Pool) Begin(ctx context.Context) (*Tx, error) {
	tx, err := p.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, mu: &sync.Mutex{}, owned: true}, nil
}

func (p *Pool) Concurrent() bool { return true }

//
// Transaction provider
//

// Tx runs every query on one transaction, one query at a time.
type Tx struct {
	tx    *sqlx.Tx
	mu    *sync.Mutex // shared with borrowed views
	owned bool
	done  bool
}

// FromTx wraps a transaction the caller already opened.  The result never
// commits or rolls back tx; that stays with the caller.
func FromTx(tx *sqlx.Tx) *Tx { return &Tx{tx: tx, mu: &sync.Mutex{}} }

func (t *Tx) Get(ctx context.Context, dest any, query string, args ...any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx.GetContext(ctx, dest, query, args...)
}

func (t *Tx) Select(ctx context.Context, dest any, query string, args ...any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx.SelectContext(ctx, dest, query, args...)
}

// Begin returns a borrowed view of the same transaction.  No nesting.
func (t *Tx) Begin(context.Context) (*Tx, error) {
	return &Tx{tx: t.tx, mu: t.mu}, nil
}

func (t *Tx) Concurrent() bool { return false }

// Owned reports whether Commit and Rollback reach the database.
func (t *Tx) Owned() bool { return t.owned }

// Commit ends an owned transaction.  No-op on borrowed views.
func (t *Tx) Commit() error {
	if !t.owned {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Commit()
}

// Rollback aborts an owned transaction.  No-op on borrowed views and after
// Commit, so it is safe to defer.
func (t *Tx) Rollback() error {
	if !t.owned {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	t.done = true
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
