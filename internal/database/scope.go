package database

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// InTx runs fn inside exec.Begin(ctx).  The transaction is committed when fn
// returns nil and rolled back when fn fails or panics; the panic is then
// re-raised.  A failure after ctx is done also matches ctx.Err().  When exec is already a *Tx the borrowed view makes both ends
// no-ops, leaving the caller's transaction open.
func InTx(ctx context.Context, exec Executor, fn func(q Executor) error) (err error) {
	tx, err := exec.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				zap.L().Warn("transaction rollback failed",
					zap.Error(rbErr), zap.NamedError("cause", err))
			}
		}
	}()

	if err = fn(tx); err != nil {
		// Drivers report an interrupted query in their own words.
		if cerr := ctx.Err(); cerr != nil && !errors.Is(err, cerr) {
			err = fmt.Errorf("%w: %w", cerr, err)
		}
		return err
	}
	return tx.Commit()
}

// Gather runs independent fetches.  On a concurrent executor they fan out
// through an errgroup and the first failure cancels the rest; otherwise they
// run one after another in argument order.  Either way the error returned
// is the first genuine failure in argument order, so both modes report the
// same error for the same database state.
func Gather(ctx context.Context, q Executor, fns ...func(context.Context) error) error {
	if !q.Concurrent() {
		for _, fn := range fns {
			if err := fn(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	errs := make([]error, len(fns))
	g, gctx := errgroup.WithContext(ctx)
	for i, fn := range fns {
		i, fn := i, fn
		g.Go(func() error {
			errs[i] = fn(gctx)
			return errs[i]
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}

	var cancelled error
	for _, err := range errs {
		if err == nil {
			continue
		}
		// Siblings cut short by the group are not the cause.
		if ctx.Err() == nil && errors.Is(err, context.Canceled) {
			if cancelled == nil {
				cancelled = err
			}
			continue
		}
		return err
	}
	return cancelled
}
