// internal/uuid/engine.go
//
// Identifier resolution engine.
//
// Context
// -------
// The engine knows only the discriminator → kind-resolver table.  One
// indexed lookup on `uuid` picks the kind; a missing row is ErrNotFound
// before any kind query runs, and a tag outside the closed set is
// ErrInvalidDiscriminator.
//
// Modes
// -----
//   • Resolve   – ad-hoc.  ConsistencyPooled runs straight on the pool and
//                 lets independent sub-queries race; ConsistencySnapshot
//                 opens a read-only transaction for this one resolution.
//   • ResolveTx – runs inside the caller's open transaction and never opens
//                 a second one.
//   • ResolveWith – the generic entry used by both.
//
// Notes
// -----
// • Owned transactions are committed on success and rolled back on error,
//   panic, or cancellation (database.InTx).
// • Nothing is retried here; retry is a caller policy.
// • Oxford commas, two spaces after periods.
package uuid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/contentdb/internal/database"
	"github.com/yanizio/contentdb/internal/metrics"
)

// Consistency selects how Resolve treats an ad-hoc resolution.
type Consistency string

const (
	ConsistencyPooled   Consistency = "pooled"
	ConsistencySnapshot Consistency = "snapshot"
)

// Options configures an Engine.  Zero values pick the defaults.
type Options struct {
	Consistency Consistency
	MaxDepth    int
}

type kindResolver func(ctx context.Context, s *session, id int) (*Uuid, error)

// kindResolvers is fixed at init and only read afterwards.
var kindResolvers = map[Discriminator]kindResolver{
	DiscriminatorAttachment:     fetchAttachment,
	DiscriminatorBlogPost:       fetchBlogPost,
	DiscriminatorComment:        fetchComment,
	DiscriminatorEntity:         fetchEntity,
	DiscriminatorEntityRevision: fetchEntityRevision,
	DiscriminatorPage:           fetchPage,
	DiscriminatorPageRevision:   fetchPageRevision,
	DiscriminatorTaxonomyTerm:   fetchTaxonomyTerm,
	DiscriminatorUser:           fetchUser,
}

// Engine resolves ids against one pool.  Safe for concurrent use.
type Engine struct {
	pool database.Executor
	opts Options
}

// New returns an Engine bound to pool.
func New(pool database.Executor, opts Options) *Engine {
	if opts.Consistency == "" {
		opts.Consistency = ConsistencyPooled
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Engine{pool: pool, opts: opts}
}

// Resolve resolves id with the engine's configured consistency.
func (e *Engine) Resolve(ctx context.Context, id int) (*Uuid, error) {
	if e.opts.Consistency == ConsistencySnapshot {
		return e.observe("snapshot", func() (*Uuid, error) {
			return e.inTx(ctx, id, e.pool)
		})
	}
	return e.observe("pooled", func() (*Uuid, error) {
		return e.ResolveWith(ctx, id, e.pool)
	})
}

// ResolveTx resolves id inside tx.  tx is left open for the caller.  A nil
// tx is ErrNilTx.
func (e *Engine) ResolveTx(ctx context.Context, id int, tx *sqlx.Tx) (*Uuid, error) {
	return e.observe("transaction", func() (*Uuid, error) {
		if tx == nil {
			return nil, fmt.Errorf("uuid %d: %w", id, ErrNilTx)
		}
		return e.inTx(ctx, id, database.FromTx(tx))
	})
}

// ResolveWith resolves id with whatever q is: pool, owned, or borrowed
// transaction.
func (e *Engine) ResolveWith(ctx context.Context, id int, q database.Executor) (*Uuid, error) {
	const lookup = `SELECT discriminator FROM uuid WHERE id = ?`

	var row struct {
		Discriminator Discriminator `db:"discriminator"`
	}
	if err := q.Get(ctx, &row, lookup, id); err != nil {
		if errors.Is(err, ErrInvalidDiscriminator) {
			return nil, fmt.Errorf("uuid %d: %w", id, err)
		}
		return nil, notFound("uuid", id, err)
	}

	fetch, ok := kindResolvers[row.Discriminator]
	if !ok {
		return nil, fmt.Errorf("uuid %d: %w: %s", id, ErrInvalidDiscriminator, row.Discriminator)
	}
	return fetch(ctx, &session{q: q, maxDepth: e.opts.MaxDepth}, id)
}

func (e *Engine) inTx(ctx context.Context, id int, exec database.Executor) (*Uuid, error) {
	var out *Uuid
	err := database.InTx(ctx, exec, func(q database.Executor) error {
		u, err := e.ResolveWith(ctx, id, q)
		if err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, storeErr("transaction", id, err)
	}
	return out, nil
}

func (e *Engine) observe(mode string, fn func() (*Uuid, error)) (*Uuid, error) {
	start := time.Now()
	u, err := fn()
	metrics.ResolveDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	kind := "unknown"
	if u != nil {
		kind = u.Discriminator().String()
	}
	outcome := Outcome(err)
	metrics.ResolveTotal.WithLabelValues(kind, outcome).Inc()

	if err != nil {
		zap.L().Debug("uuid resolution failed",
			zap.String("mode", mode),
			zap.String("outcome", outcome),
			zap.Error(err))
	}
	return u, err
}

// Outcome maps a resolution error to its metrics outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeResolved
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrInvalidDiscriminator):
		return metrics.OutcomeInvalidDiscriminator
	default:
		return metrics.OutcomeStoreError
	}
}

func gather(ctx context.Context, s *session, fns ...func(context.Context) error) error {
	return database.Gather(ctx, s.q, fns...)
}
