package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m4xw311/searchagent/errors"
	"golang.org/x/sync/semaphore"
)

// Gate controls access to the agent state.
type Gate interface {
	// Acquire blocks until access is granted or ctx is done.
	Acquire(ctx context.Context) error
	Release()
}

// ExclusiveGate admits one holder at a time. Waiters are not ordered.
type ExclusiveGate struct {
	sem    *semaphore.Weighted
	closed context.Context
	close  context.CancelFunc
}

func NewExclusiveGate() *ExclusiveGate {
	closed, cancel := context.WithCancel(context.Background())
	return &ExclusiveGate{
		sem:    semaphore.NewWeighted(1),
		closed: closed,
		close:  cancel,
	}
}

// Acquire waits for exclusive access. A failed wait returns an error
// matching both ErrGateClosed and the context error that ended it.
func (g *ExclusiveGate) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(g.closed, cancel)
	defer stop()

	if g.closed.Err() != nil {
		return fmt.Errorf("%w: %w", errors.ErrGateClosed, context.Canceled)
	}
	if err := g.sem.Acquire(waitCtx, 1); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return fmt.Errorf("%w: %w", errors.ErrGateClosed, err)
	}
	return nil
}

func (g *ExclusiveGate) Release() { g.sem.Release(1) }

// Close makes current and future waiters give up. A run that already holds
// the gate is not interrupted.
func (g *ExclusiveGate) Close() { g.close() }

// PassThrough is the gate used when every request gets its own agent state.
type PassThrough struct{}

func (PassThrough) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrGateClosed, err)
	}
	return nil
}

func (PassThrough) Release() {}

// WithExclusiveAccess runs fn while holding g. The gate is released when fn
// returns, fails or panics.
func WithExclusiveAccess[T any](ctx context.Context, g Gate, fn func() (T, error)) (T, error) {
	start := time.Now()
	if err := g.Acquire(ctx); err != nil {
		var zero T
		return zero, err
	}
	defer g.Release()
	slog.DebugContext(ctx, "gate.acquired", "wait", time.Since(start))
	return fn()
}
