package search

import (
	"context"
	"fmt"

	"github.com/m4xw311/searchagent/errors"
	"golang.org/x/time/rate"
)

// RateLimited enforces a process-wide query rate on the wrapped provider.
// Free endpoints such as DuckDuckGo block clients that exceed roughly one
// query per second.
type RateLimited struct {
	next    Provider
	limiter *rate.Limiter
}

// NewRateLimited wraps p with a token bucket of qps queries per second.
// A non-positive qps disables limiting and returns p unchanged.
func NewRateLimited(p Provider, qps float64) Provider {
	if qps <= 0 {
		return p
	}
	return &RateLimited{next: p, limiter: rate.NewLimiter(rate.Limit(qps), 1)}
}

func (r *RateLimited) Name() string { return r.next.Name() }

func (r *RateLimited) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		// Wait fails early, without a context error, when the deadline is
		// too close for the next token.
		if _, ok := ctx.Deadline(); ok && ctx.Err() == nil {
			err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return nil, errors.Wrapf(err, "waiting for %s rate limit", r.next.Name())
	}
	return r.next.Search(ctx, query, count)
}
