package fetch

import (
	"context"

	"github.com/danmuck/msgchain/internal/wire"
	"golang.org/x/time/rate"
)

// RateLimited throttles calls to the wrapped fetcher.
type RateLimited struct {
	next    Fetcher
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond fetches with the given burst.
// A non-positive perSecond disables limiting.
func NewRateLimited(next Fetcher, perSecond float64, burst int) *RateLimited {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimited) Fetch(ctx context.Context, req Request) ([]wire.Message, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return r.next.Fetch(ctx, req)
}
