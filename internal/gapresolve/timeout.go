package gapresolve

import (
	"context"
	"time"

	"github.com/hyperifyio/reasoncore/internal/gapresolve/cache"
)

// withTimeoutStaleFallback runs fn under timeout. If fn fails to complete
// in time (or otherwise errors), it returns the last cached value for key
// even if stale, rather than propagating the error: on
// expiry it returns a stale cached hit if available, otherwise an empty
// list. A genuine adapter error after the deadline with no stale entry
// still surfaces as an empty, error-free result so one failing channel
// never stalls the whole gap-resolution round.
func withTimeoutStaleFallback[V any](
	ctx context.Context,
	timeout time.Duration,
	c *cache.Cache[[]V],
	key string,
	fn func(context.Context) ([]V, error),
) (values []V, freshlyFetched bool) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		values []V
		err    error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(callCtx)
		done <- result{values: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return r.values, true
		}
		if stale, ok := c.GetStale(key); ok {
			return stale, false
		}
		return nil, false
	case <-callCtx.Done():
		if stale, ok := c.GetStale(key); ok {
			return stale, false
		}
		return nil, false
	}
}
