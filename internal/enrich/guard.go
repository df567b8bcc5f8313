package enrich

import (
	"context"
	"errors"

	"github.com/sells-group/visitor-intel/internal/resilience"
)

// Guard wraps every provider call with quota accounting, a per-provider
// circuit breaker and retries. Each attempt, retries included, consumes
// quota.
type Guard struct {
	quota    *Quota
	breakers *resilience.Breakers
	retry    resilience.RetryConfig
}

// NewGuard creates a Guard. A nil quota or breakers disables that layer.
func NewGuard(quota *Quota, breakers *resilience.Breakers, retry resilience.RetryConfig) *Guard {
	return &Guard{quota: quota, breakers: breakers, retry: retry}
}

// call runs fn for provider under the guard's policies. A nil Guard runs fn
// directly.
func call[T any](ctx context.Context, g *Guard, provider, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	if g == nil {
		return fn(ctx)
	}

	attempt := func(ctx context.Context) (T, error) {
		if g.quota != nil {
			if err := g.quota.Reserve(ctx, provider); err != nil {
				var zero T
				return zero, err
			}
		}
		return fn(ctx)
	}

	cfg := g.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(provider, op)
	}
	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = resilience.IsTransient
	}
	cfg.ShouldRetry = func(err error) bool {
		if errors.Is(err, ErrQuotaExceeded) || errors.Is(err, resilience.ErrCircuitOpen) {
			return false
		}
		return shouldRetry(err)
	}

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (T, error) {
		if g.breakers == nil {
			return attempt(ctx)
		}
		return resilience.ExecuteVal(ctx, g.breakers.Get(provider), attempt)
	})
}
