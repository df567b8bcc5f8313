package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visitor-intel/internal/resilience"
	"github.com/sells-group/visitor-intel/pkg/hunter"
)

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestGuard_NilRunsDirectly(t *testing.T) {
	got, err := call(context.Background(), nil, ProviderPDL, "op", func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestGuard_RetriesConsumeQuota(t *testing.T) {
	ctx := context.Background()
	usage := newMemUsage()
	g := NewGuard(fixedQuota(usage, map[string]int{ProviderHunter: 2}), nil, fastRetry(3))

	calls := 0
	_, err := call(ctx, g, ProviderHunter, "domain_search", func(context.Context) (string, error) {
		calls++
		return "", &hunter.StatusError{StatusCode: 503, Body: "unavailable"}
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQuotaExceeded, "third attempt is refused by the quota")
	assert.Equal(t, 2, calls)
	assert.Equal(t, 3, usage.counts[ProviderHunter+"/2026-10"])
}

func TestGuard_QuotaExceededNotRetried(t *testing.T) {
	ctx := context.Background()
	usage := newMemUsage()
	usage.counts[ProviderApollo+"/2026-10"] = 5
	g := NewGuard(fixedQuota(usage, map[string]int{ProviderApollo: 5}), nil, fastRetry(4))

	calls := 0
	_, err := call(ctx, g, ProviderApollo, "people_search", func(context.Context) (int, error) {
		calls++
		return 1, nil
	})

	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Zero(t, calls)
	assert.Equal(t, 6, usage.counts[ProviderApollo+"/2026-10"])
}

func TestGuard_OpenCircuitSkipsProviderAndQuota(t *testing.T) {
	ctx := context.Background()
	usage := newMemUsage()
	breakers := resilience.NewBreakers(resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	g := NewGuard(fixedQuota(usage, map[string]int{ProviderPDL: 100}), breakers, fastRetry(1))

	calls := 0
	fail := func(context.Context) (int, error) {
		calls++
		return 0, &hunter.StatusError{StatusCode: 502}
	}

	_, err := call(ctx, g, ProviderPDL, "enrich_company", fail)
	require.Error(t, err)
	_, err = call(ctx, g, ProviderPDL, "enrich_company", fail)

	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, usage.counts[ProviderPDL+"/2026-10"])
	assert.Equal(t, resilience.CircuitOpen, breakers.Get(ProviderPDL).State())
}

func TestGuard_NonTransientNotRetried(t *testing.T) {
	g := NewGuard(nil, nil, fastRetry(3))
	calls := 0
	_, err := call(context.Background(), g, ProviderHunter, "domain_search", func(context.Context) (int, error) {
		calls++
		return 0, &hunter.StatusError{StatusCode: 401}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
