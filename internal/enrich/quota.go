package enrich

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visitor-intel/internal/store"
)

// ErrQuotaExceeded is returned when a provider's monthly allowance is spent.
var ErrQuotaExceeded = eris.New("monthly provider quota exceeded")

// UsageStore persists per-provider call counters.
type UsageStore interface {
	AddProviderUsage(ctx context.Context, provider, period string, n int) (int, error)
	GetProviderUsage(ctx context.Context, provider, period string) (int, error)
}

// ProviderUsage reports a provider's consumption for the current period.
type ProviderUsage struct {
	Provider  string `json:"provider"`
	Period    string `json:"period"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

// Quota enforces monthly call limits. A limit of 0 means unlimited.
type Quota struct {
	store  UsageStore
	limits map[string]int
	now    func() time.Time
}

// NewQuota creates a Quota over st with per-provider limits.
func NewQuota(st UsageStore, limits map[string]int) *Quota {
	return &Quota{store: st, limits: limits, now: time.Now}
}

// Reserve counts one call against provider. The counter is incremented
// before the limit check so concurrent callers never both take the last slot.
func (q *Quota) Reserve(ctx context.Context, provider string) error {
	limit := q.limits[provider]
	period := store.UsagePeriod(q.now())
	used, err := q.store.AddProviderUsage(ctx, provider, period, 1)
	if err != nil {
		return eris.Wrapf(err, "quota: reserve %s", provider)
	}
	if limit > 0 && used > limit {
		return eris.Wrapf(ErrQuotaExceeded, "%s used %d of %d in %s", provider, used-1, limit, period)
	}
	return nil
}

// Remaining returns the calls left this period, or -1 when unlimited.
func (q *Quota) Remaining(ctx context.Context, provider string) (int, error) {
	u, err := q.usage(ctx, provider)
	if err != nil {
		return 0, err
	}
	return u.Remaining, nil
}

// Usage reports every configured provider, sorted by name.
func (q *Quota) Usage(ctx context.Context) ([]ProviderUsage, error) {
	names := make([]string, 0, len(q.limits))
	for name := range q.limits {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]ProviderUsage, 0, len(names))
	for _, name := range names {
		u, err := q.usage(ctx, name)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (q *Quota) usage(ctx context.Context, provider string) (ProviderUsage, error) {
	period := store.UsagePeriod(q.now())
	used, err := q.store.GetProviderUsage(ctx, provider, period)
	if err != nil {
		return ProviderUsage{}, eris.Wrapf(err, "quota: usage %s", provider)
	}
	u := ProviderUsage{Provider: provider, Period: period, Used: used, Limit: q.limits[provider], Remaining: -1}
	if u.Limit > 0 {
		u.Remaining = max(u.Limit-used, 0)
	}
	return u, nil
}
