package ipintel

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/visitor-intel/internal/apperr"
	"github.com/sells-group/visitor-intel/internal/model"
	"github.com/sells-group/visitor-intel/internal/resilience"
	"github.com/sells-group/visitor-intel/pkg/ipinfo"
)

const providerIPInfo = "ipinfo"

// Info is the resolved view of a visitor IP.
type Info struct {
	Location model.Location `json:"location"`
	OrgName  string         `json:"orgName,omitempty"`
	RawOrg   string         `json:"rawOrg,omitempty"`
	Hostname string         `json:"hostname,omitempty"`
	Domain   string         `json:"domain,omitempty"`
	Resolved bool           `json:"resolved"`
}

// Resolver maps an IP to organization and location through an IP
// intelligence provider. Provider failures degrade to an unknown location.
type Resolver struct {
	client  ipinfo.Client
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithBreaker guards lookups with a circuit breaker.
func WithBreaker(cb *resilience.CircuitBreaker) ResolverOption {
	return func(r *Resolver) { r.breaker = cb }
}

// WithRetry overrides the lookup retry policy.
func WithRetry(cfg resilience.RetryConfig) ResolverOption {
	return func(r *Resolver) { r.retry = cfg }
}

// NewResolver creates a Resolver backed by client.
func NewResolver(client ipinfo.Client, opts ...ResolverOption) *Resolver {
	r := &Resolver{client: client, retry: resilience.RetryConfig{MaxAttempts: 1}}
	for _, o := range opts {
		o(r)
	}
	if r.retry.OnRetry == nil {
		r.retry.OnRetry = resilience.RetryLogger(providerIPInfo, "lookup")
	}
	return r
}

// Resolve never fails. When the provider errors, the returned Info has an
// unknown location, no org, and Resolved=false.
func (r *Resolver) Resolve(ctx context.Context, ip string) Info {
	start := time.Now()
	resp, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) (*ipinfo.Response, error) {
		if r.breaker == nil {
			return r.client.Lookup(ctx, ip)
		}
		return resilience.ExecuteVal(ctx, r.breaker, func(ctx context.Context) (*ipinfo.Response, error) {
			return r.client.Lookup(ctx, ip)
		})
	})
	if err != nil {
		zap.L().Warn("ip resolution failed",
			zap.String("ip", ip),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(apperr.Provider(providerIPInfo, err)),
		)
		return Info{Location: model.UnknownLocation}
	}

	info := Info{
		Location: model.Location{
			Country: orUnknown(resp.Country),
			Region:  orUnknown(resp.Region),
			City:    orUnknown(resp.City),
		},
		RawOrg:   strings.TrimSpace(resp.Org),
		OrgName:  NormalizeOrg(resp.Org),
		Hostname: resp.Hostname,
		Domain:   InferDomain(resp.Hostname),
		Resolved: true,
	}
	zap.L().Debug("ip resolved",
		zap.String("ip", ip),
		zap.String("org", info.OrgName),
		zap.String("domain", info.Domain),
		zap.Duration("elapsed", time.Since(start)),
	)
	return info
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "Unknown"
	}
	return s
}
