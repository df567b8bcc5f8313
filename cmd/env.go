package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/visitor-intel/internal/config"
	"github.com/sells-group/visitor-intel/internal/enrich"
	"github.com/sells-group/visitor-intel/internal/followup"
	"github.com/sells-group/visitor-intel/internal/ipintel"
	"github.com/sells-group/visitor-intel/internal/monitoring"
	"github.com/sells-group/visitor-intel/internal/resilience"
	"github.com/sells-group/visitor-intel/internal/store"
	"github.com/sells-group/visitor-intel/internal/tracking"
	"github.com/sells-group/visitor-intel/pkg/apollo"
	"github.com/sells-group/visitor-intel/pkg/hunter"
	"github.com/sells-group/visitor-intel/pkg/ipinfo"
	"github.com/sells-group/visitor-intel/pkg/pdl"
)

// appEnv holds the store and every service built on it.
type appEnv struct {
	Store      store.Store
	Classifier *ipintel.Classifier
	Resolver   *ipintel.Resolver
	Quota      *enrich.Quota
	Enrich     *enrich.Service
	Tracking   *tracking.Service
	FollowUps  *followup.Service
	Analytics  *monitoring.Collector
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func httpClient(p config.ProviderConfig) *http.Client {
	timeout := time.Duration(p.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func quotaLimits() map[string]int {
	return map[string]int{
		enrich.ProviderPDL:    cfg.PDL.MonthlyQuota,
		enrich.ProviderHunter: cfg.Hunter.MonthlyQuota,
		enrich.ProviderApollo: cfg.Apollo.MonthlyQuota,
	}
}

func newClassifier() (*ipintel.Classifier, error) {
	rules, err := ipintel.LoadRules(cfg.Classifier.RulesFile)
	if err != nil {
		return nil, eris.Wrap(err, "load classifier rules")
	}
	c, err := ipintel.NewClassifier(rules)
	if err != nil {
		return nil, eris.Wrap(err, "build classifier")
	}
	return c, nil
}

func newResolver(breakers *resilience.Breakers) *ipintel.Resolver {
	client := ipinfo.NewClient(cfg.IPInfo.Key,
		ipinfo.WithBaseURL(cfg.IPInfo.BaseURL),
		ipinfo.WithRateLimit(cfg.IPInfo.RateLimit, cfg.IPInfo.Burst),
		ipinfo.WithHTTPClient(httpClient(cfg.IPInfo)),
	)
	return ipintel.NewResolver(client, ipintel.WithBreaker(breakers.Get("ipinfo")))
}

// initEnv opens the store and wires the classifier, resolver, providers and
// services. Providers without a key are left out. Callers should defer
// env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	missing, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	for _, key := range missing {
		zap.L().Warn("provider key not set, source disabled", zap.String("env", key))
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	classifier, err := newClassifier()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	breakers := resilience.NewBreakers(resilience.FromCircuitConfig(cfg.Enrich.CircuitThreshold, cfg.Enrich.CircuitResetSecs))
	retry := resilience.FromRetryConfig(cfg.Enrich.RetryAttempts, cfg.Enrich.RetryBackoffMs)
	quota := enrich.NewQuota(st, quotaLimits())
	guard := enrich.NewGuard(quota, breakers, retry)

	resolver := newResolver(breakers)

	var (
		firmographic enrich.Firmographic
		social       enrich.SocialLookup
		contacts     enrich.ContactEnricher
		finders      []enrich.ContactFinder
	)
	if cfg.PDL.Key != "" {
		p := enrich.NewPDL(pdl.NewClient(cfg.PDL.Key,
			pdl.WithBaseURL(cfg.PDL.BaseURL),
			pdl.WithRateLimit(cfg.PDL.RateLimit, cfg.PDL.Burst),
			pdl.WithHTTPClient(httpClient(cfg.PDL)),
		), guard)
		firmographic, social = p, p
	}
	if cfg.Hunter.Key != "" {
		finders = append(finders, enrich.NewHunter(hunter.NewClient(cfg.Hunter.Key,
			hunter.WithBaseURL(cfg.Hunter.BaseURL),
			hunter.WithRateLimit(cfg.Hunter.RateLimit, cfg.Hunter.Burst),
			hunter.WithHTTPClient(httpClient(cfg.Hunter)),
		), guard, cfg.Enrich.ContactLimit, cfg.Enrich.HunterMinScore))
	}
	if cfg.Apollo.Key != "" {
		a := enrich.NewApollo(apollo.NewClient(cfg.Apollo.Key,
			apollo.WithBaseURL(cfg.Apollo.BaseURL),
			apollo.WithRateLimit(cfg.Apollo.RateLimit, cfg.Apollo.Burst),
			apollo.WithHTTPClient(httpClient(cfg.Apollo)),
		), guard, cfg.Enrich.ContactLimit)
		finders = append(finders, a)
		contacts = a
	}

	opts := []enrich.ServiceOption{enrich.WithQuota(quota)}
	if contacts != nil {
		opts = append(opts, enrich.WithContactEnricher(contacts))
	}
	batcher := enrich.NewBatcher(cfg.Enrich.ChunkSize, time.Duration(cfg.Enrich.CooldownSecs)*time.Second)
	svc := enrich.NewService(st, enrich.NewOrchestrator(firmographic, social, finders...), batcher, opts...)

	zap.L().Info("environment ready",
		zap.String("store", cfg.Store.Driver),
		zap.Int("contact_finders", len(finders)),
		zap.Bool("firmographic", firmographic != nil),
	)

	return &appEnv{
		Store:      st,
		Classifier: classifier,
		Resolver:   resolver,
		Quota:      quota,
		Enrich:     svc,
		Tracking:   tracking.NewService(st, classifier, resolver, firmographic),
		FollowUps:  followup.NewService(st),
		Analytics:  monitoring.NewCollector(st),
	}, nil
}
