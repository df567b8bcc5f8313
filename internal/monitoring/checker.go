package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/visitor-intel/internal/config"
	"github.com/sells-group/visitor-intel/internal/enrich"
)

// UsageReporter reports provider quota consumption.
type UsageReporter interface {
	Usage(ctx context.Context) ([]enrich.ProviderUsage, error)
}

// Checker runs periodic quota checks in the background. Each alert is sent
// at most once per provider and quota period.
type Checker struct {
	usage   UsageReporter
	alerter *Alerter
	cfg     config.MonitoringConfig
	sent    map[string]struct{}
}

// NewChecker creates a background quota checker.
func NewChecker(usage UsageReporter, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		usage:   usage,
		alerter: alerter,
		cfg:     cfg,
		sent:    make(map[string]struct{}),
	}
}

// Run starts the periodic check loop. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting quota checker",
		zap.Duration("interval", interval),
		zap.Float64("alert_fraction", c.cfg.QuotaAlertFraction),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("quota checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) int {
	usage, err := c.usage.Usage(ctx)
	if err != nil {
		log.Error("monitoring: failed to read provider usage", zap.Error(err))
		return 0
	}

	periods := make(map[string]string, len(usage))
	for _, u := range usage {
		periods[u.Provider] = u.Period
	}

	var fresh []Alert
	for _, a := range c.alerter.Evaluate(usage) {
		if _, ok := c.sent[a.key(periods[a.Provider])]; ok {
			continue
		}
		fresh = append(fresh, a)
	}
	if len(fresh) == 0 {
		log.Debug("monitoring: no alerts triggered")
		return 0
	}

	sent := c.alerter.SendAlerts(ctx, fresh)
	for _, a := range fresh {
		c.sent[a.key(periods[a.Provider])] = struct{}{}
	}
	log.Info("monitoring: quota check complete",
		zap.Int("alerts_triggered", len(fresh)),
		zap.Int("alerts_sent", sent),
	)
	return len(fresh)
}
