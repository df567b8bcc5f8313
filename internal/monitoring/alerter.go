package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/visitor-intel/internal/config"
	"github.com/sells-group/visitor-intel/internal/enrich"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertQuotaLow       AlertType = "provider_quota_low"
	AlertQuotaExhausted AlertType = "provider_quota_exhausted"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Provider  string         `json:"provider"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func (a Alert) key(period string) string {
	return string(a.Type) + "/" + a.Provider + "/" + period
}

// Alerter evaluates provider usage against the configured threshold and
// sends alerts via webhook.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate returns an alert for every metered provider whose usage reached
// the alert fraction of its monthly quota. Unmetered providers never alert.
func (a *Alerter) Evaluate(usage []enrich.ProviderUsage) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	for _, u := range usage {
		if u.Limit <= 0 {
			continue
		}
		details := map[string]any{
			"period":    u.Period,
			"used":      u.Used,
			"limit":     u.Limit,
			"remaining": u.Remaining,
		}
		switch {
		case u.Remaining == 0:
			alerts = append(alerts, Alert{
				Type:      AlertQuotaExhausted,
				Severity:  "high",
				Provider:  u.Provider,
				Message:   fmt.Sprintf("%s quota exhausted for %s (%d/%d calls)", u.Provider, u.Period, u.Used, u.Limit),
				Details:   details,
				Timestamp: now,
			})
		case a.cfg.QuotaAlertFraction > 0 && float64(u.Used) >= a.cfg.QuotaAlertFraction*float64(u.Limit):
			alerts = append(alerts, Alert{
				Type:     AlertQuotaLow,
				Severity: "warning",
				Provider: u.Provider,
				Message: fmt.Sprintf("%s used %.0f%% of its %s quota (%d remaining)",
					u.Provider, 100*float64(u.Used)/float64(u.Limit), u.Period, u.Remaining),
				Details:   details,
				Timestamp: now,
			})
		}
	}
	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.String("provider", alert.Provider),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("provider", alert.Provider),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
