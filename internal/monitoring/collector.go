package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visitor-intel/internal/model"
	"github.com/sells-group/visitor-intel/internal/store"
)

const recentVisitCount = 10

// Analytics is the dashboard summary for one client.
type Analytics struct {
	TotalVisits         int           `json:"totalVisits"`
	IdentifiedCompanies int           `json:"identifiedCompanies"`
	TotalContacts       int           `json:"totalContacts"`
	RecentVisits        []model.Visit `json:"recentVisits"`
	CollectedAt         time.Time     `json:"collectedAt"`
}

// AnalyticsStore is the subset of store.Store the collector reads.
type AnalyticsStore interface {
	CountVisits(ctx context.Context, clientID string) (store.VisitCounts, error)
	CountContacts(ctx context.Context, clientID string) (int, error)
	ListVisits(ctx context.Context, filter store.VisitFilter) ([]model.Visit, error)
}

// Collector gathers per-client analytics from the store.
type Collector struct {
	store AnalyticsStore
}

// NewCollector creates a new analytics collector.
func NewCollector(st AnalyticsStore) *Collector {
	return &Collector{store: st}
}

// Collect builds the analytics summary for clientID. IdentifiedCompanies
// counts visits attributed to a company.
func (c *Collector) Collect(ctx context.Context, clientID string) (*Analytics, error) {
	if clientID == "" {
		return nil, eris.New("monitoring: client id is required")
	}
	snap := &Analytics{CollectedAt: time.Now().UTC()}

	counts, err := c.store.CountVisits(ctx, clientID)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count visits")
	}
	snap.TotalVisits = counts.Total
	snap.IdentifiedCompanies = counts.Identified

	snap.TotalContacts, err = c.store.CountContacts(ctx, clientID)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count contacts")
	}

	snap.RecentVisits, err = c.store.ListVisits(ctx, store.VisitFilter{ClientID: clientID, Limit: recentVisitCount})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list recent visits")
	}
	if snap.RecentVisits == nil {
		snap.RecentVisits = []model.Visit{}
	}
	return snap, nil
}
