// Package api serves the tracking endpoint used by the browser snippet and
// the enrichment and CRM endpoints used by the dashboard.
package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/visitor-intel/internal/config"
	"github.com/sells-group/visitor-intel/internal/enrich"
	"github.com/sells-group/visitor-intel/internal/followup"
	"github.com/sells-group/visitor-intel/internal/model"
	"github.com/sells-group/visitor-intel/internal/monitoring"
	"github.com/sells-group/visitor-intel/internal/store"
	"github.com/sells-group/visitor-intel/internal/tracking"
)

// Store is the read side of the record store the handlers use directly.
type Store interface {
	GetClientByAPIKey(ctx context.Context, apiKey string) (*model.Client, error)
	GetCompany(ctx context.Context, clientID, id string) (*model.Company, error)
	ListCompanies(ctx context.Context, clientID string, limit int) ([]model.Company, error)
	ListContacts(ctx context.Context, filter store.ContactFilter) ([]model.Contact, error)
	ListVisits(ctx context.Context, filter store.VisitFilter) ([]model.Visit, error)
}

// Tracker ingests one ping.
type Tracker interface {
	Track(ctx context.Context, client *model.Client, ip string, ping tracking.Ping) (*tracking.Outcome, error)
}

// Enricher runs on-demand and batch enrichment.
type Enricher interface {
	EnrichCompany(ctx context.Context, clientID, companyID string) (*enrich.CompanyOutcome, error)
	BatchEnrich(ctx context.Context, clientID string, companyIDs []string) (*enrich.BatchReport, error)
	Estimate(n int) enrich.BatchEstimate
	EnrichContact(ctx context.Context, email string) (*model.ContactDetails, error)
	Usage(ctx context.Context) ([]enrich.ProviderUsage, error)
}

// Analytics summarizes a client's traffic.
type Analytics interface {
	Collect(ctx context.Context, clientID string) (*monitoring.Analytics, error)
}

// FollowUps manages scheduled follow-ups.
type FollowUps interface {
	Create(ctx context.Context, req followup.Request) (*model.FollowUp, error)
	List(ctx context.Context, filter store.FollowUpFilter) ([]model.FollowUp, error)
	Complete(ctx context.Context, clientID, id string) (*model.FollowUp, error)
	Cancel(ctx context.Context, clientID, id string) (*model.FollowUp, error)
}

// Deps are the collaborators a Server routes to.
type Deps struct {
	Store     Store
	Tracker   Tracker
	Enricher  Enricher
	Analytics Analytics
	FollowUps FollowUps
}

// Server holds the HTTP handlers. Batch enrichment outlives its request and
// runs on the server's base context.
type Server struct {
	Deps
	cfg         config.ServerConfig
	recentHours int
	limiter     *clientLimiter
	baseCtx     context.Context
	wg          sync.WaitGroup
}

// NewServer creates a Server. ctx bounds background work started by
// handlers.
func NewServer(ctx context.Context, deps Deps, srv config.ServerConfig, trk config.TrackingConfig) *Server {
	hours := trk.RecentHours
	if hours <= 0 {
		hours = 24
	}
	return &Server{
		Deps:        deps,
		cfg:         srv,
		recentHours: hours,
		limiter:     newClientLimiter(trk.RateLimit, trk.Burst),
		baseCtx:     ctx,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(accessLog)
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.With(s.clientAuth, s.rateLimit).Post("/track", s.handleTrack)

		r.Group(func(r chi.Router) {
			r.Use(s.adminAuth)

			r.Post("/enrich/company", s.handleEnrichCompany)
			r.Post("/enrich/batch", s.handleEnrichBatch)
			r.Get("/enrich/contact", s.handleEnrichContact)
			r.Get("/providers/usage", s.handleProviderUsage)

			r.Get("/visitors/recent", s.handleRecentVisitors)
			r.Get("/analytics", s.handleAnalytics)
			r.Get("/companies", s.handleListCompanies)
			r.Get("/companies/{id}/contacts", s.handleCompanyContacts)

			r.Post("/followups", s.handleCreateFollowUp)
			r.Get("/followups", s.handleListFollowUps)
			r.Post("/followups/{id}/complete", s.handleCompleteFollowUp)
			r.Post("/followups/{id}/cancel", s.handleCancelFollowUp)
		})
	})

	return r
}

// Wait blocks until background batch runs have finished.
func (s *Server) Wait() {
	s.wg.Wait()
}
