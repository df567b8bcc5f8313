package enrich

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/visitor-intel/internal/apperr"
	"github.com/sells-group/visitor-intel/internal/model"
)

// Store is the persistence the enrichment service writes through.
type Store interface {
	GetCompany(ctx context.Context, clientID, id string) (*model.Company, error)
	UpdateCompany(ctx context.Context, company *model.Company) error
	CreateContact(ctx context.Context, contact model.Contact) (*model.Contact, bool, error)
}

// CompanyOutcome is the result of enriching and persisting one company.
type CompanyOutcome struct {
	CompanyID      string            `json:"companyId"`
	Domain         string            `json:"domain,omitempty"`
	Company        *model.Company    `json:"company,omitempty"`
	Contacts       []model.Contact   `json:"contacts"`
	SocialProfiles map[string]string `json:"socialProfiles,omitempty"`
	Outcomes       []Outcome         `json:"outcomes,omitempty"`
	Error          string            `json:"error,omitempty"`
}

// BatchReport summarizes a batch run.
type BatchReport struct {
	Requested int              `json:"requested"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Waves     int              `json:"waves"`
	Cancelled bool             `json:"cancelled,omitempty"`
	Results   []CompanyOutcome `json:"results"`
}

// BatchEstimate is returned to callers before a batch runs.
type BatchEstimate struct {
	Companies int           `json:"companies"`
	Waves     int           `json:"waves"`
	Duration  time.Duration `json:"-"`
	Seconds   int           `json:"seconds"`
}

// Service applies orchestrator results to stored companies.
type Service struct {
	store         Store
	orch          *Orchestrator
	batcher       *Batcher
	contacts      ContactEnricher
	quota         *Quota
	waveAllowance time.Duration
	now           func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithContactEnricher enables per-email contact enrichment.
func WithContactEnricher(ce ContactEnricher) ServiceOption {
	return func(s *Service) { s.contacts = ce }
}

// WithQuota exposes provider usage through the service.
func WithQuota(q *Quota) ServiceOption {
	return func(s *Service) { s.quota = q }
}

// WithWaveAllowance sets the expected duration of one wave used by Estimate.
func WithWaveAllowance(d time.Duration) ServiceOption {
	return func(s *Service) { s.waveAllowance = d }
}

// NewService creates a Service.
func NewService(st Store, orch *Orchestrator, batcher *Batcher, opts ...ServiceOption) *Service {
	s := &Service{
		store:         st,
		orch:          orch,
		batcher:       batcher,
		waveAllowance: 2 * time.Second,
		now:           time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// EnrichCompany enriches one stored company and persists the result.
// Provider failures are reported in the outcome, not as errors; running it
// twice never duplicates contacts.
func (s *Service) EnrichCompany(ctx context.Context, clientID, companyID string) (*CompanyOutcome, error) {
	if clientID == "" {
		return nil, apperr.Validation("clientId", "is required")
	}
	if companyID == "" {
		return nil, apperr.Validation("companyId", "is required")
	}

	company, err := s.store.GetCompany(ctx, clientID, companyID)
	if err != nil {
		return nil, apperr.Fatal(err)
	}
	if company == nil {
		return nil, apperr.NotFound("company", "Company not found")
	}
	domain := strings.TrimSpace(company.Domain)
	if domain == "" {
		return nil, apperr.Validation("domain", "is required for enrichment")
	}

	log := zap.L().With(zap.String("company_id", companyID), zap.String("domain", domain))
	res := s.orch.EnrichCompany(ctx, domain)

	if MergeProfile(company, res.Profile, res.SocialProfiles, s.now().UTC()) {
		if err := s.store.UpdateCompany(ctx, company); err != nil {
			return nil, apperr.Fatal(eris.Wrapf(err, "enrich: update company %s", companyID))
		}
	}

	out := &CompanyOutcome{
		CompanyID:      companyID,
		Domain:         domain,
		Company:        company,
		Contacts:       []model.Contact{},
		SocialProfiles: res.SocialProfiles,
		Outcomes:       res.Outcomes,
	}
	for _, cand := range res.Contacts {
		if !cand.Persistable() {
			continue
		}
		ct, created, err := s.store.CreateContact(ctx, model.Contact{
			ClientID:    clientID,
			CompanyID:   companyID,
			FirstName:   cand.FirstName,
			LastName:    cand.LastName,
			Email:       cand.Email,
			Title:       cand.Title,
			Phone:       cand.Phone,
			LinkedInURL: cand.LinkedInURL,
			Source:      model.ContactSourceEnrichment,
		})
		if err != nil {
			return nil, apperr.Fatal(eris.Wrapf(err, "enrich: create contact for %s", companyID))
		}
		if created {
			out.Contacts = append(out.Contacts, *ct)
		}
	}

	log.Info("company enriched",
		zap.Bool("profile", res.Profile != nil),
		zap.Int("candidates", len(res.Contacts)),
		zap.Int("contacts_created", len(out.Contacts)),
	)
	return out, nil
}

// MergeProfile copies non-empty profile fields onto c and merges social
// profiles. EnrichedAt is stamped only when a profile is applied. It reports
// whether c changed.
func MergeProfile(c *model.Company, prof *model.CompanyProfile, social map[string]string, now time.Time) bool {
	changed := false
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	if prof != nil {
		set(&c.Name, prof.Name)
		set(&c.Industry, prof.Industry)
		if prof.Size != model.SizeUnknown {
			set(&c.Size, prof.Size)
		}
		set(&c.Location, prof.Location)
		set(&c.Description, prof.Description)
		set(&c.Website, prof.Website)
		set(&c.LogoURL, prof.LogoURL)
		c.EnrichedAt = &now
		changed = true
	}
	if len(social) > 0 {
		if c.SocialProfiles == nil {
			c.SocialProfiles = make(map[string]string, len(social))
		}
		for k, v := range social {
			if c.SocialProfiles[k] != v {
				c.SocialProfiles[k] = v
				changed = true
			}
		}
	}
	return changed
}

// BatchEnrich enriches companyIDs in waves. Per-company failures are
// recorded in the report and never stop the batch.
func (s *Service) BatchEnrich(ctx context.Context, clientID string, companyIDs []string) (*BatchReport, error) {
	if clientID == "" {
		return nil, apperr.Validation("clientId", "is required")
	}
	report := &BatchReport{
		Requested: len(companyIDs),
		Results:   make([]CompanyOutcome, len(companyIDs)),
	}
	log := zap.L().With(zap.String("client_id", clientID), zap.Int("companies", len(companyIDs)))
	log.Info("batch enrichment started", zap.Int("waves", s.batcher.Waves(len(companyIDs))))

	var mu sync.Mutex
	waves, err := s.batcher.Run(ctx, len(companyIDs), func(ctx context.Context, i int) {
		id := companyIDs[i]
		out, err := s.EnrichCompany(ctx, clientID, id)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Failed++
			report.Results[i] = CompanyOutcome{CompanyID: id, Contacts: []model.Contact{}, Error: apperr.PublicMessage(err)}
			log.Warn("batch company failed", zap.String("company_id", id), zap.Error(err))
			return
		}
		report.Succeeded++
		report.Results[i] = *out
	})
	report.Waves = waves
	if err != nil {
		report.Cancelled = true
		log.Warn("batch enrichment cancelled", zap.Int("completed_waves", waves), zap.Error(err))
		return report, eris.Wrap(err, "enrich: batch")
	}

	log.Info("batch enrichment complete",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// Estimate predicts how long a batch of n companies takes.
func (s *Service) Estimate(n int) BatchEstimate {
	waves := s.batcher.Waves(n)
	d := time.Duration(waves) * s.waveAllowance
	if waves > 1 {
		d += time.Duration(waves-1) * s.batcher.Cooldown()
	}
	return BatchEstimate{Companies: n, Waves: waves, Duration: d, Seconds: int(d.Round(time.Second) / time.Second)}
}

// EnrichContact looks up details for a single email without storing them.
func (s *Service) EnrichContact(ctx context.Context, email string) (*model.ContactDetails, error) {
	if s.contacts == nil {
		return nil, apperr.Provider(ProviderApollo, errNotConfigured)
	}
	return s.contacts.EnrichContact(ctx, email)
}

// Usage reports provider quota consumption. Without a quota it is empty.
func (s *Service) Usage(ctx context.Context) ([]ProviderUsage, error) {
	if s.quota == nil {
		return []ProviderUsage{}, nil
	}
	return s.quota.Usage(ctx)
}
