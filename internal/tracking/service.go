// Package tracking turns page-view pings into visits attributed to
// companies.
package tracking

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/visitor-intel/internal/apperr"
	"github.com/sells-group/visitor-intel/internal/enrich"
	"github.com/sells-group/visitor-intel/internal/ipintel"
	"github.com/sells-group/visitor-intel/internal/model"
)

const (
	MsgDevelopmentSkipped = "Development IP skipped"
	MsgResidentialSkipped = "Residential IP skipped"
)

// Ping is the payload posted by the tracking snippet.
type Ping struct {
	Page      string    `json:"page"`
	Referrer  string    `json:"referrer,omitempty"`
	UserAgent string    `json:"userAgent"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"sessionId"`
	ClientID  string    `json:"clientId"`
}

// Validate checks the fields every visit needs. A clientId, when sent, must
// name the client that owns the API key.
func (p Ping) Validate(clientID string) error {
	switch {
	case strings.TrimSpace(p.Page) == "":
		return apperr.Validation("page", "is required")
	case strings.TrimSpace(p.SessionID) == "":
		return apperr.Validation("sessionId", "is required")
	case strings.TrimSpace(p.UserAgent) == "":
		return apperr.Validation("userAgent", "is required")
	case p.ClientID != "" && p.ClientID != clientID:
		return apperr.Validation("clientId", "does not match API key")
	}
	return nil
}

// Outcome is the ingestion response body.
type Outcome struct {
	Success           bool   `json:"success"`
	VisitID           string `json:"visitId,omitempty"`
	CompanyIdentified bool   `json:"companyIdentified"`
	CompanyName       string `json:"companyName,omitempty"`
	Skipped           bool   `json:"skipped,omitempty"`
	Message           string `json:"message,omitempty"`
}

// Store is the persistence ingestion needs.
type Store interface {
	FindCompany(ctx context.Context, clientID, domain, name string) (*model.Company, error)
	GetOrCreateCompany(ctx context.Context, company model.Company) (*model.Company, bool, error)
	CreateVisit(ctx context.Context, visit model.Visit) (*model.Visit, error)
}

// Resolver maps an IP to org and location. It never fails.
type Resolver interface {
	Resolve(ctx context.Context, ip string) ipintel.Info
}

// Service runs the ingestion pipeline for one ping.
type Service struct {
	store        Store
	classifier   *ipintel.Classifier
	resolver     Resolver
	firmographic enrich.Firmographic
	now          func() time.Time
}

// NewService creates a Service. firmographic may be nil, in which case new
// companies are created from resolver data only.
func NewService(st Store, classifier *ipintel.Classifier, resolver Resolver, firmographic enrich.Firmographic) *Service {
	return &Service{
		store:        st,
		classifier:   classifier,
		resolver:     resolver,
		firmographic: firmographic,
		now:          time.Now,
	}
}

// Track records a visit from ip for an authenticated client. Skips are
// successful outcomes and record nothing.
func (s *Service) Track(ctx context.Context, client *model.Client, ip string, ping Ping) (*Outcome, error) {
	if client == nil || !client.IsActive {
		return nil, apperr.Authentication("Invalid API key")
	}
	if err := ping.Validate(client.ID); err != nil {
		return nil, err
	}
	log := zap.L().With(zap.String("client_id", client.ID), zap.String("ip", ip))

	if ipintel.IsLocal(ip) {
		log.Debug("visit skipped", zap.String("verdict", string(ipintel.VerdictLocal)))
		return &Outcome{Success: true, Skipped: true, Message: MsgDevelopmentSkipped}, nil
	}
	if s.classifier.IsResidentialIP(ip) {
		log.Debug("visit skipped", zap.String("verdict", string(ipintel.VerdictResidential)))
		return &Outcome{Success: true, Skipped: true, Message: MsgResidentialSkipped}, nil
	}

	info := s.resolver.Resolve(ctx, ip)
	if s.classifier.IsResidentialOrg(info.RawOrg) {
		log.Debug("visit skipped",
			zap.String("verdict", string(ipintel.VerdictResidential)),
			zap.String("org", info.RawOrg),
		)
		return &Outcome{Success: true, Skipped: true, Message: MsgResidentialSkipped}, nil
	}

	company, err := s.resolveCompany(ctx, client.ID, info)
	if err != nil {
		return nil, apperr.Fatal(err)
	}

	ts := ping.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	visit := model.Visit{
		ClientID:  client.ID,
		SessionID: ping.SessionID,
		IPAddress: ip,
		UserAgent: ping.UserAgent,
		Referrer:  ping.Referrer,
		Pages:     []string{ping.Page},
		Duration:  0,
		Timestamp: ts.UTC(),
		Location:  info.Location,
	}
	if company != nil {
		visit.CompanyID = company.ID
	}
	created, err := s.store.CreateVisit(ctx, visit)
	if err != nil {
		return nil, apperr.Fatal(eris.Wrap(err, "tracking: create visit"))
	}

	out := &Outcome{Success: true, VisitID: created.ID}
	if company != nil {
		out.CompanyIdentified = true
		out.CompanyName = company.Name
	}
	log.Info("visit recorded",
		zap.String("visit_id", created.ID),
		zap.Bool("identified", out.CompanyIdentified),
		zap.String("company", out.CompanyName),
	)
	return out, nil
}

// resolveCompany finds or creates the company behind info. It returns nil
// when neither an org name nor a firmographic profile names one.
func (s *Service) resolveCompany(ctx context.Context, clientID string, info ipintel.Info) (*model.Company, error) {
	if info.OrgName == "" && info.Domain == "" {
		return nil, nil
	}

	existing, err := s.store.FindCompany(ctx, clientID, info.Domain, info.OrgName)
	if err != nil {
		return nil, eris.Wrap(err, "tracking: find company")
	}
	if existing != nil {
		return existing, nil
	}

	candidate := model.Company{
		ClientID: clientID,
		Name:     info.OrgName,
		Domain:   info.Domain,
		Industry: model.IndustryUnknown,
		Size:     model.SizeUnknown,
	}
	if prof := s.profile(ctx, info.Domain); prof != nil {
		if candidate.Name == "" {
			candidate.Name = strings.TrimSpace(prof.Name)
		}
		if prof.Industry != "" {
			candidate.Industry = prof.Industry
		}
		if prof.Size != "" {
			candidate.Size = prof.Size
		}
		candidate.Location = prof.Location
		candidate.Description = prof.Description
		candidate.Website = prof.Website
		candidate.LogoURL = prof.LogoURL
	}
	if candidate.Name == "" {
		return nil, nil
	}

	company, created, err := s.store.GetOrCreateCompany(ctx, candidate)
	if err != nil {
		return nil, eris.Wrap(err, "tracking: get or create company")
	}
	if created {
		zap.L().Info("company created from visit",
			zap.String("client_id", clientID),
			zap.String("company_id", company.ID),
			zap.String("name", company.Name),
			zap.String("domain", company.Domain),
		)
	}
	return company, nil
}

// profile asks the firmographic provider about domain. Failures only cost
// the richer record.
func (s *Service) profile(ctx context.Context, domain string) *model.CompanyProfile {
	if s.firmographic == nil || domain == "" {
		return nil
	}
	prof, err := s.firmographic.EnrichByDomain(ctx, domain)
	if err != nil {
		zap.L().Debug("firmographic lookup during tracking failed",
			zap.String("domain", domain),
			zap.Stringer("kind", apperr.KindOf(err)),
			zap.Error(err),
		)
		return nil
	}
	return prof
}
