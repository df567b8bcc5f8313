// Package enrich fans out to firmographic, contact and social providers and
// applies their results to stored companies.
package enrich

import (
	"context"

	"github.com/sells-group/visitor-intel/internal/model"
)

// Provider names as recorded on outcomes, quotas and candidate contacts.
const (
	ProviderPDL    = "pdl"
	ProviderHunter = "hunter"
	ProviderApollo = "apollo"
)

// Firmographic looks up a company profile by domain.
type Firmographic interface {
	EnrichByDomain(ctx context.Context, domain string) (*model.CompanyProfile, error)
}

// ContactFinder discovers people at a domain.
type ContactFinder interface {
	Name() string
	FindContacts(ctx context.Context, domain string) ([]model.CandidateContact, error)
}

// SocialLookup returns social profile URLs keyed by network.
type SocialLookup interface {
	SocialProfiles(ctx context.Context, domain string) (map[string]string, error)
}

// ContactEnricher returns extra details for a known email.
type ContactEnricher interface {
	EnrichContact(ctx context.Context, email string) (*model.ContactDetails, error)
}
