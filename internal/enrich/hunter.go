package enrich

import (
	"context"
	"strings"

	"github.com/sells-group/visitor-intel/internal/apperr"
	"github.com/sells-group/visitor-intel/internal/model"
	"github.com/sells-group/visitor-intel/pkg/hunter"
)

// Hunter finds email contacts through Hunter's domain search.
type Hunter struct {
	client        hunter.Client
	guard         *Guard
	limit         int
	minConfidence int
}

// NewHunter creates the Hunter finder. Only emails scoring strictly above
// minConfidence are kept.
func NewHunter(client hunter.Client, guard *Guard, limit, minConfidence int) *Hunter {
	if limit <= 0 {
		limit = 10
	}
	return &Hunter{client: client, guard: guard, limit: limit, minConfidence: minConfidence}
}

// Name implements ContactFinder.
func (h *Hunter) Name() string { return ProviderHunter }

// FindContacts implements ContactFinder.
func (h *Hunter) FindContacts(ctx context.Context, domain string) ([]model.CandidateContact, error) {
	resp, err := call(ctx, h.guard, ProviderHunter, "domain_search", func(ctx context.Context) (*hunter.DomainSearchResponse, error) {
		return h.client.DomainSearch(ctx, domain, h.limit)
	})
	if err != nil {
		return nil, apperr.Provider(ProviderHunter, err)
	}

	var out []model.CandidateContact
	for _, e := range resp.Data.Emails {
		if e.Confidence <= h.minConfidence {
			continue
		}
		out = append(out, model.CandidateContact{
			FirstName:   strings.TrimSpace(e.FirstName),
			LastName:    strings.TrimSpace(e.LastName),
			Email:       strings.TrimSpace(e.Value),
			Title:       strings.TrimSpace(e.Position),
			Phone:       NormalizePhone(e.PhoneNumber, ""),
			LinkedInURL: e.LinkedIn,
			Confidence:  e.Confidence,
			Provider:    ProviderHunter,
		})
	}
	return out, nil
}
