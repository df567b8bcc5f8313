package enrich

import (
	"context"
	"errors"
	"strings"

	"github.com/sells-group/visitor-intel/internal/apperr"
	"github.com/sells-group/visitor-intel/internal/model"
	"github.com/sells-group/visitor-intel/pkg/apollo"
)

// Apollo finds decision makers at a domain and enriches single contacts.
type Apollo struct {
	client  apollo.Client
	guard   *Guard
	perPage int
}

// NewApollo creates the Apollo finder and contact enricher.
func NewApollo(client apollo.Client, guard *Guard, perPage int) *Apollo {
	if perPage <= 0 {
		perPage = 10
	}
	return &Apollo{client: client, guard: guard, perPage: perPage}
}

// Name implements ContactFinder.
func (a *Apollo) Name() string { return ProviderApollo }

// FindContacts implements ContactFinder. Apollo often omits emails; those
// candidates are returned as-is and dropped later by deduplication.
func (a *Apollo) FindContacts(ctx context.Context, domain string) ([]model.CandidateContact, error) {
	req := apollo.PeopleSearchRequest{
		OrganizationDomains: []string{domain},
		PersonTitles:        apollo.DecisionMakerTitles,
		Page:                1,
		PerPage:             a.perPage,
	}
	resp, err := call(ctx, a.guard, ProviderApollo, "people_search", func(ctx context.Context) (*apollo.PeopleSearchResponse, error) {
		return a.client.SearchPeople(ctx, req)
	})
	if err != nil {
		return nil, apperr.Provider(ProviderApollo, err)
	}

	out := make([]model.CandidateContact, 0, len(resp.People))
	for _, p := range resp.People {
		out = append(out, model.CandidateContact{
			FirstName:   strings.TrimSpace(p.FirstName),
			LastName:    strings.TrimSpace(p.LastName),
			Email:       strings.TrimSpace(p.Email),
			Title:       strings.TrimSpace(p.Title),
			Phone:       firstPhone(p.PhoneNumbers),
			LinkedInURL: p.LinkedInURL,
			Provider:    ProviderApollo,
		})
	}
	return out, nil
}

// EnrichContact implements ContactEnricher.
func (a *Apollo) EnrichContact(ctx context.Context, email string) (*model.ContactDetails, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Validation("email", "is required")
	}
	p, err := call(ctx, a.guard, ProviderApollo, "people_match", func(ctx context.Context) (*apollo.Person, error) {
		return a.client.MatchPerson(ctx, email)
	})
	if errors.Is(err, apollo.ErrNoMatch) {
		return nil, apperr.NotFound(ProviderApollo, "no person for "+email)
	}
	if err != nil {
		return nil, apperr.Provider(ProviderApollo, err)
	}
	return &model.ContactDetails{
		Email:       email,
		Title:       p.Title,
		Phone:       firstPhone(p.PhoneNumbers),
		LinkedInURL: p.LinkedInURL,
	}, nil
}

func firstPhone(numbers []apollo.PhoneNumber) string {
	for _, n := range numbers {
		raw := n.SanitizedNumber
		if raw == "" {
			raw = n.RawNumber
		}
		if phone := NormalizePhone(raw, ""); phone != "" {
			return phone
		}
	}
	return ""
}
