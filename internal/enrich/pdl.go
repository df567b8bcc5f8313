package enrich

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/visitor-intel/internal/apperr"
	"github.com/sells-group/visitor-intel/internal/model"
	"github.com/sells-group/visitor-intel/pkg/pdl"
)

// PDL serves both the firmographic and the social branches from one People
// Data Labs company lookup. Concurrent lookups for the same domain share a
// single upstream call.
type PDL struct {
	client pdl.Client
	guard  *Guard
	flight singleflight.Group

	joined func(domain string) // test hook, runs once a caller waits on the flight
}

// NewPDL creates the PDL adapter.
func NewPDL(client pdl.Client, guard *Guard) *PDL {
	return &PDL{client: client, guard: guard}
}

// lookup runs the shared call detached from any single caller's
// cancellation; the provider HTTP timeout still bounds it. A caller whose
// context ends stops waiting without affecting the others.
func (p *PDL) lookup(ctx context.Context, domain string) (*pdl.Company, error) {
	shared := context.WithoutCancel(ctx)
	ch := p.flight.DoChan(domain, func() (any, error) {
		return call(shared, p.guard, ProviderPDL, "enrich_company", func(ctx context.Context) (*pdl.Company, error) {
			return p.client.EnrichCompany(ctx, domain)
		})
	})
	if p.joined != nil {
		p.joined(domain)
	}

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, apperr.Provider(ProviderPDL, eris.Wrap(ctx.Err(), "pdl: wait for lookup"))
	}
	v, err := res.Val, res.Err
	if err != nil {
		if errors.Is(err, pdl.ErrNotFound) {
			return nil, apperr.NotFound(ProviderPDL, "no company for "+domain)
		}
		return nil, apperr.Provider(ProviderPDL, err)
	}
	return v.(*pdl.Company), nil
}

// EnrichByDomain returns the firmographic profile for domain.
func (p *PDL) EnrichByDomain(ctx context.Context, domain string) (*model.CompanyProfile, error) {
	c, err := p.lookup(ctx, domain)
	if err != nil {
		return nil, err
	}
	return toProfile(c, domain), nil
}

// SocialProfiles returns the LinkedIn, Twitter and Facebook URLs PDL knows.
func (p *PDL) SocialProfiles(ctx context.Context, domain string) (map[string]string, error) {
	c, err := p.lookup(ctx, domain)
	if err != nil {
		return nil, err
	}
	profiles := make(map[string]string, 3)
	for network, url := range map[string]string{
		"linkedin": c.LinkedInURL,
		"twitter":  c.TwitterURL,
		"facebook": c.FacebookURL,
	} {
		if url = strings.TrimSpace(url); url != "" {
			profiles[network] = normalizeURL(url)
		}
	}
	return profiles, nil
}

func toProfile(c *pdl.Company, domain string) *model.CompanyProfile {
	name := c.DisplayName
	if name == "" {
		name = c.Name
	}
	prof := &model.CompanyProfile{
		Name:        name,
		Domain:      domain,
		Industry:    c.Industry,
		Size:        FormatEmployeeCount(c.EmployeeCount),
		Description: c.Summary,
		LogoURL:     c.LogoURL,
	}
	if c.Website != "" {
		prof.Website = normalizeURL(c.Website)
	}
	if c.Location != nil {
		var parts []string
		for _, s := range []string{c.Location.Locality, c.Location.Region} {
			if s = strings.TrimSpace(s); s != "" {
				parts = append(parts, s)
			}
		}
		prof.Location = strings.Join(parts, ", ")
	}
	return prof
}

// FormatEmployeeCount buckets a headcount into the dashboard size ranges.
func FormatEmployeeCount(n int) string {
	switch {
	case n <= 0:
		return model.SizeUnknown
	case n < 10:
		return model.Size1To10
	case n < 50:
		return model.Size11To50
	case n < 200:
		return model.Size51To200
	case n < 1000:
		return model.Size201To1K
	case n < 5000:
		return model.Size1KTo5K
	default:
		return model.Size5KPlus
	}
}

// normalizeURL adds a scheme to the bare host paths PDL returns.
func normalizeURL(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return u
	}
	return "https://" + u
}
