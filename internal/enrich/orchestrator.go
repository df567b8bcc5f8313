package enrich

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/visitor-intel/internal/apperr"
	"github.com/sells-group/visitor-intel/internal/model"
)

var errNotConfigured = eris.New("provider not configured")

// Outcome records how one provider branch finished.
type Outcome struct {
	Source   string        `json:"source"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
	Millis   int64         `json:"durationMs"`
	Count    int           `json:"count,omitempty"`
}

// OK reports whether the branch succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Result is the merged output of all branches for one domain.
type Result struct {
	Domain         string                   `json:"domain"`
	Profile        *model.CompanyProfile    `json:"profile,omitempty"`
	Contacts       []model.CandidateContact `json:"contacts"`
	SocialProfiles map[string]string        `json:"socialProfiles,omitempty"`
	Outcomes       []Outcome                `json:"outcomes"`
}

// Orchestrator runs the provider branches concurrently and settles all of
// them; one branch failing never cancels the others.
type Orchestrator struct {
	firmographic Firmographic
	finders      []ContactFinder
	social       SocialLookup
}

// NewOrchestrator wires the providers. Finders run in the given order for
// deduplication purposes; nil providers are skipped.
func NewOrchestrator(firmographic Firmographic, social SocialLookup, finders ...ContactFinder) *Orchestrator {
	return &Orchestrator{firmographic: firmographic, social: social, finders: finders}
}

// EnrichCompany never returns an error. Failed branches are reported in
// Result.Outcomes and leave their part of the result empty.
func (o *Orchestrator) EnrichCompany(ctx context.Context, domain string) *Result {
	log := zap.L().With(zap.String("domain", domain))
	start := time.Now()

	res := &Result{Domain: domain}
	contacts := make([][]model.CandidateContact, len(o.finders))
	outcomes := make([]Outcome, 2+len(o.finders))

	// Every goroutine returns nil so a failing branch cannot cancel siblings.
	var g errgroup.Group
	g.Go(func() error {
		if o.firmographic == nil {
			outcomes[0] = Outcome{Source: "firmographic", Err: apperr.Provider("firmographic", errNotConfigured)}
			return nil
		}
		t := time.Now()
		prof, err := o.firmographic.EnrichByDomain(ctx, domain)
		outcomes[0] = Outcome{Source: "firmographic", Err: err, Duration: time.Since(t)}
		if err == nil {
			res.Profile = prof
		}
		return nil
	})
	g.Go(func() error {
		if o.social == nil {
			outcomes[1] = Outcome{Source: "social", Err: apperr.Provider("social", errNotConfigured)}
			return nil
		}
		t := time.Now()
		profiles, err := o.social.SocialProfiles(ctx, domain)
		outcomes[1] = Outcome{Source: "social", Err: err, Duration: time.Since(t), Count: len(profiles)}
		if err == nil && len(profiles) > 0 {
			res.SocialProfiles = profiles
		}
		return nil
	})
	for i, f := range o.finders {
		g.Go(func() error {
			t := time.Now()
			found, err := f.FindContacts(ctx, domain)
			outcomes[2+i] = Outcome{Source: f.Name(), Err: err, Duration: time.Since(t), Count: len(found)}
			if err == nil {
				contacts[i] = found
			}
			return nil
		})
	}
	_ = g.Wait()

	var all []model.CandidateContact
	for _, c := range contacts {
		all = append(all, c...)
	}
	res.Contacts = DedupeContacts(all)

	for i := range outcomes {
		outcomes[i].Millis = outcomes[i].Duration.Milliseconds()
		if err := outcomes[i].Err; err != nil {
			outcomes[i].Error = apperr.PublicMessage(err)
			level := zap.WarnLevel
			if errors.Is(err, errNotConfigured) {
				level = zap.DebugLevel
			}
			log.Log(level, "enrichment branch failed",
				zap.String("source", outcomes[i].Source),
				zap.Stringer("kind", apperr.KindOf(err)),
				zap.Error(err),
			)
		}
	}
	res.Outcomes = outcomes

	log.Info("enrichment complete",
		zap.Bool("profile", res.Profile != nil),
		zap.Int("contacts", len(res.Contacts)),
		zap.Int("social_profiles", len(res.SocialProfiles)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res
}

// DedupeContacts keeps the first candidate per case-insensitive email and
// drops candidates without one. Order is preserved.
func DedupeContacts(in []model.CandidateContact) []model.CandidateContact {
	seen := make(map[string]struct{}, len(in))
	out := make([]model.CandidateContact, 0, len(in))
	for _, c := range in {
		key := strings.ToLower(strings.TrimSpace(c.Email))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}
