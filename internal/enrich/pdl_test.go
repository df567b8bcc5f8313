package enrich

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visitor-intel/internal/apperr"
	"github.com/sells-group/visitor-intel/internal/model"
	"github.com/sells-group/visitor-intel/pkg/pdl"
)

func TestFormatEmployeeCount(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n    int
		want string
	}{
		{0, "Unknown"},
		{-3, "Unknown"},
		{1, "1-10"},
		{9, "1-10"},
		{10, "11-50"},
		{49, "11-50"},
		{50, "51-200"},
		{199, "51-200"},
		{200, "201-1000"},
		{999, "201-1000"},
		{1000, "1000-5000"},
		{4999, "1000-5000"},
		{5000, "5000+"},
		{180000, "5000+"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatEmployeeCount(tt.n), "n=%d", tt.n)
	}
}

func TestPDL_EnrichByDomain(t *testing.T) {
	client := &mockPDLClient{}
	client.On("EnrichCompany", mock.Anything, "google.com").Return(&pdl.Company{
		Name:          "google",
		DisplayName:   "Google",
		Website:       "google.com",
		Industry:      "internet",
		EmployeeCount: 180000,
		Summary:       "Search and ads.",
		LogoURL:       "https://logo.example/google.png",
		Location:      &pdl.Location{Locality: "Mountain View", Region: "California", Country: "united states"},
	}, nil)

	prof, err := NewPDL(client, nil).EnrichByDomain(context.Background(), "google.com")
	require.NoError(t, err)
	assert.Equal(t, &model.CompanyProfile{
		Name:        "Google",
		Domain:      "google.com",
		Website:     "https://google.com",
		Industry:    "internet",
		Size:        "5000+",
		Location:    "Mountain View, California",
		Description: "Search and ads.",
		LogoURL:     "https://logo.example/google.png",
	}, prof)
}

func TestPDL_NotFound(t *testing.T) {
	client := &mockPDLClient{}
	client.On("EnrichCompany", mock.Anything, "ghost.io").Return(nil, eris.Wrapf(pdl.ErrNotFound, "website %s", "ghost.io"))

	_, err := NewPDL(client, nil).EnrichByDomain(context.Background(), "ghost.io")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestPDL_ProviderError(t *testing.T) {
	client := &mockPDLClient{}
	client.On("EnrichCompany", mock.Anything, "acme.com").Return(nil, &pdl.StatusError{StatusCode: 402, Body: "payment required"})

	_, err := NewPDL(client, nil).SocialProfiles(context.Background(), "acme.com")
	require.Error(t, err)
	assert.Equal(t, apperr.KindProvider, apperr.KindOf(err))
}

func TestPDL_SocialProfiles(t *testing.T) {
	client := &mockPDLClient{}
	client.On("EnrichCompany", mock.Anything, "acme.com").Return(&pdl.Company{
		LinkedInURL: "linkedin.com/company/acme",
		TwitterURL:  "https://twitter.com/acme",
	}, nil)

	got, err := NewPDL(client, nil).SocialProfiles(context.Background(), "acme.com")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"linkedin": "https://linkedin.com/company/acme",
		"twitter":  "https://twitter.com/acme",
	}, got)
}

// joinBarrier returns a hook for PDL.joined and a channel closed once n
// callers wait on the same flight.
func joinBarrier(n int) (func(string), <-chan struct{}) {
	var mu sync.Mutex
	all := make(chan struct{})
	seen := 0
	return func(string) {
		mu.Lock()
		defer mu.Unlock()
		seen++
		if seen == n {
			close(all)
		}
	}, all
}

func TestPDL_ConcurrentBranchesShareLookup(t *testing.T) {
	hook, joined := joinBarrier(2)
	client := &mockPDLClient{}
	client.On("EnrichCompany", mock.Anything, "acme.com").
		Run(func(mock.Arguments) { <-joined }).
		Return(&pdl.Company{Name: "Acme", TwitterURL: "https://twitter.com/acme"}, nil).
		Once()

	p := NewPDL(client, nil)
	p.joined = hook

	var wg sync.WaitGroup
	wg.Go(func() {
		_, err := p.EnrichByDomain(context.Background(), "acme.com")
		assert.NoError(t, err)
	})
	wg.Go(func() {
		_, err := p.SocialProfiles(context.Background(), "acme.com")
		assert.NoError(t, err)
	})
	wg.Wait()

	client.AssertNumberOfCalls(t, "EnrichCompany", 1)
}

func TestPDL_CancelledCallerDoesNotFailOthers(t *testing.T) {
	hook, joined := joinBarrier(2)
	release := make(chan struct{})
	var upstreamErr error
	client := &mockPDLClient{}
	client.On("EnrichCompany", mock.Anything, "acme.com").
		Run(func(args mock.Arguments) {
			<-joined
			<-release
			upstreamErr = args.Get(0).(context.Context).Err()
		}).
		Return(&pdl.Company{Name: "Acme", Industry: "software"}, nil).
		Once()

	p := NewPDL(client, nil)
	p.joined = hook

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := make(chan error, 1)
	go func() {
		_, err := p.EnrichByDomain(ctx, "acme.com")
		cancelled <- err
	}()
	survivor := make(chan *model.CompanyProfile, 1)
	survivorErr := make(chan error, 1)
	go func() {
		prof, err := p.EnrichByDomain(context.Background(), "acme.com")
		survivor <- prof
		survivorErr <- err
	}()

	<-joined
	cancel()
	err := <-cancelled
	require.Error(t, err)
	assert.Equal(t, apperr.KindProvider, apperr.KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	require.NoError(t, <-survivorErr)
	prof := <-survivor
	require.NotNil(t, prof)
	assert.Equal(t, "Acme", prof.Name)
	assert.NoError(t, upstreamErr)
	client.AssertNumberOfCalls(t, "EnrichCompany", 1)
}
