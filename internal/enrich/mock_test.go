package enrich

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/visitor-intel/internal/model"
	"github.com/sells-group/visitor-intel/pkg/apollo"
	"github.com/sells-group/visitor-intel/pkg/hunter"
	"github.com/sells-group/visitor-intel/pkg/pdl"
)

type mockPDLClient struct{ mock.Mock }

func (m *mockPDLClient) EnrichCompany(ctx context.Context, website string) (*pdl.Company, error) {
	args := m.Called(ctx, website)
	if v := args.Get(0); v != nil {
		return v.(*pdl.Company), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockHunterClient struct{ mock.Mock }

func (m *mockHunterClient) DomainSearch(ctx context.Context, domain string, limit int) (*hunter.DomainSearchResponse, error) {
	args := m.Called(ctx, domain, limit)
	if v := args.Get(0); v != nil {
		return v.(*hunter.DomainSearchResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockApolloClient struct{ mock.Mock }

func (m *mockApolloClient) SearchPeople(ctx context.Context, req apollo.PeopleSearchRequest) (*apollo.PeopleSearchResponse, error) {
	args := m.Called(ctx, req)
	if v := args.Get(0); v != nil {
		return v.(*apollo.PeopleSearchResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockApolloClient) MatchPerson(ctx context.Context, email string) (*apollo.Person, error) {
	args := m.Called(ctx, email)
	if v := args.Get(0); v != nil {
		return v.(*apollo.Person), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockFirmographic struct{ mock.Mock }

func (m *mockFirmographic) EnrichByDomain(ctx context.Context, domain string) (*model.CompanyProfile, error) {
	args := m.Called(ctx, domain)
	if v := args.Get(0); v != nil {
		return v.(*model.CompanyProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSocial struct{ mock.Mock }

func (m *mockSocial) SocialProfiles(ctx context.Context, domain string) (map[string]string, error) {
	args := m.Called(ctx, domain)
	if v := args.Get(0); v != nil {
		return v.(map[string]string), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockFinder struct {
	mock.Mock
	name string
}

func (m *mockFinder) Name() string { return m.name }

func (m *mockFinder) FindContacts(ctx context.Context, domain string) ([]model.CandidateContact, error) {
	args := m.Called(ctx, domain)
	if v := args.Get(0); v != nil {
		return v.([]model.CandidateContact), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) GetCompany(ctx context.Context, clientID, id string) (*model.Company, error) {
	args := m.Called(ctx, clientID, id)
	if v := args.Get(0); v != nil {
		return v.(*model.Company), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) UpdateCompany(ctx context.Context, company *model.Company) error {
	return m.Called(ctx, company).Error(0)
}

func (m *mockStore) CreateContact(ctx context.Context, contact model.Contact) (*model.Contact, bool, error) {
	args := m.Called(ctx, contact)
	if v := args.Get(0); v != nil {
		return v.(*model.Contact), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

// memUsage is an in-memory UsageStore.
type memUsage struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func newMemUsage() *memUsage { return &memUsage{counts: make(map[string]int)} }

func (m *memUsage) AddProviderUsage(_ context.Context, provider, period string, n int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.counts[provider+"/"+period] += n
	return m.counts[provider+"/"+period], nil
}

func (m *memUsage) GetProviderUsage(_ context.Context, provider, period string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[provider+"/"+period], m.err
}
