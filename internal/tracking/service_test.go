package tracking

import (
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visitor-intel/internal/apperr"
	"github.com/sells-group/visitor-intel/internal/ipintel"
	"github.com/sells-group/visitor-intel/internal/model"
	"github.com/sells-group/visitor-intel/internal/store"
	"github.com/sells-group/visitor-intel/pkg/ipinfo"
)

type mockIPInfo struct{ mock.Mock }

func (m *mockIPInfo) Lookup(ctx context.Context, ip string) (*ipinfo.Response, error) {
	args := m.Called(ctx, ip)
	if v := args.Get(0); v != nil {
		return v.(*ipinfo.Response), args.Error(1)
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

type fixture struct {
	store  *store.SQLiteStore
	ipinfo *mockIPInfo
	firmo  *mockFirmographic
	client *model.Client
	svc    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "tracking.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	client, err := st.CreateClient(context.Background(), "c1", "c1.example")
	require.NoError(t, err)

	classifier, err := ipintel.NewClassifier(ipintel.DefaultRules())
	require.NoError(t, err)

	f := &fixture{store: st, ipinfo: &mockIPInfo{}, firmo: &mockFirmographic{}, client: client}
	f.svc = NewService(st, classifier, ipintel.NewResolver(f.ipinfo), f.firmo)
	return f
}

func (f *fixture) visits(t *testing.T) []model.Visit {
	t.Helper()
	v, err := f.store.ListVisits(context.Background(), store.VisitFilter{ClientID: f.client.ID})
	require.NoError(t, err)
	return v
}

func ping() Ping {
	return Ping{
		Page:      "/pricing",
		Referrer:  "https://www.google.com/",
		UserAgent: "Mozilla/5.0",
		Timestamp: time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC),
		SessionID: "session_1",
	}
}

func TestTrack_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ipinfo.On("Lookup", mock.Anything, "8.8.8.8").Return(&ipinfo.Response{
		IP: "8.8.8.8", Hostname: "mail.example.com", Org: "AS15169 Example Corp",
		City: "Mountain View", Region: "California", Country: "US",
	}, nil)
	f.firmo.On("EnrichByDomain", mock.Anything, "example.com").Return(nil, apperr.NotFound("pdl", "no company"))

	out, err := f.svc.Track(ctx, f.client, "8.8.8.8", ping())
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.True(t, out.CompanyIdentified)
	assert.Equal(t, "Example Corp", out.CompanyName)
	assert.NotEmpty(t, out.VisitID)
	assert.False(t, out.Skipped)

	company, err := f.store.FindCompany(ctx, f.client.ID, "example.com", "")
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, "Example Corp", company.Name)
	assert.Equal(t, f.client.ID, company.ClientID)
	assert.Equal(t, model.IndustryUnknown, company.Industry)
	assert.Equal(t, model.SizeUnknown, company.Size)

	visits := f.visits(t)
	require.Len(t, visits, 1)
	assert.Equal(t, company.ID, visits[0].CompanyID)
	assert.Equal(t, []string{"/pricing"}, visits[0].Pages)
	assert.Zero(t, visits[0].Duration)
	assert.Equal(t, "Mountain View", visits[0].Location.City)
}

func TestTrack_ReusesExistingCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ipinfo.On("Lookup", mock.Anything, "8.8.4.4").Return(&ipinfo.Response{
		Hostname: "gw.example.com", Org: "AS15169 Example Corp",
	}, nil)
	f.firmo.On("EnrichByDomain", mock.Anything, "example.com").Return(&model.CompanyProfile{
		Name: "Example Corporation", Industry: "Software", Size: "51-200",
	}, nil).Once()

	first, err := f.svc.Track(ctx, f.client, "8.8.4.4", ping())
	require.NoError(t, err)
	second, err := f.svc.Track(ctx, f.client, "8.8.4.4", ping())
	require.NoError(t, err)

	assert.Equal(t, "Example Corp", first.CompanyName)
	assert.Equal(t, first.CompanyName, second.CompanyName)
	companies, err := f.store.ListCompanies(ctx, f.client.ID, 0)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Software", companies[0].Industry)
	assert.Len(t, f.visits(t), 2)
	f.firmo.AssertNumberOfCalls(t, "EnrichByDomain", 1)
}

func TestTrack_ProfileNamesOrglessCompany(t *testing.T) {
	f := newFixture(t)
	f.ipinfo.On("Lookup", mock.Anything, "1.1.1.1").Return(&ipinfo.Response{Hostname: "one.one.one.one"}, nil)
	f.firmo.On("EnrichByDomain", mock.Anything, "one.one").Return(&model.CompanyProfile{Name: "Cloudflare"}, nil)

	out, err := f.svc.Track(context.Background(), f.client, "1.1.1.1", ping())
	require.NoError(t, err)
	assert.True(t, out.CompanyIdentified)
	assert.Equal(t, "Cloudflare", out.CompanyName)
}

func TestTrack_LocalSkipped(t *testing.T) {
	for _, ip := range []string{"127.0.0.1", "::1", "192.168.0.1", "10.1.2.3", ""} {
		t.Run(ip, func(t *testing.T) {
			f := newFixture(t)
			out, err := f.svc.Track(context.Background(), f.client, ip, ping())
			require.NoError(t, err)
			assert.Equal(t, &Outcome{Success: true, Skipped: true, Message: MsgDevelopmentSkipped}, out)
			assert.Empty(t, f.visits(t))
			f.ipinfo.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
		})
	}
}

func TestTrack_ResidentialSkipped(t *testing.T) {
	t.Run("cidr before lookup", func(t *testing.T) {
		f := newFixture(t)
		out, err := f.svc.Track(context.Background(), f.client, "100.64.12.7", ping())
		require.NoError(t, err)
		assert.Equal(t, MsgResidentialSkipped, out.Message)
		assert.True(t, out.Skipped)
		f.ipinfo.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	})

	t.Run("org after lookup", func(t *testing.T) {
		f := newFixture(t)
		f.ipinfo.On("Lookup", mock.Anything, "73.15.2.9").Return(&ipinfo.Response{
			Hostname: "c-73-15-2-9.hsd1.ca.comcast.net", Org: "AS7922 Comcast Cable Communications, LLC",
		}, nil)
		out, err := f.svc.Track(context.Background(), f.client, "73.15.2.9", ping())
		require.NoError(t, err)
		assert.Equal(t, MsgResidentialSkipped, out.Message)
		assert.Empty(t, f.visits(t))
		f.firmo.AssertNotCalled(t, "EnrichByDomain", mock.Anything, mock.Anything)
	})
}

func TestTrack_ResolverFailureStillRecordsVisit(t *testing.T) {
	f := newFixture(t)
	f.ipinfo.On("Lookup", mock.Anything, "203.0.113.9").Return(nil, errors.New("i/o timeout"))

	out, err := f.svc.Track(context.Background(), f.client, "203.0.113.9", ping())
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.False(t, out.CompanyIdentified)
	assert.NotEmpty(t, out.VisitID)

	visits := f.visits(t)
	require.Len(t, visits, 1)
	assert.Empty(t, visits[0].CompanyID)
	assert.Equal(t, model.UnknownLocation, visits[0].Location)
}

func TestTrack_RejectsIncompletePing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Ping)
		field  string
	}{
		{"empty", func(p *Ping) { *p = Ping{} }, "page"},
		{"no session", func(p *Ping) { p.SessionID = "" }, "sessionId"},
		{"no user agent", func(p *Ping) { p.UserAgent = "" }, "userAgent"},
		{"other client", func(p *Ping) { p.ClientID = "another-client" }, "clientId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p := ping()
			tt.mutate(&p)

			out, err := f.svc.Track(context.Background(), f.client, "8.8.8.8", p)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Contains(t, apperr.PublicMessage(err), tt.field)
			assert.Empty(t, f.visits(t))
			f.ipinfo.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
		})
	}
}

func TestTrack_AcceptsMatchingClientID(t *testing.T) {
	f := newFixture(t)
	p := ping()
	p.ClientID = f.client.ID

	out, err := f.svc.Track(context.Background(), f.client, "127.0.0.1", p)
	require.NoError(t, err)
	assert.True(t, out.Skipped)
}

func TestTrack_InactiveClient(t *testing.T) {
	f := newFixture(t)
	f.client.IsActive = false
	_, err := f.svc.Track(context.Background(), f.client, "8.8.8.8", ping())
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	_, err = f.svc.Track(context.Background(), nil, "8.8.8.8", ping())
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded first entry", map[string]string{"X-Forwarded-For": " 8.8.8.8 , 10.0.0.1", "X-Real-IP": "1.1.1.1"}, "10.0.0.2:5000", "8.8.8.8"},
		{"real ip", map[string]string{"X-Real-IP": "1.1.1.1"}, "10.0.0.2:5000", "1.1.1.1"},
		{"remote addr", nil, "9.9.9.9:443", "9.9.9.9"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"empty forwarded falls through", map[string]string{"X-Forwarded-For": " , 8.8.8.8"}, "9.9.9.9:1", "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/track", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ExtractIP(r))
		})
	}
}
