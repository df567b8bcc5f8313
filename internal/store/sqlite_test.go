package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visitor-intel/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedClient(t *testing.T, st Store) *model.Client {
	t.Helper()
	c, err := st.CreateClient(context.Background(), "Acme Analytics", "acme-analytics.io")
	require.NoError(t, err)
	return c
}

// --- Clients ---

func TestSQLite_Client_CreateAndLookup(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	c := seedClient(t, st)
	assert.True(t, c.IsActive)
	assert.Contains(t, c.APIKey, "vi_")

	byKey, err := st.GetClientByAPIKey(ctx, c.APIKey)
	require.NoError(t, err)
	require.NotNil(t, byKey)
	assert.Equal(t, c.ID, byKey.ID)
	assert.True(t, byKey.IsActive)

	missing, err := st.GetClientByAPIKey(ctx, "vi_nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLite_Client_Deactivate(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedClient(t, st)

	require.NoError(t, st.DeactivateClient(ctx, c.ID))
	got, err := st.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	err = st.DeactivateClient(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLite_ListClients(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	seedClient(t, st)
	_, err := st.CreateClient(ctx, "Beta", "beta.dev")
	require.NoError(t, err)

	clients, err := st.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 2)
}

// --- Companies ---

func TestSQLite_GetOrCreateCompany_ByDomain(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedClient(t, st)

	first, created, err := st.GetOrCreateCompany(ctx, model.Company{
		ClientID: c.ID, Name: "Google LLC", Domain: "google.com",
		Industry: model.IndustryUnknown, Size: model.SizeUnknown,
	})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := st.GetOrCreateCompany(ctx, model.Company{
		ClientID: c.ID, Name: "Google", Domain: "google.com",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Google LLC", second.Name)
}

func TestSQLite_GetOrCreateCompany_ByNameWithoutDomain(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedClient(t, st)

	first, created, err := st.GetOrCreateCompany(ctx, model.Company{ClientID: c.ID, Name: "Initech"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, first.Domain)

	second, created, err := st.GetOrCreateCompany(ctx, model.Company{ClientID: c.ID, Name: "Initech"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestSQLite_GetOrCreateCompany_ScopedToClient(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	a := seedClient(t, st)
	b, err := st.CreateClient(ctx, "Other", "other.io")
	require.NoError(t, err)

	ca, _, err := st.GetOrCreateCompany(ctx, model.Company{ClientID: a.ID, Name: "Google", Domain: "google.com"})
	require.NoError(t, err)
	cb, created, err := st.GetOrCreateCompany(ctx, model.Company{ClientID: b.ID, Name: "Google", Domain: "google.com"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestSQLite_GetOrCreateCompany_Concurrent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedClient(t, st)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			co, _, err := st.GetOrCreateCompany(ctx, model.Company{ClientID: c.ID, Name: "Acme", Domain: "acme.com"})
			if assert.NoError(t, err) && assert.NotNil(t, co) {
				ids[i] = co.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		assert.Equal(t, ids[0], id)
	}
	companies, err := st.ListCompanies(ctx, c.ID, 0)
	require.NoError(t, err)
	assert.Len(t, companies, 1)
}

func TestSQLite_UpdateCompany(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedClient(t, st)

	co, _, err := st.GetOrCreateCompany(ctx, model.Company{ClientID: c.ID, Name: "Stripe", Domain: "stripe.com"})
	require.NoError(t, err)

	now := time.Now().UTC()
	co.Industry = "Financial Services"
	co.Size = model.Size1KTo5K
	co.SocialProfiles = map[string]string{"linkedin": "https://linkedin.com/company/stripe"}
	co.EnrichedAt = &now
	require.NoError(t, st.UpdateCompany(ctx, co))

	got, err := st.GetCompany(ctx, c.ID, co.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Financial Services", got.Industry)
	assert.Equal(t, model.Size1KTo5K, got.Size)
	assert.Equal(t, "https://linkedin.com/company/stripe", got.SocialProfiles["linkedin"])
	require.NotNil(t, got.EnrichedAt)
	assert.True(t, got.IsEnriched())
}

func TestSQLite_GetCompany_WrongClient(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedClient(t, st)
	co, _, err := st.GetOrCreateCompany(ctx, model.Company{ClientID: c.ID, Name: "Stripe", Domain: "stripe.com"})
	require.NoError(t, err)

	got, err := st.GetCompany(ctx, "other-client", co.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

// --- Contacts ---

func TestSQLite_CreateContact_DedupesByCompanyEmail(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedClient(t, st)
	co, _, err := st.GetOrCreateCompany(ctx, model.Company{ClientID: c.ID, Name: "Acme", Domain: "acme.com"})
	require.NoError(t, err)

	first, created, err := st.CreateContact(ctx, model.Contact{
		ClientID: c.ID, CompanyID: co.ID, FirstName: "Jane", LastName: "Doe",
		Email: "Jane@Acme.com", Source: model.ContactSourceEnrichment,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "jane@acme.com", first.Email)

	again, created, err := st.CreateContact(ctx, model.Contact{
		ClientID: c.ID, CompanyID: co.ID, FirstName: "J", LastName: "D",
		Email: "jane@acme.com", Source: model.ContactSourceImport,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "Jane", again.FirstName)

	n, err := st.CountContacts(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := st.ListContacts(ctx, ContactFilter{ClientID: c.ID, CompanyID: co.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.ContactSourceEnrichment, list[0].Source)
}

// --- Visits ---

func TestSQLite_Visits_ListAndCount(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedClient(t, st)
	co, _, err := st.GetOrCreateCompany(ctx, model.Company{ClientID: c.ID, Name: "Acme", Domain: "acme.com"})
	require.NoError(t, err)

	old := time.Now().Add(-48 * time.Hour)
	_, err = st.CreateVisit(ctx, model.Visit{ClientID: c.ID, IPAddress: "1.1.1.1", Pages: []string{"/old"}, Timestamp: old})
	require.NoError(t, err)
	v, err := st.CreateVisit(ctx, model.Visit{
		ClientID: c.ID, CompanyID: co.ID, IPAddress: "8.8.8.8",
		Pages: []string{"/pricing"}, Location: model.Location{Country: "US", Region: "California", City: "Mountain View"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, v.ID)

	recent, err := st.ListVisits(ctx, VisitFilter{ClientID: c.ID, Since: time.Now().Add(-24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, []string{"/pricing"}, recent[0].Pages)
	assert.Equal(t, co.ID, recent[0].CompanyID)
	assert.Equal(t, "Mountain View", recent[0].Location.City)

	all, err := st.ListVisits(ctx, VisitFilter{ClientID: c.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "/pricing", all[0].Pages[0], "newest first")

	counts, err := st.CountVisits(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, VisitCounts{Total: 2, Identified: 1}, counts)
}

// --- Follow-ups ---

func TestSQLite_FollowUp_Lifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	c := seedClient(t, st)
	co, _, err := st.GetOrCreateCompany(ctx, model.Company{ClientID: c.ID, Name: "Acme", Domain: "acme.com"})
	require.NoError(t, err)
	ct, _, err := st.CreateContact(ctx, model.Contact{
		ClientID: c.ID, CompanyID: co.ID, FirstName: "Jane", LastName: "Doe",
		Email: "jane@acme.com", Source: model.ContactSourceManual,
	})
	require.NoError(t, err)

	f, err := st.CreateFollowUp(ctx, model.FollowUp{
		ClientID: c.ID, ContactID: ct.ID, Type: model.FollowUpCall,
		Subject: "Intro call", ScheduledAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, model.FollowUpPending, f.Status)

	require.NoError(t, f.Transition(model.FollowUpCompleted, time.Now().UTC()))
	require.NoError(t, st.UpdateFollowUpStatus(ctx, f))

	got, err := st.GetFollowUp(ctx, c.ID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FollowUpCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)

	// A second write against a non-pending row is rejected.
	err = st.UpdateFollowUpStatus(ctx, f)
	assert.ErrorIs(t, err, ErrNotFound)

	pending, err := st.ListFollowUps(ctx, FollowUpFilter{ClientID: c.ID, Status: model.FollowUpPending})
	require.NoError(t, err)
	assert.Empty(t, pending)
}

// --- Provider usage ---

func TestSQLite_ProviderUsage(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	n, err := st.GetProviderUsage(ctx, "hunter", "2026-10")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = st.AddProviderUsage(ctx, "hunter", "2026-10", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = st.AddProviderUsage(ctx, "hunter", "2026-10", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = st.GetProviderUsage(ctx, "hunter", "2026-11")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUsagePeriod(t *testing.T) {
	ts := time.Date(2026, time.October, 31, 23, 30, 0, 0, time.FixedZone("PDT", -7*3600))
	assert.Equal(t, "2026-11", UsagePeriod(ts))
}
