package followup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/visitor-intel/internal/apperr"
	"github.com/sells-group/visitor-intel/internal/model"
	"github.com/sells-group/visitor-intel/internal/store"
)

var fixedNow = time.Date(2026, 10, 19, 16, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	st      *store.SQLiteStore
	client  *model.Client
	contact *model.Contact
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "followups.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(ctx))

	client, err := st.CreateClient(ctx, "c1", "c1.example")
	require.NoError(t, err)
	company, _, err := st.GetOrCreateCompany(ctx, model.Company{ClientID: client.ID, Name: "Acme", Domain: "acme.com"})
	require.NoError(t, err)
	contact, _, err := st.CreateContact(ctx, model.Contact{
		ClientID: client.ID, CompanyID: company.ID, FirstName: "Ann", LastName: "Lee",
		Email: "ann@acme.com", Source: model.ContactSourceManual,
	})
	require.NoError(t, err)

	svc := NewService(st)
	svc.now = func() time.Time { return fixedNow }
	return &fixture{svc: svc, st: st, client: client, contact: contact}
}

func (f *fixture) request() Request {
	return Request{
		ClientID:    f.client.ID,
		ContactID:   f.contact.ID,
		Type:        model.FollowUpCall,
		Subject:     "Intro call",
		ScheduledAt: fixedNow.Add(48 * time.Hour),
		CreatedBy:   "sales@c1.example",
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.Create(context.Background(), f.request())
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, model.FollowUpPending, got.Status)
	assert.Equal(t, "Intro call", got.Subject)
	assert.Nil(t, got.CompletedAt)
}

func TestCreate_DefaultsScheduleToNow(t *testing.T) {
	f := newFixture(t)
	req := f.request()
	req.ScheduledAt = time.Time{}

	got, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, got.ScheduledAt)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		mutate func(*Request)
		kind   apperr.Kind
	}{
		{"missing client", func(r *Request) { r.ClientID = "" }, apperr.KindValidation},
		{"missing contact", func(r *Request) { r.ContactID = "" }, apperr.KindValidation},
		{"bad type", func(r *Request) { r.Type = "sms" }, apperr.KindValidation},
		{"blank subject", func(r *Request) { r.Subject = "  " }, apperr.KindValidation},
		{"unknown contact", func(r *Request) { r.ContactID = "nope" }, apperr.KindNotFound},
		{"other client's contact", func(r *Request) { r.ClientID = "someone-else" }, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request()
			tt.mutate(&req)
			_, err := f.svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestCompleteAndCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, f.request())
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, f.request())
	require.NoError(t, err)

	done, err := f.svc.Complete(ctx, f.client.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FollowUpCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, fixedNow, *done.CompletedAt)

	cancelled, err := f.svc.Cancel(ctx, f.client.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FollowUpCancelled, cancelled.Status)
	assert.Nil(t, cancelled.CompletedAt)

	_, err = f.svc.Cancel(ctx, f.client.ID, a.ID)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "completed follow-ups are final")

	_, err = f.svc.Complete(ctx, f.client.ID, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	pending, err := f.svc.List(ctx, store.FollowUpFilter{ClientID: f.client.ID, Status: model.FollowUpPending})
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := f.svc.List(ctx, store.FollowUpFilter{ClientID: f.client.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestList_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.List(context.Background(), store.FollowUpFilter{})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.List(context.Background(), store.FollowUpFilter{ClientID: f.client.ID, Status: "done"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
