package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/visitor-intel/internal/model"
)

// ErrNotFound is returned by updates that match no row.
var ErrNotFound = eris.New("store: record not found")

// VisitFilter specifies criteria for listing visits. Results are newest first.
type VisitFilter struct {
	ClientID  string    `json:"client_id"`
	CompanyID string    `json:"company_id,omitempty"`
	Since     time.Time `json:"since,omitempty"`
	Limit     int       `json:"limit,omitempty"`
}

// ContactFilter specifies criteria for listing contacts.
type ContactFilter struct {
	ClientID  string `json:"client_id"`
	CompanyID string `json:"company_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// FollowUpFilter specifies criteria for listing follow-ups.
type FollowUpFilter struct {
	ClientID  string               `json:"client_id"`
	ContactID string               `json:"contact_id,omitempty"`
	Status    model.FollowUpStatus `json:"status,omitempty"`
	Limit     int                  `json:"limit,omitempty"`
}

// VisitCounts summarizes a client's visits.
type VisitCounts struct {
	Total      int `json:"total"`
	Identified int `json:"identified"`
}

// Store defines the persistence interface for tracking and enrichment.
// Getters return nil, nil when the record does not exist.
type Store interface {
	// Clients
	CreateClient(ctx context.Context, name, domain string) (*model.Client, error)
	GetClient(ctx context.Context, id string) (*model.Client, error)
	GetClientByAPIKey(ctx context.Context, apiKey string) (*model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	DeactivateClient(ctx context.Context, id string) error

	// Companies
	GetCompany(ctx context.Context, clientID, id string) (*model.Company, error)
	FindCompany(ctx context.Context, clientID, domain, name string) (*model.Company, error)
	GetOrCreateCompany(ctx context.Context, company model.Company) (*model.Company, bool, error)
	UpdateCompany(ctx context.Context, company *model.Company) error
	ListCompanies(ctx context.Context, clientID string, limit int) ([]model.Company, error)

	// Contacts
	CreateContact(ctx context.Context, contact model.Contact) (*model.Contact, bool, error)
	GetContact(ctx context.Context, clientID, id string) (*model.Contact, error)
	ListContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error)
	CountContacts(ctx context.Context, clientID string) (int, error)

	// Visits
	CreateVisit(ctx context.Context, visit model.Visit) (*model.Visit, error)
	ListVisits(ctx context.Context, filter VisitFilter) ([]model.Visit, error)
	CountVisits(ctx context.Context, clientID string) (VisitCounts, error)

	// Follow-ups
	CreateFollowUp(ctx context.Context, f model.FollowUp) (*model.FollowUp, error)
	GetFollowUp(ctx context.Context, clientID, id string) (*model.FollowUp, error)
	ListFollowUps(ctx context.Context, filter FollowUpFilter) ([]model.FollowUp, error)
	UpdateFollowUpStatus(ctx context.Context, f *model.FollowUp) error

	// Provider usage, counted per calendar month ("2006-01").
	AddProviderUsage(ctx context.Context, provider, period string, n int) (int, error)
	GetProviderUsage(ctx context.Context, provider, period string) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// UsagePeriod returns the quota period key for t.
func UsagePeriod(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// NewAPIKey returns a fresh client API key.
func NewAPIKey() string {
	return "vi_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}
