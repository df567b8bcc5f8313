package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/visitor-intel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Empty domains are stored as NULL so the (client_id, domain) unique index
// only constrains known domains.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS clients (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	domain     TEXT NOT NULL DEFAULT '',
	api_key    TEXT NOT NULL UNIQUE,
	is_active  INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS companies (
	id              TEXT PRIMARY KEY,
	client_id       TEXT NOT NULL REFERENCES clients(id),
	name            TEXT NOT NULL,
	domain          TEXT,
	industry        TEXT NOT NULL DEFAULT '',
	size            TEXT NOT NULL DEFAULT '',
	location        TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	website         TEXT NOT NULL DEFAULT '',
	logo_url        TEXT NOT NULL DEFAULT '',
	social_profiles TEXT NOT NULL DEFAULT '{}',
	enriched_at     DATETIME,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS contacts (
	id           TEXT PRIMARY KEY,
	client_id    TEXT NOT NULL REFERENCES clients(id),
	company_id   TEXT NOT NULL REFERENCES companies(id),
	first_name   TEXT NOT NULL,
	last_name    TEXT NOT NULL,
	email        TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	linkedin_url TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS visits (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL REFERENCES clients(id),
	company_id TEXT REFERENCES companies(id),
	session_id TEXT NOT NULL DEFAULT '',
	ip_address TEXT NOT NULL,
	user_agent TEXT NOT NULL DEFAULT '',
	referrer   TEXT NOT NULL DEFAULT '',
	pages      TEXT NOT NULL DEFAULT '[]',
	duration   INTEGER NOT NULL DEFAULT 0,
	country    TEXT NOT NULL DEFAULT '',
	region     TEXT NOT NULL DEFAULT '',
	city       TEXT NOT NULL DEFAULT '',
	timestamp  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS follow_ups (
	id           TEXT PRIMARY KEY,
	client_id    TEXT NOT NULL REFERENCES clients(id),
	contact_id   TEXT NOT NULL REFERENCES contacts(id),
	type         TEXT NOT NULL,
	subject      TEXT NOT NULL,
	content      TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'pending',
	scheduled_at DATETIME NOT NULL,
	completed_at DATETIME,
	created_by   TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS provider_usage (
	provider TEXT NOT NULL,
	period   TEXT NOT NULL,
	calls    INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (provider, period)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_companies_client_domain ON companies(client_id, domain);
CREATE INDEX IF NOT EXISTS idx_companies_client_name ON companies(client_id, name);
CREATE UNIQUE INDEX IF NOT EXISTS idx_contacts_company_email ON contacts(company_id, email);
CREATE INDEX IF NOT EXISTS idx_contacts_client ON contacts(client_id);
CREATE INDEX IF NOT EXISTS idx_visits_client_ts ON visits(client_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_follow_ups_client ON follow_ups(client_id, status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Clients ---

func (s *SQLiteStore) CreateClient(ctx context.Context, name, domain string) (*model.Client, error) {
	c := &model.Client{
		ID:        uuid.New().String(),
		Name:      name,
		Domain:    domain,
		APIKey:    NewAPIKey(),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, domain, api_key, is_active, created_at) VALUES (?, ?, ?, ?, 1, ?)`,
		c.ID, c.Name, c.Domain, c.APIKey, c.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert client")
	}
	return c, nil
}

const sqliteClientCols = `id, name, domain, api_key, is_active, created_at`

func (s *SQLiteStore) GetClient(ctx context.Context, id string) (*model.Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteClientCols+` FROM clients WHERE id = ?`, id)
	return s.scanClientRow(row, "get client")
}

func (s *SQLiteStore) GetClientByAPIKey(ctx context.Context, apiKey string) (*model.Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteClientCols+` FROM clients WHERE api_key = ?`, apiKey)
	return s.scanClientRow(row, "get client by api key")
}

func (s *SQLiteStore) scanClientRow(row scannable, op string) (*model.Client, error) {
	c, err := scanClient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s", op)
	}
	return c, nil
}

func (s *SQLiteStore) ListClients(ctx context.Context) ([]model.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteClientCols+` FROM clients ORDER BY created_at`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list clients")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan client")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list clients iterate")
}

func (s *SQLiteStore) DeactivateClient(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE clients SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: deactivate client %s", id)
	}
	return checkRowsAffected(res, "client", id)
}

// --- Companies ---

const sqliteCompanyCols = `id, client_id, name, COALESCE(domain, ''), industry, size, location,
	description, website, logo_url, social_profiles, enriched_at, created_at, updated_at`

func (s *SQLiteStore) GetCompany(ctx context.Context, clientID, id string) (*model.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteCompanyCols+` FROM companies WHERE client_id = ? AND id = ?`, clientID, id)
	return scanCompanyRow(row, "sqlite: get company")
}

// FindCompany matches on domain or name within the client, preferring a
// domain match. Empty inputs never match.
func (s *SQLiteStore) FindCompany(ctx context.Context, clientID, domain, name string) (*model.Company, error) {
	if domain == "" && name == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteCompanyCols+` FROM companies
		 WHERE client_id = ? AND ((? <> '' AND domain = ?) OR (? <> '' AND name = ?))
		 ORDER BY (domain = ?) DESC, created_at LIMIT 1`,
		clientID, domain, domain, name, name, domain,
	)
	return scanCompanyRow(row, "sqlite: find company")
}

func (s *SQLiteStore) GetOrCreateCompany(ctx context.Context, company model.Company) (*model.Company, bool, error) {
	existing, err := s.FindCompany(ctx, company.ClientID, company.Domain, company.Name)
	if err != nil || existing != nil {
		return existing, false, err
	}

	now := time.Now().UTC()
	company.ID = uuid.New().String()
	company.CreatedAt = now
	company.UpdatedAt = now
	social, err := marshalSocial(company.SocialProfiles)
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: marshal social profiles")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, client_id, name, domain, industry, size, location, description,
			website, logo_url, social_profiles, enriched_at, created_at, updated_at)
		 VALUES (?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (client_id, domain) DO NOTHING`,
		company.ID, company.ClientID, company.Name, company.Domain, company.Industry, company.Size,
		company.Location, company.Description, company.Website, company.LogoURL, social,
		company.EnrichedAt, now, now,
	)
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: insert company")
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return &company, true, nil
	}

	// Lost the race to a concurrent insert for the same domain.
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteCompanyCols+` FROM companies WHERE client_id = ? AND domain = ?`,
		company.ClientID, company.Domain)
	existing, err = scanCompanyRow(row, "sqlite: reload company")
	return existing, false, err
}

func (s *SQLiteStore) UpdateCompany(ctx context.Context, company *model.Company) error {
	social, err := marshalSocial(company.SocialProfiles)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal social profiles")
	}
	company.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET name = ?, domain = NULLIF(?, ''), industry = ?, size = ?, location = ?,
			description = ?, website = ?, logo_url = ?, social_profiles = ?, enriched_at = ?, updated_at = ?
		 WHERE client_id = ? AND id = ?`,
		company.Name, company.Domain, company.Industry, company.Size, company.Location,
		company.Description, company.Website, company.LogoURL, social, company.EnrichedAt,
		company.UpdatedAt, company.ClientID, company.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update company %s", company.ID)
	}
	return checkRowsAffected(res, "company", company.ID)
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, clientID string, limit int) ([]model.Company, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteCompanyCols+` FROM companies WHERE client_id = ? ORDER BY created_at DESC LIMIT ?`,
		clientID, listLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

// --- Contacts ---

const sqliteContactCols = `id, client_id, company_id, first_name, last_name, email, title, phone,
	linkedin_url, source, created_at`

// CreateContact inserts the contact unless one with the same email already
// exists for the company, in which case the existing row is returned with
// created=false.
func (s *SQLiteStore) CreateContact(ctx context.Context, contact model.Contact) (*model.Contact, bool, error) {
	contact.ID = uuid.New().String()
	contact.Email = strings.ToLower(strings.TrimSpace(contact.Email))
	contact.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (`+sqliteContactCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (company_id, email) DO NOTHING`,
		contact.ID, contact.ClientID, contact.CompanyID, contact.FirstName, contact.LastName,
		contact.Email, contact.Title, contact.Phone, contact.LinkedInURL, string(contact.Source),
		contact.CreatedAt,
	)
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: insert contact")
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return &contact, true, nil
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteContactCols+` FROM contacts WHERE company_id = ? AND email = ?`,
		contact.CompanyID, contact.Email)
	existing, err := scanContact(row)
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: reload contact")
	}
	return existing, false, nil
}

func (s *SQLiteStore) GetContact(ctx context.Context, clientID, id string) (*model.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteContactCols+` FROM contacts WHERE client_id = ? AND id = ?`, clientID, id)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get contact")
	}
	return c, nil
}

func (s *SQLiteStore) ListContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error) {
	query := `SELECT ` + sqliteContactCols + ` FROM contacts WHERE client_id = ?`
	args := []any{filter.ClientID}
	if filter.CompanyID != "" {
		query += ` AND company_id = ?`
		args = append(args, filter.CompanyID)
	}
	query += ` ORDER BY created_at LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacts")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list contacts iterate")
}

func (s *SQLiteStore) CountContacts(ctx context.Context, clientID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts WHERE client_id = ?`, clientID).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count contacts")
}

// --- Visits ---

const sqliteVisitCols = `id, client_id, COALESCE(company_id, ''), session_id, ip_address, user_agent,
	referrer, pages, duration, country, region, city, timestamp`

func (s *SQLiteStore) CreateVisit(ctx context.Context, visit model.Visit) (*model.Visit, error) {
	visit.ID = uuid.New().String()
	if visit.Timestamp.IsZero() {
		visit.Timestamp = time.Now()
	}
	visit.Timestamp = visit.Timestamp.UTC()
	if visit.Pages == nil {
		visit.Pages = []string{}
	}
	pages, err := json.Marshal(visit.Pages)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal pages")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO visits (id, client_id, company_id, session_id, ip_address, user_agent, referrer,
			pages, duration, country, region, city, timestamp)
		 VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		visit.ID, visit.ClientID, visit.CompanyID, visit.SessionID, visit.IPAddress, visit.UserAgent,
		visit.Referrer, string(pages), visit.Duration, visit.Location.Country, visit.Location.Region,
		visit.Location.City, visit.Timestamp,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert visit")
	}
	return &visit, nil
}

func (s *SQLiteStore) ListVisits(ctx context.Context, filter VisitFilter) ([]model.Visit, error) {
	query := `SELECT ` + sqliteVisitCols + ` FROM visits WHERE client_id = ?`
	args := []any{filter.ClientID}
	if filter.CompanyID != "" {
		query += ` AND company_id = ?`
		args = append(args, filter.CompanyID)
	}
	if !filter.Since.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list visits")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list visits iterate")
}

func (s *SQLiteStore) CountVisits(ctx context.Context, clientID string) (VisitCounts, error) {
	var c VisitCounts
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(company_id) FROM visits WHERE client_id = ?`, clientID,
	).Scan(&c.Total, &c.Identified)
	return c, eris.Wrap(err, "sqlite: count visits")
}

// --- Follow-ups ---

const sqliteFollowUpCols = `id, client_id, contact_id, type, subject, content, status, scheduled_at,
	completed_at, created_by, created_at`

func (s *SQLiteStore) CreateFollowUp(ctx context.Context, f model.FollowUp) (*model.FollowUp, error) {
	f.ID = uuid.New().String()
	f.Status = model.FollowUpPending
	f.CreatedAt = time.Now().UTC()
	f.ScheduledAt = f.ScheduledAt.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO follow_ups (`+sqliteFollowUpCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.ClientID, f.ContactID, string(f.Type), f.Subject, f.Content, string(f.Status),
		f.ScheduledAt, f.CompletedAt, f.CreatedBy, f.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert follow-up")
	}
	return &f, nil
}

func (s *SQLiteStore) GetFollowUp(ctx context.Context, clientID, id string) (*model.FollowUp, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteFollowUpCols+` FROM follow_ups WHERE client_id = ? AND id = ?`, clientID, id)
	f, err := scanFollowUp(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get follow-up")
	}
	return f, nil
}

func (s *SQLiteStore) ListFollowUps(ctx context.Context, filter FollowUpFilter) ([]model.FollowUp, error) {
	query := `SELECT ` + sqliteFollowUpCols + ` FROM follow_ups WHERE client_id = ?`
	args := []any{filter.ClientID}
	if filter.ContactID != "" {
		query += ` AND contact_id = ?`
		args = append(args, filter.ContactID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY scheduled_at LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list follow-ups")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.FollowUp
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan follow-up")
		}
		out = append(out, *f)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list follow-ups iterate")
}

// UpdateFollowUpStatus persists a transition out of pending. It fails when
// the stored row is no longer pending.
func (s *SQLiteStore) UpdateFollowUpStatus(ctx context.Context, f *model.FollowUp) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE follow_ups SET status = ?, completed_at = ?
		 WHERE client_id = ? AND id = ? AND status = 'pending'`,
		string(f.Status), f.CompletedAt, f.ClientID, f.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update follow-up %s", f.ID)
	}
	return checkRowsAffected(res, "pending follow-up", f.ID)
}

// --- Provider usage ---

func (s *SQLiteStore) AddProviderUsage(ctx context.Context, provider, period string, n int) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO provider_usage (provider, period, calls) VALUES (?, ?, ?)
		 ON CONFLICT (provider, period) DO UPDATE SET calls = calls + excluded.calls
		 RETURNING calls`,
		provider, period, n,
	).Scan(&total)
	return total, eris.Wrapf(err, "sqlite: add usage %s", provider)
}

func (s *SQLiteStore) GetProviderUsage(ctx context.Context, provider, period string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT calls FROM provider_usage WHERE provider = ? AND period = ?`, provider, period,
	).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return total, eris.Wrapf(err, "sqlite: get usage %s", provider)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanClient(row scannable) (*model.Client, error) {
	var c model.Client
	if err := row.Scan(&c.ID, &c.Name, &c.Domain, &c.APIKey, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCompany(row scannable) (*model.Company, error) {
	var c model.Company
	var social string
	var enriched sql.NullTime
	err := row.Scan(&c.ID, &c.ClientID, &c.Name, &c.Domain, &c.Industry, &c.Size, &c.Location,
		&c.Description, &c.Website, &c.LogoURL, &social, &enriched, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if enriched.Valid {
		t := enriched.Time
		c.EnrichedAt = &t
	}
	if err := unmarshalSocial([]byte(social), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCompanyRow(row scannable, op string) (*model.Company, error) {
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, op)
	}
	return c, nil
}

func scanContact(row scannable) (*model.Contact, error) {
	var c model.Contact
	var source string
	err := row.Scan(&c.ID, &c.ClientID, &c.CompanyID, &c.FirstName, &c.LastName, &c.Email,
		&c.Title, &c.Phone, &c.LinkedInURL, &source, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Source = model.ContactSource(source)
	return &c, nil
}

func scanVisit(row scannable) (*model.Visit, error) {
	var v model.Visit
	var pages string
	err := row.Scan(&v.ID, &v.ClientID, &v.CompanyID, &v.SessionID, &v.IPAddress, &v.UserAgent,
		&v.Referrer, &pages, &v.Duration, &v.Location.Country, &v.Location.Region,
		&v.Location.City, &v.Timestamp)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan visit")
	}
	if err := json.Unmarshal([]byte(pages), &v.Pages); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal pages")
	}
	return &v, nil
}

func scanFollowUp(row scannable) (*model.FollowUp, error) {
	var f model.FollowUp
	var typ, status string
	var completed sql.NullTime
	err := row.Scan(&f.ID, &f.ClientID, &f.ContactID, &typ, &f.Subject, &f.Content, &status,
		&f.ScheduledAt, &completed, &f.CreatedBy, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	f.Type = model.FollowUpType(typ)
	f.Status = model.FollowUpStatus(status)
	if completed.Valid {
		t := completed.Time
		f.CompletedAt = &t
	}
	return &f, nil
}
