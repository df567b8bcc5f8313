package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/visitor-intel/internal/db"
	"github.com/sells-group/visitor-intel/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	pgInsertVisit = `INSERT INTO visits (id, client_id, company_id, session_id, ip_address, user_agent,
		referrer, pages, duration, country, region, city, timestamp)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	pgClientByKey = `SELECT id, name, domain, api_key, is_active, created_at FROM clients WHERE api_key = $1`
	pgAddUsage    = `INSERT INTO provider_usage (provider, period, calls) VALUES ($1, $2, $3)
		ON CONFLICT (provider, period) DO UPDATE SET calls = provider_usage.calls + EXCLUDED.calls
		RETURNING calls`
)

// preparedStatements lists the ingestion hot path, prepared on each new
// connection.
var preparedStatements = map[string]string{
	"insert_visit":       pgInsertVisit,
	"client_by_api_key":  pgClientByKey,
	"add_provider_usage": pgAddUsage,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS clients (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL,
	domain     TEXT NOT NULL DEFAULT '',
	api_key    TEXT NOT NULL UNIQUE,
	is_active  BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS companies (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id       TEXT NOT NULL REFERENCES clients(id),
	name            TEXT NOT NULL,
	domain          TEXT,
	industry        TEXT NOT NULL DEFAULT '',
	size            TEXT NOT NULL DEFAULT '',
	location        TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	website         TEXT NOT NULL DEFAULT '',
	logo_url        TEXT NOT NULL DEFAULT '',
	social_profiles JSONB NOT NULL DEFAULT '{}',
	enriched_at     TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contacts (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id    TEXT NOT NULL REFERENCES clients(id),
	company_id   TEXT NOT NULL REFERENCES companies(id),
	first_name   TEXT NOT NULL,
	last_name    TEXT NOT NULL,
	email        TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	linkedin_url TEXT NOT NULL DEFAULT '',
	source       TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS visits (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id  TEXT NOT NULL REFERENCES clients(id),
	company_id TEXT REFERENCES companies(id),
	session_id TEXT NOT NULL DEFAULT '',
	ip_address TEXT NOT NULL,
	user_agent TEXT NOT NULL DEFAULT '',
	referrer   TEXT NOT NULL DEFAULT '',
	pages      JSONB NOT NULL DEFAULT '[]',
	duration   INTEGER NOT NULL DEFAULT 0,
	country    TEXT NOT NULL DEFAULT '',
	region     TEXT NOT NULL DEFAULT '',
	city       TEXT NOT NULL DEFAULT '',
	timestamp  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS follow_ups (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	client_id    TEXT NOT NULL REFERENCES clients(id),
	contact_id   TEXT NOT NULL REFERENCES contacts(id),
	type         TEXT NOT NULL,
	subject      TEXT NOT NULL,
	content      TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'pending',
	scheduled_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	created_by   TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
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
CREATE INDEX IF NOT EXISTS idx_visits_client_ts ON visits(client_id, timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_follow_ups_client ON follow_ups(client_id, status);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Clients ---

func (s *PostgresStore) CreateClient(ctx context.Context, name, domain string) (*model.Client, error) {
	c := &model.Client{
		ID:        uuid.New().String(),
		Name:      name,
		Domain:    domain,
		APIKey:    NewAPIKey(),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO clients (id, name, domain, api_key, is_active, created_at) VALUES ($1, $2, $3, $4, true, $5)`,
		c.ID, c.Name, c.Domain, c.APIKey, c.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert client")
	}
	return c, nil
}

func (s *PostgresStore) GetClient(ctx context.Context, id string) (*model.Client, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, domain, api_key, is_active, created_at FROM clients WHERE id = $1`, id)
	return pgClientRow(row, "get client")
}

func (s *PostgresStore) GetClientByAPIKey(ctx context.Context, apiKey string) (*model.Client, error) {
	return pgClientRow(s.pool.QueryRow(ctx, pgClientByKey, apiKey), "get client by api key")
}

func pgClientRow(row pgx.Row, op string) (*model.Client, error) {
	c, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", op)
	}
	return c, nil
}

func (s *PostgresStore) ListClients(ctx context.Context) ([]model.Client, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, domain, api_key, is_active, created_at FROM clients ORDER BY created_at`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list clients")
	}
	defer rows.Close()

	var out []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan client")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list clients iterate")
}

func (s *PostgresStore) DeactivateClient(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE clients SET is_active = false WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: deactivate client %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "client %s", id)
	}
	return nil
}

// --- Companies ---

const pgCompanyCols = `id, client_id, name, COALESCE(domain, ''), industry, size, location,
	description, website, logo_url, social_profiles, enriched_at, created_at, updated_at`

func (s *PostgresStore) GetCompany(ctx context.Context, clientID, id string) (*model.Company, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgCompanyCols+` FROM companies WHERE client_id = $1 AND id = $2`, clientID, id)
	return pgCompanyRow(row, "get company")
}

// FindCompany matches on domain or name within the client, preferring a
// domain match. Empty inputs never match.
func (s *PostgresStore) FindCompany(ctx context.Context, clientID, domain, name string) (*model.Company, error) {
	if domain == "" && name == "" {
		return nil, nil
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgCompanyCols+` FROM companies
		 WHERE client_id = $1 AND (($2 <> '' AND domain = $2) OR ($3 <> '' AND name = $3))
		 ORDER BY (domain IS NOT DISTINCT FROM $2) DESC, created_at LIMIT 1`,
		clientID, domain, name,
	)
	return pgCompanyRow(row, "find company")
}

func (s *PostgresStore) GetOrCreateCompany(ctx context.Context, company model.Company) (*model.Company, bool, error) {
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
		return nil, false, eris.Wrap(err, "postgres: marshal social profiles")
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO companies (id, client_id, name, domain, industry, size, location, description,
			website, logo_url, social_profiles, enriched_at, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (client_id, domain) DO NOTHING`,
		company.ID, company.ClientID, company.Name, company.Domain, company.Industry, company.Size,
		company.Location, company.Description, company.Website, company.LogoURL, social,
		company.EnrichedAt, now, now,
	)
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: insert company")
	}
	if tag.RowsAffected() == 1 {
		return &company, true, nil
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+pgCompanyCols+` FROM companies WHERE client_id = $1 AND domain = $2`,
		company.ClientID, company.Domain)
	existing, err = pgCompanyRow(row, "reload company")
	return existing, false, err
}

func (s *PostgresStore) UpdateCompany(ctx context.Context, company *model.Company) error {
	social, err := marshalSocial(company.SocialProfiles)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal social profiles")
	}
	company.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET name = $1, domain = NULLIF($2, ''), industry = $3, size = $4, location = $5,
			description = $6, website = $7, logo_url = $8, social_profiles = $9, enriched_at = $10,
			updated_at = $11
		 WHERE client_id = $12 AND id = $13`,
		company.Name, company.Domain, company.Industry, company.Size, company.Location,
		company.Description, company.Website, company.LogoURL, social, company.EnrichedAt,
		company.UpdatedAt, company.ClientID, company.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update company %s", company.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "company %s", company.ID)
	}
	return nil
}

func (s *PostgresStore) ListCompanies(ctx context.Context, clientID string, limit int) ([]model.Company, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgCompanyCols+` FROM companies WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2`,
		clientID, listLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var out []model.Company
	for rows.Next() {
		c, err := scanPgCompany(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

// --- Contacts ---

const pgContactCols = `id, client_id, company_id, first_name, last_name, email, title, phone,
	linkedin_url, source, created_at`

func (s *PostgresStore) CreateContact(ctx context.Context, contact model.Contact) (*model.Contact, bool, error) {
	contact.ID = uuid.New().String()
	contact.Email = strings.ToLower(strings.TrimSpace(contact.Email))
	contact.CreatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO contacts (`+pgContactCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (company_id, email) DO NOTHING`,
		contact.ID, contact.ClientID, contact.CompanyID, contact.FirstName, contact.LastName,
		contact.Email, contact.Title, contact.Phone, contact.LinkedInURL, string(contact.Source),
		contact.CreatedAt,
	)
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: insert contact")
	}
	if tag.RowsAffected() == 1 {
		return &contact, true, nil
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+pgContactCols+` FROM contacts WHERE company_id = $1 AND email = $2`,
		contact.CompanyID, contact.Email)
	existing, err := scanContact(row)
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: reload contact")
	}
	return existing, false, nil
}

func (s *PostgresStore) GetContact(ctx context.Context, clientID, id string) (*model.Contact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgContactCols+` FROM contacts WHERE client_id = $1 AND id = $2`, clientID, id)
	c, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get contact")
	}
	return c, nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error) {
	query := `SELECT ` + pgContactCols + ` FROM contacts WHERE client_id = $1`
	args := []any{filter.ClientID}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += ` AND company_id = ` + placeholder(len(args))
	}
	args = append(args, listLimit(filter.Limit))
	query += ` ORDER BY created_at LIMIT ` + placeholder(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contacts")
	}
	defer rows.Close()

	var out []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list contacts iterate")
}

func (s *PostgresStore) CountContacts(ctx context.Context, clientID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contacts WHERE client_id = $1`, clientID).Scan(&n)
	return n, eris.Wrap(err, "postgres: count contacts")
}

// --- Visits ---

const pgVisitCols = `id, client_id, COALESCE(company_id, ''), session_id, ip_address, user_agent,
	referrer, pages, duration, country, region, city, timestamp`

func (s *PostgresStore) CreateVisit(ctx context.Context, visit model.Visit) (*model.Visit, error) {
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
		return nil, eris.Wrap(err, "postgres: marshal pages")
	}

	_, err = s.pool.Exec(ctx, pgInsertVisit,
		visit.ID, visit.ClientID, visit.CompanyID, visit.SessionID, visit.IPAddress, visit.UserAgent,
		visit.Referrer, string(pages), visit.Duration, visit.Location.Country, visit.Location.Region,
		visit.Location.City, visit.Timestamp,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert visit")
	}
	return &visit, nil
}

func (s *PostgresStore) ListVisits(ctx context.Context, filter VisitFilter) ([]model.Visit, error) {
	query := `SELECT ` + pgVisitCols + ` FROM visits WHERE client_id = $1`
	args := []any{filter.ClientID}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		query += ` AND company_id = ` + placeholder(len(args))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since.UTC())
		query += ` AND timestamp >= ` + placeholder(len(args))
	}
	args = append(args, listLimit(filter.Limit))
	query += ` ORDER BY timestamp DESC LIMIT ` + placeholder(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list visits")
	}
	defer rows.Close()

	var out []model.Visit
	for rows.Next() {
		var v model.Visit
		var pages []byte
		err := rows.Scan(&v.ID, &v.ClientID, &v.CompanyID, &v.SessionID, &v.IPAddress, &v.UserAgent,
			&v.Referrer, &pages, &v.Duration, &v.Location.Country, &v.Location.Region,
			&v.Location.City, &v.Timestamp)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan visit")
		}
		if err := json.Unmarshal(pages, &v.Pages); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal pages")
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list visits iterate")
}

func (s *PostgresStore) CountVisits(ctx context.Context, clientID string) (VisitCounts, error) {
	var c VisitCounts
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(company_id) FROM visits WHERE client_id = $1`, clientID,
	).Scan(&c.Total, &c.Identified)
	return c, eris.Wrap(err, "postgres: count visits")
}

// --- Follow-ups ---

const pgFollowUpCols = `id, client_id, contact_id, type, subject, content, status, scheduled_at,
	completed_at, created_by, created_at`

func (s *PostgresStore) CreateFollowUp(ctx context.Context, f model.FollowUp) (*model.FollowUp, error) {
	f.ID = uuid.New().String()
	f.Status = model.FollowUpPending
	f.CreatedAt = time.Now().UTC()
	f.ScheduledAt = f.ScheduledAt.UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO follow_ups (`+pgFollowUpCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		f.ID, f.ClientID, f.ContactID, string(f.Type), f.Subject, f.Content, string(f.Status),
		f.ScheduledAt, f.CompletedAt, f.CreatedBy, f.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert follow-up")
	}
	return &f, nil
}

func (s *PostgresStore) GetFollowUp(ctx context.Context, clientID, id string) (*model.FollowUp, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgFollowUpCols+` FROM follow_ups WHERE client_id = $1 AND id = $2`, clientID, id)
	f, err := scanPgFollowUp(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get follow-up")
	}
	return f, nil
}

func (s *PostgresStore) ListFollowUps(ctx context.Context, filter FollowUpFilter) ([]model.FollowUp, error) {
	query := `SELECT ` + pgFollowUpCols + ` FROM follow_ups WHERE client_id = $1`
	args := []any{filter.ClientID}
	if filter.ContactID != "" {
		args = append(args, filter.ContactID)
		query += ` AND contact_id = ` + placeholder(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = ` + placeholder(len(args))
	}
	args = append(args, listLimit(filter.Limit))
	query += ` ORDER BY scheduled_at LIMIT ` + placeholder(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list follow-ups")
	}
	defer rows.Close()

	var out []model.FollowUp
	for rows.Next() {
		f, err := scanPgFollowUp(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan follow-up")
		}
		out = append(out, *f)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list follow-ups iterate")
}

func (s *PostgresStore) UpdateFollowUpStatus(ctx context.Context, f *model.FollowUp) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE follow_ups SET status = $1, completed_at = $2
		 WHERE client_id = $3 AND id = $4 AND status = 'pending'`,
		string(f.Status), f.CompletedAt, f.ClientID, f.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update follow-up %s", f.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "pending follow-up %s", f.ID)
	}
	return nil
}

// --- Provider usage ---

func (s *PostgresStore) AddProviderUsage(ctx context.Context, provider, period string, n int) (int, error) {
	var total int
	err := s.pool.QueryRow(ctx, pgAddUsage, provider, period, n).Scan(&total)
	return total, eris.Wrapf(err, "postgres: add usage %s", provider)
}

func (s *PostgresStore) GetProviderUsage(ctx context.Context, provider, period string) (int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT calls FROM provider_usage WHERE provider = $1 AND period = $2`, provider, period,
	).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return total, eris.Wrapf(err, "postgres: get usage %s", provider)
}

// helpers

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func pgCompanyRow(row pgx.Row, op string) (*model.Company, error) {
	c, err := scanPgCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", op)
	}
	return c, nil
}

func scanPgCompany(row scannable) (*model.Company, error) {
	var c model.Company
	var social []byte
	err := row.Scan(&c.ID, &c.ClientID, &c.Name, &c.Domain, &c.Industry, &c.Size, &c.Location,
		&c.Description, &c.Website, &c.LogoURL, &social, &c.EnrichedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalSocial(social, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanPgFollowUp(row scannable) (*model.FollowUp, error) {
	var f model.FollowUp
	var typ, status string
	err := row.Scan(&f.ID, &f.ClientID, &f.ContactID, &typ, &f.Subject, &f.Content, &status,
		&f.ScheduledAt, &f.CompletedAt, &f.CreatedBy, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	f.Type = model.FollowUpType(typ)
	f.Status = model.FollowUpStatus(status)
	return &f, nil
}
