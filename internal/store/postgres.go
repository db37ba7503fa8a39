package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it,
// which keeps the postgres tests hermetic.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_lead":        `INSERT INTO leads (id, founder_name, email, company_name, company_domain, funding_amount, catch_all, score, draft_subject, draft_body, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
	"update_lead_status": `UPDATE leads SET status = $1 WHERE id = $2`,
	"get_lead":           `SELECT id, founder_name, email, company_name, company_domain, funding_amount, catch_all, score, draft_subject, draft_body, status, created_at FROM leads WHERE id = $1`,
	"has_lead_email":     `SELECT 1 FROM leads WHERE email = $1`,
	"mark_newsletter":    `INSERT INTO newsletters (id, event_count, processed_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO UPDATE SET event_count = $2, processed_at = $3`,
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

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS newsletters (
	id           TEXT PRIMARY KEY,
	event_count  INTEGER NOT NULL DEFAULT 0,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS funding_events (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	newsletter_id  TEXT NOT NULL REFERENCES newsletters(id),
	company_name   TEXT NOT NULL,
	funding_amount TEXT,
	company_domain TEXT,
	founder_names  TEXT,
	description    TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	founder_name   TEXT NOT NULL,
	email          TEXT NOT NULL UNIQUE,
	company_name   TEXT NOT NULL,
	company_domain TEXT NOT NULL,
	funding_amount TEXT,
	catch_all      BOOLEAN NOT NULL DEFAULT false,
	score          INTEGER,
	draft_subject  TEXT,
	draft_body     TEXT,
	status         TEXT NOT NULL DEFAULT 'found',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_funding_events_newsletter ON funding_events(newsletter_id);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_company_domain ON leads(company_domain);
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

func (s *PostgresStore) MarkNewsletterProcessed(ctx context.Context, newsletterID string, eventCount int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO newsletters (id, event_count, processed_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET event_count = $2, processed_at = $3`,
		newsletterID, eventCount, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: mark newsletter %s", newsletterID)
}

func (s *PostgresStore) NewsletterProcessed(ctx context.Context, newsletterID string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM newsletters WHERE id = $1`, newsletterID,
	).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, eris.Wrapf(err, "postgres: newsletter processed %s", newsletterID)
	}
	return true, nil
}

func (s *PostgresStore) SaveFundingEvent(ctx context.Context, newsletterID string, event model.FundingEvent) (string, error) {
	id := uuid.New().String()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO funding_events (id, newsletter_id, company_name, funding_amount, company_domain, founder_names, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, newsletterID, event.CompanyName, event.FundingAmount, event.CompanyDomain,
		joinNames(event.FounderNames), event.Description, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: insert funding event for %s", event.CompanyName)
	}
	return id, nil
}

func (s *PostgresStore) SaveLead(ctx context.Context, lead *model.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.Status == "" {
		lead.Status = model.LeadStatusFound
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (id, founder_name, email, company_name, company_domain, funding_amount, catch_all, score, draft_subject, draft_body, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		lead.ID, lead.FounderName, lead.Email, lead.CompanyName, lead.CompanyDomain,
		lead.FundingAmount, lead.CatchAll, lead.Score,
		lead.DraftSubject, lead.DraftBody, string(lead.Status), lead.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert lead %s", lead.Email)
}

func (s *PostgresStore) GetLead(ctx context.Context, leadID string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, founder_name, email, company_name, company_domain, funding_amount, catch_all, score, draft_subject, draft_body, status, created_at
		 FROM leads WHERE id = $1`,
		leadID,
	)
	return scanLeadPG(row)
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, founder_name, email, company_name, company_domain, funding_amount, catch_all, score, draft_subject, draft_body, status, created_at
	          FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.CompanyDomain != "" {
		query += fmt.Sprintf(` AND company_domain = $%d`, argIdx)
		args = append(args, filter.CompanyDomain)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLeadPG(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) UpdateLeadStatus(ctx context.Context, leadID string, status model.LeadStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = $1 WHERE id = $2`,
		string(status), leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead status %s", leadID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("lead not found: %s", leadID)
	}
	return nil
}

func (s *PostgresStore) HasLeadForEmail(ctx context.Context, email string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM leads WHERE email = $1`, email,
	).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, eris.Wrapf(err, "postgres: has lead for %s", email)
	}
	return true, nil
}

func scanLeadPG(row pgx.Row) (*model.Lead, error) {
	var l model.Lead
	var score *int
	var subject, body *string

	err := row.Scan(&l.ID, &l.FounderName, &l.Email, &l.CompanyName, &l.CompanyDomain,
		&l.FundingAmount, &l.CatchAll, &score, &subject, &body, &l.Status, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.New("lead not found")
		}
		return nil, eris.Wrap(err, "postgres: scan lead")
	}

	l.Score = score
	if subject != nil {
		l.DraftSubject = *subject
	}
	if body != nil {
		l.DraftBody = *body
	}
	return &l, nil
}
