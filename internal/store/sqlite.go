package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-cli/internal/model"
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
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS newsletters (
	id           TEXT PRIMARY KEY,
	event_count  INTEGER NOT NULL DEFAULT 0,
	processed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS funding_events (
	id             TEXT PRIMARY KEY,
	newsletter_id  TEXT NOT NULL REFERENCES newsletters(id),
	company_name   TEXT NOT NULL,
	funding_amount TEXT,
	company_domain TEXT,
	founder_names  TEXT,
	description    TEXT,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS leads (
	id             TEXT PRIMARY KEY,
	founder_name   TEXT NOT NULL,
	email          TEXT NOT NULL UNIQUE,
	company_name   TEXT NOT NULL,
	company_domain TEXT NOT NULL,
	funding_amount TEXT,
	catch_all      INTEGER NOT NULL DEFAULT 0,
	score          INTEGER,
	draft_subject  TEXT,
	draft_body     TEXT,
	status         TEXT NOT NULL DEFAULT 'found',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_funding_events_newsletter ON funding_events(newsletter_id);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_company_domain ON leads(company_domain);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) MarkNewsletterProcessed(ctx context.Context, newsletterID string, eventCount int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO newsletters (id, event_count, processed_at) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET event_count = excluded.event_count, processed_at = excluded.processed_at`,
		newsletterID, eventCount, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: mark newsletter %s", newsletterID)
}

func (s *SQLiteStore) NewsletterProcessed(ctx context.Context, newsletterID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM newsletters WHERE id = ?`, newsletterID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: newsletter processed %s", newsletterID)
	}
	return true, nil
}

func (s *SQLiteStore) SaveFundingEvent(ctx context.Context, newsletterID string, event model.FundingEvent) (string, error) {
	id := uuid.New().String()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO funding_events (id, newsletter_id, company_name, funding_amount, company_domain, founder_names, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, newsletterID, event.CompanyName, event.FundingAmount, event.CompanyDomain,
		joinNames(event.FounderNames), event.Description, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert funding event for %s", event.CompanyName)
	}
	return id, nil
}

func (s *SQLiteStore) SaveLead(ctx context.Context, lead *model.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.Status == "" {
		lead.Status = model.LeadStatusFound
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, founder_name, email, company_name, company_domain, funding_amount, catch_all, score, draft_subject, draft_body, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.FounderName, lead.Email, lead.CompanyName, lead.CompanyDomain,
		lead.FundingAmount, boolToInt(lead.CatchAll), lead.Score,
		lead.DraftSubject, lead.DraftBody, string(lead.Status), lead.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert lead %s", lead.Email)
}

func (s *SQLiteStore) GetLead(ctx context.Context, leadID string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, founder_name, email, company_name, company_domain, funding_amount, catch_all, score, draft_subject, draft_body, status, created_at
		 FROM leads WHERE id = ?`,
		leadID,
	)
	return scanLead(row)
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, founder_name, email, company_name, company_domain, funding_amount, catch_all, score, draft_subject, draft_body, status, created_at
	          FROM leads WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.CompanyDomain != "" {
		query += ` AND company_domain = ?`
		args = append(args, filter.CompanyDomain)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) UpdateLeadStatus(ctx context.Context, leadID string, status model.LeadStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ? WHERE id = ?`,
		string(status), leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead status %s", leadID)
	}
	return checkRowsAffected(res, "lead", leadID)
}

func (s *SQLiteStore) HasLeadForEmail(ctx context.Context, email string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM leads WHERE email = ?`, email,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: has lead for %s", email)
	}
	return true, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var catchAll int
	var score sql.NullInt64
	var subject, body sql.NullString

	err := row.Scan(&l.ID, &l.FounderName, &l.Email, &l.CompanyName, &l.CompanyDomain,
		&l.FundingAmount, &catchAll, &score, &subject, &body, &l.Status, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("lead not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan lead")
	}

	l.CatchAll = catchAll != 0
	if score.Valid {
		v := int(score.Int64)
		l.Score = &v
	}
	l.DraftSubject = subject.String
	l.DraftBody = body.String
	return &l, nil
}
