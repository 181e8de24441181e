package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/lead-makers/mapleads/internal/retry"
)

// DB is the subset of pgxpool.Pool the store uses. pgxmock implements it.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Postgres implements LeadStore and ProgressStore on a pgx pool.
type Postgres struct {
	db    DB
	table string
}

const progressTable = "scraper_progress"

// NewPostgres connects to Postgres with bounded linear-backoff retries and
// returns a store over the given leads table. On exhaustion the error is
// returned to the caller; the pipeline treats that as a hard stop for the
// calling phase, not a process crash.
func NewPostgres(ctx context.Context, dsn, table string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 5
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	var pool *pgxpool.Pool
	err = retry.WithRetry(ctx, retry.Linear(3, 5*time.Second), func() error {
		p, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}

	log.Info().Str("host", cfg.ConnConfig.Host).Str("table", table).Msg("Database connected")
	return &Postgres{db: pool, table: table}, nil
}

// NewWithDB wraps an existing connection, used by tests with pgxmock.
func NewWithDB(db DB, table string) *Postgres {
	return &Postgres{db: db, table: table}
}

// Close releases the underlying pool.
func (s *Postgres) Close() {
	s.db.Close()
}

const leadsDDL = `
CREATE TABLE IF NOT EXISTS %s (
	id         BIGSERIAL PRIMARY KEY,
	city       TEXT NOT NULL,
	name       TEXT NOT NULL,
	rating     TEXT NOT NULL DEFAULT 'N/A',
	address    TEXT NOT NULL DEFAULT 'N/A',
	phone      TEXT NOT NULL DEFAULT 'N/A',
	website    TEXT NOT NULL DEFAULT 'N/A',
	timings    TEXT NOT NULL DEFAULT 'N/A',
	logo_url   TEXT NOT NULL DEFAULT 'N/A',
	services   TEXT NOT NULL DEFAULT 'N/A',
	pricing    TEXT NOT NULL DEFAULT 'N/A',
	scraped_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (city, name)
)`

const progressDDL = `
CREATE TABLE IF NOT EXISTS scraper_progress (
	id           BIGSERIAL PRIMARY KEY,
	city         TEXT NOT NULL,
	phase        TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'in_progress',
	started_at   TIMESTAMPTZ,
	completed_at TIMESTAMPTZ,
	UNIQUE (city, phase)
)`

// Migrate creates both tables if missing.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, fmt.Sprintf(leadsDDL, s.table)); err != nil {
		return eris.Wrap(err, "postgres: create leads table")
	}
	if _, err := s.db.Exec(ctx, progressDDL); err != nil {
		return eris.Wrap(err, "postgres: create progress table")
	}
	log.Info().Msg("Database tables initialized")
	return nil
}

// Insert writes a lead with enrichment fields defaulted to the sentinel.
// A duplicate (city, name) key is a no-op and returns false.
func (s *Postgres) Insert(ctx context.Context, lead Lead) (bool, error) {
	q := fmt.Sprintf(`INSERT INTO %s
		(city, name, rating, address, phone, website, timings, logo_url, services, pricing, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (city, name) DO NOTHING`, s.table)

	tag, err := s.db.Exec(ctx, q,
		lead.City, lead.Name, lead.Rating, lead.Address, lead.Phone,
		lead.Website, lead.Timings, Sentinel, Sentinel, Sentinel, lead.ScrapedAt)
	if err != nil {
		return false, eris.Wrap(err, "postgres: insert lead")
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateEnrichment writes phase-2 fields only. All-sentinel enrichments are
// skipped so the candidates query stays the idempotency gate.
func (s *Postgres) UpdateEnrichment(ctx context.Context, city, name string, e Enrichment) (bool, error) {
	if e.Empty() {
		return false, nil
	}

	q := fmt.Sprintf(`UPDATE %s SET logo_url = $1, services = $2, pricing = $3
		WHERE city = $4 AND name = $5`, s.table)

	tag, err := s.db.Exec(ctx, q, e.LogoURL, e.Services, e.Pricing, city, name)
	if err != nil {
		return false, eris.Wrap(err, "postgres: update enrichment")
	}
	return tag.RowsAffected() > 0, nil
}

// EnrichmentCandidates returns leads with a real website and untouched
// enrichment fields. Already-enriched leads drop out of this query, which is
// what makes re-running phase 2 idempotent.
func (s *Postgres) EnrichmentCandidates(ctx context.Context, city string) ([]Candidate, error) {
	q := fmt.Sprintf(`SELECT name, website FROM %s
		WHERE city = $1 AND website LIKE 'http%%'
		AND logo_url = 'N/A' AND services = 'N/A' AND pricing = 'N/A'`, s.table)

	rows, err := s.db.Query(ctx, q, city)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: enrichment candidates")
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.Name, &c.Website); err != nil {
			return nil, eris.Wrap(err, "postgres: scan candidate")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ExistingKeys returns every lower-cased (city, name) pair in the store,
// across all cities. Phase 1 uses this set for duplicate suppression.
func (s *Postgres) ExistingKeys(ctx context.Context) (map[LeadKey]struct{}, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(`SELECT city, name FROM %s`, s.table))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: existing keys")
	}
	defer rows.Close()

	keys := make(map[LeadKey]struct{})
	for rows.Next() {
		var city, name string
		if err := rows.Scan(&city, &name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan key")
		}
		keys[NewLeadKey(city, name)] = struct{}{}
	}
	return keys, rows.Err()
}

// CountForCity returns the number of stored leads for a city.
func (s *Postgres) CountForCity(ctx context.Context, city string) (int, error) {
	var n int
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE city = $1`, s.table)
	if err := s.db.QueryRow(ctx, q, city).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "postgres: count for city")
	}
	return n, nil
}

// List returns all leads, newest first.
func (s *Postgres) List(ctx context.Context) ([]Lead, error) {
	q := fmt.Sprintf(`SELECT id, city, name, rating, address, phone, website, timings,
		logo_url, services, pricing, COALESCE(scraped_at, created_at), created_at
		FROM %s ORDER BY created_at DESC`, s.table)

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.City, &l.Name, &l.Rating, &l.Address, &l.Phone,
			&l.Website, &l.Timings, &l.LogoURL, &l.Services, &l.Pricing,
			&l.ScrapedAt, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Stats returns aggregate lead counts.
func (s *Postgres) Stats(ctx context.Context) (*Stats, error) {
	q := fmt.Sprintf(`SELECT COUNT(*),
		COUNT(DISTINCT city),
		COUNT(*) FILTER (WHERE website LIKE 'http%%'),
		COUNT(*) FILTER (WHERE logo_url <> 'N/A' OR services <> 'N/A' OR pricing <> 'N/A')
		FROM %s`, s.table)

	var st Stats
	if err := s.db.QueryRow(ctx, q).Scan(&st.TotalLeads, &st.Cities, &st.WithWebsite, &st.Enriched); err != nil {
		return nil, eris.Wrap(err, "postgres: stats")
	}
	return &st, nil
}

// MarkStarted upserts (city, phase) to in_progress, refreshing started_at.
func (s *Postgres) MarkStarted(ctx context.Context, city string, phase Phase) error {
	q := fmt.Sprintf(`INSERT INTO %s (city, phase, status, started_at)
		VALUES ($1, $2, 'in_progress', $3)
		ON CONFLICT (city, phase) DO UPDATE SET status = 'in_progress', started_at = EXCLUDED.started_at`,
		progressTable)

	if _, err := s.db.Exec(ctx, q, city, string(phase), time.Now()); err != nil {
		return eris.Wrap(err, "postgres: mark started")
	}
	return nil
}

// MarkCompleted upserts (city, phase) to completed, setting completed_at.
// started_at is backfilled when the row never saw MarkStarted, so the ledger
// never holds a completed row with a NULL start.
func (s *Postgres) MarkCompleted(ctx context.Context, city string, phase Phase) error {
	q := fmt.Sprintf(`INSERT INTO %s (city, phase, status, started_at, completed_at)
		VALUES ($1, $2, 'completed', $3, $3)
		ON CONFLICT (city, phase) DO UPDATE SET status = 'completed',
			started_at = COALESCE(%s.started_at, EXCLUDED.started_at),
			completed_at = EXCLUDED.completed_at`,
		progressTable, progressTable)

	if _, err := s.db.Exec(ctx, q, city, string(phase), time.Now()); err != nil {
		return eris.Wrap(err, "postgres: mark completed")
	}
	log.Info().Str("city", city).Str("phase", string(phase)).Msg("Phase marked completed")
	return nil
}

// IsCompleted reports whether (city, phase) is marked completed. A missing
// row means the phase never ran.
func (s *Postgres) IsCompleted(ctx context.Context, city string, phase Phase) (bool, error) {
	var status string
	q := fmt.Sprintf(`SELECT status FROM %s WHERE city = $1 AND phase = $2`, progressTable)
	err := s.db.QueryRow(ctx, q, city, string(phase)).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "postgres: progress status")
	}
	return status == string(StatusCompleted), nil
}

// Snapshot returns the full progress ledger.
func (s *Postgres) Snapshot(ctx context.Context) ([]ProgressRecord, error) {
	q := fmt.Sprintf(`SELECT city, phase, status, started_at, completed_at
		FROM %s ORDER BY city, phase`, progressTable)

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: progress snapshot")
	}
	defer rows.Close()

	var out []ProgressRecord
	for rows.Next() {
		var r ProgressRecord
		var phase, status string
		if err := rows.Scan(&r.City, &phase, &status, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan progress")
		}
		r.Phase = Phase(phase)
		r.Status = Status(status)
		out = append(out, r)
	}
	return out, rows.Err()
}
