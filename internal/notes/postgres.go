package notes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "notes postgres: parse config")
	}
	cfg.MaxConns = 5
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "notes postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "notes postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS notes (
	id          TEXT PRIMARY KEY,
	account_key TEXT NOT NULL,
	author      TEXT NOT NULL,
	text        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_account_key ON notes(account_key);
CREATE UNIQUE INDEX IF NOT EXISTS idx_notes_dedup ON notes(account_key, author, created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "notes postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Add(ctx context.Context, accountKey, author, text string) (*Note, error) {
	note := &Note{
		ID:         uuid.New().String(),
		AccountKey: accountKey,
		Author:     author,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notes (id, account_key, author, text, created_at) VALUES ($1, $2, $3, $4, $5)`,
		note.ID, note.AccountKey, note.Author, note.Text, note.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "notes postgres: insert")
	}
	return note, nil
}

func (s *PostgresStore) List(ctx context.Context, accountKey string) ([]Note, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, account_key, author, text, created_at FROM notes WHERE account_key = $1 ORDER BY created_at`,
		accountKey,
	)
	if err != nil {
		return nil, eris.Wrap(err, "notes postgres: list")
	}
	defer rows.Close()
	return scanPgxNotes(rows)
}

func (s *PostgresStore) CountWithNotes(ctx context.Context, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, AccountKey(name))
	}

	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT account_key) FROM notes WHERE account_key = ANY($1)`,
		keys,
	).Scan(&count)
	if err != nil {
		return 0, eris.Wrap(err, "notes postgres: count")
	}
	return count, nil
}

func (s *PostgresStore) All(ctx context.Context) (map[string][]Note, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, account_key, author, text, created_at FROM notes ORDER BY account_key, created_at`)
	if err != nil {
		return nil, eris.Wrap(err, "notes postgres: all")
	}
	defer rows.Close()

	notes, err := scanPgxNotes(rows)
	if err != nil {
		return nil, err
	}
	return groupByKey(notes), nil
}

func (s *PostgresStore) Merge(ctx context.Context, incoming map[string][]Note) (int, error) {
	added := 0
	for key, list := range incoming {
		for _, note := range list {
			id := note.ID
			if id == "" {
				id = uuid.New().String()
			}
			tag, err := s.pool.Exec(ctx,
				`INSERT INTO notes (id, account_key, author, text, created_at) VALUES ($1, $2, $3, $4, $5)
				 ON CONFLICT (account_key, author, created_at) DO NOTHING`,
				id, key, note.Author, note.Text, note.CreatedAt.UTC(),
			)
			if err != nil {
				return added, eris.Wrap(err, "notes postgres: merge insert")
			}
			added += int(tag.RowsAffected())
		}
	}
	return added, nil
}

func scanPgxNotes(rows pgx.Rows) ([]Note, error) {
	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.AccountKey, &n.Author, &n.Text, &n.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "notes postgres: scan")
		}
		out = append(out, n)
	}
	return out, eris.Wrap(rows.Err(), "notes postgres: iterate")
}
