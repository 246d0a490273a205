package notes

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "notes sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "notes sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS notes (
	id          TEXT PRIMARY KEY,
	account_key TEXT NOT NULL,
	author      TEXT NOT NULL,
	text        TEXT NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_account_key ON notes(account_key);
CREATE UNIQUE INDEX IF NOT EXISTS idx_notes_dedup ON notes(account_key, author, created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "notes sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Add(ctx context.Context, accountKey, author, text string) (*Note, error) {
	note := &Note{
		ID:         uuid.New().String(),
		AccountKey: accountKey,
		Author:     author,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, account_key, author, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		note.ID, note.AccountKey, note.Author, note.Text, note.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "notes sqlite: insert")
	}
	return note, nil
}

func (s *SQLiteStore) List(ctx context.Context, accountKey string) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_key, author, text, created_at FROM notes WHERE account_key = ? ORDER BY created_at`,
		accountKey,
	)
	if err != nil {
		return nil, eris.Wrap(err, "notes sqlite: list")
	}
	defer rows.Close() //nolint:errcheck
	return scanNotes(rows)
}

func (s *SQLiteStore) CountWithNotes(ctx context.Context, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	keyed := make(map[string]struct{}, len(names))
	for _, name := range names {
		keyed[AccountKey(name)] = struct{}{}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT account_key FROM notes`)
	if err != nil {
		return 0, eris.Wrap(err, "notes sqlite: count")
	}
	defer rows.Close() //nolint:errcheck

	count := 0
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return 0, eris.Wrap(err, "notes sqlite: scan key")
		}
		if _, ok := keyed[key]; ok {
			count++
		}
	}
	return count, eris.Wrap(rows.Err(), "notes sqlite: iterate keys")
}

func (s *SQLiteStore) All(ctx context.Context) (map[string][]Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_key, author, text, created_at FROM notes ORDER BY account_key, created_at`)
	if err != nil {
		return nil, eris.Wrap(err, "notes sqlite: all")
	}
	defer rows.Close() //nolint:errcheck

	notes, err := scanNotes(rows)
	if err != nil {
		return nil, err
	}
	return groupByKey(notes), nil
}

func (s *SQLiteStore) Merge(ctx context.Context, incoming map[string][]Note) (int, error) {
	added := 0
	for key, list := range incoming {
		for _, note := range list {
			id := note.ID
			if id == "" {
				id = uuid.New().String()
			}
			// The unique (account, author, created_at) index makes re-imports
			// idempotent.
			res, err := s.db.ExecContext(ctx,
				`INSERT OR IGNORE INTO notes (id, account_key, author, text, created_at) VALUES (?, ?, ?, ?, ?)`,
				id, key, note.Author, note.Text, note.CreatedAt.UTC(),
			)
			if err != nil {
				return added, eris.Wrap(err, "notes sqlite: merge insert")
			}
			n, err := res.RowsAffected()
			if err != nil {
				return added, eris.Wrap(err, "notes sqlite: rows affected")
			}
			added += int(n)
		}
	}
	return added, nil
}

func scanNotes(rows *sql.Rows) ([]Note, error) {
	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.AccountKey, &n.Author, &n.Text, &n.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "notes sqlite: scan")
		}
		out = append(out, n)
	}
	return out, eris.Wrap(rows.Err(), "notes sqlite: iterate")
}

func groupByKey(notes []Note) map[string][]Note {
	out := make(map[string][]Note)
	for _, n := range notes {
		out[n.AccountKey] = append(out[n.AccountKey], n)
	}
	return out
}
