// Package notes persists free-text account notes server-side, replacing the
// browser-local storage the dashboard started with. Notes are keyed by a
// sanitized account name so keys survive punctuation differences between
// CRM exports.
package notes

import (
	"context"
	"regexp"
	"time"

	"github.com/rotisserie/eris"
)

// Note is one timestamped annotation on an account.
type Note struct {
	ID         string    `json:"id"`
	AccountKey string    `json:"account_key"`
	Author     string    `json:"author"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"ts"`
}

// Store defines the notes persistence interface.
type Store interface {
	Add(ctx context.Context, accountKey, author, text string) (*Note, error)
	List(ctx context.Context, accountKey string) ([]Note, error)

	// CountWithNotes returns how many of the given account names currently
	// have at least one note. Feeds the merge summary.
	CountWithNotes(ctx context.Context, names []string) (int, error)

	// All returns every note grouped by account key, for export.
	All(ctx context.Context) (map[string][]Note, error)

	// Merge imports notes, skipping any (account, author, timestamp) triple
	// already present. Returns the number of notes added.
	Merge(ctx context.Context, incoming map[string][]Note) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

var keySanitizer = regexp.MustCompile(`[^a-zA-Z0-9]`)

// AccountKey converts an account display name into its stable note key:
// every non-alphanumeric run becomes an underscore, one per character.
func AccountKey(name string) string {
	return keySanitizer.ReplaceAllString(name, "_")
}

// Open creates a Store for the configured driver: "sqlite" (default) or
// "postgres".
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("notes: unknown driver %q", driver)
	}
}
