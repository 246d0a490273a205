package notes

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestAccountKey(t *testing.T) {
	assert.Equal(t, "Dallas_ISD", AccountKey("Dallas ISD"))
	assert.Equal(t, "Hannah_O_Brien_s_District", AccountKey("Hannah O'Brien's District"))
	assert.Equal(t, "Mesa__AZ_", AccountKey("Mesa (AZ)"))
}

func TestSQLite_AddAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Add(ctx, AccountKey("Dallas ISD"), "Sean", "met with superintendent")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = s.Add(ctx, AccountKey("Dallas ISD"), "Andy", "follow up in Q3")
	require.NoError(t, err)

	got, err := s.List(ctx, "Dallas_ISD")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Sean", got[0].Author)
	assert.Equal(t, "follow up in Q3", got[1].Text)
}

func TestSQLite_ListEmpty(t *testing.T) {
	s := newTestStore(t)
	got, err := s.List(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_CountWithNotes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, AccountKey("Dallas ISD"), "Sean", "note")
	require.NoError(t, err)
	_, err = s.Add(ctx, AccountKey("Dallas ISD"), "Sean", "second note")
	require.NoError(t, err)
	_, err = s.Add(ctx, AccountKey("Plano ISD"), "Andy", "note")
	require.NoError(t, err)

	// Dallas counts once despite two notes; Springfield has none.
	count, err := s.CountWithNotes(ctx, []string{"Dallas ISD", "Plano ISD", "Springfield Schools"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = s.CountWithNotes(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSQLite_MergeSkipsDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	incoming := map[string][]Note{
		"Dallas_ISD": {
			{Author: "Sean", Text: "imported note", CreatedAt: ts},
		},
	}

	added, err := s.Merge(ctx, incoming)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	// Re-importing the same file adds nothing.
	added, err = s.Merge(ctx, incoming)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	got, err := s.List(ctx, "Dallas_ISD")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLite_ExportImportRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, AccountKey("Dallas ISD"), "Sean", "met with superintendent")
	require.NoError(t, err)

	all, err := s.All(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteExport(&buf, "Sean", all))

	imported, err := ReadImport(&buf)
	require.NoError(t, err)
	require.Len(t, imported["Dallas_ISD"], 1)
	assert.Equal(t, "met with superintendent", imported["Dallas_ISD"][0].Text)

	// Importing into a fresh store reproduces the note.
	dst := newTestStore(t)
	added, err := dst.Merge(ctx, imported)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}
