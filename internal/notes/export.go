package notes

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// The export file keeps the dashboard's original shape so files exported
// from the browser-local notes era still import: a flat JSON object with a
// "_user" entry and one "edia_notes_<key>" entry per account, each holding
// a JSON-encoded note array.
const (
	exportKeyPrefix = "edia_notes_"
	exportUserKey   = "_user"
)

type exportNote struct {
	Author string `json:"author"`
	Text   string `json:"text"`
	TS     string `json:"ts"`
}

// ExportFileName builds the conventional export file name for a user.
func ExportFileName(user string, now time.Time) string {
	if user == "" {
		user = "export"
	}
	return fmt.Sprintf("edia_notes_%s_%s.json", AccountKey(user), now.Format("2006-01-02"))
}

// WriteExport serializes all notes in the legacy export format.
func WriteExport(w io.Writer, user string, all map[string][]Note) error {
	if user == "" {
		user = "Unknown"
	}
	out := map[string]string{exportUserKey: user}
	for key, list := range all {
		entries := make([]exportNote, 0, len(list))
		for _, n := range list {
			entries = append(entries, exportNote{
				Author: n.Author,
				Text:   n.Text,
				TS:     n.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		encoded, err := json.Marshal(entries)
		if err != nil {
			return eris.Wrapf(err, "notes: encode %s", key)
		}
		out[exportKeyPrefix+key] = string(encoded)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(out), "notes: write export")
}

// ReadImport parses a notes export file into notes grouped by account key.
// Entries that fail to parse are skipped, matching the forgiving import the
// dashboard always had; a file that is not a JSON object at all is an error.
func ReadImport(r io.Reader) (map[string][]Note, error) {
	var raw map[string]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "notes: parse import")
	}

	out := make(map[string][]Note)
	for key, encoded := range raw {
		if !strings.HasPrefix(key, exportKeyPrefix) {
			continue
		}
		var entries []exportNote
		if err := json.Unmarshal([]byte(encoded), &entries); err != nil {
			continue
		}
		accountKey := strings.TrimPrefix(key, exportKeyPrefix)
		for _, e := range entries {
			ts, err := time.Parse(time.RFC3339, e.TS)
			if err != nil {
				continue
			}
			out[accountKey] = append(out[accountKey], Note{
				AccountKey: accountKey,
				Author:     e.Author,
				Text:       e.Text,
				CreatedAt:  ts.UTC(),
			})
		}
	}
	return out, nil
}
