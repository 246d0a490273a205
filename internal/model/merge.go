package model

import "time"

// ChangeAction describes what the reconciler decided for one incoming entity.
type ChangeAction string

const (
	ChangeActionNew     ChangeAction = "new"
	ChangeActionUpdated ChangeAction = "updated"
)

// FieldChange records a single field delta detected during a merge.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// ChangeDescriptor describes the merge outcome for one entity.
type ChangeDescriptor struct {
	Name    string        `json:"name"`
	Action  ChangeAction  `json:"action"`
	Warning string        `json:"warning,omitempty"` // near-duplicate advisory, informational only
	Fields  []FieldChange `json:"fields,omitempty"`
}

// MergeStats summarizes a reconciliation run.
type MergeStats struct {
	Total          int                `json:"total"`
	NewRecords     int                `json:"new_records"`
	UpdatedRecords int                `json:"updated_records"`
	NotesPreserved int                `json:"notes_preserved"`
	SkippedNoName  int                `json:"skipped_no_name"`
	Changes        []ChangeDescriptor `json:"changes"`
}

// PendingMerge holds a proposed merged dataset awaiting user confirmation.
// It is discarded on cancel and committed (replacing the canonical dataset)
// on confirm. BaseVersion is the dataset version the merge was computed
// against; a commit against a different version is rejected.
type PendingMerge struct {
	ID          string     `json:"id"`
	Variant     Variant    `json:"variant"`
	Accounts    []Account  `json:"accounts"`
	Stats       MergeStats `json:"stats"`
	BaseVersion uint64     `json:"base_version"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SkippedRow is a sample of a row dropped during parsing.
type SkippedRow struct {
	Line     int    `json:"line"`
	Expected int    `json:"expected"`
	Got      int    `json:"got"`
	Preview  string `json:"preview"`
}

// ParseReport accumulates non-fatal parse warnings for a whole upload.
// Malformed rows are skipped and counted, never fatal to the batch.
type ParseReport struct {
	RowsRead    int          `json:"rows_read"`
	RowsSkipped int          `json:"rows_skipped"`
	Samples     []SkippedRow `json:"samples,omitempty"`
}

// maxSkippedSamples caps the sample list so a pathological file cannot bloat
// the report.
const maxSkippedSamples = 5

// RecordSkip counts a skipped row, keeping at most a handful of samples.
func (r *ParseReport) RecordSkip(row SkippedRow) {
	r.RowsSkipped++
	if len(r.Samples) < maxSkippedSamples {
		r.Samples = append(r.Samples, row)
	}
}
