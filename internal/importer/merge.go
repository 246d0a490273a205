package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edia/stratmap/internal/model"
)

// nameFieldPriority lists the raw-row columns, in order, that can carry the
// entity name. The first non-blank one wins.
var nameFieldPriority = []string{
	"name", "district_name", "account_name", "district",
	"organization", "org_name", "account",
}

// NoteCounter reports how many of the given account names have at least one
// locally stored note. Informational only; the merge never mutates notes.
type NoteCounter interface {
	CountWithNotes(ctx context.Context, names []string) (int, error)
}

// Reconciler merges an uploaded batch of rows against an existing dataset,
// producing a PendingMerge for user confirmation.
type Reconciler struct {
	notes NoteCounter // optional
}

// NewReconciler creates a Reconciler. notes may be nil, in which case the
// notes-preserved stat is zero.
func NewReconciler(notes NoteCounter) *Reconciler {
	return &Reconciler{notes: notes}
}

// Reconcile runs the merge algorithm over all incoming rows:
//
//   - rows are processed in input order; a row with no resolvable name is
//     skipped and counted
//   - a row naming an entity already produced earlier in this run folds its
//     non-empty fields into that entity (multiple opportunities per account)
//   - otherwise the tiered matcher resolves the row against the existing
//     dataset: matched rows shallow-merge over a copy of the existing entity
//     and are classified updated/unchanged by stringified field comparison;
//     unmatched rows become new entities, with an advisory near-duplicate
//     warning when something in the dataset resembles them
//   - existing entities never referenced by the batch are appended after all
//     incoming rows, in original dataset order
//
// The output ordering (touched entities in incoming order, then preserved
// entities in dataset order) is a contract the UI and tests rely on.
func (r *Reconciler) Reconcile(ctx context.Context, variant model.Variant, existing []model.Account, rows []model.RawRow, baseVersion uint64) (*model.PendingMerge, error) {
	matcher := NewMatcher(existing)

	stats := model.MergeStats{Total: len(rows)}
	merged := make([]model.Account, 0, len(rows)+len(existing))
	processedKeys := make(map[string]struct{}, len(rows)*2)
	mergedByName := make(map[string]model.Account, len(rows))

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := resolveName(row)
		if name == "" {
			stats.SkippedNoName++
			zap.L().Debug("merge: row has no name field", zap.Int("row", i))
			continue
		}

		exactKey := strings.ToLower(strings.TrimSpace(name))
		normalizedKey := NormalizeDistrictName(name)
		processedKeys[exactKey] = struct{}{}
		processedKeys[normalizedKey] = struct{}{}

		already := mergedByName[exactKey]
		if already == nil {
			already = mergedByName[normalizedKey]
		}

		match := matcher.Match(name, row["state"])
		if match != nil {
			existingKey := strings.ToLower(strings.TrimSpace(match.Account.Name()))
			processedKeys[existingKey] = struct{}{}
			processedKeys[NormalizeDistrictName(match.Account.Name())] = struct{}{}
			if already == nil {
				already = mergedByName[existingKey]
			}
			if match.Tier != TierExact {
				zap.L().Debug("merge: tiered match",
					zap.String("incoming", name),
					zap.String("existing", match.Account.Name()),
					zap.String("tier", string(match.Tier)),
				)
			}
		}

		// A second row for an entity already produced in this run: later
		// row's non-empty fields override, name is never clobbered.
		if already != nil {
			zap.L().Debug("merge: folding duplicate row", zap.String("name", name))
			applyMappedFields(already, row)
			ParseNumericFields(already)
			continue
		}

		if match != nil {
			out := match.Account.Clone()
			applyMappedFields(out, row)
			ParseNumericFields(out)

			if fields := changedFields(match.Account, row); len(fields) > 0 {
				stats.UpdatedRecords++
				stats.Changes = append(stats.Changes, model.ChangeDescriptor{
					Name:   name,
					Action: model.ChangeActionUpdated,
					Fields: fields,
				})
			}

			merged = append(merged, out)
			mergedByName[exactKey] = out
			mergedByName[normalizedKey] = out
			mergedByName[strings.ToLower(strings.TrimSpace(match.Account.Name()))] = out
			continue
		}

		// New entity.
		out := MapRow(row)
		out["name"] = name

		desc := model.ChangeDescriptor{Name: name, Action: model.ChangeActionNew}
		if partial := matcher.FindPartialMatch(name); partial != nil {
			desc.Warning = fmt.Sprintf("similar to existing %q (%.0f%%)",
				partial.ExistingName, partial.Similarity*100)
			zap.L().Debug("merge: possible near-duplicate",
				zap.String("incoming", name),
				zap.String("existing", partial.ExistingName),
			)
		}
		stats.NewRecords++
		stats.Changes = append(stats.Changes, desc)

		merged = append(merged, out)
		mergedByName[exactKey] = out
		mergedByName[normalizedKey] = out
	}

	// Preservation pass: entities absent from the upload survive the merge.
	for _, acct := range existing {
		exactKey := strings.ToLower(strings.TrimSpace(acct.Name()))
		normalizedKey := NormalizeDistrictName(acct.Name())
		if _, ok := processedKeys[exactKey]; ok {
			continue
		}
		if _, ok := processedKeys[normalizedKey]; ok {
			continue
		}
		merged = append(merged, acct)
	}

	if r.notes != nil {
		names := make([]string, 0, len(existing))
		for _, acct := range existing {
			names = append(names, acct.Name())
		}
		count, err := r.notes.CountWithNotes(ctx, names)
		if err != nil {
			// Stats stay usable without the note count.
			zap.L().Warn("merge: counting notes failed", zap.Error(err))
		} else {
			stats.NotesPreserved = count
		}
	}

	zap.L().Info("merge: reconciled batch",
		zap.String("variant", string(variant)),
		zap.Int("total", stats.Total),
		zap.Int("new", stats.NewRecords),
		zap.Int("updated", stats.UpdatedRecords),
		zap.Int("skipped_no_name", stats.SkippedNoName),
	)

	return &model.PendingMerge{
		ID:          uuid.New().String(),
		Variant:     variant,
		Accounts:    merged,
		Stats:       stats,
		BaseVersion: baseVersion,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// resolveName extracts the entity name from a raw row by checking the
// candidate name columns in priority order.
func resolveName(row model.RawRow) string {
	for _, field := range nameFieldPriority {
		if v := strings.TrimSpace(row[field]); v != "" {
			return v
		}
	}
	return ""
}

// applyMappedFields copies the row's non-empty values onto the account under
// canonical field names. Blank incoming values never erase existing data,
// and an existing name is never clobbered: a fuzzy-matched "Dallas" row
// updates "Dallas ISD" without renaming it.
func applyMappedFields(acct model.Account, row model.RawRow) {
	for k, v := range row {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		mapped := MapColumnName(k)
		if mapped == "name" && acct.Name() != "" {
			continue
		}
		acct[mapped] = v
	}
}

// changedFields compares the incoming row field-by-field against the
// existing entity. Both sides are compared as strings: a stored 1000 and an
// incoming "1000" are equal, a formatting difference is not. Empty incoming
// values are ignored.
func changedFields(existing model.Account, row model.RawRow) []model.FieldChange {
	var fields []model.FieldChange
	for k, v := range row {
		newVal := strings.TrimSpace(v)
		if newVal == "" {
			continue
		}
		mapped := MapColumnName(k)
		if mapped == "name" && existing.Name() != "" {
			// The existing name is kept on update, so a differing name
			// column is not an applied change.
			continue
		}
		oldVal := existing.Str(mapped)
		if oldVal != newVal {
			fields = append(fields, model.FieldChange{Field: mapped, Old: oldVal, New: newVal})
		}
	}
	return fields
}
