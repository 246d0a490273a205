package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edia/stratmap/internal/model"
)

type fakeNotes struct {
	withNotes map[string]bool
	err       error
}

func (f *fakeNotes) CountWithNotes(_ context.Context, names []string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, name := range names {
		if f.withNotes[name] {
			n++
		}
	}
	return n, nil
}

func reconcile(t *testing.T, existing []model.Account, rows []model.RawRow) *model.PendingMerge {
	t.Helper()
	pm, err := NewReconciler(nil).Reconcile(context.Background(), model.VariantStrategic, existing, rows, 1)
	require.NoError(t, err)
	return pm
}

func TestReconcile_FuzzyUpdateKeepsExistingName(t *testing.T) {
	existing := []model.Account{{"name": "Dallas ISD", "state": "TX"}}
	rows := []model.RawRow{{"district": "Dallas", "state": "TX", "stage": "2 - Demo"}}

	pm := reconcile(t, existing, rows)

	require.Len(t, pm.Accounts, 1)
	got := pm.Accounts[0]
	assert.Equal(t, "Dallas ISD", got.Name())
	assert.Equal(t, "2 - Demo", got.Str("opp_stage"))
	assert.Equal(t, 1, pm.Stats.UpdatedRecords)
	assert.Equal(t, 0, pm.Stats.NewRecords)
}

func TestReconcile_UnmatchedCreatesNew(t *testing.T) {
	existing := []model.Account{{"name": "Dallas ISD", "state": "TX"}}
	rows := []model.RawRow{{"district": "Springfield Schools", "state": "IL"}}

	pm := reconcile(t, existing, rows)

	require.Len(t, pm.Accounts, 2)
	assert.Equal(t, "Springfield Schools", pm.Accounts[0].Name())
	assert.Equal(t, 1, pm.Stats.NewRecords)
	assert.Equal(t, 0, pm.Stats.UpdatedRecords)
}

func TestReconcile_PreservesUntouchedEntities(t *testing.T) {
	existing := []model.Account{
		{"name": "Dallas ISD", "state": "TX"},
		{"name": "Mesa Unified", "state": "AZ", "enrollment": 58000.0},
		{"name": "Plano ISD", "state": "TX"},
	}
	rows := []model.RawRow{{"district": "Dallas", "state": "TX", "stage": "3 - Pilot"}}

	pm := reconcile(t, existing, rows)

	require.Len(t, pm.Accounts, 3)
	// Touched entity first (incoming order), then preserved in dataset order.
	assert.Equal(t, "Dallas ISD", pm.Accounts[0].Name())
	assert.Equal(t, "Mesa Unified", pm.Accounts[1].Name())
	assert.Equal(t, "Plano ISD", pm.Accounts[2].Name())
	// Preserved entity is unchanged, not copied-and-mutated.
	assert.Equal(t, existing[1], pm.Accounts[1])
}

func TestReconcile_BlankFieldsNeverClearExisting(t *testing.T) {
	existing := []model.Account{{
		"name": "Dallas ISD", "state": "TX",
		"superintendent": "Dr. Elizalde", "enrollment": 143000.0,
	}}
	rows := []model.RawRow{{
		"district": "Dallas ISD", "state": "TX",
		"superintendent": "", "stage": "4 - Proposal",
	}}

	pm := reconcile(t, existing, rows)

	got := pm.Accounts[0]
	assert.Equal(t, "Dr. Elizalde", got.Str("superintendent"))
	en, ok := got.Num("enrollment")
	assert.True(t, ok)
	assert.Equal(t, 143000.0, en)
	assert.Equal(t, "4 - Proposal", got.Str("opp_stage"))
}

func TestReconcile_DuplicateRowsFoldIntoOneEntity(t *testing.T) {
	rows := []model.RawRow{
		{"district": "Plano ISD", "state": "TX", "stage": "2 - Demo", "amount": "50000"},
		{"district": "Plano ISD", "state": "TX", "stage": "3 - Pilot", "champion": "J. Ruiz"},
	}

	pm := reconcile(t, nil, rows)

	require.Len(t, pm.Accounts, 1)
	got := pm.Accounts[0]
	// Later row's non-empty fields override, earlier-only fields survive.
	assert.Equal(t, "3 - Pilot", got.Str("opp_stage"))
	assert.Equal(t, "J. Ruiz", got.Str("opp_champion"))
	acv, ok := got.Num("opp_acv")
	assert.True(t, ok)
	assert.Equal(t, 50000.0, acv)
	assert.Equal(t, 1, pm.Stats.NewRecords)
}

func TestReconcile_DuplicateRowNeverClobbersName(t *testing.T) {
	// Second row carries a different name-ish column for the same entity.
	rows := []model.RawRow{
		{"district": "Plano ISD", "state": "TX"},
		{"district": "Plano ISD", "state": "TX", "organization": "Plano ISD - Math Expansion"},
	}

	pm := reconcile(t, nil, rows)

	require.Len(t, pm.Accounts, 1)
	assert.Equal(t, "Plano ISD", pm.Accounts[0].Name())
}

func TestReconcile_RowWithoutNameSkippedAndCounted(t *testing.T) {
	rows := []model.RawRow{
		{"stage": "2 - Demo", "state": "TX"},
		{"district": "Plano ISD", "state": "TX"},
	}

	pm := reconcile(t, nil, rows)

	require.Len(t, pm.Accounts, 1)
	assert.Equal(t, 1, pm.Stats.SkippedNoName)
	assert.Equal(t, 2, pm.Stats.Total)
}

func TestReconcile_UnchangedMatchProducesNoDescriptor(t *testing.T) {
	existing := []model.Account{{"name": "Plano ISD", "state": "TX", "opp_stage": "2 - Demo"}}
	rows := []model.RawRow{{"district": "Plano ISD", "state": "TX", "stage": "2 - Demo"}}

	pm := reconcile(t, existing, rows)

	assert.Equal(t, 0, pm.Stats.UpdatedRecords)
	assert.Empty(t, pm.Stats.Changes)
}

func TestReconcile_NumericStoredValueEqualsIncomingString(t *testing.T) {
	// Stored 125000 (float) vs incoming "125000": stringified comparison
	// says unchanged. Known looseness, kept deliberately.
	existing := []model.Account{{"name": "Plano ISD", "state": "TX", "opp_acv": 125000.0}}
	rows := []model.RawRow{{"district": "Plano ISD", "state": "TX", "acv": "125000"}}

	pm := reconcile(t, existing, rows)
	assert.Equal(t, 0, pm.Stats.UpdatedRecords)
}

func TestReconcile_NewRecordCarriesNearDuplicateAdvisory(t *testing.T) {
	existing := []model.Account{{"name": "Springfield Public Schools", "state": "MO"}}
	// Different state, so no fuzzy match — but the advisory should fire.
	rows := []model.RawRow{{"district": "Springfield Academy", "state": "IL"}}

	pm := reconcile(t, existing, rows)

	require.Equal(t, 1, pm.Stats.NewRecords)
	require.Len(t, pm.Stats.Changes, 1)
	desc := pm.Stats.Changes[0]
	assert.Equal(t, model.ChangeActionNew, desc.Action)
	assert.Contains(t, desc.Warning, "Springfield Public Schools")
}

func TestReconcile_NotesPreservedCount(t *testing.T) {
	existing := []model.Account{
		{"name": "Dallas ISD", "state": "TX"},
		{"name": "Plano ISD", "state": "TX"},
	}
	notes := &fakeNotes{withNotes: map[string]bool{"Plano ISD": true}}

	pm, err := NewReconciler(notes).Reconcile(context.Background(), model.VariantStrategic, existing, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, pm.Stats.NotesPreserved)
}

func TestReconcile_UpdatedDescriptorListsChangedFields(t *testing.T) {
	existing := []model.Account{{"name": "Dallas ISD", "state": "TX", "opp_stage": "2 - Demo"}}
	rows := []model.RawRow{{"district": "Dallas ISD", "state": "TX", "stage": "3 - Pilot"}}

	pm := reconcile(t, existing, rows)

	require.Len(t, pm.Stats.Changes, 1)
	desc := pm.Stats.Changes[0]
	assert.Equal(t, model.ChangeActionUpdated, desc.Action)
	require.Len(t, desc.Fields, 1)
	assert.Equal(t, "opp_stage", desc.Fields[0].Field)
	assert.Equal(t, "2 - Demo", desc.Fields[0].Old)
	assert.Equal(t, "3 - Pilot", desc.Fields[0].New)
}
