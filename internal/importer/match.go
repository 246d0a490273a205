package importer

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/edia/stratmap/internal/model"
)

// MatchTier identifies which strategy resolved a match.
type MatchTier string

const (
	TierExact      MatchTier = "exact"
	TierNormalized MatchTier = "normalized"
	TierStateFuzzy MatchTier = "state_fuzzy"
)

// Match is a resolved existing entity for an incoming record.
type Match struct {
	Account model.Account
	Index   int // position in the existing dataset
	Tier    MatchTier
}

type matchEntry struct {
	acct       model.Account
	idx        int
	exactKey   string
	normalized string
}

// Matcher finds existing entities for incoming records using a tiered
// strategy: exact name, normalized name, then state-scoped fuzzy
// containment. One Matcher consolidates the three lookup structures so they
// are built together from the same snapshot and cannot drift.
type Matcher struct {
	entries      []matchEntry // dataset order, for advisory scans
	byExact      map[string]*matchEntry
	byNormalized map[string]*matchEntry
	byState      map[string][]*matchEntry // bucket order follows dataset order
}

// NewMatcher indexes the existing dataset for matching.
func NewMatcher(existing []model.Account) *Matcher {
	m := &Matcher{
		entries:      make([]matchEntry, len(existing)),
		byExact:      make(map[string]*matchEntry, len(existing)),
		byNormalized: make(map[string]*matchEntry, len(existing)),
		byState:      make(map[string][]*matchEntry),
	}
	for i, acct := range existing {
		name := acct.Name()
		e := &m.entries[i]
		*e = matchEntry{
			acct:       acct,
			idx:        i,
			exactKey:   strings.ToLower(strings.TrimSpace(name)),
			normalized: NormalizeDistrictName(name),
		}
		if _, dup := m.byExact[e.exactKey]; !dup {
			m.byExact[e.exactKey] = e
		}
		if _, dup := m.byNormalized[e.normalized]; !dup {
			m.byNormalized[e.normalized] = e
		}
		if state := acct.State(); state != "" {
			m.byState[state] = append(m.byState[state], e)
		}
	}
	return m
}

// Match resolves an incoming display name (and optional state) against the
// existing dataset. Tiers are attempted in order and the first hit wins:
//
//  1. exact: lowercase-trimmed name equality
//  2. normalized: canonical-key equality
//  3. state fuzzy: among entities in the same state, normalized-name
//     containment in either direction, first candidate in dataset order
//
// Returns nil when every tier misses; the record is new.
func (m *Matcher) Match(name, state string) *Match {
	exactKey := strings.ToLower(strings.TrimSpace(name))
	if e, ok := m.byExact[exactKey]; ok {
		return &Match{Account: e.acct, Index: e.idx, Tier: TierExact}
	}

	normalized := NormalizeDistrictName(name)
	if e, ok := m.byNormalized[normalized]; ok {
		return &Match{Account: e.acct, Index: e.idx, Tier: TierNormalized}
	}

	stateKey := strings.ToUpper(strings.TrimSpace(state))
	if stateKey == "" || normalized == "" {
		return nil
	}
	for _, e := range m.byState[stateKey] {
		// Containment either way handles "Dallas" vs "Dallas ISD". No
		// scoring: first candidate in dataset order wins.
		if strings.Contains(normalized, e.normalized) || strings.Contains(e.normalized, normalized) {
			return &Match{Account: e.acct, Index: e.idx, Tier: TierStateFuzzy}
		}
	}
	return nil
}

// PartialMatch is the advisory near-duplicate result for a record the
// matcher declared new. It never blocks creation; it exists so an operator
// can eyeball probable duplicates in the merge preview.
type PartialMatch struct {
	ExistingName string
	Similarity   float64 // levenshtein ratio against the existing key, 0..1
}

// FindPartialMatch scans the existing dataset for a lower-confidence
// resemblance: shared first word longer than 3 characters, or raw substring
// containment ignoring state. Returns nil when nothing resembles the name.
func (m *Matcher) FindPartialMatch(name string) *PartialMatch {
	nameLower := strings.ToLower(strings.TrimSpace(name))
	if nameLower == "" {
		return nil
	}
	nameWords := strings.Fields(nameLower)

	for i := range m.entries {
		e := &m.entries[i]
		existingWords := strings.Fields(e.exactKey)
		if len(nameWords) > 0 && len(existingWords) > 0 &&
			nameWords[0] == existingWords[0] && len(nameWords[0]) > 3 {
			return &PartialMatch{
				ExistingName: e.acct.Name(),
				Similarity:   similarityRatio(nameLower, e.exactKey),
			}
		}
		if strings.Contains(e.exactKey, nameLower) || strings.Contains(nameLower, e.exactKey) {
			return &PartialMatch{
				ExistingName: e.acct.Name(),
				Similarity:   similarityRatio(nameLower, e.exactKey),
			}
		}
	}
	return nil
}

// similarityRatio is 1 - dist/maxlen, clamped to [0,1].
func similarityRatio(a, b string) float64 {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	r := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
	if r < 0 {
		return 0
	}
	return r
}
