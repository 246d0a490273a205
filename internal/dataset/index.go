package dataset

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/edia/stratmap/internal/model"
	"github.com/edia/stratmap/internal/roster"
)

// Index holds the derived lookup structures rebuilt from the canonical
// dataset on every mutation. Positions refer to the strategic dataset at
// the version the index was built against. The unique-value cache is the
// only lazily-filled part; everything else is computed up front.
type Index struct {
	repToTeam    map[string]string
	teamReps     map[string]map[string]struct{}
	repAccounts  map[string][]int
	teamAccounts map[string][]int
	overlap      int

	stateCounts  map[string]int
	regions      []string
	regionCounts map[string]int

	strategic []model.Account
	customers []model.Account

	uniqueMu sync.Mutex
	unique   map[uniqueKey][]string
}

type uniqueKey struct {
	variant model.Variant
	team    string
	field   string
}

func buildIndex(strategic, customers []model.Account, r *roster.Roster) *Index {
	idx := &Index{
		repToTeam:    make(map[string]string),
		teamReps:     make(map[string]map[string]struct{}),
		repAccounts:  make(map[string][]int),
		teamAccounts: make(map[string][]int),
		stateCounts:  make(map[string]int),
		regionCounts: make(map[string]int),
		strategic:    strategic,
		customers:    customers,
		unique:       make(map[uniqueKey][]string),
	}

	for _, team := range r.TeamNames() {
		members := make(map[string]struct{})
		for _, rep := range r.RepsFor(team) {
			members[rep] = struct{}{}
			idx.repToTeam[rep] = team
		}
		idx.teamReps[team] = members
	}

	// An account can enter a team's list through both its territory and its
	// holdout AE; teamSeen keeps each position once.
	teamSeen := make(map[string]map[int]struct{})
	for i, acct := range strategic {
		tAE := r.TerritoryAE(acct.AE())
		hAE := r.HoldoutAE(acct.AE())

		if tAE != "" {
			idx.repAccounts[tAE] = append(idx.repAccounts[tAE], i)
		}
		if hAE != "" && hAE != tAE {
			idx.repAccounts[hAE] = append(idx.repAccounts[hAE], i)
		}

		for team, members := range idx.teamReps {
			_, hasT := members[tAE]
			_, hasH := members[hAE]
			if !hasT && !hasH {
				continue
			}
			if teamSeen[team] == nil {
				teamSeen[team] = make(map[int]struct{})
			}
			if _, dup := teamSeen[team][i]; dup {
				continue
			}
			teamSeen[team][i] = struct{}{}
			idx.teamAccounts[team] = append(idx.teamAccounts[team], i)
		}

		if acct.IsCustomer() {
			idx.overlap++
		}
	}

	regionSet := make(map[string]struct{})
	countInto := func(accounts []model.Account) {
		for _, acct := range accounts {
			if st := acct.State(); st != "" {
				idx.stateCounts[st]++
			}
			if region := acct.Str("region"); region != "" {
				regionSet[region] = struct{}{}
				idx.regionCounts[region]++
			}
		}
	}
	countInto(strategic)
	countInto(customers)

	idx.regions = make([]string, 0, len(regionSet))
	for region := range regionSet {
		idx.regions = append(idx.regions, region)
	}
	sortStrings(idx.regions)

	return idx
}

// TeamFor returns the team a rep belongs to, or "".
func (idx *Index) TeamFor(rep string) string { return idx.repToTeam[rep] }

// TeamNames returns the indexed team names in sorted order.
func (idx *Index) TeamNames() []string {
	names := make([]string, 0, len(idx.teamReps))
	for name := range idx.teamReps {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

// AccountsForRep returns strategic dataset positions assigned to a rep as
// territory or holdout AE, in dataset order.
func (idx *Index) AccountsForRep(rep string) []int { return idx.repAccounts[rep] }

// AccountsForTeam returns de-duplicated strategic dataset positions whose
// territory or holdout AE belongs to the team, in dataset order.
func (idx *Index) AccountsForTeam(team string) []int { return idx.teamAccounts[team] }

// OverlapCount returns the number of strategic accounts flagged as
// customers.
func (idx *Index) OverlapCount() int { return idx.overlap }

// StateCounts returns per-state account counts across both variants, keyed
// by uppercased state code.
func (idx *Index) StateCounts() map[string]int { return idx.stateCounts }

// Regions returns the sorted distinct region names across both variants.
func (idx *Index) Regions() []string { return idx.regions }

// RegionCounts returns per-region account counts across both variants.
func (idx *Index) RegionCounts() map[string]int { return idx.regionCounts }

// UniqueValues returns the sorted distinct non-empty values of a field
// within a scope: one variant, optionally narrowed to one team's strategic
// accounts. Results are cached per (variant, team, field) for the lifetime
// of this index; a dataset replacement discards the whole index and its
// cache with it.
func (idx *Index) UniqueValues(variant model.Variant, team, field string) []string {
	key := uniqueKey{variant: variant, team: team, field: field}

	idx.uniqueMu.Lock()
	defer idx.uniqueMu.Unlock()
	if cached, ok := idx.unique[key]; ok {
		return cached
	}

	var source []model.Account
	switch {
	case variant == model.VariantCustomers:
		source = idx.customers
	case team != "":
		for _, i := range idx.teamAccounts[team] {
			source = append(source, idx.strategic[i])
		}
	default:
		source = idx.strategic
	}

	seen := make(map[string]struct{})
	var values []string
	for _, acct := range source {
		v := acct.Str(field)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sortStrings(values)

	idx.unique[key] = values
	return values
}

// sortStrings orders user-facing value lists case-insensitively with
// numeric awareness ("2 - Demo" before "10 - Closed").
func sortStrings(values []string) {
	collate.New(language.English, collate.IgnoreCase, collate.Numeric).SortStrings(values)
}
