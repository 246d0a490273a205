// Package roster holds the static team/rep configuration and the derived
// account-executive role resolution (territory assignee vs holdout flag).
package roster

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// PrimaryTeam is the team that owns strategic-territory assignment. An
// account whose AE sits outside this team is a holdout.
const PrimaryTeam = "Strategic"

// Team is one sales team: an optional manager plus an ordered rep list.
type Team struct {
	Manager string   `yaml:"manager,omitempty"`
	Reps    []string `yaml:"reps"`
}

// Roster maps team name to its membership. It is read-only at runtime;
// changes ship as a config edit, not an API call.
type Roster struct {
	Teams map[string]Team `yaml:"teams"`
}

// Default returns the built-in roster, used when no override file is
// configured.
func Default() *Roster {
	return &Roster{Teams: map[string]Team{
		"Strategic": {
			Reps: []string{"Sean Johnson"},
		},
		"ENT West": {
			Manager: "Brad Halsey",
			Reps:    []string{"Aric Walden", "Lance Baretz", "Sydney Smith", "Ben Skillman", "Jimmy Koerner"},
		},
		"ENT East": {
			Manager: "Samantha Santucci",
			Reps:    []string{"Andy Graham", "David Thomas", "Susan Speiser", "Hannah O'Brien", "Ally McCready", "Victoria Macoul"},
		},
		"SMB": {
			Manager: "Christina Ceballos",
			Reps:    []string{"Jonathan Pacheco", "Callie Brennan", "Paulina Famiano", "Caroline Uhlarik", "Daniel Way"},
		},
	}}
}

// Load reads a roster from a YAML file.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: read %s", path)
	}
	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "roster: parse %s", path)
	}
	if len(r.Teams) == 0 {
		return nil, eris.Errorf("roster: %s defines no teams", path)
	}
	return &r, nil
}

// TeamNames returns the team names in stable sorted order.
func (r *Roster) TeamNames() []string {
	names := make([]string, 0, len(r.Teams))
	for name := range r.Teams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RepsFor returns the full membership of a team, manager first. Unknown
// teams return nil.
func (r *Roster) RepsFor(team string) []string {
	t, ok := r.Teams[team]
	if !ok {
		return nil
	}
	reps := make([]string, 0, len(t.Reps)+1)
	if t.Manager != "" {
		reps = append(reps, t.Manager)
	}
	reps = append(reps, t.Reps...)
	return reps
}

// PrimaryReps returns the membership of the primary team.
func (r *Roster) PrimaryReps() []string {
	return r.RepsFor(PrimaryTeam)
}

// TerritoryAE resolves the territory (assigned) AE for an account's recorded
// rep: the rep itself when it belongs to the primary team, otherwise the
// primary team's first rep. An empty rep stays empty.
func (r *Roster) TerritoryAE(ae string) string {
	if ae == "" {
		return ""
	}
	primary := r.PrimaryReps()
	for _, rep := range primary {
		if strings.EqualFold(rep, ae) {
			return ae
		}
	}
	if len(primary) > 0 {
		return primary[0]
	}
	return ae
}

// HoldoutAE returns the recorded rep when it sits outside the primary team,
// otherwise "".
func (r *Roster) HoldoutAE(ae string) string {
	if ae == "" {
		return ""
	}
	for _, rep := range r.PrimaryReps() {
		if strings.EqualFold(rep, ae) {
			return ""
		}
	}
	return ae
}
