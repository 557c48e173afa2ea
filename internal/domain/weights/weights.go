// Package weights holds the weighted term sets behind each composite score.
package weights

import (
	"fmt"
	"math"
	"sort"
)

// Tolerance is the allowed distance of a set's sum from 1.
const Tolerance = 0.001

// Set names.
const (
	Attacking  = "attacking"
	Defensive  = "defensive"
	Goalkeeper = "goalkeeper"
	Team       = "team"
)

// Term is one weighted input of a composite. Field names the record value
// the term reads. Invert marks lower-is-better metrics.
type Term struct {
	Name   string
	Field  string
	Weight float64
	Invert bool
}

// Set is a named list of terms.
type Set struct {
	Name  string
	Terms []Term
}

// Sum returns the total weight.
func (s Set) Sum() float64 {
	var sum float64
	for _, t := range s.Terms {
		sum += t.Weight
	}
	return sum
}

// Validate checks that the weights sum to 1 within Tolerance.
func (s Set) Validate() error {
	if sum := s.Sum(); math.Abs(sum-1) > Tolerance {
		return fmt.Errorf("%s: sum %.4f: %w", s.Name, sum, ErrWeightSum)
	}
	return nil
}

// With returns a copy of s with the named term weights replaced. The result
// is validated.
func (s Set) With(overrides map[string]float64) (Set, error) {
	out := Set{Name: s.Name, Terms: append([]Term(nil), s.Terms...)}
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		i := out.index(name)
		if i < 0 {
			return Set{}, fmt.Errorf("%s.%s: %w", s.Name, name, ErrUnknownTerm)
		}
		out.Terms[i].Weight = overrides[name]
	}
	if err := out.Validate(); err != nil {
		return Set{}, err
	}
	return out, nil
}

func (s Set) index(name string) int {
	for i, t := range s.Terms {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// Registry maps set names to sets.
type Registry map[string]Set

// Defaults returns the default sets keyed by name.
func Defaults() Registry {
	return Registry{
		Attacking:  AttackingSet(),
		Defensive:  DefensiveSet(),
		Goalkeeper: GoalkeeperSet(),
		Team:       TeamSet(),
	}
}

// Get returns the set called name.
func (r Registry) Get(name string) (Set, error) {
	s, ok := r[name]
	if !ok {
		return Set{}, fmt.Errorf("%s: %w", name, ErrUnknownSet)
	}
	return s, nil
}

// Apply returns a registry with overrides applied, keyed by set then term.
func (r Registry) Apply(overrides map[string]map[string]float64) (Registry, error) {
	out := make(Registry, len(r))
	for name, s := range r {
		out[name] = s
	}
	for name, terms := range overrides {
		s, err := out.Get(name)
		if err != nil {
			return nil, err
		}
		if s, err = s.With(terms); err != nil {
			return nil, err
		}
		out[name] = s
	}
	return out, nil
}

// AttackingSet weighs per-90 attacking output.
func AttackingSet() Set {
	return Set{Name: Attacking, Terms: []Term{
		{Name: "goals", Field: "Goals_p90", Weight: 0.20},
		{Name: "xg", Field: "xG_p90", Weight: 0.18},
		{Name: "shots_on_target", Field: "SoT_p90", Weight: 0.10},
		{Name: "assists", Field: "Assists_p90", Weight: 0.12},
		{Name: "xag", Field: "xAG_p90", Weight: 0.10},
		{Name: "key_passes", Field: "KeyPasses_p90", Weight: 0.08},
		{Name: "progressive_passes", Field: "ProgPasses_p90", Weight: 0.08},
		{Name: "progressive_carries", Field: "ProgCarries_p90", Weight: 0.08},
		{Name: "attacking_third_touches", Field: "AttThirdTouches_p90", Weight: 0.06},
	}}
}

// DefensiveSet weighs per-90 defensive actions. Press_pct is a rate already.
func DefensiveSet() Set {
	return Set{Name: Defensive, Terms: []Term{
		{Name: "tackles_won", Field: "Tkl_Won_p90", Weight: 0.22},
		{Name: "interceptions", Field: "Interceptions_p90", Weight: 0.20},
		{Name: "blocks", Field: "Blocks_p90", Weight: 0.12},
		{Name: "clearances", Field: "Clearances_p90", Weight: 0.12},
		{Name: "pressures", Field: "Pressures_p90", Weight: 0.14},
		{Name: "pressure_success", Field: "Press_pct", Weight: 0.10},
		{Name: "aerials_won", Field: "AerialsWon_p90", Weight: 0.10},
	}}
}

// GoalkeeperSet weighs independently normalized keeper metrics.
func GoalkeeperSet() Set {
	return Set{Name: Goalkeeper, Terms: []Term{
		{Name: "save_pct", Field: "Save%", Weight: 0.22},
		{Name: "psxg_minus_ga", Field: "PSxG-GA_p90", Weight: 0.22},
		{Name: "goals_against", Field: "GA_p90", Weight: 0.15, Invert: true},
		{Name: "clean_sheet_pct", Field: "CS%", Weight: 0.12},
		{Name: "launch_completion", Field: "Cmp%", Weight: 0.10},
		{Name: "crosses_stopped", Field: "Stp%", Weight: 0.10},
		{Name: "sweeper_actions", Field: "OPA_p90", Weight: 0.09},
	}}
}

// TeamSet weighs per-game team results against expectation.
func TeamSet() Set {
	return Set{Name: Team, Terms: []Term{
		{Name: "xgd_per_game", Field: "xGD_per_game", Weight: 0.35},
		{Name: "gd_per_game", Field: "GD_per_game", Weight: 0.25},
		{Name: "points_per_game", Field: "Pts_per_game", Weight: 0.25},
		{Name: "pass_over_expected", Field: "passes_completed_over_expected_difference", Weight: 0.15},
	}}
}
