// Package catalog describes each player class: where its rows come from,
// how provider columns map to canonical names, what is derived and scored,
// and the exported layout.
package catalog

import (
	"strings"

	"github.com/okian/touchline/internal/domain/derive"
	"github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/internal/domain/table"
	"github.com/okian/touchline/internal/domain/weights"
)

// Class names.
const (
	Outfield   = "outfield"
	Goalkeeper = "goalkeeper"
)

// Working value names for composite pre-scores.
const (
	attackingRaw = "attacking_raw"
	defensiveRaw = "defensive_raw"
)

// Alias fills Column from the first present of Sources when the record does
// not already carry it.
type Alias struct {
	Column  string
	Sources []string
}

// PositionRule keeps rows whose Column contains Token, or the opposite when
// Exclude is set. Tables without Column are kept whole.
type PositionRule struct {
	Column  string
	Token   string
	Exclude bool
}

// Apply filters t.
func (p PositionRule) Apply(t table.Table) table.Table {
	if p.Column == "" || !t.Has(p.Column) {
		return t
	}
	j := t.Index(p.Column)
	return t.Filter(func(row []table.Cell) bool {
		return strings.Contains(row[j].String(), p.Token) != p.Exclude
	})
}

// Score describes one efficiency score. A score with PreScore set normalizes
// that working value; otherwise Set is scored as a composite.
type Score struct {
	Target   string
	PreScore string
	Set      weights.Set
}

// Preview is a short ranked listing logged after a run.
type Preview struct {
	Title   string
	SortKey string
	Columns []string
}

// Class is the full description of one player class.
type Class struct {
	Name        string
	File        string
	Base        string
	Supplements []string
	Position    PositionRule
	Aliases     []Alias
	Rates       []derive.RateSpec
	Ratios      []derive.RatioSpec
	Composites  []derive.CompositeSpec
	Scores      []Score
	SortKey     string
	Columns     []string
	Previews    []Preview
}

// Sources returns the base followed by the supplements.
func (c Class) Sources() []string {
	return append([]string{c.Base}, c.Supplements...)
}

// Canonicalize copies provider columns onto their canonical names.
func (c Class) Canonicalize(rec *model.Record) {
	for _, a := range c.Aliases {
		if rec.Has(a.Column) {
			continue
		}
		for _, src := range a.Sources {
			if rec.Has(src) {
				rec.Set(a.Column, rec.Get(src))
				break
			}
		}
	}
}

// Deriver builds the class deriver.
func (c Class) Deriver() *derive.Deriver {
	return derive.New(
		derive.WithRates(c.Rates...),
		derive.WithRatios(c.Ratios...),
		derive.WithComposites(c.Composites...),
	)
}

func identityAliases() []Alias {
	return []Alias{
		{Column: "Min", Sources: []string{"Playing Time Min", "minutes_played"}},
		{Column: "90s", Sources: []string{"Playing Time 90s"}},
		{Column: "Base_Salary", Sources: []string{"base_salary"}},
		{Column: "Guaranteed_Comp", Sources: []string{"guaranteed_compensation"}},
	}
}

// OutfieldClass describes outfield players scored by the attacking and
// defensive sets.
func OutfieldClass(attacking, defensive weights.Set) Class {
	return Class{
		Name: Outfield,
		File: "mls_outfield_efficiency.csv",
		Base: SourceStandard,
		Supplements: []string{
			SourceShooting, SourcePassing, SourceDefense, SourcePossession, SourceMisc,
			SourcePlayerGoalsAdded, SourcePlayerSalaries,
		},
		Position: PositionRule{Column: "Pos", Token: "GK", Exclude: true},
		Aliases: append(identityAliases(),
			Alias{Column: "Gls", Sources: []string{"Performance Gls", "Standard Gls"}},
			Alias{Column: "Ast", Sources: []string{"Performance Ast"}},
			Alias{Column: "xG", Sources: []string{"Expected xG"}},
			Alias{Column: "xAG", Sources: []string{"Expected xAG"}},
			Alias{Column: "SoT", Sources: []string{"Standard SoT"}},
			Alias{Column: "KP", Sources: []string{"Passing KP"}},
			Alias{Column: "PrgP", Sources: []string{"Progression PrgP"}},
			Alias{Column: "PrgC", Sources: []string{"Progression PrgC", "Carries PrgC"}},
			Alias{Column: "Att 3rd", Sources: []string{"Touches Att 3rd"}},
			Alias{Column: "TklW", Sources: []string{"Tackles TklW", "Performance TklW"}},
			Alias{Column: "Int", Sources: []string{"Performance Int"}},
			Alias{Column: "Press", Sources: []string{"Pressures Press"}},
			Alias{Column: "Press%", Sources: []string{"Pressures %"}},
			Alias{Column: "Won", Sources: []string{"Aerial Duels Won"}},
		),
		Rates: []derive.RateSpec{
			{Source: "Gls", Target: "Goals_p90"},
			{Source: "xG", Target: "xG_p90"},
			{Source: "Ast", Target: "Assists_p90"},
			{Source: "xAG", Target: "xAG_p90"},
			{Source: "SoT", Target: "SoT_p90"},
			{Source: "KP", Target: "KeyPasses_p90"},
			{Source: "PrgP", Target: "ProgPasses_p90"},
			{Source: "PrgC", Target: "ProgCarries_p90"},
			{Source: "Att 3rd", Target: "AttThirdTouches_p90"},
			{Source: "TklW", Target: "Tkl_Won_p90"},
			{Source: "Int", Target: "Interceptions_p90"},
			{Source: "Blocks", Target: "Blocks_p90"},
			{Source: "Clr", Target: "Clearances_p90"},
			{Source: "Press", Target: "Pressures_p90"},
			{Source: "Press%", Target: "Press_pct", Kind: derive.Passthrough, Precision: 1},
			{Source: "Won", Target: "AerialsWon_p90"},
		},
		Ratios: []derive.RatioSpec{
			{Numerator: "Goals_Added", Denominator: "Guaranteed_Comp", Target: "Value_per_M", Scale: 1e6},
		},
		Composites: []derive.CompositeSpec{
			{Set: attacking, Target: attackingRaw},
			{Set: defensive, Target: defensiveRaw},
		},
		Scores: []Score{
			{Target: "Attacking_Efficiency", PreScore: attackingRaw},
			{Target: "Defensive_Efficiency", PreScore: defensiveRaw},
		},
		SortKey: "Attacking_Efficiency",
		Columns: []string{
			"Player", "Squad", "Pos", "Nation", "Age", "90s",
			"Attacking_Efficiency", "Defensive_Efficiency",
			"Goals_p90", "xG_p90", "Assists_p90", "xAG_p90",
			"SoT_p90", "KeyPasses_p90", "ProgPasses_p90", "ProgCarries_p90",
			"Tkl_Won_p90", "Interceptions_p90", "Blocks_p90",
			"Clearances_p90", "Pressures_p90", "Press_pct",
			"Gls", "xG", "Ast", "xAG", "SoT", "KP", "Min",
			"Goals_Added", "ga_shooting", "ga_passing", "ga_dribbling",
			"ga_receiving", "ga_fouling", "ga_interrupting",
			"Base_Salary", "Guaranteed_Comp", "Value_per_M",
		},
		Previews: []Preview{
			{
				Title:   "top attackers",
				SortKey: "Attacking_Efficiency",
				Columns: []string{"Player", "Squad", "Pos", "Attacking_Efficiency", "Goals_p90", "xG_p90", "Assists_p90"},
			},
			{
				Title:   "top defenders",
				SortKey: "Defensive_Efficiency",
				Columns: []string{"Player", "Squad", "Pos", "Defensive_Efficiency", "Tkl_Won_p90", "Interceptions_p90", "Pressures_p90"},
			},
		},
	}
}

// GoalkeeperClass describes keepers scored by the goalkeeper composite.
func GoalkeeperClass(set weights.Set) Class {
	return Class{
		Name:        Goalkeeper,
		File:        "mls_gk_efficiency.csv",
		Base:        SourceKeepers,
		Supplements: []string{SourceKeepersAdv, SourceKeeperXGoals, SourceKeeperGoalsAdded, SourcePlayerSalaries},
		Position:    PositionRule{Column: "Pos", Token: "GK"},
		Aliases: append(identityAliases(),
			Alias{Column: "GA", Sources: []string{"Performance GA", "Goals GA"}},
			Alias{Column: "Saves", Sources: []string{"Performance Saves"}},
			Alias{Column: "SoTA", Sources: []string{"Performance SoTA"}},
			Alias{Column: "Save%", Sources: []string{"Performance Save%"}},
			Alias{Column: "CS%", Sources: []string{"Performance CS%"}},
			Alias{Column: "PSxG-GA", Sources: []string{"Expected PSxG+/-", "Expected PSxG-GA"}},
			Alias{Column: "Launch%", Sources: []string{"Passes Launch%", "Goal Kicks Launch%"}},
			Alias{Column: "Cmp%", Sources: []string{"Launched Cmp%"}},
			Alias{Column: "Stp%", Sources: []string{"Crosses Stp%"}},
			Alias{Column: "#OPA", Sources: []string{"Sweeper #OPA"}},
			Alias{Column: "GA_minus_xGA", Sources: []string{"goals_minus_xgoals_gk"}},
		),
		Rates: []derive.RateSpec{
			{Source: "GA", Target: "GA_p90"},
			{Source: "PSxG-GA", Target: "PSxG-GA_p90", Precision: 4},
			{Source: "#OPA", Target: "OPA_p90"},
		},
		Scores:  []Score{{Target: "GK_Efficiency", Set: set}},
		SortKey: "GK_Efficiency",
		Columns: []string{
			"Player", "Squad", "Pos", "Nation", "Age", "90s",
			"GK_Efficiency", "GA_p90", "PSxG-GA_p90",
			"Save%", "CS%", "Launch%", "Cmp%", "Stp%",
			"GA", "Saves", "SoTA", "GA_minus_xGA", "GK_Goals_Added",
			"Base_Salary", "Guaranteed_Comp",
		},
		Previews: []Preview{{
			Title:   "top goalkeepers",
			SortKey: "GK_Efficiency",
			Columns: []string{"Player", "Squad", "GK_Efficiency", "GA_p90", "PSxG-GA_p90", "Save%", "CS%"},
		}},
	}
}

// Classes returns both player classes built from reg.
func Classes(reg weights.Registry) ([]Class, error) {
	att, err := reg.Get(weights.Attacking)
	if err != nil {
		return nil, err
	}
	def, err := reg.Get(weights.Defensive)
	if err != nil {
		return nil, err
	}
	gk, err := reg.Get(weights.Goalkeeper)
	if err != nil {
		return nil, err
	}
	return []Class{OutfieldClass(att, def), GoalkeeperClass(gk)}, nil
}
