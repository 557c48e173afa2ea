// Package team builds the squad-level exports from team and game tables.
package team

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/touchline/internal/domain/model"
	"github.com/okian/touchline/internal/domain/scoring"
	"github.com/okian/touchline/internal/domain/table"
	"github.com/okian/touchline/internal/domain/weights"
)

// Export names.
const (
	Stats      = "team_stats"
	XPass      = "team_xpass"
	GoalsAdded = "team_goals_added"
	Trajectory = "team_trajectory"
)

// Actions are the goals-added action types in export order.
var Actions = []string{"dribbling", "fouling", "interrupting", "passing", "receiving", "shooting"} //nolint:gochecknoglobals // read-only

const (
	efficiencyField = "Team_Efficiency"
	pcoeField       = "passes_completed_over_expected_difference"
	ratePrecision   = 2
	statPrecision   = 2
)

// statColumns maps team xgoals fields onto export names.
var statColumns = []struct{ from, to string }{ //nolint:gochecknoglobals // read-only
	{"count_games", "GP"},
	{"goals_for", "GF"},
	{"goals_against", "GA"},
	{"goal_difference", "GD"},
	{"xgoals_for", "xGF"},
	{"xgoals_against", "xGA"},
	{"xgoal_difference", "xGD"},
	{"goal_difference_minus_xgoal_difference", "GD_minus_xGD"},
	{"shots_for", "SF"},
	{"shots_against", "SA"},
	{"points", "Pts"},
	{"xpoints", "xPts"},
}

// StatsColumns is the team stats layout.
func StatsColumns() []string {
	cols := []string{"team_id", "Squad"}
	for _, c := range statColumns {
		cols = append(cols, c.to)
	}
	return append(cols, efficiencyField)
}

// BuildStats creates one record per squad from the team xgoals table, with
// per-game rates and Team_Efficiency scored over set. The xpass table is
// optional and contributes the pass-over-expected difference.
func BuildStats(xgoals, xpass table.Table, set weights.Set, scorer *scoring.Scorer) ([]*model.Record, error) {
	if xgoals.Empty() {
		return nil, fmt.Errorf("%s: %w", Stats, ErrNoTeamData)
	}

	pcoe := make(map[string]float64)
	for _, rec := range model.FromTable(xpass) {
		if v, ok := rec.Lookup(pcoeField); ok {
			pcoe[teamKey(rec)] = v
		}
	}

	rows := model.FromTable(xgoals)
	out := make([]*model.Record, 0, len(rows))
	for _, src := range rows {
		rec := model.NewRecord()
		rec.Set("team_id", src.Get("team_id"))
		rec.Set("Squad", src.Get("Squad"))
		for _, c := range statColumns {
			if v, ok := src.Lookup(c.from); ok {
				rec.SetFloat(c.to, model.Round(v, statPrecision))
			}
		}

		games := rec.Float("GP")
		rec.SetScratch("xGD_per_game", perGame(src.Float("xgoal_difference"), games))
		rec.SetScratch("GD_per_game", perGame(src.Float("goal_difference"), games))
		rec.SetScratch("Pts_per_game", perGame(src.Float("points"), games))
		rec.SetScratch(pcoeField, pcoe[teamKey(src)])
		out = append(out, rec)
	}

	if err := scorer.ScoreComposite(out, set, efficiencyField); err != nil {
		return nil, err
	}
	return out, nil
}

func perGame(v, games float64) float64 {
	if games <= 0 {
		return 0
	}
	return model.Round(v/games, ratePrecision+2)
}

func teamKey(rec *model.Record) string {
	if id := strings.TrimSpace(rec.Text("team_id")); id != "" {
		return id
	}
	return strings.TrimSpace(rec.Text("Squad"))
}

// XPassColumns is the team xpass layout.
func XPassColumns() []string {
	return []string{
		"team_id", "Squad", "count_games",
		"attempted_passes_for", "pass_completion_percentage_for", "xpass_completion_percentage_for",
		"passes_completed_over_expected_for", "passes_completed_over_expected_p100_for", "avg_vertical_distance_for",
		"attempted_passes_against", "pass_completion_percentage_against", "xpass_completion_percentage_against",
		"passes_completed_over_expected_against", "passes_completed_over_expected_p100_against",
		"avg_vertical_distance_against",
		pcoeField, "avg_vertical_distance_difference",
	}
}

// BuildXPass keeps the xpass figures of each squad.
func BuildXPass(xpass table.Table) ([]*model.Record, error) {
	if xpass.Empty() {
		return nil, fmt.Errorf("%s: %w", XPass, ErrNoTeamData)
	}
	return project(model.FromTable(xpass), XPassColumns()), nil
}

// GoalsAddedColumns is the team goals-added layout.
func GoalsAddedColumns() []string {
	cols := []string{"team_id", "Squad"}
	for _, a := range Actions {
		cols = append(cols, "ga_for_"+a, "ga_against_"+a)
	}
	return cols
}

// BuildGoalsAdded gives each squad its goals added for and against per action
// type. Actions a squad has no value for read as 0.
func BuildGoalsAdded(ga table.Table) ([]*model.Record, error) {
	if ga.Empty() {
		return nil, fmt.Errorf("%s: %w", GoalsAdded, ErrNoTeamData)
	}
	cols := GoalsAddedColumns()
	out := project(model.FromTable(ga), cols)
	for _, rec := range out {
		for _, col := range cols[2:] {
			if !rec.Has(col) {
				rec.SetFloat(col, 0)
			}
		}
	}
	return out, nil
}

func project(rows []*model.Record, cols []string) []*model.Record {
	out := make([]*model.Record, 0, len(rows))
	for _, src := range rows {
		rec := model.NewRecord()
		for _, col := range cols {
			if c := src.Get(col); !c.IsMissing() {
				rec.Set(col, c)
			}
		}
		out = append(out, rec)
	}
	return out
}

// TrajectoryColumns is the cumulative trajectory layout.
func TrajectoryColumns() []string {
	return []string{"team", "date", "matchday", "cum_goals", "cum_xgoals", "cum_xpoints"}
}

type game struct {
	id   string
	when string
	home side
	away side
}

type side struct {
	team    string
	goals   float64
	xgoals  float64
	xpoints float64
}

// BuildTrajectory orders each squad's games by kickoff and accumulates
// goals, expected goals, and expected points. Rows are grouped by team name
// and ordered by matchday.
func BuildTrajectory(games table.Table) ([]*model.Record, error) {
	if games.Empty() {
		return nil, fmt.Errorf("%s: %w", Trajectory, ErrNoTeamData)
	}

	var list []game
	for _, rec := range model.FromTable(games) {
		g := game{
			id:   rec.Text("game_id"),
			when: rec.Text("date_time_utc"),
			home: side{
				team:    teamName(rec, "home"),
				goals:   rec.Float("home_goals"),
				xgoals:  rec.Float("home_team_xgoals"),
				xpoints: rec.Float("home_xpoints"),
			},
			away: side{
				team:    teamName(rec, "away"),
				goals:   rec.Float("away_goals"),
				xgoals:  rec.Float("away_team_xgoals"),
				xpoints: rec.Float("away_xpoints"),
			},
		}
		if g.home.team == "" || g.away.team == "" {
			continue
		}
		list = append(list, g)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].when != list[j].when {
			return list[i].when < list[j].when
		}
		return list[i].id < list[j].id
	})

	type running struct {
		matchday               int
		goals, xgoals, xpoints float64
	}
	totals := make(map[string]*running)
	byTeam := make(map[string][]*model.Record)
	add := func(s side, when string) {
		r, ok := totals[s.team]
		if !ok {
			r = &running{}
			totals[s.team] = r
		}
		r.matchday++
		r.goals += s.goals
		r.xgoals += s.xgoals
		r.xpoints += s.xpoints

		rec := model.NewRecord()
		rec.Set("team", table.Text(s.team))
		rec.Set("date", table.Text(dateOf(when)))
		rec.SetFloat("matchday", float64(r.matchday))
		rec.SetFloat("cum_goals", r.goals)
		rec.SetFloat("cum_xgoals", model.Round(r.xgoals, statPrecision))
		rec.SetFloat("cum_xpoints", model.Round(r.xpoints, statPrecision))
		byTeam[s.team] = append(byTeam[s.team], rec)
	}
	for _, g := range list {
		add(g.home, g.when)
		add(g.away, g.when)
	}

	names := make([]string, 0, len(byTeam))
	for name := range byTeam {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []*model.Record
	for _, name := range names {
		out = append(out, byTeam[name]...)
	}
	return out, nil
}

func teamName(rec *model.Record, prefix string) string {
	if name := strings.TrimSpace(rec.Text(prefix + "_team")); name != "" {
		return name
	}
	return strings.TrimSpace(rec.Text(prefix + "_team_id"))
}

func dateOf(ts string) string {
	ts = strings.TrimSpace(ts)
	if len(ts) >= len("2006-01-02") {
		return ts[:len("2006-01-02")]
	}
	return ts
}
