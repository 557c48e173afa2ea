package asa

import "github.com/okian/touchline/internal/domain/catalog"

// Flatten spreads an action array into one column per action type. Value is
// the field read from each action, Prefix names the columns, and Total, when
// set, receives the sum across actions.
type Flatten struct {
	Value  string
	Prefix string
	Total  string
}

// Endpoint describes one stats endpoint.
type Endpoint struct {
	Source   string
	Path     string
	Seasonal bool
	Flatten  []Flatten
}

const (
	pathTeams   = "teams"
	pathPlayers = "players"
)

// Endpoints lists the stats endpoints in fetch order.
func Endpoints() []Endpoint {
	return []Endpoint{
		{
			Source: catalog.SourcePlayerGoalsAdded, Path: "players/goals-added", Seasonal: true,
			Flatten: []Flatten{{Value: "goals_added_above_avg", Prefix: "ga", Total: "Goals_Added"}},
		},
		{Source: catalog.SourcePlayerSalaries, Path: "players/salaries", Seasonal: true},
		{Source: catalog.SourceKeeperXGoals, Path: "goalkeepers/xgoals", Seasonal: true},
		{
			Source: catalog.SourceKeeperGoalsAdded, Path: "goalkeepers/goals-added", Seasonal: true,
			Flatten: []Flatten{{Value: "goals_added_above_avg", Prefix: "gk_ga", Total: "GK_Goals_Added"}},
		},
		{Source: catalog.SourceTeamXGoals, Path: "teams/xgoals", Seasonal: true},
		{Source: catalog.SourceTeamXPass, Path: "teams/xpass", Seasonal: true},
		{
			Source: catalog.SourceTeamGoalsAdded, Path: "teams/goals-added", Seasonal: true,
			Flatten: []Flatten{
				{Value: "goals_added_for", Prefix: "ga_for"},
				{Value: "goals_added_against", Prefix: "ga_against"},
			},
		},
		{Source: catalog.SourceGames, Path: "games/xgoals", Seasonal: true},
	}
}
