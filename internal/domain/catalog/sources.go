package catalog

// Source names shared by acquisition and the class definitions.
const (
	SourceStandard   = "standard"
	SourceShooting   = "shooting"
	SourcePassing    = "passing"
	SourceDefense    = "defense"
	SourcePossession = "possession"
	SourceMisc       = "misc"
	SourceKeepers    = "gk"
	SourceKeepersAdv = "gk_advanced"

	SourcePlayerGoalsAdded = "asa_goals_added"
	SourcePlayerSalaries   = "asa_salaries"
	SourceKeeperXGoals     = "asa_gk_xgoals"
	SourceKeeperGoalsAdded = "asa_gk_goals_added"
	SourceTeamXGoals       = "asa_team_xgoals"
	SourceTeamXPass        = "asa_team_xpass"
	SourceTeamGoalsAdded   = "asa_team_goals_added"
	SourceGames            = "asa_games"
)

// FBrefPages maps FBref-backed source names to their page slug.
func FBrefPages() map[string]string {
	return map[string]string{
		SourceStandard:   "stats",
		SourceShooting:   "shooting",
		SourcePassing:    "passing",
		SourceDefense:    "defense",
		SourcePossession: "possession",
		SourceMisc:       "misc",
		SourceKeepers:    "keepers",
		SourceKeepersAdv: "keepersadv",
	}
}

// FBrefOrder is the fetch order of FBref pages.
func FBrefOrder() []string {
	return []string{
		SourceStandard, SourceShooting, SourcePassing, SourceDefense,
		SourcePossession, SourceMisc, SourceKeepers, SourceKeepersAdv,
	}
}

// IdentityColumn returns the column whose blank values mark non-data rows
// in source. Team tables are keyed by squad.
func IdentityColumn(source string) string {
	switch source {
	case SourceTeamXGoals, SourceTeamXPass, SourceTeamGoalsAdded:
		return "Squad"
	default:
		return "Player"
	}
}
