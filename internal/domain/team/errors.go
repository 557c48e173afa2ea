package team

import "errors"

// Sentinel kinds for team errors.
var (
	// ErrNoTeamData means the source table for a team export has no rows.
	ErrNoTeamData = errors.New("no team data")
)
