// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry. Name is the player, or the squad for
// team tables.
type Entry struct {
	Rank   int               `json:"rank"`
	Name   string            `json:"name"`
	Squad  string            `json:"squad,omitempty"`
	Score  float64           `json:"score"`
	Fields map[string]string `json:"fields,omitempty"`
}
