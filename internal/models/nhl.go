package models

import "time"

// PlayerGameRecord is one player's stat line for one played regular-season game
type PlayerGameRecord struct {
	PlayerID int       `json:"player_id"`
	GameID   int       `json:"game_id"`
	Date     time.Time `json:"date"`
	Goals    int       `json:"goals"`
	Assists  int       `json:"assists"`
	Points   int       `json:"points"`
}

// PlayerSeasonStats is a player's season-to-date snapshot
type PlayerSeasonStats struct {
	PlayerID       int    `json:"player_id"`
	GamesPlayed    int    `json:"games_played"`
	Goals          int    `json:"goals"`
	Assists        int    `json:"assists"`
	Points         int    `json:"points"`
	GamesRemaining int    `json:"games_remaining"`
	TeamID         string `json:"team_id"`
}

// TeamRecord holds a team's current league record, keyed by team abbreviation
type TeamRecord struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	OTLosses     int       `json:"ot_losses"`
	GamesPlayed  int       `json:"games_played"`
	Points       int       `json:"points"`
	GoalsFor     int       `json:"goals_for"`
	GoalsAgainst int       `json:"goals_against"`
	LastUpdated  time.Time `json:"last_updated"`
}

// RosterEntry is one line of the roster file
type RosterEntry struct {
	PlayerID      int      `json:"player_id"`
	Name          string   `json:"name"`
	Participation *float64 `json:"participation,omitempty"`
}

// SeasonTotals sums a season's game logs into a season snapshot
func SeasonTotals(playerID int, logs []PlayerGameRecord, gamesRemaining int, teamID string) PlayerSeasonStats {
	stats := PlayerSeasonStats{
		PlayerID:       playerID,
		GamesPlayed:    len(logs),
		GamesRemaining: gamesRemaining,
		TeamID:         teamID,
	}
	for _, game := range logs {
		stats.Goals += game.Goals
		stats.Assists += game.Assists
		stats.Points += game.Points
	}
	return stats
}
