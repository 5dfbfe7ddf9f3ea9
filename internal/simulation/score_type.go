package simulation

import (
	"fmt"
	"strings"

	"github.com/stitts-dev/richard-sim/internal/models"
)

// ScoreType selects which stat line field is projected and compared
type ScoreType string

const (
	ScoreGoals   ScoreType = "goals"
	ScoreAssists ScoreType = "assists"
	ScorePoints  ScoreType = "points"
)

// ScoreTypes lists every supported score type
var ScoreTypes = []ScoreType{ScoreGoals, ScoreAssists, ScorePoints}

// ParseScoreType resolves a score type name, case-insensitively
func ParseScoreType(name string) (ScoreType, error) {
	st := ScoreType(strings.ToLower(strings.TrimSpace(name)))
	if st.Valid() {
		return st, nil
	}
	return "", fmt.Errorf("unknown score type %q", name)
}

// Valid reports whether t is one of the supported score types
func (t ScoreType) Valid() bool {
	switch t {
	case ScoreGoals, ScoreAssists, ScorePoints:
		return true
	}
	return false
}

func (t ScoreType) String() string {
	return string(t)
}

// GameValue returns the selected field of a single game record
func (t ScoreType) GameValue(game models.PlayerGameRecord) int {
	switch t {
	case ScoreGoals:
		return game.Goals
	case ScoreAssists:
		return game.Assists
	case ScorePoints:
		return game.Points
	}
	panic(fmt.Sprintf("simulation: unhandled score type %q", string(t)))
}

// SeasonValue returns the selected season-to-date total
func (t ScoreType) SeasonValue(stats models.PlayerSeasonStats) int {
	switch t {
	case ScoreGoals:
		return stats.Goals
	case ScoreAssists:
		return stats.Assists
	case ScorePoints:
		return stats.Points
	}
	panic(fmt.Sprintf("simulation: unhandled score type %q", string(t)))
}
