package simulation

import (
	"testing"

	"github.com/stitts-dev/richard-sim/internal/models"
)

// scriptedSource replays fixed draws so tests can force outcomes
type scriptedSource struct {
	floats []float64
	ints   []int
	fi, ii int
	calls  int
}

func (s *scriptedSource) Float64() float64 {
	s.calls++
	if len(s.floats) == 0 {
		return 0
	}
	v := s.floats[s.fi%len(s.floats)]
	s.fi++
	return v
}

func (s *scriptedSource) Intn(n int) int {
	s.calls++
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[s.ii%len(s.ints)]
	s.ii++
	return v % n
}

type fieldPlayer struct {
	id            int
	name          string
	current       int
	remaining     int
	pool          Pool
	participation *float64
}

func newTestField(t *testing.T, players ...fieldPlayer) *Field {
	t.Helper()
	field := &Field{
		Names:         make(map[int]string),
		Stats:         make(map[int]models.PlayerSeasonStats),
		Pools:         make(map[int]Pool),
		Participation: make(map[int]float64),
	}
	for _, p := range players {
		field.PlayerIDs = append(field.PlayerIDs, p.id)
		field.Names[p.id] = p.name
		field.Stats[p.id] = models.PlayerSeasonStats{
			PlayerID:       p.id,
			Goals:          p.current,
			GamesRemaining: p.remaining,
		}
		field.Pools[p.id] = p.pool
		if p.participation != nil {
			field.Participation[p.id] = *p.participation
		}
	}
	return field
}

func games(playerID int, goals ...int) []models.PlayerGameRecord {
	records := make([]models.PlayerGameRecord, len(goals))
	for i, g := range goals {
		records[i] = models.PlayerGameRecord{
			PlayerID: playerID,
			GameID:   2023020001 + i,
			Goals:    g,
			Assists:  g + 1,
			Points:   2*g + 1,
		}
	}
	return records
}

func prob(p float64) *float64 {
	return &p
}
