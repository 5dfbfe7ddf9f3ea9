package simulation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/stitts-dev/richard-sim/internal/models"
)

const (
	TiePrefix    = "tie-"
	TieSeparator = "-"
)

// Field is everything one simulation of the trophy race needs. PlayerIDs fixes the
// iteration order, which is also the order tied names are joined in.
type Field struct {
	PlayerIDs     []int
	Names         map[int]string
	Stats         map[int]models.PlayerSeasonStats
	Pools         map[int]Pool
	Participation map[int]float64
}

// Result maps a player id to a simulated season-end total
type Result map[int]int

// Name returns the display name for a player, falling back to the id
func (f *Field) Name(playerID int) string {
	if name, ok := f.Names[playerID]; ok && name != "" {
		return name
	}
	return strconv.Itoa(playerID)
}

// ParticipationFor returns the per-game participation probability for a player
func (f *Field) ParticipationFor(playerID int) float64 {
	if p, ok := f.Participation[playerID]; ok {
		return p
	}
	return DefaultParticipation
}

// checkKeys enforces that ids, stats and pools describe exactly the same players
func (f *Field) checkKeys() error {
	if len(f.PlayerIDs) == 0 {
		return fmt.Errorf("%w: field has no players", ErrPrecondition)
	}
	seen := make(map[int]struct{}, len(f.PlayerIDs))
	for _, id := range f.PlayerIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: player %d listed twice", ErrPrecondition, id)
		}
		seen[id] = struct{}{}
		if _, ok := f.Stats[id]; !ok {
			return fmt.Errorf("%w: no season stats for player %d", ErrPrecondition, id)
		}
		if _, ok := f.Pools[id]; !ok {
			return fmt.Errorf("%w: no distribution pool for player %d", ErrPrecondition, id)
		}
	}
	if len(f.Stats) != len(seen) {
		return fmt.Errorf("%w: %d stats entries for %d players", ErrPrecondition, len(f.Stats), len(seen))
	}
	if len(f.Pools) != len(seen) {
		return fmt.Errorf("%w: %d pools for %d players", ErrPrecondition, len(f.Pools), len(seen))
	}
	return nil
}

// Validate checks the whole field before any simulation runs
func (f *Field) Validate() error {
	if err := f.checkKeys(); err != nil {
		return err
	}
	for _, id := range f.PlayerIDs {
		if len(f.Pools[id]) == 0 {
			return fmt.Errorf("%w: player %d (%s) has no historical games", ErrPrecondition, id, f.Name(id))
		}
		if remaining := f.Stats[id].GamesRemaining; remaining < 0 {
			return fmt.Errorf("%w: player %d has negative games remaining (%d)", ErrPrecondition, id, remaining)
		}
		if err := checkParticipation(f.ParticipationFor(id)); err != nil {
			return fmt.Errorf("player %d: %w", id, err)
		}
	}
	for id := range f.Participation {
		if _, ok := f.Stats[id]; !ok {
			return fmt.Errorf("%w: participation override for unknown player %d", ErrPrecondition, id)
		}
	}
	return nil
}

// SimulateField runs one simulation of every player's remaining season
func SimulateField(rng Source, field *Field, scoreType ScoreType) (Result, error) {
	if err := field.checkKeys(); err != nil {
		return nil, err
	}
	result := make(Result, len(field.PlayerIDs))
	for _, id := range field.PlayerIDs {
		stats := field.Stats[id]
		total, err := ProjectSeasonTotal(rng, field.Pools[id], scoreType.SeasonValue(stats),
			stats.GamesRemaining, field.ParticipationFor(id))
		if err != nil {
			return nil, fmt.Errorf("player %d: %w", id, err)
		}
		result[id] = total
	}
	return result, nil
}

// Winners returns every player sharing the highest total, in PlayerIDs order.
// The whole ranked field is scanned so ties of any size are kept.
func (f *Field) Winners(result Result) []int {
	ranked := make([]int, len(f.PlayerIDs))
	copy(ranked, f.PlayerIDs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return result[ranked[i]] > result[ranked[j]]
	})
	if len(ranked) == 0 {
		return nil
	}

	highest := result[ranked[0]]
	winners := []int{ranked[0]}
	for _, id := range ranked[1:] {
		if result[id] != highest {
			break
		}
		winners = append(winners, id)
	}
	return winners
}

// OutcomeLabel names an outcome: the winner's name, or a tie label joining every tied name
func (f *Field) OutcomeLabel(winners []int) string {
	if len(winners) == 1 {
		return f.Name(winners[0])
	}
	names := make([]string, len(winners))
	for i, id := range winners {
		names[i] = f.Name(id)
	}
	return TiePrefix + strings.Join(names, TieSeparator)
}
