package simulation

import "fmt"

// DefaultParticipation is used for any player without an explicit override
const DefaultParticipation = 1.0

// ProjectSeasonTotal simulates the rest of one player's season from current.
// Every remaining game draws a participation trial; a played game adds one uniform
// draw from the pool, a missed game adds nothing.
func ProjectSeasonTotal(rng Source, pool Pool, current, gamesRemaining int, participation float64) (int, error) {
	if gamesRemaining < 0 {
		return 0, fmt.Errorf("%w: negative games remaining (%d)", ErrPrecondition, gamesRemaining)
	}
	if err := checkParticipation(participation); err != nil {
		return 0, err
	}
	if gamesRemaining == 0 {
		return current, nil
	}
	if len(pool) == 0 {
		return 0, fmt.Errorf("%w: sampling from an empty pool", ErrPrecondition)
	}

	total := current
	for game := 0; game < gamesRemaining; game++ {
		if rng.Float64() >= participation {
			continue
		}
		total += pool[rng.Intn(len(pool))]
	}
	return total, nil
}

func checkParticipation(p float64) error {
	// NaN fails both comparisons
	if !(p >= 0 && p <= 1) {
		return fmt.Errorf("%w: participation probability %v outside [0,1]", ErrPrecondition, p)
	}
	return nil
}
