package simulation

import (
	"context"
	"fmt"
)

// accumulator collects one worker's share of a batch
type accumulator struct {
	tally      Tally
	outright   map[int]int
	shared     map[int]int
	totals     map[int][]float64
	keepTotals bool
}

func newAccumulator(field *Field, runs int, keepTotals bool) *accumulator {
	acc := &accumulator{
		tally:      make(Tally),
		outright:   make(map[int]int, len(field.PlayerIDs)),
		shared:     make(map[int]int, len(field.PlayerIDs)),
		keepTotals: keepTotals,
	}
	if keepTotals {
		acc.totals = make(map[int][]float64, len(field.PlayerIDs))
		for _, id := range field.PlayerIDs {
			acc.totals[id] = make([]float64, 0, runs)
		}
	}
	return acc
}

func (a *accumulator) record(field *Field, result Result) {
	winners := field.Winners(result)
	a.tally[field.OutcomeLabel(winners)]++
	if len(winners) == 1 {
		a.outright[winners[0]]++
	} else {
		for _, id := range winners {
			a.shared[id]++
		}
	}
	if a.keepTotals {
		for _, id := range field.PlayerIDs {
			a.totals[id] = append(a.totals[id], float64(result[id]))
		}
	}
}

// merge folds other into a. Totals are appended in call order, so merging worker
// accumulators in worker order keeps the batch deterministic.
func (a *accumulator) merge(other *accumulator) {
	a.tally.Merge(other.tally)
	for id, n := range other.outright {
		a.outright[id] += n
	}
	for id, n := range other.shared {
		a.shared[id] += n
	}
	if a.keepTotals {
		for id, totals := range other.totals {
			a.totals[id] = append(a.totals[id], totals...)
		}
	}
}

// runChunk simulates runs field simulations into acc
func runChunk(ctx context.Context, rng Source, runs int, scoreType ScoreType, field *Field, acc *accumulator, done func()) error {
	for i := 0; i < runs; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := SimulateField(rng, field, scoreType)
		if err != nil {
			return err
		}
		acc.record(field, result)
		if done != nil {
			done()
		}
	}
	return nil
}

// RunBatch runs simulations sequentially on rng and tallies the winner of each run.
// The field is validated before the first run; any failure discards the tally.
func RunBatch(ctx context.Context, rng Source, simulations int, scoreType ScoreType, field *Field) (Tally, error) {
	if simulations <= 0 {
		return nil, fmt.Errorf("%w: simulation count must be positive, got %d", ErrPrecondition, simulations)
	}
	if !scoreType.Valid() {
		return nil, fmt.Errorf("%w: unknown score type %q", ErrPrecondition, string(scoreType))
	}
	if err := field.Validate(); err != nil {
		return nil, err
	}
	acc := newAccumulator(field, simulations, false)
	if err := runChunk(ctx, rng, simulations, scoreType, field, acc, nil); err != nil {
		return nil, err
	}
	return acc.tally, nil
}
