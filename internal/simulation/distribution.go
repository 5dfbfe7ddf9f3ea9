package simulation

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/stitts-dev/richard-sim/internal/models"
)

// Distribution maps an observed per-game value to the number of games it was observed in.
// Counts stay raw so that expanding to a pool preserves exact empirical frequencies.
type Distribution map[int]int

// BuildDistribution tallies the score-type field across a player's historical games.
// Record order and season boundaries do not matter.
func BuildDistribution(scoreType ScoreType, games []models.PlayerGameRecord) Distribution {
	dist := make(Distribution)
	for _, game := range games {
		dist[scoreType.GameValue(game)]++
	}
	return dist
}

// Total is the number of games the distribution was built from
func (d Distribution) Total() int {
	total := 0
	for _, count := range d {
		total += count
	}
	return total
}

// Values returns the observed values in ascending order
func (d Distribution) Values() []int {
	values := make([]int, 0, len(d))
	for value := range d {
		values = append(values, value)
	}
	sort.Ints(values)
	return values
}

// Pool expands the distribution into a flat resampling pool, each value repeated by its
// count in ascending value order. Uniform sampling over the pool is sampling proportional
// to empirical frequency.
func (d Distribution) Pool() (Pool, error) {
	expected := d.Total()
	pool := make(Pool, 0, expected)
	for _, value := range d.Values() {
		count := d[value]
		if count < 0 {
			return nil, fmt.Errorf("%w: negative count %d for value %d", ErrDataIntegrity, count, value)
		}
		for i := 0; i < count; i++ {
			pool = append(pool, value)
		}
	}
	if len(pool) != expected {
		return nil, fmt.Errorf("%w: pool has %d entries, distribution counts %d", ErrDataIntegrity, len(pool), expected)
	}
	return pool, nil
}

// Pool is the flat sampling structure consumed by the projector
type Pool []int

// Min returns the smallest value in the pool, or 0 for an empty pool
func (p Pool) Min() int {
	if len(p) == 0 {
		return 0
	}
	lowest := p[0]
	for _, v := range p[1:] {
		if v < lowest {
			lowest = v
		}
	}
	return lowest
}

// Max returns the largest value in the pool, or 0 for an empty pool
func (p Pool) Max() int {
	if len(p) == 0 {
		return 0
	}
	highest := p[0]
	for _, v := range p[1:] {
		if v > highest {
			highest = v
		}
	}
	return highest
}

// Mean is the expected per-game value under uniform resampling
func (p Pool) Mean() float64 {
	if len(p) == 0 {
		return 0
	}
	return stat.Mean(p.floats(), nil)
}

func (p Pool) floats() []float64 {
	out := make([]float64, len(p))
	for i, v := range p {
		out[i] = float64(v)
	}
	return out
}
