package simulation

import "math/rand"

// Source is the random source threaded through the projector and field simulator.
// *rand.Rand satisfies it.
type Source interface {
	// Float64 returns a value in [0.0, 1.0)
	Float64() float64
	// Intn returns a value in [0, n)
	Intn(n int) int
}

// NewSource returns a seeded source. Batches are reproducible only through this seed.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}
