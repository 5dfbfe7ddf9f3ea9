package simulation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateField_ForcedDraws(t *testing.T) {
	field := newTestField(t,
		fieldPlayer{id: 1, name: "A", current: 10, remaining: 1, pool: Pool{0, 1}},
		fieldPlayer{id: 2, name: "B", current: 4, remaining: 1, pool: Pool{5}},
	)
	// A plays and draws index 1 (value 1); B plays and draws its only value
	rng := &scriptedSource{floats: []float64{0}, ints: []int{1, 0}}

	result, err := SimulateField(rng, field, ScoreGoals)
	require.NoError(t, err)
	assert.Equal(t, Result{1: 11, 2: 9}, result)
	assert.Equal(t, "A", field.OutcomeLabel(field.Winners(result)))
}

func TestSimulateField_KeySetMismatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Field)
	}{
		{name: "missing stats", mutate: func(f *Field) { delete(f.Stats, 2) }},
		{name: "missing pool", mutate: func(f *Field) { delete(f.Pools, 1) }},
		{name: "extra stats", mutate: func(f *Field) { f.Stats[3] = f.Stats[1] }},
		{name: "extra pool", mutate: func(f *Field) { f.Pools[3] = Pool{1} }},
		{name: "duplicate id", mutate: func(f *Field) { f.PlayerIDs = append(f.PlayerIDs, 1) }},
		{name: "no players", mutate: func(f *Field) { f.PlayerIDs = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := newTestField(t,
				fieldPlayer{id: 1, name: "A", current: 10, remaining: 2, pool: Pool{1}},
				fieldPlayer{id: 2, name: "B", current: 10, remaining: 2, pool: Pool{1}},
			)
			tt.mutate(field)

			_, err := SimulateField(NewSource(1), field, ScoreGoals)
			assert.ErrorIs(t, err, ErrPrecondition)
		})
	}
}

func TestFieldValidate(t *testing.T) {
	tests := []struct {
		name    string
		players []fieldPlayer
		extra   func(f *Field)
	}{
		{
			name:    "empty pool",
			players: []fieldPlayer{{id: 1, name: "A", current: 3, remaining: 0, pool: Pool{}}},
		},
		{
			name:    "negative games remaining",
			players: []fieldPlayer{{id: 1, name: "A", current: 3, remaining: -2, pool: Pool{1}}},
		},
		{
			name:    "participation out of range",
			players: []fieldPlayer{{id: 1, name: "A", current: 3, remaining: 2, pool: Pool{1}, participation: prob(1.2)}},
		},
		{
			name:    "participation for unknown player",
			players: []fieldPlayer{{id: 1, name: "A", current: 3, remaining: 2, pool: Pool{1}}},
			extra:   func(f *Field) { f.Participation[99] = 0.5 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := newTestField(t, tt.players...)
			if tt.extra != nil {
				tt.extra(field)
			}
			assert.ErrorIs(t, field.Validate(), ErrPrecondition)
		})
	}
}

func TestWinners_TieOrderFollowsPlayerIDs(t *testing.T) {
	field := newTestField(t,
		fieldPlayer{id: 30, name: "Matthews", pool: Pool{1}},
		fieldPlayer{id: 10, name: "McDavid", pool: Pool{1}},
		fieldPlayer{id: 20, name: "Pastrnak", pool: Pool{1}},
	)

	for i := 0; i < 50; i++ {
		// rebuild the map each time so insertion order cannot leak into the label
		result := Result{}
		order := []int{20, 10, 30}
		if i%2 == 1 {
			order = []int{30, 20, 10}
		}
		for _, id := range order {
			result[id] = map[int]int{10: 60, 20: 60, 30: 55}[id]
		}

		winners := field.Winners(result)
		assert.Equal(t, []int{10, 20}, winners)
		assert.Equal(t, "tie-McDavid-Pastrnak", field.OutcomeLabel(winners))
	}
}

func TestWinners_ScansBeyondTopTen(t *testing.T) {
	players := make([]fieldPlayer, 0, 12)
	result := Result{}
	expected := "tie"
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("P%d", i)
		players = append(players, fieldPlayer{id: i, name: name, pool: Pool{1}})
		result[i] = 50
		expected += "-" + name
	}
	field := newTestField(t, players...)

	winners := field.Winners(result)
	assert.Len(t, winners, 12)
	assert.Equal(t, expected, field.OutcomeLabel(winners))
}

func TestFieldName_FallsBackToID(t *testing.T) {
	field := &Field{Names: map[int]string{1: "A"}}
	assert.Equal(t, "A", field.Name(1))
	assert.Equal(t, "8478402", field.Name(8478402))
}
