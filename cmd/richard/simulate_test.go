package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/richard-sim/internal/services"
	"github.com/stitts-dev/richard-sim/internal/simulation"
)

func TestParseParticipation(t *testing.T) {
	got, err := parseParticipation([]string{"8478402=0.85", " 8479318 = 1 "})
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{8478402: 0.85, 8479318: 1}, got)

	got, err = parseParticipation(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, bad := range []string{"8478402", "abc=0.5", "1=1.5", "1=-0.1", "1=x"} {
		_, err := parseParticipation([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestPrintReport(t *testing.T) {
	tally := simulation.Tally{
		"Auston Matthews":                    70,
		"Connor McDavid":                     20,
		"tie-Auston Matthews-Connor McDavid": 10,
	}
	report := &services.RunReport{
		RunID:  uuid.MustParse("5f0c7a5e-1111-4222-8333-444455556666"),
		Season: "20232024",
		Result: &simulation.BatchResult{
			ScoreType:      simulation.ScoreGoals,
			NumSimulations: 100,
			Workers:        2,
			Seed:           42,
			Tally:          tally,
			Outcomes:       tally.Ranked(),
			Players: []simulation.PlayerSummary{
				{PlayerID: 8479318, Name: "Auston Matthews", Current: 60, GamesRemaining: 5, Participation: 1, PerGameMean: 0.7, ProjectedMean: 63.5, OutrightWins: 70, SharedWins: 10},
				{PlayerID: 8478402, Name: "Connor McDavid", Current: 58, GamesRemaining: 6, Participation: 0.9, PerGameMean: 0.5, ProjectedMean: 60.7, OutrightWins: 20, SharedWins: 10},
			},
			ExecutionTime: 1234567 * time.Microsecond,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, report, 2))
	out := buf.String()

	assert.Contains(t, out, "Season 20232024, goals, 100 simulations (seed 42, 2 workers, 1.235s)")
	assert.Contains(t, out, "70.00%")
	assert.Contains(t, out, "20.00%")
	assert.NotContains(t, out, "tie-Auston Matthews-Connor McDavid", "only the top 2 outcomes are printed")
	assert.Contains(t, out, "Saved as run 5f0c7a5e-1111-4222-8333-444455556666")

	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[2], "OUTCOME"))
	assert.True(t, strings.HasPrefix(lines[3], "Auston Matthews"))
}
