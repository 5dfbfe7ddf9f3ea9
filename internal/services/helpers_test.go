package services

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/richard-sim/internal/models"
	"github.com/stitts-dev/richard-sim/pkg/database"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewConnection(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db
}

// MockStatsProvider is a mock implementation of StatsProvider
type MockStatsProvider struct {
	mock.Mock
}

func (m *MockStatsProvider) GetGameLog(ctx context.Context, playerID int, season string) ([]models.PlayerGameRecord, error) {
	args := m.Called(ctx, playerID, season)
	logs, _ := args.Get(0).([]models.PlayerGameRecord)
	return logs, args.Error(1)
}

func (m *MockStatsProvider) GetStandings(ctx context.Context) (map[string]models.TeamRecord, error) {
	args := m.Called(ctx)
	teams, _ := args.Get(0).(map[string]models.TeamRecord)
	return teams, args.Error(1)
}

func (m *MockStatsProvider) GetCurrentTeam(ctx context.Context, playerID int) (string, error) {
	args := m.Called(ctx, playerID)
	return args.String(0), args.Error(1)
}

// goalLogs builds one game per entry of goals, numbered from firstGame
func goalLogs(playerID, firstGame int, goals ...int) []models.PlayerGameRecord {
	logs := make([]models.PlayerGameRecord, len(goals))
	for i, g := range goals {
		logs[i] = models.PlayerGameRecord{
			PlayerID: playerID,
			GameID:   firstGame + i,
			Goals:    g,
			Points:   g,
		}
	}
	return logs
}

func floatPtr(v float64) *float64 {
	return &v
}
