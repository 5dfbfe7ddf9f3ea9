package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/stitts-dev/richard-sim/internal/models"
	"github.com/stitts-dev/richard-sim/internal/simulation"
	"github.com/stitts-dev/richard-sim/pkg/logger"
)

// StatsProvider is the subset of the NHL client the loader needs
type StatsProvider interface {
	GetGameLog(ctx context.Context, playerID int, season string) ([]models.PlayerGameRecord, error)
	GetStandings(ctx context.Context) (map[string]models.TeamRecord, error)
	GetCurrentTeam(ctx context.Context, playerID int) (string, error)
}

// FieldLoader turns a roster into a simulation field using live NHL data
type FieldLoader struct {
	provider      StatsProvider
	logger        *logrus.Logger
	gamesInSeason int
	priorSeasons  int
	concurrency   int
}

func NewFieldLoader(provider StatsProvider, gamesInSeason, priorSeasons int, logger *logrus.Logger) *FieldLoader {
	return &FieldLoader{
		provider:      provider,
		logger:        logger,
		gamesInSeason: gamesInSeason,
		priorSeasons:  priorSeasons,
		concurrency:   4,
	}
}

// PreviousSeason maps "20232024" to "20222023"
func PreviousSeason(season string) (string, error) {
	if len(season) != 8 {
		return "", fmt.Errorf("invalid season %q", season)
	}
	start, err := strconv.Atoi(season[:4])
	if err != nil {
		return "", fmt.Errorf("invalid season %q", season)
	}
	end, err := strconv.Atoi(season[4:])
	if err != nil || end != start+1 {
		return "", fmt.Errorf("invalid season %q", season)
	}
	return fmt.Sprintf("%d%d", start-1, start), nil
}

// HistorySeasons lists the prior seasons followed by season itself
func HistorySeasons(season string, prior int) ([]string, error) {
	seasons := []string{season}
	current := season
	for i := 0; i < prior; i++ {
		prev, err := PreviousSeason(current)
		if err != nil {
			return nil, err
		}
		seasons = append([]string{prev}, seasons...)
		current = prev
	}
	return seasons, nil
}

// LoadHistoricalGames returns the player's game logs for the prior seasons and season,
// oldest first, with duplicate game ids dropped
func (l *FieldLoader) LoadHistoricalGames(ctx context.Context, playerID int, season string) ([]models.PlayerGameRecord, error) {
	seasons, err := HistorySeasons(season, l.priorSeasons)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	var games []models.PlayerGameRecord
	for _, s := range seasons {
		logs, err := l.provider.GetGameLog(ctx, playerID, s)
		if err != nil {
			return nil, err
		}
		for _, g := range logs {
			if seen[g.GameID] {
				continue
			}
			seen[g.GameID] = true
			games = append(games, g)
		}
	}
	return games, nil
}

// LoadCurrentSeasonStats sums the season's logs and derives games remaining from the
// player's team record
func (l *FieldLoader) LoadCurrentSeasonStats(ctx context.Context, playerID int, season string, standings map[string]models.TeamRecord) (models.PlayerSeasonStats, error) {
	teamID, err := l.provider.GetCurrentTeam(ctx, playerID)
	if err != nil {
		return models.PlayerSeasonStats{}, err
	}
	team, ok := standings[teamID]
	if !ok {
		return models.PlayerSeasonStats{}, fmt.Errorf("team %s of player %d is missing from standings", teamID, playerID)
	}

	logs, err := l.provider.GetGameLog(ctx, playerID, season)
	if err != nil {
		return models.PlayerSeasonStats{}, err
	}

	remaining := l.gamesInSeason - team.GamesPlayed
	if remaining < 0 {
		remaining = 0
	}
	return models.SeasonTotals(playerID, logs, remaining, teamID), nil
}

type loadedPlayer struct {
	stats models.PlayerSeasonStats
	pool  simulation.Pool
}

// LoadField builds the field for roster. overrides take precedence over the roster's
// participation column.
func (l *FieldLoader) LoadField(ctx context.Context, roster []models.RosterEntry, season string, scoreType simulation.ScoreType, overrides map[int]float64) (*simulation.Field, error) {
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: roster is empty", simulation.ErrPrecondition)
	}

	standings, err := l.provider.GetStandings(ctx)
	if err != nil {
		return nil, err
	}

	loaded := make([]loadedPlayer, len(roster))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, entry := range roster {
		i, entry := i, entry
		g.Go(func() error {
			stats, err := l.LoadCurrentSeasonStats(gctx, entry.PlayerID, season, standings)
			if err != nil {
				return fmt.Errorf("player %d (%s): %w", entry.PlayerID, entry.Name, err)
			}
			history, err := l.LoadHistoricalGames(gctx, entry.PlayerID, season)
			if err != nil {
				return fmt.Errorf("player %d (%s): %w", entry.PlayerID, entry.Name, err)
			}
			pool, err := simulation.BuildDistribution(scoreType, history).Pool()
			if err != nil {
				return fmt.Errorf("player %d (%s): %w", entry.PlayerID, entry.Name, err)
			}
			if len(pool) == 0 {
				logger.WithPlayerContext(entry.PlayerID, season).Warn("Player has no game history")
			}
			loaded[i] = loadedPlayer{stats: stats, pool: pool}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	field := &simulation.Field{
		PlayerIDs:     make([]int, 0, len(roster)),
		Names:         make(map[int]string, len(roster)),
		Stats:         make(map[int]models.PlayerSeasonStats, len(roster)),
		Pools:         make(map[int]simulation.Pool, len(roster)),
		Participation: make(map[int]float64),
	}
	for i, entry := range roster {
		id := entry.PlayerID
		field.PlayerIDs = append(field.PlayerIDs, id)
		field.Names[id] = entry.Name
		field.Stats[id] = loaded[i].stats
		field.Pools[id] = loaded[i].pool
		if entry.Participation != nil {
			field.Participation[id] = *entry.Participation
		}
	}
	for id, p := range overrides {
		field.Participation[id] = p
	}

	l.logger.WithFields(logrus.Fields{
		"season":     season,
		"score_type": scoreType,
		"players":    len(field.PlayerIDs),
	}).Info("Loaded simulation field")

	return field, nil
}
