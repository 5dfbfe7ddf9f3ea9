package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/stitts-dev/richard-sim/internal/models"
)

const (
	// DefaultNHLBaseURL is the public NHL web API
	DefaultNHLBaseURL = "https://api-web.nhle.com/v1"

	// the API rejects requests without a browser user agent
	userAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/119.0"

	regularSeasonGameType = 2
	maxResponseBytes      = 8 << 20
	breakerName           = "nhl"
)

// NHLClientOptions configures an NHLClient. Zero values fall back to defaults.
type NHLClientOptions struct {
	BaseURL       string
	Timeout       time.Duration
	RateLimit     int // requests per second
	MaxAttempts   int
	Backoff       time.Duration
	CurrentSeason string

	CurrentSeasonTTL time.Duration
	HistoricalTTL    time.Duration
	StandingsTTL     time.Duration
}

// NHLClient fetches game logs, standings and player teams from the NHL web API
type NHLClient struct {
	baseURL    string
	httpClient *http.Client
	cache      CacheProvider
	limiter    *rate.Limiter
	breaker    BreakerExecutor
	logger     *logrus.Logger
	opts       NHLClientOptions
}

// NewNHLClient creates a new NHL API client. cache and breaker may be nil.
func NewNHLClient(opts NHLClientOptions, cache CacheProvider, breaker BreakerExecutor, logger *logrus.Logger) *NHLClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultNHLBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	if breaker == nil {
		breaker = passthroughBreaker{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &NHLClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateLimit),
		breaker: breaker,
		logger:  logger,
		opts:    opts,
	}
}

// NHL API response structures
type nhlLocalized struct {
	Default string `json:"default"`
}

type nhlGameLogResponse struct {
	GameLog []struct {
		GameID   int    `json:"gameId"`
		GameDate string `json:"gameDate"`
		Goals    int    `json:"goals"`
		Assists  int    `json:"assists"`
		Points   int    `json:"points"`
	} `json:"gameLog"`
}

type nhlStandingsResponse struct {
	StandingsDateTimeUTC string `json:"standingsDateTimeUtc"`
	Standings            []struct {
		TeamAbbrev   nhlLocalized `json:"teamAbbrev"`
		TeamName     nhlLocalized `json:"teamName"`
		Wins         int          `json:"wins"`
		Losses       int          `json:"losses"`
		OTLosses     int          `json:"otLosses"`
		GamesPlayed  int          `json:"gamesPlayed"`
		Points       int          `json:"points"`
		GoalsFor     int          `json:"goalFor"`
		GoalsAgainst int          `json:"goalAgainst"`
	} `json:"standings"`
}

type nhlPlayerLandingResponse struct {
	PlayerID          int    `json:"playerId"`
	CurrentTeamAbbrev string `json:"currentTeamAbbrev"`
}

type httpResult struct {
	status int
	body   []byte
}

// GetGameLog fetches a player's regular-season game log, sorted by date. A season the
// player did not play returns an empty log.
func (c *NHLClient) GetGameLog(ctx context.Context, playerID int, season string) ([]models.PlayerGameRecord, error) {
	cacheKey := fmt.Sprintf("nhl:gamelog:%d:%s", playerID, season)

	var cached []models.PlayerGameRecord
	if c.fromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	var resp nhlGameLogResponse
	path := fmt.Sprintf("/player/%d/game-log/%s/%d", playerID, season, regularSeasonGameType)
	err := c.makeRequest(ctx, path, &resp)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to fetch game log: %w", err)
	}

	logs := make([]models.PlayerGameRecord, 0, len(resp.GameLog))
	for _, g := range resp.GameLog {
		date, err := time.Parse("2006-01-02", g.GameDate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse game date %q for game %d: %w", g.GameDate, g.GameID, err)
		}
		logs = append(logs, models.PlayerGameRecord{
			PlayerID: playerID,
			GameID:   g.GameID,
			Date:     date,
			Goals:    g.Goals,
			Assists:  g.Assists,
			Points:   g.Points,
		})
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Date.Before(logs[j].Date)
	})

	ttl := c.opts.HistoricalTTL
	if season == c.opts.CurrentSeason {
		ttl = c.opts.CurrentSeasonTTL
	}
	c.toCache(ctx, cacheKey, logs, ttl)

	return logs, nil
}

// GetStandings fetches the current league standings keyed by team abbreviation
func (c *NHLClient) GetStandings(ctx context.Context) (map[string]models.TeamRecord, error) {
	cacheKey := "nhl:standings:now"

	var cached map[string]models.TeamRecord
	if c.fromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	var resp nhlStandingsResponse
	if err := c.makeRequest(ctx, "/standings/now", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch standings: %w", err)
	}

	updated, err := time.Parse(time.RFC3339, resp.StandingsDateTimeUTC)
	if err != nil {
		updated = time.Now().UTC()
	}

	teams := make(map[string]models.TeamRecord, len(resp.Standings))
	for _, s := range resp.Standings {
		id := s.TeamAbbrev.Default
		if id == "" {
			continue
		}
		teams[id] = models.TeamRecord{
			ID:           id,
			Name:         s.TeamName.Default,
			Wins:         s.Wins,
			Losses:       s.Losses,
			OTLosses:     s.OTLosses,
			GamesPlayed:  s.GamesPlayed,
			Points:       s.Points,
			GoalsFor:     s.GoalsFor,
			GoalsAgainst: s.GoalsAgainst,
			LastUpdated:  updated,
		}
	}
	if len(teams) == 0 {
		return nil, fmt.Errorf("failed to fetch standings: response listed no teams")
	}

	c.toCache(ctx, cacheKey, teams, c.opts.StandingsTTL)
	return teams, nil
}

// GetCurrentTeam returns the abbreviation of the player's current team
func (c *NHLClient) GetCurrentTeam(ctx context.Context, playerID int) (string, error) {
	cacheKey := fmt.Sprintf("nhl:team:%d", playerID)

	var cached string
	if c.fromCache(ctx, cacheKey, &cached) {
		return cached, nil
	}

	var resp nhlPlayerLandingResponse
	if err := c.makeRequest(ctx, fmt.Sprintf("/player/%d/landing", playerID), &resp); err != nil {
		return "", fmt.Errorf("failed to fetch player %d: %w", playerID, err)
	}
	if resp.CurrentTeamAbbrev == "" {
		return "", fmt.Errorf("player %d has no current team", playerID)
	}

	c.toCache(ctx, cacheKey, resp.CurrentTeamAbbrev, c.opts.StandingsTTL)
	return resp.CurrentTeamAbbrev, nil
}

func (c *NHLClient) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if c.cache == nil {
		return false
	}
	return c.cache.Get(ctx, key, dest) == nil
}

func (c *NHLClient) toCache(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, value, ttl); err != nil {
		c.logger.WithFields(logrus.Fields{
			"component": "nhl_client",
			"key":       key,
		}).WithError(err).Warn("Failed to cache response")
	}
}

// makeRequest performs a rate limited GET with exponential backoff. 5xx, 429 and
// transport errors are retried and count against the circuit breaker.
func (c *NHLClient) makeRequest(ctx context.Context, path string, target interface{}) error {
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt < c.opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			waitTime := c.opts.Backoff * time.Duration(1<<(attempt-1))
			c.logger.WithFields(logrus.Fields{
				"component": "nhl_client",
				"url":       url,
				"attempt":   attempt,
				"wait":      waitTime,
			}).WithError(lastErr).Warn("Request failed, retrying")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		out, err := c.breaker.Execute(breakerName, func() (interface{}, error) {
			return c.do(ctx, url)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return fmt.Errorf("nhl api unavailable: %w", err)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		res := out.(*httpResult)
		switch {
		case res.status == http.StatusNotFound:
			return ErrNotFound
		case res.status != http.StatusOK:
			return fmt.Errorf("unexpected status code %d from %s", res.status, url)
		}

		if err := json.Unmarshal(res.body, target); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", url, err)
		}
		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.opts.MaxAttempts, lastErr)
}

func (c *NHLClient) do(ctx context.Context, url string) (*httpResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("nhl api returned status %d", resp.StatusCode)
	}

	return &httpResult{status: resp.StatusCode, body: body}, nil
}
