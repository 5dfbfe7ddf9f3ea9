package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Storage
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	RedisURL     string `mapstructure:"REDIS_URL"`
	CacheBackend string `mapstructure:"CACHE_BACKEND"` // "disk", "redis", "none"

	// NHL API
	NHLAPIBaseURL           string        `mapstructure:"NHL_API_BASE_URL"`
	NHLRateLimit            int           `mapstructure:"NHL_RATE_LIMIT"` // requests per second
	ExternalAPITimeout      time.Duration `mapstructure:"EXTERNAL_API_TIMEOUT"`
	CircuitBreakerThreshold int           `mapstructure:"CIRCUIT_BREAKER_THRESHOLD"`
	CurrentSeasonCacheTTL   time.Duration `mapstructure:"CURRENT_SEASON_CACHE_TTL"`
	HistoricalCacheTTL      time.Duration `mapstructure:"HISTORICAL_CACHE_TTL"`
	StandingsCacheTTL       time.Duration `mapstructure:"STANDINGS_CACHE_TTL"`

	// Season
	RosterFile    string `mapstructure:"ROSTER_FILE"`
	Season        string `mapstructure:"SEASON"`
	PriorSeasons  int    `mapstructure:"PRIOR_SEASONS"`
	GamesInSeason int    `mapstructure:"GAMES_IN_SEASON"`

	// Simulation
	ScoreType          string `mapstructure:"SCORE_TYPE"`
	Simulations        int    `mapstructure:"SIMULATIONS"`
	MaxSimulations     int    `mapstructure:"MAX_SIMULATIONS"`
	SimulationWorkers  int    `mapstructure:"SIMULATION_WORKERS"`
	SimulationSeed     int64  `mapstructure:"SIMULATION_SEED"`
	SimulationSchedule string `mapstructure:"SIMULATION_SCHEDULE"`
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	setDefaults(v)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")

	v.SetDefault("DATABASE_URL", "sqlite://richard-sim.db")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("CACHE_BACKEND", "disk")

	v.SetDefault("NHL_API_BASE_URL", "https://api-web.nhle.com/v1")
	v.SetDefault("NHL_RATE_LIMIT", 5)
	v.SetDefault("EXTERNAL_API_TIMEOUT", "10s")
	v.SetDefault("CIRCUIT_BREAKER_THRESHOLD", 5)
	v.SetDefault("CURRENT_SEASON_CACHE_TTL", "6h")
	v.SetDefault("HISTORICAL_CACHE_TTL", "720h") // finished seasons do not change
	v.SetDefault("STANDINGS_CACHE_TTL", "1h")

	v.SetDefault("ROSTER_FILE", "nhl_player_ids.csv")
	v.SetDefault("SEASON", "20232024")
	v.SetDefault("PRIOR_SEASONS", 1)
	v.SetDefault("GAMES_IN_SEASON", 82)

	v.SetDefault("SCORE_TYPE", "goals")
	v.SetDefault("SIMULATIONS", 10000)
	v.SetDefault("MAX_SIMULATIONS", 100000)
	v.SetDefault("SIMULATION_WORKERS", 4)
	v.SetDefault("SIMULATION_SEED", 0) // 0 picks a time-based seed per run
	v.SetDefault("SIMULATION_SCHEDULE", "@every 6h")
}

// Validate rejects settings no run could succeed with
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case "disk", "redis", "none":
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q: expected disk, redis or none", c.CacheBackend)
	}
	if len(c.Season) != 8 {
		return fmt.Errorf("invalid SEASON %q: expected a form like 20232024", c.Season)
	}
	if c.PriorSeasons < 0 {
		return fmt.Errorf("invalid PRIOR_SEASONS %d", c.PriorSeasons)
	}
	if c.GamesInSeason <= 0 {
		return fmt.Errorf("invalid GAMES_IN_SEASON %d", c.GamesInSeason)
	}
	if c.Simulations <= 0 || c.Simulations > c.MaxSimulations {
		return fmt.Errorf("invalid SIMULATIONS %d: must be in [1, %d]", c.Simulations, c.MaxSimulations)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
