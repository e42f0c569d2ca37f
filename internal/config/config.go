package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/utakatalp/fantasy-forecast/internal/pipeline"
	"github.com/utakatalp/fantasy-forecast/internal/predict"
	"github.com/utakatalp/fantasy-forecast/internal/rating"
)

type Config struct {
	Env       string `mapstructure:"ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	Port      string `mapstructure:"PORT"`

	// Fantasy API
	APIBaseURL        string        `mapstructure:"API_BASE_URL"`
	SquadID           int           `mapstructure:"SQUAD_ID"`
	HTTPTimeout       time.Duration `mapstructure:"HTTP_TIMEOUT"`
	FetchWorkers      int           `mapstructure:"FETCH_WORKERS"`
	RequestsPerSecond float64       `mapstructure:"REQUESTS_PER_SECOND"`

	// Storage
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	RedisURL    string        `mapstructure:"REDIS_URL"`
	CacheTTL    time.Duration `mapstructure:"CACHE_TTL"`
	DataDir     string        `mapstructure:"DATA_DIR"`

	// Model
	InitialEloFile  string  `mapstructure:"INITIAL_ELO_FILE"`
	DefaultElo      float64 `mapstructure:"DEFAULT_ELO"`
	EloK            float64 `mapstructure:"ELO_K"`
	TeamFormDecay   float64 `mapstructure:"TEAM_FORM_DECAY"`
	PlayerFormDecay float64 `mapstructure:"PLAYER_FORM_DECAY"`
	FitWarmupRounds int     `mapstructure:"FIT_WARMUP_ROUNDS"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("PORT", "8080")

	v.SetDefault("API_BASE_URL", "https://fantasy.eliteserien.no/api/")
	v.SetDefault("SQUAD_ID", 0)
	v.SetDefault("HTTP_TIMEOUT", "20s")
	v.SetDefault("FETCH_WORKERS", 6)
	v.SetDefault("REQUESTS_PER_SECOND", 5.0)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CACHE_TTL", "1h")
	v.SetDefault("DATA_DIR", "data")

	v.SetDefault("INITIAL_ELO_FILE", "initial_elo.csv")
	v.SetDefault("DEFAULT_ELO", 1000.0)
	v.SetDefault("ELO_K", 30.0)
	v.SetDefault("TEAM_FORM_DECAY", 0.6)
	v.SetDefault("PLAYER_FORM_DECAY", 0.6)
	v.SetDefault("FIT_WARMUP_ROUNDS", 3)
}

// Load reads defaults, an optional .env file and the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	setDefaults(v)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// InitialEloPath resolves INITIAL_ELO_FILE against DATA_DIR.
func (c *Config) InitialEloPath() string {
	if filepath.IsAbs(c.InitialEloFile) {
		return c.InitialEloFile
	}
	return filepath.Join(c.DataDir, c.InitialEloFile)
}

func (c *Config) RatingOptions() rating.Options {
	return rating.Options{
		K:               c.EloK,
		DefaultElo:      c.DefaultElo,
		TeamFormDecay:   c.TeamFormDecay,
		PlayerFormDecay: c.PlayerFormDecay,
	}
}

func (c *Config) PredictOptions() predict.Options {
	opts := predict.DefaultOptions()
	opts.WarmupRounds = c.FitWarmupRounds
	return opts
}

func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{Rating: c.RatingOptions(), Predict: c.PredictOptions()}
}
