package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/fantasy-forecast/internal/rating"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 20*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 6, cfg.FetchWorkers)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, filepath.Join("data", "initial_elo.csv"), cfg.InitialEloPath())
	assert.Equal(t, rating.DefaultOptions(), cfg.RatingOptions())
	assert.Equal(t, 3, cfg.PredictOptions().WarmupRounds)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SQUAD_ID", "1234")
	t.Setenv("ELO_K", "20")
	t.Setenv("TEAM_FORM_DECAY", "0.5")
	t.Setenv("FIT_WARMUP_ROUNDS", "1")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("INITIAL_ELO_FILE", "/etc/forecast/elo.csv")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 1234, cfg.SquadID)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "/etc/forecast/elo.csv", cfg.InitialEloPath())

	opts := cfg.PipelineOptions()
	assert.Equal(t, 20.0, opts.Rating.K)
	assert.Equal(t, 0.5, opts.Rating.TeamFormDecay)
	assert.Equal(t, 0.6, opts.Rating.PlayerFormDecay)
	assert.Equal(t, 1, opts.Predict.WarmupRounds)
	assert.NoError(t, opts.Rating.Validate())
}
