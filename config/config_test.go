package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./data/apartments.csv", cfg.DatasetPath)
	assert.Equal(t, int64(42), cfg.RandomSeed)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.PostgresEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATASET_PATH", "/srv/listings.csv")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/listings.csv", cfg.DatasetPath)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.True(t, cfg.PostgresEnabled())
	assert.Contains(t, cfg.DSN(), "host=db")
	assert.Contains(t, cfg.DSN(), "password=secret")
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}
