package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmtsync/gmt/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, config.DefaultRequestInterval, cfg.RequestInterval)
	assert.Equal(t, config.DefaultDisallowedBucket, cfg.DisallowedBucket)
	assert.Equal(t, config.DefaultHiringBucketHint, cfg.HiringBucketHint)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GETMYTIME_USERNAME", "someone")
	t.Setenv("GETMYTIME_PASSWORD", "hunter2")
	t.Setenv("GETMYTIME_BASE_URL", "http://localhost:8080")
	t.Setenv("GETMYTIME_REQUEST_INTERVAL", "2s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "someone", cfg.Username)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.RequestInterval)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRequiresCredentials(t *testing.T) {
	err := config.Config{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GETMYTIME_USERNAME")

	err = config.Config{Username: "someone"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GETMYTIME_PASSWORD")
}
