package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("CHARGEAMPS_USERNAME", "user@example.com")
	t.Setenv("CHARGEAMPS_PASSWORD", "hunter2")
	t.Setenv("CHARGEAMPS_API_KEY", "key123")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, ":8034", cfg.ListenAddr)
	assert.Empty(t, cfg.ChargePointIDs)
	assert.Empty(t, cfg.APIURL)
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("CHARGEAMPS_USERNAME", "user@example.com")
	t.Setenv("CHARGEAMPS_PASSWORD", "")
	t.Setenv("CHARGEAMPS_API_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadURL(t *testing.T) {
	setRequired(t)
	t.Setenv("CHARGEAMPS_API_URL", "not a url")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadChargePointList(t *testing.T) {
	setRequired(t)
	t.Setenv("CHARGEAMPS_CHARGEPOINTS", "cp1, cp2 ,,cp3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"cp1", "cp2", "cp3"}, cfg.ChargePointIDs)
}

func TestLoadPollInterval(t *testing.T) {
	setRequired(t)
	t.Setenv("CHARGEAMPS_POLL_INTERVAL", "45s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.PollInterval)
}

func TestLoadBadPollIntervalFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("CHARGEAMPS_POLL_INTERVAL", "banana")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
}
