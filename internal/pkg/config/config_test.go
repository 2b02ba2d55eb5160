package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.False(t, cfg.EnablePersistentJobStore)
	assert.Equal(t, 86400*time.Second, cfg.PersistentStoreTTL)
	assert.Equal(t, 15*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 90*time.Second, cfg.StaleRunningThreshold)
	assert.Equal(t, 5000*time.Millisecond, cfg.CacheGuardTimeout)
	assert.Equal(t, 200, cfg.StreetSearch.ExactRadiusMeters)
	assert.Equal(t, 400, cfg.StreetSearch.NearbyRadiusMeters)
	assert.Equal(t, 250*time.Millisecond, cfg.IntentRetryBackoff)
	assert.Equal(t, 5000*time.Millisecond, cfg.IdempotencyFreshWindow)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, "", cfg.PlacesBaseURL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENABLE_PERSISTENT_JOB_STORE", "true")
	t.Setenv("CACHE_GUARD_TIMEOUT_MS", "1200")
	t.Setenv("STREET_SEARCH_EXACT_RADIUS", "150")

	cfg := Load()
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.True(t, cfg.EnablePersistentJobStore)
	assert.Equal(t, 1200*time.Millisecond, cfg.CacheGuardTimeout)
	assert.Equal(t, 150, cfg.StreetSearch.ExactRadiusMeters)
}

func TestGetEnvIntOrDefault_InvalidFallsBack(t *testing.T) {
	t.Setenv("STREET_SEARCH_MIN_EXACT_RESULTS", "not-a-number")
	cfg := Load()
	assert.Equal(t, 1, cfg.StreetSearch.MinExactResults)
}

func TestGetEnvOrDefault_EmptyUsesDefault(t *testing.T) {
	require := os.Getenv("REDIS_ADDR")
	assert.Equal(t, "", require)
	cfg := Load()
	assert.Equal(t, "", cfg.RedisAddr)
}
