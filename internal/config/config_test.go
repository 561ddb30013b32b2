package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/survey"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "GIN_MODE", "LOG_LEVEL", "DATASET_SOURCE", "DATA_DIR", "REDIS_ADDR", "REDIS_DB", "CACHE_TTL", "RATE_LIMIT_PER_MIN", "ALLOWED_ORIGINS", "PRIORITY_HIGH_AT", "PRIORITY_MEDIUM_AT", "ENABLE_HSTS", "REQUEST_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, SourceEmbedded, cfg.DatasetSource)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, survey.DefaultPriorityPolicy(), cfg.Policy())
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.False(t, cfg.EnableHSTS)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DATASET_SOURCE", SourceSQLite)
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("RATE_LIMIT_PER_MIN", "0")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("PRIORITY_HIGH_AT", "70")
	t.Setenv("PRIORITY_MEDIUM_AT", "30.5")
	t.Setenv("ENABLE_HSTS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, SourceSQLite, cfg.DatasetSource)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 0, cfg.RateLimitPerMin)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 70.0, cfg.Policy().HighAt)
	assert.Equal(t, 30.5, cfg.Policy().MediumAt)
	assert.True(t, cfg.EnableHSTS)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		contains string
	}{
		{"non numeric port", "PORT", "http", "Port"},
		{"bad gin mode", "GIN_MODE", "fast", "GinMode"},
		{"bad log level", "LOG_LEVEL", "trace", "LogLevel"},
		{"redis db not int", "REDIS_DB", "one", "REDIS_DB"},
		{"bad duration", "CACHE_TTL", "soon", "CACHE_TTL"},
		{"negative rate limit", "RATE_LIMIT_PER_MIN", "-5", "RateLimitPerMin"},
		{"high below medium", "PRIORITY_HIGH_AT", "10", "PriorityHighAt"},
		{"threshold above 100", "PRIORITY_MEDIUM_AT", "101", "PriorityMediumAt"},
		{"redis addr without port", "REDIS_ADDR", "localhost", "RedisAddr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
