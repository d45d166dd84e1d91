package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENV", "LOG_LEVEL", "TELEGRAM_TOKEN", "STORAGE_DRIVER", "DB_DSN", "MIGRATIONS_DIR",
		"LOCK_TIMEOUT", "MATCH_HORIZON", "MATCH_TIMEZONE", "HTTP_ADDR", "RATE_LIMIT_PER_MINUTE",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DSN", "postgres://localhost/lessons")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 3*time.Second, cfg.LockTimeout)
	assert.Equal(t, 365*24*time.Hour, cfg.MatchHorizon)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.False(t, cfg.IsProduction())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestFromEnv_PostgresRequiresDSN(t *testing.T) {
	clearEnv(t)

	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", StorageDriverMemory)
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("LOCK_TIMEOUT", "750ms")
	t.Setenv("MATCH_HORIZON", "720h")
	t.Setenv("MATCH_TIMEZONE", "Europe/Moscow")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 750*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, 720*time.Hour, cfg.MatchHorizon)
	assert.Equal(t, 0, cfg.RateLimitPerMinute)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"bad driver", "STORAGE_DRIVER", "mongo"},
		{"bad env", "ENV", "staging"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad duration", "LOCK_TIMEOUT", "soon"},
		{"zero lock timeout", "LOCK_TIMEOUT", "0s"},
		{"bad timezone", "MATCH_TIMEZONE", "Mars/Olympus"},
		{"bad rate", "RATE_LIMIT_PER_MINUTE", "many"},
		{"negative rate", "RATE_LIMIT_PER_MINUTE", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("STORAGE_DRIVER", StorageDriverMemory)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
