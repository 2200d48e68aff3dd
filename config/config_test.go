package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/libtrack-go/config"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "library")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "libtrack")
	t.Setenv("JWT_SECRET", "jwt-secret")
}

func Test_LoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10, cfg.Database.PoolSize)
	assert.Equal(t, "./migrations", cfg.Database.MigrationsPath)
	assert.Equal(t, 720*time.Hour, cfg.Auth.TokenDuration)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func Test_LoadConfig_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6432")
	t.Setenv("DB_POOL_SIZE", "25")
	t.Setenv("JWT_TOKEN_DURATION", "15m")
	t.Setenv("PORT", "9090")
	t.Setenv("MIGRATIONS_PATH", "/srv/migrations")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.PoolSize)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenDuration)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "/srv/migrations", cfg.Database.MigrationsPath)
}

func Test_LoadConfig_CollectsAllMalformedValues(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("JWT_TOKEN_DURATION", "soon")

	_, err := config.LoadConfig()
	// Both problems are reported in one pass.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PORT")
	assert.Contains(t, err.Error(), "JWT_TOKEN_DURATION")
}

func Test_LoadConfig_MissingRequiredVariable(t *testing.T) {
	setRequiredEnv(t)
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := config.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func Test_LoadConfig_ClampsPoolSize(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_POOL_SIZE", "500")

	_, err := config.LoadConfig()
	// Clamping is reported as a configuration error so misconfiguration is
	// never silent.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_POOL_SIZE")
}
