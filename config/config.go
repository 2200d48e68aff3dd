// Package config loads and validates application configuration from
// environment variables. Loading is collective: every missing or malformed
// variable is recorded and reported in a single error, so an operator sees
// the full list instead of fixing one variable per restart.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig holds the settings for the PostgreSQL connection pool.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	PoolSize int
	// MigrationsPath is the directory containing the SQL migration files.
	MigrationsPath string
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret     string        // Secret key for signing JWTs
	TokenDuration time.Duration // Lifetime of issued tokens
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Database *DatabaseConfig
	Auth     *AuthConfig
	Server   *ServerConfig
}

// getRequiredEnv reads a required environment variable, recording an error
// when it is absent.
func getRequiredEnv(key string, errs *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		*errs = append(*errs, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// getOptionalEnv reads an environment variable, falling back to defaultValue.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getOptionalEnvInt reads an environment variable as an int. A parse failure
// is recorded and the default is used.
func getOptionalEnvInt(key string, defaultValue int, errs *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// getOptionalEnvDuration reads an environment variable as a time.Duration
// ("15m", "720h", ...). A parse failure is recorded and the default is used.
func getOptionalEnvDuration(key string, defaultValue time.Duration, errs *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// clampPoolSize keeps the pool size within [2, 100], recording a note when
// the configured value had to be adjusted.
func clampPoolSize(size int, errs *[]string) int {
	if size < 2 {
		*errs = append(*errs, fmt.Sprintf("DB_POOL_SIZE (%d) is less than minimum 2, clamping to 2", size))
		return 2
	}
	if size > 100 {
		*errs = append(*errs, fmt.Sprintf("DB_POOL_SIZE (%d) is greater than maximum 100, clamping to 100", size))
		return 100
	}
	return size
}

// LoadConfig reads and validates all configuration from the environment.
// It returns an aggregated error listing every problem encountered.
func LoadConfig() (*AppConfig, error) {
	var errs []string

	// Database settings.
	dbUser := getRequiredEnv("DB_USER", &errs)
	dbPassword := getRequiredEnv("DB_PASSWORD", &errs)
	dbName := getRequiredEnv("DB_NAME", &errs)
	dbHost := getOptionalEnv("DB_HOST", "localhost")
	dbPort := getOptionalEnvInt("DB_PORT", 5432, &errs)
	poolSize := clampPoolSize(getOptionalEnvInt("DB_POOL_SIZE", 10, &errs), &errs)
	migrationsPath := getOptionalEnv("MIGRATIONS_PATH", "./migrations")

	database := &DatabaseConfig{
		Host:           dbHost,
		Port:           dbPort,
		User:           dbUser,
		Password:       dbPassword,
		DBName:         dbName,
		PoolSize:       poolSize,
		MigrationsPath: migrationsPath,
	}

	// Auth settings. The default token lifetime is 30 days.
	jwtSecret := getRequiredEnv("JWT_SECRET", &errs)
	tokenDuration := getOptionalEnvDuration("JWT_TOKEN_DURATION", 720*time.Hour, &errs)

	auth := &AuthConfig{
		JWTSecret:     jwtSecret,
		TokenDuration: tokenDuration,
	}

	// Server settings.
	server := &ServerConfig{
		Port: getOptionalEnv("PORT", "8080"),
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errs, "\n- "))
	}

	return &AppConfig{
		Database: database,
		Auth:     auth,
		Server:   server,
	}, nil
}
