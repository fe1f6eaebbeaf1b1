package config

import (
	"os"
	"strconv"
	"time"

	"goimpute/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Imputation ImputationConfig
	Paths      PathConfig
}

// DatabaseConfig holds database connection settings. URL is optional: with no
// DATABASE_URL the application falls back to the in-memory ledger.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// ImputationConfig holds the defaults for imputation procedures
type ImputationConfig struct {
	Runs            int
	MinTrainingRows int
	FitTimeout      time.Duration
	MaxParallel     int
	PriorPrecision  float64
	Seed            int64
}

// PathConfig holds file system paths
type PathConfig struct {
	DatasetFile string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     getEnvOrDefault("DATABASE_URL", ""),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", "8080"),
			ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Imputation: ImputationConfig{
			Runs:            getEnvIntOrDefault("IMPUTE_RUNS", 3),
			MinTrainingRows: getEnvIntOrDefault("IMPUTE_MIN_TRAIN", 3),
			FitTimeout:      getEnvDurationOrDefault("IMPUTE_FIT_TIMEOUT", 30*time.Second),
			MaxParallel:     getEnvIntOrDefault("IMPUTE_MAX_PARALLEL", 0),
			PriorPrecision:  getEnvFloatOrDefault("IMPUTE_PRIOR_PRECISION", 1e-2),
			Seed:            int64(getEnvIntOrDefault("IMPUTE_SEED", 0)),
		},
		Paths: PathConfig{
			DatasetFile: getEnvOrDefault("DATASET_FILE", ""),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Imputation.Runs < 1 {
		return errors.ConfigInvalid("IMPUTE_RUNS must be at least 1")
	}
	if config.Imputation.MinTrainingRows < 1 {
		return errors.ConfigInvalid("IMPUTE_MIN_TRAIN must be at least 1")
	}
	if config.Imputation.PriorPrecision <= 0 {
		return errors.ConfigInvalid("IMPUTE_PRIOR_PRECISION must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
