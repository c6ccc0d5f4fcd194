package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"somaticfilter/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Lookup   LookupConfig
	Database DatabaseConfig
}

// LookupConfig holds external annotation service settings
type LookupConfig struct {
	// EnsemblBaseURL is the Ensembl REST endpoint
	EnsemblBaseURL string
	// EutilsBaseURL is the NCBI eutils endpoint used for ClinVar
	EutilsBaseURL string
	// Timeout bounds each individual HTTP lookup
	Timeout time.Duration
	// Delay is the politeness pause between per-record lookup batches
	Delay time.Duration
}

// DatabaseConfig holds the optional annotation cache connection.
// An empty URL disables caching; the pipeline works without it.
type DatabaseConfig struct {
	URL string
}

// Load reads configuration from environment variables, after loading a
// .env file when one is present, and validates it.
func Load() (*Config, error) {
	// Missing .env is fine; explicit environment wins either way
	_ = godotenv.Load()

	config := &Config{
		Lookup: LookupConfig{
			EnsemblBaseURL: getEnvOrDefault("ENSEMBL_BASE_URL", "https://rest.ensembl.org"),
			EutilsBaseURL:  getEnvOrDefault("EUTILS_BASE_URL", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"),
			Timeout:        time.Duration(getEnvIntOrDefault("LOOKUP_TIMEOUT_MS", 10000)) * time.Millisecond,
			Delay:          time.Duration(getEnvIntOrDefault("LOOKUP_DELAY_MS", 500)) * time.Millisecond,
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Lookup.EnsemblBaseURL == "" {
		return errors.ConfigInvalid("Ensembl base URL is required")
	}
	if config.Lookup.EutilsBaseURL == "" {
		return errors.ConfigInvalid("eutils base URL is required")
	}
	if config.Lookup.Timeout <= 0 {
		return errors.ConfigInvalid("lookup timeout must be positive")
	}
	if config.Lookup.Delay < 0 {
		return errors.ConfigInvalid("lookup delay cannot be negative")
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
