package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port            int
	DatabasePath    string
	LogLevel        string
	DevMode         bool
	RiskFreeRate    float64       // annual, as decimal
	RefreshSchedule string        // cron spec for the market refresh job
	FetchBatchSize  int           // symbols per fetch wave
	FetchBatchDelay time.Duration // pause between waves
	HistoryRange    string        // yahoo range for close series
	ForexCacheTTL   time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvAsInt("PORT", 8080),
		DatabasePath:    getEnv("DATABASE_PATH", "./data/foliotrack.db"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		RiskFreeRate:    getEnvAsFloat("RISK_FREE_RATE", 0.02),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "0 */5 * * * *"), // every 5 minutes
		FetchBatchSize:  getEnvAsInt("FETCH_BATCH_SIZE", 5),
		FetchBatchDelay: getEnvAsDuration("FETCH_BATCH_DELAY", time.Second),
		HistoryRange:    getEnv("HISTORY_RANGE", "1y"),
		ForexCacheTTL:   getEnvAsDuration("FOREX_CACHE_TTL", 5*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}

	if c.FetchBatchSize <= 0 {
		return fmt.Errorf("FETCH_BATCH_SIZE must be positive")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}
