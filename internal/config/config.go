// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/aristath/frontier/internal/modules/marketdata"
	"github.com/aristath/frontier/internal/modules/optimization"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for all databases (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	// Search defaults, overridable per request
	Trials         int
	RiskFreeRate   float64
	PeriodsPerYear int
	Seed           *uint64 // nil = fresh entropy per run
	Workers        int     // 0 = one per CPU
	Shrinkage      bool
	Lookback       int // number of most recent prices used per asset

	// Scheduled refresh of the watchlist, empty schedule disables it
	RefreshSchedule  string
	Watchlist        []string
	RunRetentionDays int // 0 keeps runs forever
}

// Load reads configuration from .env and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FRONTIER_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	seed, err := getEnvAsUint64Ptr("FRONTIER_SEED")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:          absDataDir,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Port:             getEnvAsInt("FRONTIER_PORT", 8010),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		Trials:           getEnvAsInt("FRONTIER_TRIALS", optimization.DefaultTrials),
		RiskFreeRate:     getEnvAsFloat("FRONTIER_RISK_FREE_RATE", optimization.DefaultRiskFreeRate),
		PeriodsPerYear:   getEnvAsInt("FRONTIER_PERIODS_PER_YEAR", optimization.DefaultPeriodsPerYear),
		Seed:             seed,
		Workers:          getEnvAsInt("FRONTIER_WORKERS", 0),
		Shrinkage:        getEnvAsBool("FRONTIER_SHRINKAGE", false),
		Lookback:         getEnvAsInt("FRONTIER_LOOKBACK", 365),
		RefreshSchedule:  getEnv("FRONTIER_REFRESH_SCHEDULE", ""),
		Watchlist:        marketdata.ParseSymbols(getEnv("FRONTIER_WATCHLIST", "")),
		RunRetentionDays: getEnvAsInt("FRONTIER_RUN_RETENTION_DAYS", 30),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchConfig returns the search defaults as an optimization.SearchConfig
func (c *Config) SearchConfig() optimization.SearchConfig {
	return optimization.SearchConfig{
		Trials:         c.Trials,
		RiskFreeRate:   c.RiskFreeRate,
		PeriodsPerYear: c.PeriodsPerYear,
		Seed:           c.Seed,
		Workers:        c.Workers,
	}
}

// Validate checks value ranges. Errors wrap optimization.ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: FRONTIER_PORT %d out of range", optimization.ErrInvalidConfig, c.Port)
	}
	if err := c.SearchConfig().Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: FRONTIER_WORKERS must not be negative", optimization.ErrInvalidConfig)
	}
	if c.Lookback < 0 {
		return fmt.Errorf("%w: FRONTIER_LOOKBACK must not be negative", optimization.ErrInvalidConfig)
	}
	if c.RunRetentionDays < 0 {
		return fmt.Errorf("%w: FRONTIER_RUN_RETENTION_DAYS must not be negative", optimization.ErrInvalidConfig)
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return fmt.Errorf("%w: FRONTIER_REFRESH_SCHEDULE: %v", optimization.ErrInvalidConfig, err)
		}
		if len(c.Watchlist) == 0 {
			return fmt.Errorf("%w: FRONTIER_REFRESH_SCHEDULE requires FRONTIER_WATCHLIST", optimization.ErrInvalidConfig)
		}
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

func getEnvAsUint64Ptr(key string) (*uint64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q is not an unsigned integer", optimization.ErrInvalidConfig, key, value)
	}
	return &parsed, nil
}
