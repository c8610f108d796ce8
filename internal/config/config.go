// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Price sources understood by the server.
const (
	PriceSourceYahoo  = "yahoo"
	PriceSourceStatic = "static"
)

// Config holds application configuration
type Config struct {
	Port             int
	LogLevel         string
	LogPretty        bool
	DevMode          bool
	DataDir          string // Base directory for the history database and backup staging (always absolute)
	RefreshInterval  time.Duration
	PortfoliosFile   string // Optional JSON holdings file; empty means the built-in portfolios
	PriceSource      string
	StaticPricesFile string
	Currency         string // ISO 4217 code used for display strings

	HistoryEnabled       bool
	HistoryRetentionDays int

	Backup *BackupConfig
}

// BackupConfig holds off-site backup settings (Cloudflare R2 or any S3-compatible store)
type BackupConfig struct {
	AccountID       string
	Endpoint        string // Overrides the R2 endpoint derived from AccountID
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	RetentionDays   int
}

// Enabled reports whether enough settings are present to talk to the bucket.
func (b *BackupConfig) Enabled() bool {
	if b == nil {
		return false
	}
	return b.AccessKeyID != "" && b.SecretAccessKey != "" && b.Bucket != "" &&
		(b.Endpoint != "" || b.AccountID != "")
}

// ResolvedEndpoint returns the S3 endpoint URL for the bucket.
func (b *BackupConfig) ResolvedEndpoint() string {
	if b.Endpoint != "" {
		return b.Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", b.AccountID)
}

// HistoryDBPath returns the location of the history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir, err := filepath.Abs(getEnv("DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	interval, err := getEnvAsDuration("REFRESH_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:                 getEnvAsInt("PORT", 8050),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogPretty:            getEnvAsBool("LOG_PRETTY", true),
		DevMode:              getEnvAsBool("DEV_MODE", false),
		DataDir:              dataDir,
		RefreshInterval:      interval,
		PortfoliosFile:       getEnv("PORTFOLIOS_FILE", ""),
		PriceSource:          strings.ToLower(getEnv("PRICE_SOURCE", PriceSourceYahoo)),
		StaticPricesFile:     getEnv("STATIC_PRICES_FILE", ""),
		Currency:             strings.ToUpper(getEnv("CURRENCY", "INR")),
		HistoryEnabled:       getEnvAsBool("HISTORY_ENABLED", true),
		HistoryRetentionDays: getEnvAsInt("HISTORY_RETENTION_DAYS", 30),
		Backup: &BackupConfig{
			AccountID:       getEnv("R2_ACCOUNT_ID", ""),
			Endpoint:        getEnv("R2_ENDPOINT", ""),
			AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("R2_BUCKET", ""),
			RetentionDays:   getEnvAsInt("R2_RETENTION_DAYS", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.HistoryEnabled {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

// Validate checks the loaded values for consistency
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL must be positive, got %s", c.RefreshInterval)
	}
	switch c.PriceSource {
	case PriceSourceYahoo:
	case PriceSourceStatic:
		if c.StaticPricesFile == "" {
			return fmt.Errorf("PRICE_SOURCE=static requires STATIC_PRICES_FILE")
		}
	default:
		return fmt.Errorf("unknown PRICE_SOURCE %q (want %s or %s)", c.PriceSource, PriceSourceYahoo, PriceSourceStatic)
	}
	if c.HistoryRetentionDays < 0 {
		return fmt.Errorf("HISTORY_RETENTION_DAYS must not be negative")
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

// getEnvAsDuration accepts Go durations ("5s") and bare seconds ("5").
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
