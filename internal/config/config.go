// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/chorejar/internal/backup"
	"github.com/dukerupert/chorejar/internal/logging"
)

// Config holds all configuration for the application.
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	GitHubToken string
	GitHubOwner string
	GitHubRepo  string

	S3               backup.S3Config
	BackupPassphrase string
	BackupInterval   time.Duration
	BackupRetention  time.Duration
}

// Load reads configuration from environment variables, after loading a .env
// file when one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getenv("CHOREJAR_PORT", "8080"),
		DBPath:      getenv("CHOREJAR_DB_PATH", "chorejar.db"),
		LogLevel:    getenv("CHOREJAR_LOG_LEVEL", "info"),
		LogFormat:   getenv("CHOREJAR_LOG_FORMAT", "text"),
		GitHubToken: os.Getenv("GITHUB_TOKEN"),
		GitHubOwner: getenv("GITHUB_REPO_OWNER", "rodlunt"),
		GitHubRepo:  getenv("GITHUB_REPO_NAME", "choresandrewardsV2"),
		S3: backup.S3Config{
			Endpoint:  os.Getenv("CHOREJAR_S3_ENDPOINT"),
			Bucket:    os.Getenv("CHOREJAR_S3_BUCKET"),
			Region:    getenv("CHOREJAR_S3_REGION", "auto"),
			AccessKey: os.Getenv("CHOREJAR_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("CHOREJAR_S3_SECRET_KEY"),
		},
		BackupPassphrase: os.Getenv("CHOREJAR_BACKUP_PASSPHRASE"),
		BackupInterval:   24 * time.Hour,
		BackupRetention:  30 * 24 * time.Hour,
	}

	var errs []string
	if v := os.Getenv("CHOREJAR_BACKUP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("CHOREJAR_BACKUP_INTERVAL %q is not a duration", v))
		}
		cfg.BackupInterval = d
	}
	if v := os.Getenv("CHOREJAR_BACKUP_RETENTION_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			errs = append(errs, fmt.Sprintf("CHOREJAR_BACKUP_RETENTION_DAYS %q must be a non-negative integer", v))
		}
		cfg.BackupRetention = time.Duration(days) * 24 * time.Hour
	}

	if err := cfg.validate(errs); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks the loaded values, reporting every problem at once.
func (c *Config) validate(errs []string) error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("CHOREJAR_PORT %q must be a port number", c.Port))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, "CHOREJAR_DB_PATH must not be empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, "CHOREJAR_LOG_LEVEL: "+err.Error())
	}
	if !logging.ValidFormat(c.LogFormat) {
		errs = append(errs, fmt.Sprintf("CHOREJAR_LOG_FORMAT %q must be text or json", c.LogFormat))
	}
	if c.BackupInterval < 0 {
		errs = append(errs, "CHOREJAR_BACKUP_INTERVAL must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// GitHubConfigured reports whether bug reports can be relayed.
func (c *Config) GitHubConfigured() bool {
	return c.GitHubToken != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
