package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "8080", cfg.Port)
		require.Equal(t, "chorejar.db", cfg.DBPath)
		require.Equal(t, "rodlunt", cfg.GitHubOwner)
		require.Equal(t, "choresandrewardsV2", cfg.GitHubRepo)
		require.Equal(t, "auto", cfg.S3.Region)
		require.Equal(t, 24*time.Hour, cfg.BackupInterval)
		require.False(t, cfg.GitHubConfigured())
	})

	t.Run("reads env", func(t *testing.T) {
		t.Setenv("CHOREJAR_PORT", "9090")
		t.Setenv("CHOREJAR_DB_PATH", "/tmp/jar.db")
		t.Setenv("GITHUB_TOKEN", "ghp_test")
		t.Setenv("CHOREJAR_S3_BUCKET", "jar")
		t.Setenv("CHOREJAR_BACKUP_INTERVAL", "6h")
		t.Setenv("CHOREJAR_BACKUP_RETENTION_DAYS", "7")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, "9090", cfg.Port)
		require.Equal(t, "/tmp/jar.db", cfg.DBPath)
		require.True(t, cfg.GitHubConfigured())
		require.Equal(t, "jar", cfg.S3.Bucket)
		require.Equal(t, 6*time.Hour, cfg.BackupInterval)
		require.Equal(t, 7*24*time.Hour, cfg.BackupRetention)
	})

	t.Run("collects every problem", func(t *testing.T) {
		t.Setenv("CHOREJAR_PORT", "not-a-port")
		t.Setenv("CHOREJAR_BACKUP_INTERVAL", "soon")
		t.Setenv("CHOREJAR_BACKUP_RETENTION_DAYS", "-1")
		t.Setenv("CHOREJAR_LOG_LEVEL", "verbose")
		t.Setenv("CHOREJAR_LOG_FORMAT", "xml")

		_, err := Load()
		require.Error(t, err)
		require.Contains(t, err.Error(), "CHOREJAR_PORT")
		require.Contains(t, err.Error(), "CHOREJAR_BACKUP_INTERVAL")
		require.Contains(t, err.Error(), "CHOREJAR_BACKUP_RETENTION_DAYS")
		require.Contains(t, err.Error(), "CHOREJAR_LOG_LEVEL")
		require.Contains(t, err.Error(), "CHOREJAR_LOG_FORMAT")
	})

	t.Run("rejects out of range port", func(t *testing.T) {
		t.Setenv("CHOREJAR_PORT", "70000")

		_, err := Load()
		require.ErrorContains(t, err, "CHOREJAR_PORT")
	})
}
