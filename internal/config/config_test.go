package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_SchedulerSection(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  path: ./data/test.db
scheduler:
  enabled: true
  interval: 2m
  batch_size: 25
  max_run_interval: 45s
  lock_buffer: 15s
  expirable_statuses: [Active, Inactive]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "./data/test.db", cfg.Database.Path)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 25, cfg.Scheduler.BatchSize)
	assert.Equal(t, 45*time.Second, cfg.Scheduler.MaxRunInterval)
	assert.Equal(t, 15*time.Second, cfg.Scheduler.LockBuffer)
	assert.Equal(t, []string{"Active", "Inactive"}, cfg.Scheduler.ExpirableStatuses)
	// 未配置的项使用默认值
	assert.Equal(t, "jobs:expire-action-links", cfg.Scheduler.LockKey)
	assert.Equal(t, 5*time.Second, cfg.Scheduler.LockAcquireTimeout)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: demo\n"))
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 100, cfg.Scheduler.BatchSize)
	assert.Equal(t, time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, []string{"Active"}, cfg.Scheduler.ExpirableStatuses)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "scheduler: [not a map"))
	assert.Error(t, err)
}

func TestLoad_RepositoryConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.MaxRunInterval)
	assert.NotEmpty(t, cfg.Links.ShortBaseURL)
}
