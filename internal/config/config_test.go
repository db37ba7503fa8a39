package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "outreach.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.bounceban.com", cfg.BounceBan.BaseURL)
	assert.InDelta(t, 1.0, cfg.BounceBan.DelaySecs, 0.001)
	assert.Equal(t, 30, cfg.BounceBan.TimeoutSecs)
	assert.Equal(t, 10, cfg.BounceBan.PollAttempts)
	assert.InDelta(t, 2.0, cfg.SMTP.DelaySecs, 0.001)
	assert.Equal(t, 10, cfg.SMTP.TimeoutSecs)
	assert.Equal(t, "example.com", cfg.SMTP.HelloDomain)
	assert.Equal(t, "verify@example.com", cfg.SMTP.Sender)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.InDelta(t, 1.0, cfg.Scrape.RateLimit, 0.001)
	assert.Equal(t, "api", cfg.Run.Backend)
	assert.Equal(t, 3, cfg.Run.Concurrency)
	assert.Equal(t, 10, cfg.Run.MaxNewsletters)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/outreach
log:
  level: debug
  format: console
server:
  port: 9090
smtp:
  hello_domain: mail.sellsgroup.example
run:
  backend: smtp
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mail.sellsgroup.example", cfg.SMTP.HelloDomain)
	assert.Equal(t, "smtp", cfg.Run.Backend)
	// Defaults still apply for unset values
	assert.InDelta(t, 1.0, cfg.BounceBan.DelaySecs, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chTempDir(t)

	yaml := `
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("OUTREACH_SERVER_PORT", "7070")
	t.Setenv("OUTREACH_BOUNCEBAN_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "test-key", cfg.BounceBan.Key)
}

func TestLoadBadYAML(t *testing.T) {
	dir := chTempDir(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [not: a map"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))
}

func TestInitLoggerBadLevel(t *testing.T) {
	assert.Error(t, InitLogger(LogConfig{Level: "loud", Format: "json"}))
}
