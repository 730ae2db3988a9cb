package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/emailcraft?sslmode=disable")
	t.Setenv("PORT", "")
	t.Setenv("FROM_EMAIL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.InDelta(t, 0.7, cfg.OpenAI.Temperature, 0.0001)
	assert.Equal(t, "noreply@yourcompany.com", cfg.SendGrid.FromEmail)
	assert.Equal(t, 30*time.Minute, cfg.Redis.LockTTL)
	assert.Equal(t, "@every 1m", cfg.Scheduler.Spec)
	assert.Equal(t, "postgres://u:p@db:5432/emailcraft?sslmode=disable", cfg.Database.DSN())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_USER", "mark")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "emailcraft")
	t.Setenv("PORT", "9000")
	t.Setenv("SEND_LOCK_TTL", "5m")
	t.Setenv("OPENAI_TEMPERATURE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Redis.LockTTL)
	assert.InDelta(t, 0.7, cfg.OpenAI.Temperature, 0.0001)
	assert.Equal(t, "postgres://mark:secret@pg:6543/emailcraft?sslmode=disable", cfg.Database.DSN())
}

func TestValidateRequiresDatabase(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: 8080}}
	assert.Error(t, cfg.Validate())

	cfg.Database.URL = "postgres://localhost/x"
	assert.NoError(t, cfg.Validate())

	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())
}
