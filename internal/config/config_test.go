package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SECRET_KEY", "test-secret")
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.API.Port)
	assert.False(t, cfg.API.IsProduction())
	assert.Equal(t, int64(10<<20), cfg.API.MaxUploadBytes)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10, cfg.Auth.LoginRateLimitPerHour)
	assert.Equal(t, 5, cfg.Auth.LoginLockThreshold)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Empty(t, cfg.API.AllowedOrigins)
	assert.False(t, cfg.SMTP.Enabled())
	assert.Equal(t, 10, cfg.Worker.Concurrency)
}

func TestLoadFromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "Production")
	t.Setenv("API_PORT", "9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,,")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("DATABASE_HOST", "db")
	t.Setenv("POSTGRES_DB", "jobs")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM", "jobs@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.API.IsProduction())
	assert.Equal(t, 9000, cfg.API.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.API.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Contains(t, cfg.Database.DSN(), "host=db")
	assert.Contains(t, cfg.Database.DSN(), "dbname=jobs")
	assert.True(t, cfg.SMTP.Enabled())
}

func TestLoadRequiresSecretKey(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret key")
}

func TestLoadRequiresSMTPFromWhenEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM", "")

	_, err := Load()
	require.Error(t, err)
}
