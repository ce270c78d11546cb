package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "production", cfg.Server.Mode)
	require.False(t, cfg.Server.IsDevelopment())

	require.Equal(t, 10*time.Minute, cfg.Verification.CodeTTL)
	require.Equal(t, 5, cfg.Verification.MaxAttempts)
	require.Equal(t, 5*time.Minute, cfg.Verification.SweepInterval)
	require.False(t, cfg.Verification.ExposeCode)

	require.False(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, 587, cfg.Email.SMTP.Port)
	require.Equal(t, 10*time.Second, cfg.Email.SMTP.Timeout)

	require.False(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "127.0.0.1:6379", cfg.Cache.Redis.Address)

	require.False(t, cfg.Audit.Enabled)
	require.Equal(t, 90, cfg.Audit.RetentionDays)
	require.Equal(t, "sqlite", cfg.Audit.Database.Driver)

	require.Equal(t, 5, cfg.RateLimit.Request.Max)
	require.Equal(t, 10*time.Minute, cfg.RateLimit.Request.Window)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	contents := []byte(`
server:
  port: 9090
  mode: development
  log_level: debug
verification:
  code_ttl: 2m
  max_attempts: 3
email:
  smtp:
    enabled: true
    host: smtp.example.com
    from: otp@trustreach.in
cache:
  redis:
    enabled: true
    address: redis.internal:6380
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), contents, 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.True(t, cfg.Server.IsDevelopment())
	require.Equal(t, 2*time.Minute, cfg.Verification.CodeTTL)
	require.Equal(t, 3, cfg.Verification.MaxAttempts)
	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	require.Equal(t, "otp@trustreach.in", cfg.Email.SMTP.From)
	require.True(t, cfg.Cache.Redis.Enabled)
	require.Equal(t, "redis.internal:6380", cfg.Cache.Redis.Address)

	// Unset values keep their defaults.
	require.Equal(t, 5*time.Minute, cfg.Verification.SweepInterval)
}

func TestSMTPSettingsConversion(t *testing.T) {
	cfg := EmailConfig{SMTP: SMTPConfig{
		Enabled:  true,
		Host:     "smtp.example.com",
		Port:     465,
		From:     "otp@trustreach.in",
		FromName: "TrustReach",
		UseSSL:   true,
		Timeout:  5 * time.Second,
	}}

	settings := cfg.SMTPSettings()
	require.True(t, settings.Enabled)
	require.Equal(t, "smtp.example.com", settings.Host)
	require.Equal(t, 465, settings.Port)
	require.Equal(t, "TrustReach", settings.FromName)
	require.True(t, settings.UseSSL)
	require.Equal(t, 5*time.Second, settings.Timeout)
}

func TestRedisOptionsConversion(t *testing.T) {
	cfg := CacheConfig{Redis: RedisConfig{
		Address:  "redis.internal:6379",
		Username: "verifyd",
		Password: "secret",
		DB:       2,
		Timeout:  3 * time.Second,
	}}

	opts := cfg.RedisOptions()
	require.Equal(t, "redis.internal:6379", opts.Addr)
	require.Equal(t, "verifyd", opts.Username)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, 3*time.Second, opts.DialTimeout)
}
