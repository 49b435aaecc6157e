package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("jwt:\n  secret: s3cret\n"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 7*24*3600, cfg.JWT.ExpireTime)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "console", cfg.Mail.Driver)
	assert.Equal(t, time.Minute, cfg.Cron.Interval)
	assert.Equal(t, "qwiktest:", cfg.Redis.Prefix)
	assert.Equal(t, 5.0, cfg.RateLimit.AuthPerSecond)
	assert.Equal(t, 10, cfg.RateLimit.AuthBurst)
	assert.Equal(t, 20.0, cfg.RateLimit.WebhookPerSecond)
	assert.Equal(t, 50, cfg.RateLimit.WebhookBurst)
}

func TestParse_KeepsExplicitValues(t *testing.T) {
	raw := `
server:
  port: "9000"
  mode: release
database:
  driver: postgres
  dsn: postgres://localhost/qwiktest
jwt:
  secret: abc
  expire_time: 60
cron:
  interval: 30s
rate_limit:
  webhook_per_second: 2
  webhook_burst: 3
`
	cfg, err := Parse([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/qwiktest", cfg.Database.DSN)
	assert.Equal(t, 60, cfg.JWT.ExpireTime)
	assert.Equal(t, 30*time.Second, cfg.Cron.Interval)
	assert.Equal(t, 2.0, cfg.RateLimit.WebhookPerSecond)
	assert.Equal(t, 3, cfg.RateLimit.WebhookBurst)
}

func TestParse_EnvOverridesSecrets(t *testing.T) {
	t.Setenv("QWIKTEST_JWT_SECRET", "from-env")
	t.Setenv("QWIKTEST_REDIS_URL", "redis://cache:6379/0")

	cfg, err := Parse([]byte("jwt:\n  secret: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "redis://cache:6379/0", cfg.Redis.URL)
}

func TestParse_RequiresJWTSecret(t *testing.T) {
	_, err := Parse([]byte("server:\n  port: \"80\"\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("server: [unterminated"))
	assert.Error(t, err)
}
