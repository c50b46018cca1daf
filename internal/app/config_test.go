package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/services"
	"github.com/yungbote/apl-daily-backend/internal/store"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "PORT", "APP_URL", "REDIS_ADDR", "KV_PREFIX", "NOTIFY_CONCURRENCY",
		"NOTIFY_TIMEOUT_SECONDS", "FARCASTER_HUB_API_KEY", "FARCASTER_VERIFY_APP_KEYS", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(logger.NewNop())

	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.DevRoutes())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, defaultAppURL, cfg.AppURL)
	assert.Equal(t, store.DefaultNamespace, cfg.Redis.Namespace)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, services.DefaultNotifyConcurrency, cfg.NotifyConcurrency)
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout)
	assert.True(t, cfg.VerifyAppKeys, "verification is on unless switched off")
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_URL", "https://apl.example/")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("KV_PREFIX", "apl-test")
	t.Setenv("NOTIFY_CONCURRENCY", "-3")
	t.Setenv("NOTIFY_TIMEOUT_SECONDS", "4")
	t.Setenv("FARCASTER_HUB_API_KEY", "key")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("FRAME_ACCOUNT_HEADER", "h")

	cfg := LoadConfig(logger.NewNop())

	assert.True(t, cfg.DevRoutes())
	assert.Equal(t, "https://apl.example", cfg.AppURL)
	assert.Equal(t, store.RedisConfig{Addr: "localhost:6379", DB: 2, Namespace: "apl-test"}, cfg.Redis)
	assert.Equal(t, services.DefaultNotifyConcurrency, cfg.NotifyConcurrency)
	assert.Equal(t, 4*time.Second, cfg.NotifyTimeout)
	assert.False(t, cfg.VerifyAppKeys, "development skips verification by default")
	assert.Equal(t, "key", cfg.HubAPIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "h", cfg.AccountAssociation.Header)

	t.Setenv("FARCASTER_VERIFY_APP_KEYS", "true")
	assert.True(t, LoadConfig(logger.NewNop()).VerifyAppKeys)
}
