package app

import (
	"strings"
	"time"

	httpH "github.com/yungbote/apl-daily-backend/internal/http/handlers"
	"github.com/yungbote/apl-daily-backend/internal/observability"
	"github.com/yungbote/apl-daily-backend/internal/platform/envutil"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/services"
	"github.com/yungbote/apl-daily-backend/internal/store"
)

const defaultAppURL = "http://localhost:8080"

type Config struct {
	Env          string
	Port         string
	AppURL       string
	PatternsFile string

	Redis store.RedisConfig

	NotifyTimeout     time.Duration
	NotifyConcurrency int

	CronSecret       string
	SessionJWTSecret string

	HubURL        string
	HubAPIKey     string
	VerifyAppKeys bool

	Otel OtelSettings

	CORSOrigins        []string
	ShutdownTimeout    time.Duration
	StorePingInterval  time.Duration
	AccountAssociation httpH.AccountAssociation
}

type OtelSettings struct {
	Enabled     bool
	Endpoint    string
	Headers     map[string]string
	Insecure    bool
	SampleRatio float64
}

// DevRoutes reports whether the subscriber listing and test push endpoints
// are exposed.
func (c Config) DevRoutes() bool {
	return strings.EqualFold(c.Env, "development")
}

func LoadConfig(log *logger.Logger) Config {
	env := envutil.String("APP_ENV", "production")
	cfg := Config{
		Env:          env,
		Port:         envutil.String("PORT", "8080"),
		AppURL:       strings.TrimRight(envutil.String("APP_URL", defaultAppURL), "/"),
		PatternsFile: envutil.String("PATTERNS_FILE", ""),
		Redis: store.RedisConfig{
			Addr:      envutil.String("REDIS_ADDR", ""),
			Password:  envutil.String("REDIS_PASSWORD", ""),
			DB:        envutil.Int("REDIS_DB", 0),
			Namespace: envutil.String("KV_PREFIX", store.DefaultNamespace),
		},
		NotifyTimeout:     envutil.Seconds("NOTIFY_TIMEOUT_SECONDS", 10*time.Second),
		NotifyConcurrency: envutil.Int("NOTIFY_CONCURRENCY", services.DefaultNotifyConcurrency),
		CronSecret:        envutil.String("CRON_SECRET", ""),
		SessionJWTSecret:  envutil.String("SESSION_JWT_SECRET", ""),
		HubURL:            envutil.String("FARCASTER_HUB_URL", ""),
		HubAPIKey:         envutil.String("FARCASTER_HUB_API_KEY", ""),
		VerifyAppKeys:     envutil.Bool("FARCASTER_VERIFY_APP_KEYS", !strings.EqualFold(env, "development")),
		Otel: OtelSettings{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1),
		},
		CORSOrigins:       envutil.List("CORS_ALLOWED_ORIGINS"),
		ShutdownTimeout:   envutil.Duration("SHUTDOWN_TIMEOUT", 10*time.Second),
		StorePingInterval: envutil.Duration("STORE_PING_INTERVAL", 15*time.Second),
		AccountAssociation: httpH.AccountAssociation{
			Header:    envutil.String("FRAME_ACCOUNT_HEADER", ""),
			Payload:   envutil.String("FRAME_ACCOUNT_PAYLOAD", ""),
			Signature: envutil.String("FRAME_ACCOUNT_SIGNATURE", ""),
		},
	}
	if cfg.NotifyConcurrency <= 0 {
		cfg.NotifyConcurrency = services.DefaultNotifyConcurrency
	}

	if log != nil {
		if cfg.AppURL == defaultAppURL {
			log.Warn("APP_URL not set, notification links point at localhost")
		}
		if cfg.CronSecret == "" {
			log.Warn("CRON_SECRET not set, /api/notifications/check is unauthenticated")
		}
		switch {
		case !cfg.VerifyAppKeys:
			log.Warn("webhook app keys are not checked against a hub, any self-signed event is accepted")
		case cfg.HubAPIKey == "" && cfg.HubURL == "":
			log.Warn("FARCASTER_HUB_API_KEY not set, webhooks will be rejected until it is")
		}
	}
	return cfg
}
