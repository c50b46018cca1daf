package app

import (
	"github.com/yungbote/apl-daily-backend/internal/http"
	"github.com/yungbote/apl-daily-backend/internal/observability"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *http.Server {
	srv := http.NewServer(http.RouterConfig{
		Log:                 log,
		Metrics:             metrics,
		ServiceName:         serviceName,
		CORSOrigins:         cfg.CORSOrigins,
		CronSecret:          cfg.CronSecret,
		DevRoutes:           cfg.DevRoutes(),
		Identity:            middleware.Identity,
		PatternHandler:      handlers.Pattern,
		BookmarkHandler:     handlers.Bookmark,
		NotificationHandler: handlers.Notification,
		WebhookHandler:      handlers.Webhook,
		ManifestHandler:     handlers.Manifest,
		HealthHandler:       handlers.Health,
	})
	srv.ShutdownTimeout = cfg.ShutdownTimeout
	return srv
}
