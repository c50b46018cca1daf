package app

import (
	httpH "github.com/yungbote/apl-daily-backend/internal/http/handlers"
	httpMW "github.com/yungbote/apl-daily-backend/internal/http/middleware"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/store"
)

type Middleware struct {
	Identity *httpMW.IdentityMiddleware
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Pattern      *httpH.PatternHandler
	Bookmark     *httpH.BookmarkHandler
	Notification *httpH.NotificationHandler
	Webhook      *httpH.WebhookHandler
	Manifest     *httpH.ManifestHandler
}

func wireHandlers(log *logger.Logger, cfg Config, kv store.Store, svc Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(kv),
		Pattern:      httpH.NewPatternHandler(log, svc.Patterns, svc.Cards),
		Bookmark:     httpH.NewBookmarkHandler(log, svc.Bookmarks),
		Notification: httpH.NewNotificationHandler(log, svc.Check, svc.Notifications, svc.Patterns, cfg.AppURL),
		Webhook:      httpH.NewWebhookHandler(log, svc.Webhooks),
		Manifest:     httpH.NewManifestHandler(cfg.AppURL, cfg.AccountAssociation),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Identity: httpMW.NewIdentityMiddleware(log, cfg.SessionJWTSecret),
	}
}
