package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/apl-daily-backend/internal/http/handlers"
	httpMW "github.com/yungbote/apl-daily-backend/internal/http/middleware"
	"github.com/yungbote/apl-daily-backend/internal/observability"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string
	CronSecret  string
	// DevRoutes exposes the subscriber listing and test push endpoints.
	DevRoutes bool

	Identity *httpMW.IdentityMiddleware

	PatternHandler      *httpH.PatternHandler
	BookmarkHandler     *httpH.BookmarkHandler
	NotificationHandler *httpH.NotificationHandler
	WebhookHandler      *httpH.WebhookHandler
	ManifestHandler     *httpH.ManifestHandler
	HealthHandler       *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "apl-daily"
	}
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}
	if cfg.ManifestHandler != nil {
		r.GET("/.well-known/farcaster.json", cfg.ManifestHandler.Get)
	}

	api := r.Group("/api")
	{
		// Patterns (public)
		if cfg.PatternHandler != nil {
			api.GET("/patterns", cfg.PatternHandler.List)
			api.GET("/pattern/current", cfg.PatternHandler.Current)
			api.GET("/pattern/current/image.png", cfg.PatternHandler.CurrentImage)
			api.GET("/pattern/:id", cfg.PatternHandler.Get)
			api.GET("/pattern/:id/next", cfg.PatternHandler.Next)
			api.GET("/pattern/:id/prev", cfg.PatternHandler.Prev)
			api.GET("/pattern/:id/image.png", cfg.PatternHandler.Image)
		}

		// Webhook (verified by signature)
		if cfg.WebhookHandler != nil {
			api.POST("/webhook", cfg.WebhookHandler.Receive)
		}

		// Cron
		if cfg.NotificationHandler != nil {
			api.GET("/notifications/check", httpMW.CronAuth(cfg.CronSecret), cfg.NotificationHandler.Check)
		}
	}

	user := api.Group("/")
	{
		if cfg.Identity != nil {
			user.Use(cfg.Identity.Attach())
		}
		user.Use(httpMW.RequireUser())

		if cfg.BookmarkHandler != nil {
			user.GET("/bookmarks", cfg.BookmarkHandler.Get)
			user.POST("/bookmarks", cfg.BookmarkHandler.Update)
		}
		if cfg.NotificationHandler != nil {
			user.POST("/notifications/save", cfg.NotificationHandler.Save)
			if cfg.DevRoutes {
				user.POST("/notifications/test", cfg.NotificationHandler.Test)
			}
		}
	}

	if cfg.DevRoutes && cfg.NotificationHandler != nil {
		api.GET("/notifications/users", cfg.NotificationHandler.Users)
	}

	return r
}
