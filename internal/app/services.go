package app

import (
	"fmt"

	"github.com/yungbote/apl-daily-backend/internal/catalog"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/selector"
	"github.com/yungbote/apl-daily-backend/internal/services"
)

type Services struct {
	Catalog  *catalog.Catalog
	Selector *selector.Selector

	Patterns      services.PatternService
	Bookmarks     services.BookmarkService
	Notifications services.NotificationService
	Check         services.CheckService
	Webhooks      services.WebhookService
	Cards         services.CardRenderer
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	cat, err := catalog.Open(cfg.PatternsFile)
	if err != nil {
		return Services{}, fmt.Errorf("load pattern catalog: %w", err)
	}
	sel, err := selector.New(cat.IDs(), selector.DefaultSeed)
	if err != nil {
		return Services{}, fmt.Errorf("init selector: %w", err)
	}
	log.Info("pattern catalog loaded", "patterns", cat.Len(), "source", catalogSource(cfg.PatternsFile))

	patterns, err := services.NewPatternService(log, cat, sel, reposet.Pointers)
	if err != nil {
		return Services{}, err
	}
	notify := services.NewNotificationService(log, reposet.Subscriptions, clients.Push, cfg.NotifyConcurrency)
	cards, err := services.NewCardRenderer(log)
	if err != nil {
		return Services{}, fmt.Errorf("init card renderer: %w", err)
	}

	return Services{
		Catalog:       cat,
		Selector:      sel,
		Patterns:      patterns,
		Bookmarks:     services.NewBookmarkService(log, cat, reposet.Bookmarks),
		Notifications: notify,
		Check:         services.NewCheckService(log, patterns, notify, reposet.Pointers, cfg.AppURL),
		Webhooks:      services.NewWebhookService(log, reposet.Subscriptions, notify, clients.AppKeys, cfg.AppURL),
		Cards:         cards,
	}, nil
}

func catalogSource(path string) string {
	if path == "" {
		return "bundled"
	}
	return path
}
