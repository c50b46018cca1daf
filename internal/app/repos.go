package app

import (
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/repos"
	"github.com/yungbote/apl-daily-backend/internal/store"
)

type Repos struct {
	Subscriptions repos.SubscriptionRepo
	Bookmarks     repos.BookmarkRepo
	Pointers      repos.PointerRepo
}

func wireRepos(kv store.Store, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Subscriptions: repos.NewSubscriptionRepo(kv, log),
		Bookmarks:     repos.NewBookmarkRepo(kv, log),
		Pointers:      repos.NewPointerRepo(kv, log),
	}
}
