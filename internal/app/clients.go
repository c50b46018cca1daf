package app

import (
	"context"
	"fmt"

	"github.com/yungbote/apl-daily-backend/internal/platform/farcaster"
	"github.com/yungbote/apl-daily-backend/internal/platform/framepush"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/store"
)

type Clients struct {
	Store        store.Store
	StoreBackend string
	Push         framepush.Client
	AppKeys      farcaster.AppKeyVerifier
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var kv store.Store
	backend := "redis"
	if cfg.Redis.Addr != "" {
		r, err := store.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		kv = r
		log.Info("state store: redis", "addr", cfg.Redis.Addr, "db", cfg.Redis.DB)
	} else {
		log.Warn("REDIS_ADDR not set, state is kept in memory and lost on restart")
		kv = store.NewMemory()
		backend = "memory"
	}

	push, err := framepush.New(log, framepush.Config{Timeout: cfg.NotifyTimeout})
	if err != nil {
		_ = kv.Close()
		return Clients{}, fmt.Errorf("init push client: %w", err)
	}

	// Nil only when verification was explicitly switched off.
	var appKeys farcaster.AppKeyVerifier
	if cfg.VerifyAppKeys {
		appKeys = farcaster.NewHubVerifier(log, farcaster.HubConfig{
			BaseURL: cfg.HubURL,
			APIKey:  cfg.HubAPIKey,
			Timeout: cfg.NotifyTimeout,
		})
	}

	return Clients{Store: kv, StoreBackend: backend, Push: push, AppKeys: appKeys}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
}
