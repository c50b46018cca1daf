package repos

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/yungbote/apl-daily-backend/internal/domain"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/store"
)

type SubscriptionRepo interface {
	// Get returns nil when the user has no subscription.
	Get(ctx context.Context, fid int64) (*domain.Subscription, error)
	Save(ctx context.Context, fid int64, sub domain.Subscription) error
	Delete(ctx context.Context, fid int64) error
	// List returns every stored subscriber ordered by fid. Records that fail to
	// decode are skipped and logged.
	List(ctx context.Context) ([]domain.Subscriber, error)
}

// storedSubscription is the persisted record. Records written before the
// rename carry url/token instead and are still readable.
type storedSubscription struct {
	EndpointURL string `json:"endpointUrl"`
	AuthToken   string `json:"authToken"`
	LegacyURL   string `json:"url,omitempty"`
	LegacyToken string `json:"token,omitempty"`
}

func (s storedSubscription) subscription() domain.Subscription {
	out := domain.Subscription{URL: s.EndpointURL, Token: s.AuthToken}
	if out.URL == "" {
		out.URL = s.LegacyURL
	}
	if out.Token == "" {
		out.Token = s.LegacyToken
	}
	return out
}

type subscriptionRepo struct {
	kv  store.Store
	log *logger.Logger
}

func NewSubscriptionRepo(kv store.Store, baseLog *logger.Logger) SubscriptionRepo {
	return &subscriptionRepo{kv: kv, log: baseLog.With("repo", "SubscriptionRepo")}
}

func (r *subscriptionRepo) Get(ctx context.Context, fid int64) (*domain.Subscription, error) {
	raw, ok, err := r.kv.Get(ctx, userKey(fid))
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var rec storedSubscription
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode subscription for user %d: %w", fid, err)
	}
	sub := rec.subscription()
	if !sub.Valid() {
		return nil, fmt.Errorf("decode subscription for user %d: url or token missing", fid)
	}
	return &sub, nil
}

func (r *subscriptionRepo) Save(ctx context.Context, fid int64, sub domain.Subscription) error {
	if !sub.Valid() {
		return fmt.Errorf("save subscription: url and token required")
	}
	b, err := json.Marshal(storedSubscription{EndpointURL: sub.URL, AuthToken: sub.Token})
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	if err := r.kv.Set(ctx, userKey(fid), string(b), 0); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepo) Delete(ctx context.Context, fid int64) error {
	if err := r.kv.Del(ctx, userKey(fid)); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepo) List(ctx context.Context) ([]domain.Subscriber, error) {
	keys, err := r.kv.Keys(ctx, userKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	out := make([]domain.Subscriber, 0, len(keys))
	seen := make(map[int64]struct{}, len(keys))
	for _, k := range keys {
		fid, ok := fidFromUserKey(k)
		if !ok {
			continue
		}
		if _, dup := seen[fid]; dup {
			continue
		}
		seen[fid] = struct{}{}
		sub, err := r.Get(ctx, fid)
		if err != nil {
			r.log.Warn("skipping unreadable subscription", "key", k, "error", err)
			continue
		}
		// Deleted between SCAN and GET.
		if sub == nil {
			continue
		}
		out = append(out, domain.Subscriber{FID: fid, Subscription: *sub})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FID < out[j].FID })
	return out, nil
}
