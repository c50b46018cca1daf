package repos

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/apl-daily-backend/internal/domain"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/store"
)

func setupStore(t *testing.T) (store.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	s := store.NewRedisFromClient(rdb, store.DefaultNamespace)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestSubscriptionRepo_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv, mr := setupStore(t)
	repo := NewSubscriptionRepo(kv, logger.NewNop())

	sub, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, sub)

	require.NoError(t, repo.Save(ctx, 42, domain.Subscription{URL: "https://x/ep", Token: "abc"}))
	raw, err := mr.Get("apl-daily:user:42")
	require.NoError(t, err)
	assert.JSONEq(t, `{"endpointUrl":"https://x/ep","authToken":"abc"}`, raw)

	sub, err = repo.Get(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "abc", sub.Token)

	require.NoError(t, repo.Delete(ctx, 42))
	sub, err = repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestSubscriptionRepo_ReadsLegacyRecords(t *testing.T) {
	kv, mr := setupStore(t)
	repo := NewSubscriptionRepo(kv, logger.NewNop())
	require.NoError(t, mr.Set("apl-daily:user:5", `{"url":"https://old","token":"t"}`))

	sub, err := repo.Get(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, domain.Subscription{URL: "https://old", Token: "t"}, *sub)
}

func TestSubscriptionRepo_SaveRejectsIncomplete(t *testing.T) {
	kv, _ := setupStore(t)
	repo := NewSubscriptionRepo(kv, logger.NewNop())
	assert.Error(t, repo.Save(context.Background(), 1, domain.Subscription{URL: "https://x"}))
}

func TestSubscriptionRepo_ListSkipsBookmarksAndGarbage(t *testing.T) {
	ctx := context.Background()
	kv, mr := setupStore(t)
	subs := NewSubscriptionRepo(kv, logger.NewNop())
	marks := NewBookmarkRepo(kv, logger.NewNop())

	require.NoError(t, subs.Save(ctx, 7, domain.Subscription{URL: "https://a", Token: "t7"}))
	require.NoError(t, subs.Save(ctx, 3, domain.Subscription{URL: "https://b", Token: "t3"}))
	require.NoError(t, marks.Add(ctx, 7, 14))
	require.NoError(t, mr.Set("apl-daily:user:9", "not json"))
	require.NoError(t, mr.Set("apl-daily:user:abc", "{}"))

	list, err := subs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(3), list[0].FID)
	assert.Equal(t, int64(7), list[1].FID)
	assert.Equal(t, "t7", list[1].Subscription.Token)
}

func TestBookmarkRepo(t *testing.T) {
	ctx := context.Background()
	kv, _ := setupStore(t)
	repo := NewBookmarkRepo(kv, logger.NewNop())

	list, err := repo.List(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.Add(ctx, 42, 100))
	require.NoError(t, repo.Add(ctx, 42, 8))
	require.NoError(t, repo.Add(ctx, 42, 8))

	ok, err := repo.IsBookmarked(ctx, 42, 8)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.IsBookmarked(ctx, 43, 8)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err = repo.List(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 100}, list)

	require.NoError(t, repo.Remove(ctx, 42, 8))
	list, err = repo.List(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []int{100}, list)
}

func TestPointerRepo_LastPatternID(t *testing.T) {
	ctx := context.Background()
	kv, mr := setupStore(t)
	repo := NewPointerRepo(kv, logger.NewNop())

	_, ok, err := repo.LastPatternID(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetLastPatternID(ctx, 106))
	id, ok, err := repo.LastPatternID(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 106, id)

	require.NoError(t, mr.Set("apl-daily:last-pattern-id", "garbage"))
	_, _, err = repo.LastPatternID(ctx)
	assert.Error(t, err)
}

func TestPointerRepo_StoreFailureIsNotUnset(t *testing.T) {
	kv, mr := setupStore(t)
	repo := NewPointerRepo(kv, logger.NewNop())
	mr.Close()

	_, ok, err := repo.LastPatternID(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestPointerRepo_NextRun(t *testing.T) {
	ctx := context.Background()
	kv, mr := setupStore(t)
	repo := NewPointerRepo(kv, logger.NewNop())
	day := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)

	n, err := repo.NextRun(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = repo.NextRun(ctx, day.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Equal(t, 24*time.Hour, mr.TTL("apl-daily:run_count:2024-01-01"))

	n, err = repo.NextRun(ctx, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "each UTC date has its own counter")
}

func TestPointerRepo_CurrentIndex(t *testing.T) {
	ctx := context.Background()
	repo := NewPointerRepo(store.NewMemory(), logger.NewNop())

	_, ok, err := repo.CurrentIndex(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetCurrentIndex(ctx, 5))
	idx, ok, err := repo.CurrentIndex(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, idx)
}

func TestFidFromUserKey(t *testing.T) {
	fid, ok := fidFromUserKey("user:42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), fid)

	for _, k := range []string{"user:42:bookmarks", "user:", "user:x", "last-pattern-id", "user:-1"} {
		_, ok := fidFromUserKey(k)
		assert.False(t, ok, k)
	}
}

// repeatingKeys returns every key twice, as SCAN may during a rehash.
type repeatingKeys struct {
	store.Store
}

func (r repeatingKeys) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := r.Store.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return append(keys, keys...), nil
}

func TestSubscriptionRepo_ListIgnoresRepeatedKeys(t *testing.T) {
	ctx := context.Background()
	repo := NewSubscriptionRepo(repeatingKeys{Store: store.NewMemory()}, logger.NewNop())
	require.NoError(t, repo.Save(ctx, 7, domain.Subscription{URL: "https://x/7", Token: "a"}))
	require.NoError(t, repo.Save(ctx, 9, domain.Subscription{URL: "https://x/9", Token: "b"}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(7), list[0].FID)
	assert.Equal(t, int64(9), list[1].FID)
}
