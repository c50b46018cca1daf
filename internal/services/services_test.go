package services

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/apl-daily-backend/internal/catalog"
	"github.com/yungbote/apl-daily-backend/internal/domain"
	"github.com/yungbote/apl-daily-backend/internal/platform/apierr"
	"github.com/yungbote/apl-daily-backend/internal/platform/farcaster"
	"github.com/yungbote/apl-daily-backend/internal/platform/framepush"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/repos"
	"github.com/yungbote/apl-daily-backend/internal/selector"
	"github.com/yungbote/apl-daily-backend/internal/store"
)

var newYear = time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)

type fakePush struct {
	mu          sync.Mutex
	calls       []string
	failTokens  map[string]error
	rateLimited map[string]bool
}

func newFakePush() *fakePush {
	return &fakePush{failTokens: map[string]error{}, rateLimited: map[string]bool{}}
}

func (f *fakePush) Send(_ context.Context, sub domain.Subscription, msg domain.Message) (*framepush.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sub.Token)
	if err := f.failTokens[sub.Token]; err != nil {
		return nil, err
	}
	res := &framepush.SendResult{NotificationID: "n-" + sub.Token, StatusCode: 200}
	if f.rateLimited[sub.Token] {
		res.RateLimitedTokens = []string{sub.Token}
	}
	return res, nil
}

func (f *fakePush) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.calls...)
	sort.Strings(out)
	return out
}

type harness struct {
	mr       *miniredis.Miniredis
	kv       store.Store
	push     *fakePush
	subs     repos.SubscriptionRepo
	pointers repos.PointerRepo
	patterns PatternService
	notify   NotificationService
	check    CheckService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)
	kv := store.NewRedisFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), store.DefaultNamespace)
	t.Cleanup(func() { _ = kv.Close() })

	log := logger.NewNop()
	cat, err := catalog.Bundled()
	require.NoError(t, err)
	sel, err := selector.New(cat.IDs(), selector.DefaultSeed)
	require.NoError(t, err)

	h := &harness{mr: mr, kv: kv, push: newFakePush()}
	h.subs = repos.NewSubscriptionRepo(kv, log)
	h.pointers = repos.NewPointerRepo(kv, log)
	h.patterns, err = NewPatternService(log, cat, sel, h.pointers)
	require.NoError(t, err)
	h.notify = NewNotificationService(log, h.subs, h.push, 4)
	h.check = NewCheckService(log, h.patterns, h.notify, h.pointers, "https://apl.example")
	return h
}

func (h *harness) subscribe(t *testing.T, fid int64, token string) {
	t.Helper()
	require.NoError(t, h.subs.Save(context.Background(), fid, domain.Subscription{URL: "https://x/ep", Token: token}))
}

func TestHasChanged(t *testing.T) {
	for _, x := range []int{1, 14, 253} {
		assert.False(t, HasChanged(x, x, true))
		assert.True(t, HasChanged(x, x+1, true))
		assert.True(t, HasChanged(0, x, false))
	}
}

func TestSendToUser_NoSubscriptionMakesNoCall(t *testing.T) {
	h := newHarness(t)
	res := h.notify.SendToUser(context.Background(), 99, domain.Message{Title: "t"})
	assert.Equal(t, domain.DeliveryNoToken, res.State)
	assert.Empty(t, h.push.Calls())
}

func TestSendToUser_Delivers(t *testing.T) {
	h := newHarness(t)
	h.subscribe(t, 42, "abc")
	res := h.notify.SendToUser(context.Background(), 42, domain.Message{Title: "t"})
	assert.Equal(t, domain.DeliverySuccess, res.State)
	assert.Equal(t, "n-abc", res.NotificationID)
}

func TestDispatch_FailureIsIsolated(t *testing.T) {
	h := newHarness(t)
	h.push.failTokens["t2"] = errors.New("connection reset")
	targets := []domain.Subscriber{
		{FID: 1, Subscription: domain.Subscription{URL: "https://a", Token: "t1"}},
		{FID: 2, Subscription: domain.Subscription{URL: "https://b", Token: "t2"}},
		{FID: 3, Subscription: domain.Subscription{URL: "https://c", Token: "t3"}},
	}

	report := h.notify.Dispatch(context.Background(), domain.Message{Title: "t"}, targets)
	require.Len(t, report.Results, 3)
	assert.Equal(t, []string{"t1", "t2", "t3"}, h.push.Calls())
	assert.Equal(t, domain.DeliverySuccess, report.Results[0].State)
	assert.Equal(t, domain.DeliveryError, report.Results[1].State)
	assert.Contains(t, report.Results[1].Detail, "connection reset")
	assert.Equal(t, domain.DeliverySuccess, report.Results[2].State)
	assert.Equal(t, 2, report.Counts[domain.DeliverySuccess])
	assert.Equal(t, 1, report.Counts[domain.DeliveryError])
}

func TestDispatch_RateLimited(t *testing.T) {
	h := newHarness(t)
	h.push.rateLimited["t1"] = true
	report := h.notify.Dispatch(context.Background(), domain.Message{Title: "t"},
		[]domain.Subscriber{{FID: 1, Subscription: domain.Subscription{URL: "https://a", Token: "t1"}}})
	assert.Equal(t, domain.DeliveryRateLimited, report.Results[0].State)
}

func TestNotificationSave_Validates(t *testing.T) {
	h := newHarness(t)
	err := h.notify.Save(context.Background(), 42, domain.Subscription{URL: "https://x"})
	var ae *apierr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusBadRequest, ae.Status)

	require.NoError(t, h.notify.Save(context.Background(), 42, domain.Subscription{URL: "https://x", Token: "t"}))
	ids, err := h.notify.Subscribers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, ids)
}

func TestCheck_EndToEnd(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.subscribe(t, 1, "t1")
	h.subscribe(t, 2, "t2")

	first, err := h.check.Run(ctx, newYear)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.Nil(t, first.PreviousID)
	assert.Equal(t, 106, first.PatternID)
	require.NotNil(t, first.Report)
	assert.Equal(t, 2, first.Report.Counts[domain.DeliverySuccess])

	raw, err := h.mr.Get("apl-daily:last-pattern-id")
	require.NoError(t, err)
	assert.Equal(t, "106", raw)

	second, err := h.check.Run(ctx, newYear.Add(5*time.Hour))
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Nil(t, second.Report)
	assert.Len(t, h.push.Calls(), 2, "second run on the same day sends nothing")

	third, err := h.check.Run(ctx, newYear.Add(24*time.Hour))
	require.NoError(t, err)
	assert.True(t, third.Changed)
	require.NotNil(t, third.PreviousID)
	assert.Equal(t, 106, *third.PreviousID)
	assert.Len(t, h.push.Calls(), 4)
}

func TestCheck_DeliveryFailuresDoNotFailRun(t *testing.T) {
	h := newHarness(t)
	h.subscribe(t, 1, "t1")
	h.push.failTokens["t1"] = errors.New("timeout")

	res, err := h.check.Run(context.Background(), newYear)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Report.Counts[domain.DeliveryError])
	raw, _ := h.mr.Get("apl-daily:last-pattern-id")
	assert.Equal(t, "106", raw)
}

func TestCheck_StoreFailureFailsLoudly(t *testing.T) {
	h := newHarness(t)
	h.mr.Close()
	_, err := h.check.Run(context.Background(), newYear)
	assert.Error(t, err)
	assert.Empty(t, h.push.Calls())
}

type failingListRepo struct{ repos.SubscriptionRepo }

func (failingListRepo) List(context.Context) ([]domain.Subscriber, error) {
	return nil, errors.New("scan failed")
}

func TestCheck_ListFailureLeavesPointerUnset(t *testing.T) {
	h := newHarness(t)
	notify := NewNotificationService(logger.NewNop(), failingListRepo{h.subs}, h.push, 2)
	check := NewCheckService(logger.NewNop(), h.patterns, notify, h.pointers, "")

	_, err := check.Run(context.Background(), newYear)
	assert.Error(t, err)
	assert.False(t, h.mr.Exists("apl-daily:last-pattern-id"))
}

func TestPatternService(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	today, err := h.patterns.Current(ctx, newYear, false)
	require.NoError(t, err)
	assert.Equal(t, h.patterns.Today(newYear), today)

	run1, err := h.patterns.Current(ctx, newYear, true)
	require.NoError(t, err)
	next, ok := h.patterns.Next(today.ID)
	require.True(t, ok)
	assert.Equal(t, next.ID, run1.ID, "first run advances one slot")
	assert.True(t, h.mr.Exists("apl-daily:run_count:2024-01-01"))
	assert.True(t, h.mr.Exists("apl-daily:current-index"))

	prev, ok := h.patterns.Prev(next.ID)
	require.True(t, ok)
	assert.Equal(t, today.ID, prev.ID)

	_, ok = h.patterns.ByID(2)
	assert.False(t, ok)
	assert.Len(t, h.patterns.All(), 20)
}

func TestNewPatternService_RejectsInconsistentSelector(t *testing.T) {
	cat, err := catalog.Bundled()
	require.NoError(t, err)
	sel, err := selector.New([]int{1, 2, 3}, selector.DefaultSeed)
	require.NoError(t, err)
	_, err = NewPatternService(logger.NewNop(), cat, sel, repos.NewPointerRepo(store.NewMemory(), logger.NewNop()))
	assert.Error(t, err)
}

func TestBookmarkService(t *testing.T) {
	ctx := context.Background()
	cat, err := catalog.Bundled()
	require.NoError(t, err)
	svc := NewBookmarkService(logger.NewNop(), cat, repos.NewBookmarkRepo(store.NewMemory(), logger.NewNop()))

	require.NoError(t, svc.Apply(ctx, 42, 14, BookmarkAdd))
	require.NoError(t, svc.Apply(ctx, 42, 14, BookmarkAdd))
	ok, err := svc.IsBookmarked(ctx, 42, 14)
	require.NoError(t, err)
	assert.True(t, ok)
	list, err := svc.List(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []int{14}, list)

	require.NoError(t, svc.Apply(ctx, 42, 14, BookmarkRemove))
	ok, err = svc.IsBookmarked(ctx, 42, 14)
	require.NoError(t, err)
	assert.False(t, ok)

	var ae *apierr.Error
	require.True(t, errors.As(svc.Apply(ctx, 42, 14, "toggle"), &ae))
	assert.Equal(t, "invalid_action", ae.Code)
	require.True(t, errors.As(svc.Apply(ctx, 42, 2, BookmarkAdd), &ae))
	assert.Equal(t, "unknown_pattern", ae.Code)
	require.True(t, errors.As(svc.Apply(ctx, 0, 14, BookmarkAdd), &ae))
	assert.Equal(t, http.StatusBadRequest, ae.Status)
}

func testSigner(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	seed := bytes.Repeat([]byte{7}, ed25519.SeedSize)
	return ed25519.NewKeyFromSeed(seed)
}

func webhookBody(t *testing.T, fid int64, priv ed25519.PrivateKey, ev farcaster.Event) []byte {
	t.Helper()
	env, err := farcaster.Sign(fid, priv, ev)
	require.NoError(t, err)
	b, err := json.Marshal(env)
	require.NoError(t, err)
	return b
}

func acceptKeys(ok bool, err error) farcaster.AppKeyVerifier {
	return farcaster.AppKeyVerifierFunc(func(context.Context, int64, ed25519.PublicKey) (bool, error) {
		return ok, err
	})
}

func TestWebhook_SubscribeThenRemove(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := NewWebhookService(logger.NewNop(), h.subs, h.notify, acceptKeys(true, nil), "https://apl.example")
	priv := testSigner(t)

	_, err := svc.Handle(ctx, webhookBody(t, 42, priv, farcaster.Event{
		Event:               farcaster.EventNotificationsEnabled,
		NotificationDetails: &domain.Subscription{URL: "https://x/ep", Token: "abc"},
	}))
	require.NoError(t, err)

	raw, err := h.mr.Get("apl-daily:user:42")
	require.NoError(t, err)
	assert.JSONEq(t, `{"endpointUrl":"https://x/ep","authToken":"abc"}`, raw)
	assert.Equal(t, []string{"abc"}, h.push.Calls(), "confirmation push")

	_, err = svc.Handle(ctx, webhookBody(t, 42, priv, farcaster.Event{Event: farcaster.EventFrameRemoved}))
	require.NoError(t, err)
	assert.False(t, h.mr.Exists("apl-daily:user:42"))
}

func TestWebhook_StateMachine(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := NewWebhookService(logger.NewNop(), h.subs, h.notify, nil, "")
	priv := testSigner(t)
	details := &domain.Subscription{URL: "https://x/ep", Token: "abc"}

	_, err := svc.Handle(ctx, webhookBody(t, 7, priv, farcaster.Event{Event: farcaster.EventFrameAdded, NotificationDetails: details}))
	require.NoError(t, err)
	assert.True(t, h.mr.Exists("apl-daily:user:7"))

	_, err = svc.Handle(ctx, webhookBody(t, 7, priv, farcaster.Event{Event: farcaster.EventNotificationsDisabled}))
	require.NoError(t, err)
	assert.False(t, h.mr.Exists("apl-daily:user:7"))

	h.subscribe(t, 7, "old")
	_, err = svc.Handle(ctx, webhookBody(t, 7, priv, farcaster.Event{Event: farcaster.EventFrameAdded}))
	require.NoError(t, err)
	assert.False(t, h.mr.Exists("apl-daily:user:7"), "frame_added without details unsubscribes")
}

func TestWebhook_WelcomeFailureStillSucceeds(t *testing.T) {
	h := newHarness(t)
	h.push.failTokens["abc"] = errors.New("endpoint down")
	svc := NewWebhookService(logger.NewNop(), h.subs, h.notify, nil, "")

	_, err := svc.Handle(context.Background(), webhookBody(t, 42, testSigner(t), farcaster.Event{
		Event:               farcaster.EventFrameAdded,
		NotificationDetails: &domain.Subscription{URL: "https://x/ep", Token: "abc"},
	}))
	assert.NoError(t, err)
	assert.True(t, h.mr.Exists("apl-daily:user:42"))
}

func snapshot(mr *miniredis.Miniredis) map[string]string {
	out := map[string]string{}
	for _, k := range mr.Keys() {
		if v, err := mr.Get(k); err == nil {
			out[k] = v
		} else {
			members, _ := mr.Members(k)
			b, _ := json.Marshal(members)
			out[k] = string(b)
		}
	}
	return out
}

func TestWebhook_RejectedEventsLeaveStateUntouched(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.subscribe(t, 42, "abc")
	require.NoError(t, h.pointers.SetLastPatternID(ctx, 14))
	require.NoError(t, repos.NewBookmarkRepo(h.kv, logger.NewNop()).Add(ctx, 42, 8))
	before := snapshot(h.mr)

	priv := testSigner(t)
	removal := webhookBody(t, 42, priv, farcaster.Event{Event: farcaster.EventFrameRemoved})

	var tampered farcaster.Envelope
	require.NoError(t, json.Unmarshal(removal, &tampered))
	tampered.Signature = tampered.Signature[:len(tampered.Signature)-4] + "AAAA"
	tamperedBody, _ := json.Marshal(tampered)

	cases := []struct {
		name     string
		body     []byte
		verifier farcaster.AppKeyVerifier
		status   int
	}{
		{"bad signature", tamperedBody, acceptKeys(true, nil), http.StatusBadRequest},
		{"garbage", []byte(`{}`), acceptKeys(true, nil), http.StatusBadRequest},
		{"unknown app key", removal, acceptKeys(false, nil), http.StatusUnauthorized},
		{"hub unavailable", removal, acceptKeys(false, errors.New("hub down")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewWebhookService(logger.NewNop(), h.subs, h.notify, tc.verifier, "")
			_, err := svc.Handle(ctx, tc.body)
			var ae *apierr.Error
			require.True(t, errors.As(err, &ae))
			assert.Equal(t, tc.status, ae.Status)
			assert.Equal(t, before, snapshot(h.mr))
		})
	}
	assert.Empty(t, h.push.Calls())
}

func TestCardRenderer(t *testing.T) {
	r, err := NewCardRenderer(logger.NewNop())
	require.NoError(t, err)
	cat, err := catalog.Bundled()
	require.NoError(t, err)
	p, ok := cat.Get(88)
	require.True(t, ok)

	png, err := r.RenderPNG(p)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))

	again, err := r.RenderPNG(p)
	require.NoError(t, err)
	assert.Equal(t, png, again)
}

func TestFirstSentence(t *testing.T) {
	assert.Equal(t, "One.", firstSentence("One. Two."))
	assert.Equal(t, "No stop", firstSentence(" No stop "))
}
