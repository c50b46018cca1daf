package repos

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/store"
)

// PointerRepo holds the scalar pointers the check pipeline and the run
// counter share. Writes are last-write-wins.
type PointerRepo interface {
	// LastPatternID returns ok=false when no pattern has been recorded yet.
	// A store failure is an error, never "unset".
	LastPatternID(ctx context.Context) (id int, ok bool, err error)
	SetLastPatternID(ctx context.Context, id int) error
	// NextRun increments the run counter for the UTC date of day and returns
	// the new value. The counter expires 24h after its first increment.
	NextRun(ctx context.Context, day time.Time) (int64, error)
	CurrentIndex(ctx context.Context) (idx int, ok bool, err error)
	SetCurrentIndex(ctx context.Context, idx int) error
}

type pointerRepo struct {
	kv  store.Store
	log *logger.Logger
}

func NewPointerRepo(kv store.Store, baseLog *logger.Logger) PointerRepo {
	return &pointerRepo{kv: kv, log: baseLog.With("repo", "PointerRepo")}
}

func (r *pointerRepo) LastPatternID(ctx context.Context) (int, bool, error) {
	return r.readInt(ctx, lastPatternIDKey)
}

func (r *pointerRepo) SetLastPatternID(ctx context.Context, id int) error {
	if err := r.kv.Set(ctx, lastPatternIDKey, strconv.Itoa(id), 0); err != nil {
		return fmt.Errorf("write %s: %w", lastPatternIDKey, err)
	}
	return nil
}

func (r *pointerRepo) NextRun(ctx context.Context, day time.Time) (int64, error) {
	key := runCountKey(day)
	n, err := r.kv.Incr(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if n == 1 {
		if err := r.kv.Expire(ctx, key, runCountTTL); err != nil {
			// The counter is still usable; it just lingers.
			r.log.Warn("failed to set run counter ttl", "key", key, "error", err)
		}
	}
	return n, nil
}

func (r *pointerRepo) CurrentIndex(ctx context.Context) (int, bool, error) {
	return r.readInt(ctx, currentIndexKey)
}

func (r *pointerRepo) SetCurrentIndex(ctx context.Context, idx int) error {
	if err := r.kv.Set(ctx, currentIndexKey, strconv.Itoa(idx), 0); err != nil {
		return fmt.Errorf("write %s: %w", currentIndexKey, err)
	}
	return nil
}

func (r *pointerRepo) readInt(ctx context.Context, key string) (int, bool, error) {
	raw, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		return 0, false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false, fmt.Errorf("read %s: malformed value %q", key, raw)
	}
	return n, true, nil
}
