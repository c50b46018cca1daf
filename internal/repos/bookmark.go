package repos

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/store"
)

type BookmarkRepo interface {
	Add(ctx context.Context, fid int64, patternID int) error
	Remove(ctx context.Context, fid int64, patternID int) error
	IsBookmarked(ctx context.Context, fid int64, patternID int) (bool, error)
	List(ctx context.Context, fid int64) ([]int, error)
}

type bookmarkRepo struct {
	kv  store.Store
	log *logger.Logger
}

func NewBookmarkRepo(kv store.Store, baseLog *logger.Logger) BookmarkRepo {
	return &bookmarkRepo{kv: kv, log: baseLog.With("repo", "BookmarkRepo")}
}

func (r *bookmarkRepo) Add(ctx context.Context, fid int64, patternID int) error {
	if err := r.kv.SAdd(ctx, bookmarksKey(fid), strconv.Itoa(patternID)); err != nil {
		return fmt.Errorf("add bookmark: %w", err)
	}
	return nil
}

func (r *bookmarkRepo) Remove(ctx context.Context, fid int64, patternID int) error {
	if err := r.kv.SRem(ctx, bookmarksKey(fid), strconv.Itoa(patternID)); err != nil {
		return fmt.Errorf("remove bookmark: %w", err)
	}
	return nil
}

func (r *bookmarkRepo) IsBookmarked(ctx context.Context, fid int64, patternID int) (bool, error) {
	ok, err := r.kv.SIsMember(ctx, bookmarksKey(fid), strconv.Itoa(patternID))
	if err != nil {
		return false, fmt.Errorf("check bookmark: %w", err)
	}
	return ok, nil
}

func (r *bookmarkRepo) List(ctx context.Context, fid int64) ([]int, error) {
	members, err := r.kv.SMembers(ctx, bookmarksKey(fid))
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	out := make([]int, 0, len(members))
	for _, m := range members {
		id, err := strconv.Atoi(m)
		if err != nil {
			r.log.Warn("ignoring malformed bookmark member", "user_id", fid, "member", m)
			continue
		}
		out = append(out, id)
	}
	sort.Ints(out)
	return out, nil
}
