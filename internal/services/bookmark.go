package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/yungbote/apl-daily-backend/internal/catalog"
	"github.com/yungbote/apl-daily-backend/internal/platform/apierr"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/repos"
)

const (
	BookmarkAdd    = "add"
	BookmarkRemove = "remove"
)

type BookmarkService interface {
	Apply(ctx context.Context, fid int64, patternID int, action string) error
	IsBookmarked(ctx context.Context, fid int64, patternID int) (bool, error)
	List(ctx context.Context, fid int64) ([]int, error)
}

type bookmarkService struct {
	log       *logger.Logger
	catalog   *catalog.Catalog
	bookmarks repos.BookmarkRepo
}

func NewBookmarkService(log *logger.Logger, cat *catalog.Catalog, bookmarks repos.BookmarkRepo) BookmarkService {
	return &bookmarkService{
		log:       log.With("service", "BookmarkService"),
		catalog:   cat,
		bookmarks: bookmarks,
	}
}

func (s *bookmarkService) Apply(ctx context.Context, fid int64, patternID int, action string) error {
	if fid <= 0 {
		return apierr.New(http.StatusBadRequest, "missing_user_id", fmt.Errorf("user id required"))
	}
	if _, ok := s.catalog.Get(patternID); !ok {
		return apierr.New(http.StatusBadRequest, "unknown_pattern", fmt.Errorf("pattern %d does not exist", patternID))
	}

	var err error
	switch action {
	case BookmarkAdd:
		err = s.bookmarks.Add(ctx, fid, patternID)
	case BookmarkRemove:
		err = s.bookmarks.Remove(ctx, fid, patternID)
	default:
		return apierr.New(http.StatusBadRequest, "invalid_action", fmt.Errorf("action must be %q or %q", BookmarkAdd, BookmarkRemove))
	}
	if err != nil {
		s.log.Error("bookmark update failed", "user_id", fid, "pattern_id", patternID, "action", action, "error", err)
		return apierr.New(http.StatusInternalServerError, "bookmark_failed", fmt.Errorf("failed to %s bookmark", action))
	}
	return nil
}

func (s *bookmarkService) IsBookmarked(ctx context.Context, fid int64, patternID int) (bool, error) {
	if fid <= 0 {
		return false, apierr.New(http.StatusBadRequest, "missing_user_id", fmt.Errorf("user id required"))
	}
	return s.bookmarks.IsBookmarked(ctx, fid, patternID)
}

func (s *bookmarkService) List(ctx context.Context, fid int64) ([]int, error) {
	if fid <= 0 {
		return nil, apierr.New(http.StatusBadRequest, "missing_user_id", fmt.Errorf("user id required"))
	}
	return s.bookmarks.List(ctx, fid)
}
