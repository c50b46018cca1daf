package repos

import (
	"strconv"
	"strings"
	"time"
)

const (
	userKeyPrefix     = "user:"
	bookmarksSuffix   = ":bookmarks"
	lastPatternIDKey  = "last-pattern-id"
	currentIndexKey   = "current-index"
	runCountKeyPrefix = "run_count:"

	runCountTTL = 24 * time.Hour
)

func userKey(fid int64) string {
	return userKeyPrefix + strconv.FormatInt(fid, 10)
}

func bookmarksKey(fid int64) string {
	return userKey(fid) + bookmarksSuffix
}

func runCountKey(day time.Time) string {
	return runCountKeyPrefix + day.UTC().Format("2006-01-02")
}

// fidFromUserKey parses "user:{id}". Bookmark keys and anything else under the
// prefix return ok=false.
func fidFromUserKey(key string) (int64, bool) {
	if !strings.HasPrefix(key, userKeyPrefix) || strings.HasSuffix(key, bookmarksSuffix) {
		return 0, false
	}
	fid, err := strconv.ParseInt(strings.TrimPrefix(key, userKeyPrefix), 10, 64)
	if err != nil || fid <= 0 {
		return 0, false
	}
	return fid, true
}
