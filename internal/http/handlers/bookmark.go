package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/apl-daily-backend/internal/http/response"
	"github.com/yungbote/apl-daily-backend/internal/platform/ctxutil"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/services"
)

type BookmarkHandler struct {
	log       *logger.Logger
	bookmarks services.BookmarkService
}

func NewBookmarkHandler(log *logger.Logger, bookmarks services.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{log: log.With("handler", "BookmarkHandler"), bookmarks: bookmarks}
}

type bookmarkRequest struct {
	PatternID int    `json:"patternId" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

// POST /api/bookmarks
func (h *BookmarkHandler) Update(c *gin.Context) {
	var req bookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", errors.New("invalid request body"))
		return
	}
	fid := ctxutil.UserID(c.Request.Context())
	if err := h.bookmarks.Apply(c.Request.Context(), fid, req.PatternID, req.Action); err != nil {
		response.RespondAPIError(c, err, "bookmark_failed")
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

// GET /api/bookmarks[?patternId=]
func (h *BookmarkHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	fid := ctxutil.UserID(ctx)

	if raw := strings.TrimSpace(c.Query("patternId")); raw != "" {
		patternID, err := strconv.Atoi(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_pattern_id", errors.New("invalid pattern id"))
			return
		}
		ok, err := h.bookmarks.IsBookmarked(ctx, fid, patternID)
		if err != nil {
			h.log.Error("check bookmark failed", "user_id", fid, "error", err)
			response.RespondAPIError(c, err, "get_bookmarks_failed")
			return
		}
		response.RespondOK(c, gin.H{"isBookmarked": ok})
		return
	}

	list, err := h.bookmarks.List(ctx, fid)
	if err != nil {
		h.log.Error("list bookmarks failed", "user_id", fid, "error", err)
		response.RespondAPIError(c, err, "get_bookmarks_failed")
		return
	}
	response.RespondOK(c, gin.H{"bookmarks": list})
}
