package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/apl-daily-backend/internal/domain"
	"github.com/yungbote/apl-daily-backend/internal/http/response"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/services"
)

type PatternHandler struct {
	log      *logger.Logger
	patterns services.PatternService
	cards    services.CardRenderer
	now      func() time.Time
}

func NewPatternHandler(log *logger.Logger, patterns services.PatternService, cards services.CardRenderer) *PatternHandler {
	return &PatternHandler{
		log:      log.With("handler", "PatternHandler"),
		patterns: patterns,
		cards:    cards,
		now:      time.Now,
	}
}

// GET /api/pattern/current[?run=true]
func (h *PatternHandler) Current(c *gin.Context) {
	advance, _ := strconv.ParseBool(c.DefaultQuery("run", "false"))
	p, err := h.patterns.Current(c.Request.Context(), h.now(), advance)
	if err != nil {
		h.log.Error("get current pattern failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "current_pattern_failed", errors.New("failed to get current pattern"))
		return
	}
	response.RespondOK(c, gin.H{"pattern": p})
}

// GET /api/pattern/:id
func (h *PatternHandler) Get(c *gin.Context) {
	id, ok := patternIDParam(c)
	if !ok {
		return
	}
	p, found := h.patterns.ByID(id)
	if !found {
		response.RespondError(c, http.StatusNotFound, "pattern_not_found", errors.New("pattern not found"))
		return
	}
	response.RespondOK(c, p)
}

// GET /api/pattern/:id/next
func (h *PatternHandler) Next(c *gin.Context) {
	h.step(c, h.patterns.Next)
}

// GET /api/pattern/:id/prev
func (h *PatternHandler) Prev(c *gin.Context) {
	h.step(c, h.patterns.Prev)
}

func (h *PatternHandler) step(c *gin.Context, move func(int) (domain.Pattern, bool)) {
	id, ok := patternIDParam(c)
	if !ok {
		return
	}
	p, found := move(id)
	if !found {
		response.RespondError(c, http.StatusNotFound, "pattern_not_found", errors.New("pattern not found"))
		return
	}
	response.RespondOK(c, gin.H{"pattern": p})
}

// GET /api/patterns
func (h *PatternHandler) List(c *gin.Context) {
	response.RespondOK(c, gin.H{"patterns": h.patterns.All()})
}

// GET /api/pattern/:id/image.png
func (h *PatternHandler) Image(c *gin.Context) {
	id, ok := patternIDParam(c)
	if !ok {
		return
	}
	p, found := h.patterns.ByID(id)
	if !found {
		response.RespondError(c, http.StatusNotFound, "pattern_not_found", errors.New("pattern not found"))
		return
	}
	h.writeCard(c, p, "public, max-age=86400, immutable")
}

// GET /api/pattern/current/image.png
func (h *PatternHandler) CurrentImage(c *gin.Context) {
	h.writeCard(c, h.patterns.Today(h.now()), "public, max-age=300")
}

func (h *PatternHandler) writeCard(c *gin.Context, p domain.Pattern, cacheControl string) {
	png, err := h.cards.RenderPNG(p)
	if err != nil {
		h.log.Error("render card failed", "pattern_id", p.ID, "error", err)
		response.RespondError(c, http.StatusInternalServerError, "render_failed", errors.New("failed to render image"))
		return
	}
	c.Header("Cache-Control", cacheControl)
	c.Data(http.StatusOK, "image/png", png)
}

func patternIDParam(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_pattern_id", errors.New("invalid pattern id"))
		return 0, false
	}
	return id, true
}
