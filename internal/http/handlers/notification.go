package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/apl-daily-backend/internal/domain"
	"github.com/yungbote/apl-daily-backend/internal/http/response"
	"github.com/yungbote/apl-daily-backend/internal/platform/ctxutil"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/services"
)

type NotificationHandler struct {
	log      *logger.Logger
	check    services.CheckService
	notify   services.NotificationService
	patterns services.PatternService
	appURL   string
	now      func() time.Time
}

func NewNotificationHandler(log *logger.Logger, check services.CheckService, notify services.NotificationService, patterns services.PatternService, appURL string) *NotificationHandler {
	return &NotificationHandler{
		log:      log.With("handler", "NotificationHandler"),
		check:    check,
		notify:   notify,
		patterns: patterns,
		appURL:   appURL,
		now:      time.Now,
	}
}

type checkResponse struct {
	Success bool `json:"success"`
	*services.CheckResult
}

// GET /api/notifications/check
func (h *NotificationHandler) Check(c *gin.Context) {
	res, err := h.check.Run(c.Request.Context(), h.now())
	if err != nil {
		h.log.Error("pattern change check failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "check_failed", errors.New("failed to check for pattern changes"))
		return
	}
	response.RespondOK(c, checkResponse{Success: true, CheckResult: res})
}

// POST /api/notifications/save
func (h *NotificationHandler) Save(c *gin.Context) {
	var sub domain.Subscription
	if err := c.ShouldBindJSON(&sub); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_body", errors.New("invalid request body"))
		return
	}
	if err := h.notify.Save(c.Request.Context(), ctxutil.UserID(c.Request.Context()), sub); err != nil {
		response.RespondAPIError(c, err, "save_subscription_failed")
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}

// GET /api/notifications/users
func (h *NotificationHandler) Users(c *gin.Context) {
	ids, err := h.notify.Subscribers(c.Request.Context())
	if err != nil {
		h.log.Error("list subscribers failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, "list_users_failed", errors.New("failed to get notification users"))
		return
	}
	response.RespondOK(c, gin.H{"users": ids})
}

// POST /api/notifications/test pushes today's pattern to the caller.
func (h *NotificationHandler) Test(c *gin.Context) {
	ctx := c.Request.Context()
	p := h.patterns.Today(h.now())
	msg := services.PatternMessage(p, h.appURL)
	msg.Title = "[TEST] " + msg.Title

	res := h.notify.SendToUser(ctx, ctxutil.UserID(ctx), msg)
	response.RespondOK(c, gin.H{"success": res.State == domain.DeliverySuccess, "result": res})
}
