package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/apl-daily-backend/internal/http/response"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
	"github.com/yungbote/apl-daily-backend/internal/services"
)

const maxWebhookBody = 64 << 10

type WebhookHandler struct {
	log      *logger.Logger
	webhooks services.WebhookService
}

func NewWebhookHandler(log *logger.Logger, webhooks services.WebhookService) *WebhookHandler {
	return &WebhookHandler{log: log.With("handler", "WebhookHandler"), webhooks: webhooks}
}

// POST /api/webhook
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil || len(body) > maxWebhookBody {
		response.RespondError(c, http.StatusBadRequest, "invalid_data", errors.New("unreadable or oversized body"))
		return
	}
	if _, err := h.webhooks.Handle(c.Request.Context(), body); err != nil {
		response.RespondAPIError(c, err, "webhook_failed")
		return
	}
	response.RespondOK(c, gin.H{"success": true})
}
