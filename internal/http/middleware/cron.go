package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/apl-daily-backend/internal/http/response"
)

// CronAuth requires "Authorization: Bearer <secret>". An empty secret leaves
// the route open.
func CronAuth(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		got := bearerToken(c)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			c.Abort()
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("invalid cron secret"))
			return
		}
		c.Next()
	}
}
