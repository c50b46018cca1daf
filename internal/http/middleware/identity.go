package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/apl-daily-backend/internal/http/response"
	"github.com/yungbote/apl-daily-backend/internal/platform/ctxutil"
	"github.com/yungbote/apl-daily-backend/internal/platform/logger"
)

const (
	headerUserID       = "user-id"
	headerFarcasterFID = "x-farcaster-fid"
)

type IdentityMiddleware struct {
	log    *logger.Logger
	secret []byte
}

// NewIdentityMiddleware accepts session JWTs only when secret is non-empty.
func NewIdentityMiddleware(log *logger.Logger, secret string) *IdentityMiddleware {
	return &IdentityMiddleware{
		log:    log.With("middleware", "IdentityMiddleware"),
		secret: []byte(strings.TrimSpace(secret)),
	}
}

// Attach resolves the caller's fid without rejecting anonymous requests. A
// bearer token that fails validation is rejected.
func (m *IdentityMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := &ctxutil.RequestData{}

		if tok := bearerToken(c); tok != "" && len(m.secret) > 0 {
			fid, err := m.parseSession(tok)
			if err != nil {
				m.log.Debug("rejected session token", "error", err)
				c.Abort()
				response.RespondError(c, http.StatusUnauthorized, "invalid_session", errors.New("invalid session token"))
				return
			}
			rd.UserID, rd.Source = fid, "jwt"
		}

		if rd.UserID == 0 {
			for _, h := range []string{headerUserID, headerFarcasterFID} {
				raw := strings.TrimSpace(c.GetHeader(h))
				if raw == "" {
					continue
				}
				fid, err := strconv.ParseInt(raw, 10, 64)
				if err != nil || fid <= 0 {
					c.Abort()
					response.RespondError(c, http.StatusBadRequest, "invalid_user_id", fmt.Errorf("%s must be a positive integer", h))
					return
				}
				rd.UserID, rd.Source = fid, "header"
				break
			}
		}

		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

// RequireUser rejects requests Attach could not attribute to a fid.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if ctxutil.UserID(c.Request.Context()) <= 0 {
			c.Abort()
			response.RespondError(c, http.StatusBadRequest, "missing_user_id", errors.New("no user id provided"))
			return
		}
		c.Next()
	}
}

func (m *IdentityMiddleware) parseSession(tok string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, err
	}
	fid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || fid <= 0 {
		return 0, fmt.Errorf("subject %q is not a fid", claims.Subject)
	}
	return fid, nil
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
