package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/alumni-backend/pkg/helpers"
)

// Gin context keys set by Auth.
const (
	CtxUserIDKey    = "userID"
	CtxUserEmailKey = "userEmail"
	CtxUserNameKey  = "userName"
	CtxUserRoleKey  = "userRole"
)

// tokenFromRequest prefers "Authorization: Bearer <token>" and falls back to
// the access_token cookie.
func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if token, err := c.Cookie(helpers.AccessTokenCookie); err == nil {
		return token
	}
	return ""
}
