package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/alumni-backend/pkg/helpers"
	"github.com/oksasatya/alumni-backend/pkg/response"
)

type TokenParser interface {
	Parse(token string) (*helpers.Claims, error)
}

// SessionChecker reports whether the account still has a live session.
type SessionChecker interface {
	Active(ctx context.Context, accountID string) (bool, error)
}

// Auth validates the access token and, when sessions is non-nil, requires a
// live server-side session for its subject. On success the identity claims are
// stored in the Gin context.
func Auth(jwt TokenParser, sessions SessionChecker, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", nil)
			return
		}

		if sessions != nil {
			ok, err := sessions.Active(c.Request.Context(), claims.Subject)
			if err != nil {
				if logger != nil {
					logger.WithError(err).WithField("account_id", claims.Subject).Error("session lookup failed")
				}
				response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
				return
			}
			if !ok {
				response.Error[any](c, http.StatusUnauthorized, "session not found", nil)
				return
			}
		}

		c.Set(CtxUserIDKey, claims.Subject)
		c.Set(CtxUserEmailKey, claims.Email)
		c.Set(CtxUserNameKey, claims.Name)
		c.Set(CtxUserRoleKey, claims.Role)
		c.Next()
	}
}
