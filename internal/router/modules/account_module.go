package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/alumni-backend/internal/interface/http"
	"github.com/oksasatya/alumni-backend/internal/interface/middleware"
)

type SessionChecker = middleware.SessionChecker

// AccountModule wires the account lifecycle routes.
// Public: signup, signin, verifyotp, forgotPassword, changePassword.
// Protected: me, updateProfile, deleteProfile, profile/complete, alumni/search.
type AccountModule struct {
	Handler  *handlers.AccountHandler
	JWT      middleware.TokenParser
	Sessions SessionChecker
	RDB      *redis.Client
	Logger   logrus.FieldLogger
}

func NewAccountModule(h *handlers.AccountHandler, jwt middleware.TokenParser, sessions SessionChecker, rdb *redis.Client, logger logrus.FieldLogger) *AccountModule {
	return &AccountModule{Handler: h, JWT: jwt, Sessions: sessions, RDB: rdb, Logger: logger}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/signup", m.Handler.Signup)
	rg.POST("/auth/signin", m.Handler.Signin)
	rg.PUT("/auth/verifyotp", m.Handler.VerifyOTP)
	rg.PUT("/auth/forgotPassword", m.Handler.ForgotPassword)
	rg.PUT("/auth/changePassword", m.Handler.ChangePassword)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT, m.Sessions, m.Logger))
	{
		auth.GET("/auth/me", m.Handler.Me)
		auth.PUT("/auth/updateProfile", m.Handler.UpdateProfile)
		auth.DELETE("/auth/deleteProfile", m.Handler.DeleteProfile)
		auth.PUT("/profile/complete", m.Handler.CompleteProfile)
		// directory queries hit Elasticsearch; keep them per-account bounded
		auth.GET("/alumni/search", middleware.RateLimit(m.RDB, 60, time.Minute, middleware.KeyByUserID(), nil), m.Handler.Search)
	}
}
