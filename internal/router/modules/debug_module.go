package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/alumni-backend/internal/interface/middleware"
)

// DebugModule exposes expvar and Prometheus metrics.
type DebugModule struct {
	Gatherer prometheus.Gatherer
	RDB      *redis.Client
}

func NewDebugModule(g prometheus.Gatherer, rdb *redis.Client) *DebugModule {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return &DebugModule{Gatherer: g, RDB: rdb}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// rate-limited per IP; private networks (scrapers) bypass
	rl := middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
	rg.GET("/metrics", rl, gin.WrapH(promhttp.HandlerFor(m.Gatherer, promhttp.HandlerOpts{})))
}
