package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/alumni-backend/config"
	"github.com/oksasatya/alumni-backend/pkg/helpers"
	"github.com/oksasatya/alumni-backend/pkg/mailer"
)

// app-level container to share constructed components across packages
// Router auto-wires modules from these singletons. Redis and Elasticsearch
// are optional and stay nil when not configured.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	esClient    *elasticsearch.Client

	jwtManager *helpers.JWTManager
	hasher     *helpers.PasswordHasher
	dispatcher *mailer.Dispatcher
	registry   *prometheus.Registry
)

func SetConfig(c *config.Config)                { cfg = c }
func GetConfig() *config.Config                 { return cfg }
func SetLogger(l *logrus.Logger)                { logger = l }
func GetLogger() *logrus.Logger                 { return logger }
func SetPGPool(p *pgxpool.Pool)                 { pgPool = p }
func GetPGPool() *pgxpool.Pool                  { return pgPool }
func SetRedis(r *redis.Client)                  { redisClient = r }
func GetRedis() *redis.Client                   { return redisClient }
func SetES(c *elasticsearch.Client)             { esClient = c }
func GetES() *elasticsearch.Client              { return esClient }
func SetJWT(m *helpers.JWTManager)              { jwtManager = m }
func GetJWT() *helpers.JWTManager               { return jwtManager }
func SetHasher(h *helpers.PasswordHasher)       { hasher = h }
func SetDispatcher(d *mailer.Dispatcher)        { dispatcher = d }
func GetDispatcher() *mailer.Dispatcher         { return dispatcher }
func SetMetricsRegistry(r *prometheus.Registry) { registry = r }

func GetMetricsRegistry() *prometheus.Registry {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return registry
}

func GetHasher() *helpers.PasswordHasher {
	if hasher != nil {
		return hasher
	}
	return helpers.NewPasswordHasher(helpers.DefaultArgon2Params)
}
