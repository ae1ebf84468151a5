package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/alumni-backend/config"
	"github.com/oksasatya/alumni-backend/internal/container"
	pginfra "github.com/oksasatya/alumni-backend/internal/infrastructure/postgres"
	"github.com/oksasatya/alumni-backend/internal/interface/middleware"
	"github.com/oksasatya/alumni-backend/internal/router"
	"github.com/oksasatya/alumni-backend/pkg/helpers"
	"github.com/oksasatya/alumni-backend/pkg/mailer"
	"github.com/oksasatya/alumni-backend/pkg/mailer/templates"
	"github.com/oksasatya/alumni-backend/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Initialize Postgres pool
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		MaxConnLife: cfg.DBMaxConnLife,
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	// Run migrations using database/sql with pgx stdlib
	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Redis backs server-side sessions when configured
	if cfg.RedisAddr != "" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer func() { _ = rdb.Close() }()
		if err := helpers.PingRedis(ctx, rdb, 3*time.Second); err != nil {
			logger.WithError(err).Fatal("failed to connect to redis")
		}
		container.SetRedis(rdb)
	} else {
		logger.Warn("REDIS_ADDR not set, sessions are not tracked server-side")
	}

	// Elasticsearch backs the alumni directory when configured
	if cfg.ElasticsearchAddrs != "" {
		es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Fatal("failed to init elasticsearch client")
		}
		container.SetES(es)
	}

	transport, closeTransport, err := buildTransport(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to init mail transport")
	}
	defer closeTransport()

	dispatcher := mailer.NewDispatcher(transport, mailer.Options{
		MaxAttempts: cfg.MailMaxAttempts,
		BaseDelay:   cfg.MailBaseDelay,
		Brand:       templates.Brand{AppName: cfg.AppName, CompanyName: cfg.CompanyName, SupportURL: cfg.SupportURL},
		Logger:      logger,
		Metrics:     mailer.NewMetrics(registry),
	})

	jwtManager, err := helpers.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logger.WithError(err).Fatal("failed to init jwt")
	}

	// Provide infra singletons to container for registry auto-wiring
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetJWT(jwtManager)
	container.SetHasher(helpers.NewPasswordHasher(helpers.DefaultArgon2Params))
	container.SetDispatcher(dispatcher)
	container.SetMetricsRegistry(registry)

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(corsCfg))
	if cfg.HTTPLogEnabled || cfg.Env == "development" {
		r.Use(gin.Logger())
	}

	// Registry: auto-register modules using container
	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Port, "mail_transport": cfg.EffectiveMailTransport()}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// buildTransport picks the mail transport named by MAIL_TRANSPORT.
func buildTransport(cfg *config.Config, logger *logrus.Logger) (mailer.Transport, func(), error) {
	noop := func() {}
	switch cfg.EffectiveMailTransport() {
	case config.MailTransportLog:
		return mailer.NewLog(logger.WithField("component", "mail")), noop, nil
	case config.MailTransportMailgun:
		t, err := mailer.NewMailgun(cfg.MailgunConfig())
		return t, noop, err
	case config.MailTransportQueue:
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			return nil, noop, err
		}
		return mailer.NewQueue(pub), pub.Close, nil
	case config.MailTransportSMTP:
		t, err := mailer.NewSMTP(cfg.SMTPConfig())
		return t, noop, err
	default:
		return nil, noop, fmt.Errorf("unknown mail transport %q", cfg.MailTransport)
	}
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
