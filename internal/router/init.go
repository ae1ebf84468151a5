package router

import (
	"github.com/oksasatya/alumni-backend/internal/application"
	"github.com/oksasatya/alumni-backend/internal/container"
	"github.com/oksasatya/alumni-backend/internal/domain/repository"
	"github.com/oksasatya/alumni-backend/internal/infrastructure/cache"
	"github.com/oksasatya/alumni-backend/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/alumni-backend/internal/infrastructure/postgres"
	"github.com/oksasatya/alumni-backend/internal/infrastructure/search"
	handlers "github.com/oksasatya/alumni-backend/internal/interface/http"
	"github.com/oksasatya/alumni-backend/internal/router/modules"
)

type AccountModuleDeps struct {
	Store    repository.AccountStore
	Service  *application.AccountService
	Handler  *handlers.AccountHandler
	Sessions *cache.SessionStore
}

func buildAccountDeps() AccountModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	var store repository.AccountStore
	if pool := container.GetPGPool(); pool != nil {
		store = pginfra.NewAccountStore(pool)
	} else {
		logger.Warn("no postgres pool, accounts are kept in memory")
		store = memory.NewAccountStore()
	}

	deps := application.Deps{
		Store:               store,
		Hasher:              container.GetHasher(),
		Tokens:              container.GetJWT(),
		Mail:                container.GetDispatcher(),
		Logger:              logger,
		Metrics:             application.NewMetrics(container.GetMetricsRegistry()),
		OTPLength:           cfg.OTPLength,
		CompensationTimeout: cfg.CompensationWait,
	}

	var sessions *cache.SessionStore
	if rdb := container.GetRedis(); rdb != nil {
		sessions = cache.NewSessionStore(rdb)
		deps.Sessions = sessions
	}
	if es := container.GetES(); es != nil {
		deps.Directory = search.NewProfileIndex(es, cfg.ESProfilesIndex)
	}

	service := application.NewAccountService(deps)
	handler := handlers.NewAccountHandler(service, logger, cfg.CookieDomain, cfg.CookieSecure)

	return AccountModuleDeps{
		Store:    store,
		Service:  service,
		Handler:  handler,
		Sessions: sessions,
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	d := buildAccountDeps()
	var checker modules.SessionChecker
	if d.Sessions != nil {
		checker = d.Sessions
	}
	r.Add(modules.NewAccountModule(d.Handler, container.GetJWT(), checker, container.GetRedis(), container.GetLogger()))

	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(container.GetMetricsRegistry(), container.GetRedis()))
	}
}
