package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"todo-list/backend/internal/cache"
	"todo-list/backend/internal/config"
	"todo-list/backend/internal/database"
	"todo-list/backend/internal/middleware"
	"todo-list/backend/internal/monitoring"
	"todo-list/backend/internal/repositories"
	"todo-list/backend/internal/server"
	"todo-list/backend/internal/services"
	"todo-list/backend/internal/worker"

	"github.com/gin-gonic/gin"
)

const tokenPurgeInterval = time.Hour

// application owns every long-lived component and their shutdown order.
type application struct {
	cfg     *config.Config
	pool    *database.DatabasePool
	cache   *cache.MultiLevelCache
	worker  *worker.Worker
	monitor *monitoring.Monitor
	server  *http.Server
}

func newApplication(cfg *config.Config) (*application, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := pool.Migrate(); err != nil {
			pool.Close()
			return nil, err
		}
	}

	app := &application{
		cfg:     cfg,
		pool:    pool,
		monitor: monitoring.NewMonitor(),
		worker:  worker.NewWorker(worker.DefaultWorkerConfig()),
	}
	app.monitor.RegisterHealthCheck("database", pool.Ping)
	app.monitor.RegisterStats("database", pool.Stats)

	var todos services.TodoService = services.NewTodoService(repositories.NewGormTodoStore(pool.DB), nil)
	if cfg.Cache.Enabled {
		app.cache = cache.NewMultiLevelCache(cache.NewRedisCache(redisConfigFrom(cfg)), &cache.MultiLevelConfig{
			L1TTL: cfg.Cache.L1TTL,
		})
		todos = services.NewCachedTodoService(todos, app.cache, cfg.Cache.ListTTL)

		app.monitor.RegisterHealthCheck("cache", app.cache.Health)
		app.monitor.RegisterStats("cache", app.cache.Stats)
		app.mustRegister(worker.Job{
			Name:     "purge-list-cache",
			Interval: positive(cfg.Cache.L1TTL, time.Minute),
			MaxTries: 1,
			Run: func(context.Context) error {
				if n := app.cache.PurgeExpired(); n > 0 {
					log.Printf("[worker] purged %d expired cache entries", n)
				}
				return nil
			},
		})
	}

	tokens := services.NewTokenManager(cfg.Auth)
	auth := services.NewAuthService(pool.DB, cfg.Auth, tokens)
	app.mustRegister(worker.Job{
		Name:     "purge-refresh-tokens",
		Interval: tokenPurgeInterval,
		Run: func(ctx context.Context) error {
			n, err := auth.PurgeExpiredTokens(ctx)
			if n > 0 {
				log.Printf("[worker] purged %d expired refresh tokens", n)
			}
			return err
		},
	})

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMin:  cfg.RateLimit.RequestsPerMin,
			Burst:           cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
		})
		app.mustRegister(worker.Job{
			Name:     "rate-limit-cleanup",
			Interval: limiter.CleanupInterval(),
			MaxTries: 1,
			Run: func(context.Context) error {
				limiter.Cleanup()
				return nil
			},
		})
	}
	app.monitor.RegisterStats("worker", app.worker.Stats)

	router := server.NewRouter(server.Dependencies{
		Config:   cfg,
		Todos:    todos,
		Auth:     auth,
		Register: services.NewRegisterService(pool.DB, cfg.Auth.BCryptCost),
		Users:    services.NewUserService(pool.DB),
		Tokens:   tokens,
		Monitor:  app.monitor,
		Limiter:  limiter,
	})

	app.server = &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

func redisConfigFrom(cfg *config.Config) *cache.CacheConfig {
	rc := cache.DefaultCacheConfig()
	rc.Addr = cfg.GetRedisAddr()
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.MaxRetries = cfg.Redis.MaxRetries
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	return rc
}

func positive(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}

// mustRegister panics on a job that fails validation; jobs are fixed at build time.
func (a *application) mustRegister(job worker.Job) {
	if err := a.worker.Register(job); err != nil {
		panic(err)
	}
}

// Start serves HTTP in the background. A listener failure is logged and
// reported on the returned channel.
func (a *application) Start() <-chan error {
	a.worker.Start()

	errc := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[server] listen: %v", err)
			errc <- err
		}
		close(errc)
	}()
	return errc
}

// Stop drains HTTP first, then background jobs, then the cache and database.
func (a *application) Stop(ctx context.Context) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := a.worker.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache: %w", err))
		}
	}
	if err := a.pool.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	return errors.Join(errs...)
}
