package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/tododocker/todo-backend/handlers"
	"github.com/tododocker/todo-backend/internal/config"
	"github.com/tododocker/todo-backend/internal/database"
	"github.com/tododocker/todo-backend/internal/todo/handler"
	"github.com/tododocker/todo-backend/internal/todo/repository"
	"github.com/tododocker/todo-backend/internal/todo/service"
	"github.com/tododocker/todo-backend/pkg/logger"
	"github.com/tododocker/todo-backend/pkg/metrics"
	"github.com/tododocker/todo-backend/pkg/middleware"
)

func main() {
	// LOG_LEVEL may also come from .env, so the level is set again after config load
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr := database.NewManager(
		database.WithConnectTimeout(cfg.MongoDB.Timeout),
		database.WithPingTimeout(cfg.MongoDB.PingTimeout),
		database.WithProbeCache(cfg.Health.CacheTTL),
	)
	if !mgr.Connect(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database, cfg.MongoDB.Collection) {
		logger.Warnf("starting without a reachable database; /health reports unhealthy until it answers")
	}
	repo := repository.NewMongoRepo(mgr.Collection())
	if mgr.Connected() {
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Warnf("could not ensure todo indexes: %v", err)
		}
	}
	if cfg.Health.RefreshInterval > 0 {
		go mgr.Watch(ctx, cfg.Health.RefreshInterval)
	}
	svc := service.NewService(mgr, repo)

	rdb := connectRedis(ctx, cfg)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r := newRouter(cfg, svc, rdb)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  time.Minute,
	}
	logger.Infof("config summary: database=%q collection=%q rate_limit=%v redis=%v probe_cache=%s",
		cfg.MongoDB.Database, cfg.MongoDB.Collection, cfg.RateLimit.Enabled, rdb != nil, cfg.Health.CacheTTL)

	runErr := run(ctx, srv)

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mgr.Close(closeCtx); err != nil {
		logger.Warnf("mongo disconnect: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if runErr != nil {
		logger.Fatalf("server failed: %v", runErr)
	}
	logger.Infof("server exited gracefully")
}

// newRouter assembles middleware and routes.
func newRouter(cfg *config.Config, svc service.Service, rdb *redis.Client) *gin.Engine {
	r := gin.New()
	// ClientIP keys the rate limiter and is stored with each todo, so
	// X-Forwarded-For is only honoured from configured proxies.
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Warnf("invalid TRUSTED_PROXIES %v, trusting none: %v", cfg.Server.TrustedProxies, err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), logger.GinMiddleware(), middleware.RequestMetrics(), middleware.CORS(cfg.Server.AllowOrigins))

	if cfg.RateLimit.Enabled {
		if rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	handler.RegisterTodoRoutes(r, svc, handler.Metadata{Version: cfg.API.Version, Database: cfg.API.DatabaseLabel})
	handlers.RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// connectRedis returns a client only when the Redis-backed limiter is enabled
// and Redis answers; otherwise the in-memory limiter is used.
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if !cfg.RateLimit.Enabled || !cfg.RateLimit.UseRedis || cfg.Redis.Addr() == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		logger.Warnf("failed to connect to Redis (%s), using in-memory rate limiter: %v", cfg.Redis.Addr(), err)
		_ = client.Close()
		return nil
	}
	logger.Infof("connected to Redis for rate limiting: %s", cfg.Redis.Addr())
	return client
}

// run serves until ctx is cancelled (SIGINT/SIGTERM) or the listener fails,
// then drains in-flight requests.
func run(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("starting todo API on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Infof("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
