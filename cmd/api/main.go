// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/marketplace-backend/internal/account"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/admin"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/auth"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/config"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/core"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/health"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/history"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/middleware"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/server"
	"github.com/carterperez-dev/templates/marketplace-backend/internal/user"
)

const (
	drainDelay   = 5 * time.Second
	closeGrace   = 5 * time.Second
	defaultLevel = slog.LevelInfo
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// infra holds the long-lived connections closed on shutdown.
type infra struct {
	db        *core.Database
	redis     *core.Redis
	telemetry *core.Telemetry
}

// handlers groups every route owner mounted under /v1.
type handlers struct {
	authn   *auth.Authenticator
	auth    *auth.Handler
	users   *user.Handler
	account *account.Handler
	admin   *admin.Handler
	health  *health.Handler
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	logger.Info("starting marketplace backend",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	inf, err := openInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer inf.close(logger)

	h, err := buildHandlers(cfg, inf, logger)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: h.health,
		Logger:        logger,
	})
	mountRoutes(srv.Router(), cfg, inf, h, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+closeGrace,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := inf.telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func openInfra(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*infra, error) {
	tel, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		tel = &core.Telemetry{}
	} else if cfg.Otel.Enabled {
		logger.Info("tracing enabled", "endpoint", cfg.Otel.Endpoint)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected",
		"auto_migrate", cfg.Database.AutoMigrate,
		"max_open_conns", cfg.Database.MaxOpenConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close() //nolint:errcheck // startup already failed
		return nil, err
	}
	logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)

	return &infra{db: db, redis: redis, telemetry: tel}, nil
}

func (i *infra) close(logger *slog.Logger) {
	if err := i.redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}
	if err := i.db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}
}

func buildHandlers(cfg *config.Config, inf *infra, logger *slog.Logger) (*handlers, error) {
	codec, err := auth.NewCodec(cfg.JWT)
	if err != nil {
		return nil, err
	}
	logger.Info("session codec ready",
		"algorithm", "HS256",
		"issuer", cfg.JWT.Issuer,
		"ttl", cfg.JWT.AccessTokenExpire,
	)

	accounts := account.NewService(
		account.NewRepository(inf.db.DB),
		history.NewRepository(inf.db.DB),
		account.NewCoordinator(inf.db.DB),
		account.NewLifecycle(cfg.Lifecycle.RenewalPeriod),
	)
	users := user.NewService(inf.db.DB, user.NewRepository(inf.db.DB), accounts)

	return &handlers{
		authn:   auth.NewAuthenticator(codec),
		auth:    auth.NewHandler(auth.NewService(codec, users)),
		users:   user.NewHandler(users),
		account: account.NewHandler(accounts),
		admin: admin.NewHandler(admin.HandlerConfig{
			DBStats:      inf.db.Stats,
			RedisStats:   inf.redis.PoolStats,
			DBPing:       inf.db.Ping,
			RedisPing:    inf.redis.Ping,
			AccountStats: accounts.CountByStatus,
			UserStats:    users.CountByRole,
			Moderator:    accounts,
		}),
		health: health.NewHandler(cfg.App.Version).
			AddCheck("database", inf.db).
			AddCheck("redis", inf.redis),
	}, nil
}

// mountRoutes installs middleware before any route, as chi requires.
func mountRoutes(router chi.Router, cfg *config.Config, inf *infra, h *handlers, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	if cfg.Metrics.Enabled {
		router.Use(middleware.Metrics)
	}
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))
	router.Use(globalLimiter(cfg.RateLimit, inf).Handler)

	h.health.RegisterRoutes(router)
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, core.MetricsHandler())
	}

	session := middleware.Authenticate(h.authn)
	adminOnly := middleware.RequireAdmin(h.authn)
	login := middleware.LoginLimiter(
		inf.redis.Limiter(),
		middleware.PerMinute(cfg.RateLimit.LoginRequests, cfg.RateLimit.LoginBurst),
	)

	router.Route("/v1", func(r chi.Router) {
		h.auth.RegisterRoutes(r, session, login.Handler)
		h.users.RegisterRoutes(r, session)
		h.users.RegisterAdminRoutes(r, adminOnly)
		h.account.RegisterRoutes(r, session)
		h.admin.RegisterRoutes(r, adminOnly)
	})
}

func globalLimiter(cfg config.RateLimitConfig, inf *infra) *middleware.RateLimiter {
	return middleware.NewRateLimiter(inf.redis.Limiter(), middleware.RateLimitConfig{
		Limit:    middleware.PerWindow(cfg.Requests, cfg.Burst, cfg.Window),
		KeyFunc:  middleware.KeyByIP,
		FailOpen: true,
	})
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	level := defaultLevel
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
