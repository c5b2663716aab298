// Package app wires the application dependency graph.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aimux/aimux/config"
	"github.com/aimux/aimux/handlers"
	"github.com/aimux/aimux/middleware"
	"github.com/aimux/aimux/repositories"
	"github.com/aimux/aimux/repositories/postgres"
	"github.com/aimux/aimux/services/audit"
	"github.com/aimux/aimux/services/cache"
	"github.com/aimux/aimux/services/dispatch"
	"github.com/aimux/aimux/services/providers"
	"github.com/aimux/aimux/services/providers/anthropic"
	"github.com/aimux/aimux/services/providers/gemini"
	"github.com/aimux/aimux/services/providers/openai"
	"github.com/aimux/aimux/services/ratelimit"
)

// Dependencies is the central wiring point: everything is constructed once
// here and injected explicitly, no package-level singletons.
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	DB              *sql.DB
	InteractionRepo repositories.InteractionRepository

	Resolver   *providers.Resolver
	Cache      *cache.ResponseCache
	Audit      *audit.Service
	Dispatcher *dispatch.Service
	Limiter    *ratelimit.Limiter

	LLMHandler          *handlers.LLMHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

// NewDependencies builds and starts the dependency graph.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initAuditStore(ctx); err != nil {
		return nil, fmt.Errorf("init audit store: %w", err)
	}
	deps.initProviders()
	deps.initDispatch()
	deps.initHTTP()

	logger.Info("dependencies initialized",
		zap.Strings("providers", deps.Dispatcher.ProviderNames()),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Bool("auth_enabled", deps.AuthMiddleware.Enabled()))
	return deps, nil
}

func (d *Dependencies) initAuditStore(ctx context.Context) error {
	var repo repositories.InteractionRepository

	if d.Config.Database.URL != "" {
		opts := postgres.DefaultConnectionOptions()
		opts.MaxOpenConns = d.Config.Database.MaxOpenConns
		opts.MaxIdleConns = d.Config.Database.MaxIdleConns

		db, err := postgres.Connect(ctx, d.Config.Database.URL, opts)
		if err != nil {
			return err
		}
		pgRepo := postgres.NewInteractionRepository(db)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return err
		}
		d.DB = db
		repo = pgRepo
	} else {
		d.Logger.Warn("no DATABASE_URL configured, audit records go to the process log only")
		repo = audit.NewLogRepository(d.Logger)
	}

	d.InteractionRepo = repo
	d.Audit = audit.NewService(repo, d.Logger, audit.DefaultConfig())
	return d.Audit.Start()
}

func (d *Dependencies) initProviders() {
	resolver := providers.NewResolver()
	_ = resolver.RegisterBuiltin("openai", openai.New)
	_ = resolver.RegisterBuiltin("anthropic", anthropic.New)
	_ = resolver.RegisterBuiltin("gemini", gemini.New)
	d.Resolver = resolver
}

func (d *Dependencies) initDispatch() {
	d.Cache = cache.New(d.Config.Cache.MaxEntries)
	d.Dispatcher = dispatch.New(d.Config.Providers, d.Resolver, d.Cache, d.Audit, d.Logger, dispatch.Config{
		DefaultProvider: d.Config.DefaultProvider,
		CacheEnabled:    d.Config.Cache.Enabled,
		CacheTTLMinutes: d.Config.Cache.TTLMinutes,
		CachePrefix:     d.Config.Cache.Prefix,
	})
}

func (d *Dependencies) initHTTP() {
	d.LLMHandler = handlers.NewLLMHandler(d.Dispatcher, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Config.Auth.JWTSecret, d.Logger)

	if d.Config.RateLimit.Enabled {
		d.Limiter = ratelimit.New(d.Config.RateLimit.RequestsPerSecond, d.Config.RateLimit.Burst, d.Logger)
		d.RateLimitMiddleware = middleware.NewRateLimitMiddleware(d.Limiter, d.Config.DefaultProvider, d.Logger)
	}
}

// Close releases owned resources: the audit pipeline is drained, then the
// database pool is closed.
func (d *Dependencies) Close(timeout time.Duration) error {
	var firstErr error
	if d.Audit != nil {
		if err := d.Audit.Stop(timeout); err != nil {
			firstErr = err
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
