package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/upb/account-auth/config"
	"github.com/upb/account-auth/handlers"
	"github.com/upb/account-auth/middleware"
	"github.com/upb/account-auth/repositories"
	"github.com/upb/account-auth/repositories/postgres"
	rediscache "github.com/upb/account-auth/repositories/redis"
	"github.com/upb/account-auth/services"
	"github.com/upb/account-auth/token"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config      *config.Config
	DB          *postgres.DB
	Redis       *goredis.Client
	Logger      *zap.Logger
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users repositories.UserRepository

	// Tokens
	AccessStrategy  *token.Strategy
	RefreshStrategy *token.Strategy
	AccessGate      *middleware.TokenGate
	RefreshGate     *middleware.TokenGate

	// Services
	UserManager    *services.UserManager
	AuthService    *services.AuthService
	AccountService *services.AccountService

	// Readiness checks by name
	HealthChecks map[string]handlers.HealthChecker
}

// NewDependencies connects to PostgreSQL (and Redis when configured) and wires every component
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:       cfg,
		Logger:       logger,
		HealthChecks: make(map[string]handlers.HealthChecker),
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initCache(ctx, cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	if err := deps.initAuth(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesWithRepository wires the auth components over an existing user store.
// Strategy options such as token.WithClock apply to both strategies.
func NewDependenciesWithRepository(cfg *config.Config, users repositories.UserRepository, logger *zap.Logger, opts ...token.Option) (*Dependencies, error) {
	deps := &Dependencies{
		Config:       cfg,
		Logger:       logger,
		Users:        users,
		HealthChecks: make(map[string]handlers.HealthChecker),
	}

	if err := deps.initAuth(cfg, opts...); err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection, factory and repositories
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(ctx, cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()
	d.Users = factory.NewRepositories().Users
	d.HealthChecks["database"] = d.DB

	return nil
}

// initCache wraps the user repository with the Redis principal cache when REDIS_URL is set
func (d *Dependencies) initCache(ctx context.Context, cfg *config.Config) error {
	if cfg.Redis.URL == "" {
		d.Logger.Info("principal cache disabled")
		return nil
	}

	client, err := rediscache.NewClient(cfg.Redis.URL)
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// Lookups fall through to PostgreSQL while Redis is down.
		d.Logger.Warn("redis not reachable at startup", zap.Error(err))
	}

	cache := rediscache.NewCachedUserRepository(d.Users, client, cfg.Redis.CacheTTL, d.Logger)
	d.Redis = client
	d.Users = cache
	d.HealthChecks["redis"] = cache

	d.Logger.Info("principal cache enabled", zap.Duration("ttl", cfg.Redis.CacheTTL))
	return nil
}

// initAuth builds the two strategies once from configuration, then the services and gates
func (d *Dependencies) initAuth(cfg *config.Config, opts ...token.Option) error {
	if d.Users == nil {
		return errors.New("user repository is required")
	}

	access, err := token.NewStrategy(token.KindAccess, cfg.Tokens.AccessSecret, cfg.Tokens.AccessLifetimeSeconds, opts...)
	if err != nil {
		return err
	}
	refresh, err := token.NewStrategy(token.KindRefresh, cfg.Tokens.RefreshSecret, cfg.Tokens.RefreshLifetimeSeconds, opts...)
	if err != nil {
		return err
	}

	accessGate, err := middleware.NewAccessGate(access, refresh, d.Logger)
	if err != nil {
		return err
	}
	refreshGate, err := middleware.NewRefreshGate(refresh, access, d.Logger)
	if err != nil {
		return err
	}

	d.AccessStrategy = access
	d.RefreshStrategy = refresh
	d.AccessGate = accessGate
	d.RefreshGate = refreshGate

	d.UserManager = services.NewUserManager(d.Users, cfg.Tokens.LookupTimeout, d.Logger)
	d.AuthService = services.NewAuthService(d.UserManager, access, refresh, d.Logger)
	d.AccountService = services.NewAccountService(d.UserManager, access, d.Logger)

	d.Logger.Info("auth initialized",
		zap.Duration("access_lifetime", access.Lifetime()),
		zap.Duration("refresh_lifetime", refresh.Lifetime()))
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %w", errors.Join(errs...))
	}

	return nil
}
