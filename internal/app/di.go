// Package app provides dependency injection and application wiring.
package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"sync"

	authHTTP "github.com/sackofdump/pcompass/internal/auth/http"
	authService "github.com/sackofdump/pcompass/internal/auth/service"
	authUseCase "github.com/sackofdump/pcompass/internal/auth/usecase"
	"github.com/sackofdump/pcompass/internal/config"
	"github.com/sackofdump/pcompass/internal/database"
	httpServer "github.com/sackofdump/pcompass/internal/http"
	licenseRepository "github.com/sackofdump/pcompass/internal/license/repository"
	"github.com/sackofdump/pcompass/internal/metrics"
	rlHTTP "github.com/sackofdump/pcompass/internal/ratelimit/http"
	rlRepository "github.com/sackofdump/pcompass/internal/ratelimit/repository"
	rlUseCase "github.com/sackofdump/pcompass/internal/ratelimit/usecase"
	userRepository "github.com/sackofdump/pcompass/internal/user/repository"
	userUseCase "github.com/sackofdump/pcompass/internal/user/usecase"
)

// UserStore is the full user persistence surface the container wires. Both
// driver-specific repositories satisfy it, and it structurally covers the
// narrower views the auth use cases depend on.
type UserStore = userUseCase.UserRepository

// LicenseStore is the license persistence surface.
type LicenseStore interface {
	authUseCase.LicenseRepository
	DeleteByEmail(ctx context.Context, email string) error
}

// RateLimitStore is the rate-limit persistence surface.
type RateLimitStore interface {
	rlUseCase.EventRepository
	DeleteByClientKey(ctx context.Context, clientKey string) error
}

// Container wires application components with lazy initialization. Each
// component initializes once on first use and is shared afterwards.
type Container struct {
	cfg *config.Config

	logger     *slog.Logger
	loggerOnce sync.Once

	db     *sql.DB
	dbErr  error
	dbOnce sync.Once

	txManager     database.TxManager
	txManagerErr  error
	txManagerOnce sync.Once

	userRepo     UserStore
	userRepoErr  error
	userRepoOnce sync.Once

	licenseRepo     LicenseStore
	licenseRepoErr  error
	licenseRepoOnce sync.Once

	rateLimitRepo     RateLimitStore
	rateLimitRepoErr  error
	rateLimitRepoOnce sync.Once

	authSecret  string
	proSecret   string
	secretsErr  error
	secretsOnce sync.Once

	passwordService     authService.PasswordService
	passwordServiceErr  error
	passwordServiceOnce sync.Once

	guard     authUseCase.Guard
	guardErr  error
	guardOnce sync.Once

	sessionUseCase     authUseCase.SessionUseCase
	sessionUseCaseErr  error
	sessionUseCaseOnce sync.Once

	userUC     *userUseCase.UserUseCase
	userUCErr  error
	userUCOnce sync.Once

	limiter     *rlUseCase.Limiter
	limiterErr  error
	limiterOnce sync.Once

	metricsProvider     *metrics.Provider
	metricsProviderErr  error
	metricsProviderOnce sync.Once

	authMetrics     metrics.AuthMetrics
	authMetricsErr  error
	authMetricsOnce sync.Once

	server     *httpServer.Server
	serverErr  error
	serverOnce sync.Once

	metricsServer     *httpServer.MetricsServer
	metricsServerErr  error
	metricsServerOnce sync.Once
}

// NewContainer creates a new dependency injection container.
func NewContainer(cfg *config.Config) *Container {
	return &Container{cfg: cfg}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.cfg
}

// Logger returns the application logger.
func (c *Container) Logger() *slog.Logger {
	c.loggerOnce.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection pool.
func (c *Container) DB() (*sql.DB, error) {
	c.dbOnce.Do(func() {
		c.db, c.dbErr = database.Connect(database.Config{
			Driver:             c.cfg.DBDriver,
			ConnectionString:   c.cfg.DBConnectionString,
			MaxOpenConnections: c.cfg.DBMaxOpenConnections,
			MaxIdleConnections: c.cfg.DBMaxIdleConnections,
			ConnMaxLifetime:    c.cfg.DBConnMaxLifetime,
		})
	})
	return c.db, c.dbErr
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerOnce.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.txManagerErr = err
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	return c.txManager, c.txManagerErr
}

// UserRepository returns the driver-specific user repository.
func (c *Container) UserRepository() (UserStore, error) {
	c.userRepoOnce.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.userRepoErr = err
			return
		}
		switch c.cfg.DBDriver {
		case "mysql":
			c.userRepo = userRepository.NewMySQLUserRepository(db)
		default:
			c.userRepo = userRepository.NewPostgreSQLUserRepository(db)
		}
	})
	return c.userRepo, c.userRepoErr
}

// LicenseRepository returns the driver-specific license repository.
func (c *Container) LicenseRepository() (LicenseStore, error) {
	c.licenseRepoOnce.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.licenseRepoErr = err
			return
		}
		switch c.cfg.DBDriver {
		case "mysql":
			c.licenseRepo = licenseRepository.NewMySQLLicenseRepository(db)
		default:
			c.licenseRepo = licenseRepository.NewPostgreSQLLicenseRepository(db)
		}
	})
	return c.licenseRepo, c.licenseRepoErr
}

// RateLimitRepository returns the driver-specific rate-limit repository.
func (c *Container) RateLimitRepository() (RateLimitStore, error) {
	c.rateLimitRepoOnce.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.rateLimitRepoErr = err
			return
		}
		txManager, err := c.TxManager()
		if err != nil {
			c.rateLimitRepoErr = err
			return
		}
		switch c.cfg.DBDriver {
		case "mysql":
			c.rateLimitRepo = rlRepository.NewMySQLRateLimitRepository(db, txManager)
		default:
			c.rateLimitRepo = rlRepository.NewPostgreSQLRateLimitRepository(db, txManager)
		}
	})
	return c.rateLimitRepo, c.rateLimitRepoErr
}

// SigningSecrets resolves the auth and pro signing secrets once at startup.
// An unresolvable secret is fatal: tokens could neither be issued nor
// verified without it.
func (c *Container) SigningSecrets(ctx context.Context) (string, string, error) {
	c.secretsOnce.Do(func() {
		source := authService.NewSecretSource(c.cfg)
		c.authSecret, c.proSecret, c.secretsErr = source.Resolve(ctx)
	})
	return c.authSecret, c.proSecret, c.secretsErr
}

// PasswordService returns the password hashing service.
func (c *Container) PasswordService() (authService.PasswordService, error) {
	c.passwordServiceOnce.Do(func() {
		c.passwordService, c.passwordServiceErr = authService.NewPasswordService()
	})
	return c.passwordService, c.passwordServiceErr
}

// Guard returns the authorization guard.
func (c *Container) Guard(ctx context.Context) (authUseCase.Guard, error) {
	c.guardOnce.Do(func() {
		authSecret, proSecret, err := c.SigningSecrets(ctx)
		if err != nil {
			c.guardErr = err
			return
		}
		userRepo, err := c.UserRepository()
		if err != nil {
			c.guardErr = err
			return
		}
		licenseRepo, err := c.LicenseRepository()
		if err != nil {
			c.guardErr = err
			return
		}

		verifier := authUseCase.NewTokenVerifier(
			authService.NewSigner(),
			authSecret,
			proSecret,
			authUseCase.NewSystemClock(),
			userRepo,
			c.cfg.TokenMaxAge,
			c.cfg.TokenClockSkew,
			c.cfg.DBQueryTimeout,
		)
		c.guard = authUseCase.NewGuard(verifier, licenseRepo, c.cfg.DBQueryTimeout)
	})
	return c.guard, c.guardErr
}

// SessionUseCase returns the sign-in use case.
func (c *Container) SessionUseCase(ctx context.Context) (authUseCase.SessionUseCase, error) {
	c.sessionUseCaseOnce.Do(func() {
		authSecret, proSecret, err := c.SigningSecrets(ctx)
		if err != nil {
			c.sessionUseCaseErr = err
			return
		}
		userRepo, err := c.UserRepository()
		if err != nil {
			c.sessionUseCaseErr = err
			return
		}
		licenseRepo, err := c.LicenseRepository()
		if err != nil {
			c.sessionUseCaseErr = err
			return
		}
		passwordService, err := c.PasswordService()
		if err != nil {
			c.sessionUseCaseErr = err
			return
		}

		c.sessionUseCase = authUseCase.NewSessionUseCase(
			userRepo,
			licenseRepo,
			passwordService,
			authService.NewSigner(),
			authService.NewTokenCodec(),
			authUseCase.NewSystemClock(),
			authSecret,
			proSecret,
			c.cfg.DBQueryTimeout,
		)
	})
	return c.sessionUseCase, c.sessionUseCaseErr
}

// UserUseCase returns the account management use case.
func (c *Container) UserUseCase() (*userUseCase.UserUseCase, error) {
	c.userUCOnce.Do(func() {
		userRepo, err := c.UserRepository()
		if err != nil {
			c.userUCErr = err
			return
		}
		licenseRepo, err := c.LicenseRepository()
		if err != nil {
			c.userUCErr = err
			return
		}
		rateLimitRepo, err := c.RateLimitRepository()
		if err != nil {
			c.userUCErr = err
			return
		}
		passwordService, err := c.PasswordService()
		if err != nil {
			c.userUCErr = err
			return
		}
		txManager, err := c.TxManager()
		if err != nil {
			c.userUCErr = err
			return
		}

		c.userUC = userUseCase.NewUserUseCase(
			userRepo,
			licenseRepo,
			rateLimitRepo,
			passwordService,
			txManager,
			c.Logger(),
		)
	})
	return c.userUC, c.userUCErr
}

// RateLimiter returns the SQL-backed sliding-window limiter.
func (c *Container) RateLimiter() (*rlUseCase.Limiter, error) {
	c.limiterOnce.Do(func() {
		repo, err := c.RateLimitRepository()
		if err != nil {
			c.limiterErr = err
			return
		}
		c.limiter = rlUseCase.NewLimiter(
			repo,
			rlUseCase.NewSystemClock(),
			rlUseCase.LimiterConfig{
				Limit:            c.cfg.RateLimitRequests,
				Window:           c.cfg.RateLimitWindow,
				Retention:        c.cfg.RateLimitRetention,
				PruneProbability: c.cfg.RateLimitPruneProbability,
				QueryTimeout:     c.cfg.DBQueryTimeout,
			},
			c.Logger(),
		)
	})
	return c.limiter, c.limiterErr
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderOnce.Do(func() {
		if !c.cfg.MetricsEnabled {
			return
		}
		c.metricsProvider, c.metricsProviderErr = metrics.NewProvider(c.cfg.MetricsNamespace)
	})
	return c.metricsProvider, c.metricsProviderErr
}

// AuthMetrics returns the auth decision metrics, or nil when metrics are disabled.
func (c *Container) AuthMetrics() (metrics.AuthMetrics, error) {
	c.authMetricsOnce.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.authMetricsErr = err
			return
		}
		if provider == nil {
			return
		}
		c.authMetrics, c.authMetricsErr = metrics.NewAuthMetrics(provider.MeterProvider(), c.cfg.MetricsNamespace)
	})
	return c.authMetrics, c.authMetricsErr
}

// HTTPServer returns the API server with all routes and middlewares wired.
func (c *Container) HTTPServer(ctx context.Context) (*httpServer.Server, error) {
	c.serverOnce.Do(func() {
		logger := c.Logger()

		guard, err := c.Guard(ctx)
		if err != nil {
			c.serverErr = err
			return
		}
		sessionUC, err := c.SessionUseCase(ctx)
		if err != nil {
			c.serverErr = err
			return
		}
		userUC, err := c.UserUseCase()
		if err != nil {
			c.serverErr = err
			return
		}
		limiter, err := c.RateLimiter()
		if err != nil {
			c.serverErr = err
			return
		}
		authMetrics, err := c.AuthMetrics()
		if err != nil {
			c.serverErr = err
			return
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			c.serverErr = err
			return
		}

		handlers := httpServer.Handlers{
			Session: authHTTP.NewSessionHandler(
				sessionUC,
				userUC,
				c.cfg.TokenMaxAge,
				c.cfg.CookieSecure,
				logger,
			),
		}

		middlewares := httpServer.Middlewares{
			Authentication: authHTTP.AuthenticationMiddleware(guard, authService.NewTokenCodec(), authMetrics, logger),
			RateLimit:      rlHTTP.RateLimitMiddleware(limiter, authMetrics, logger),
			SignInRateLimit: authHTTP.SignInRateLimitMiddleware(
				c.cfg.SignInBurstPerSec,
				c.cfg.SignInBurst,
				logger,
			),
		}
		if provider != nil {
			middlewares.Metrics = metrics.HTTPMetricsMiddleware(provider.MeterProvider(), c.cfg.MetricsNamespace)
		}

		c.server = httpServer.NewServer(c.cfg, handlers, middlewares, logger)
	})
	return c.server, c.serverErr
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*httpServer.MetricsServer, error) {
	c.metricsServerOnce.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.metricsServerErr = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = httpServer.NewMetricsServer(c.cfg.ServerHost, c.cfg.MetricsPort, c.Logger(), provider)
	})
	return c.metricsServer, c.metricsServerErr
}

// Shutdown releases container resources: waits for in-flight prunes, flushes
// metrics and closes the connection pool.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if c.limiter != nil {
		c.limiter.Wait()
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// initLogger builds the slog logger from the configured level.
func (c *Container) initLogger() *slog.Logger {
	var level slog.Level
	switch c.cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
