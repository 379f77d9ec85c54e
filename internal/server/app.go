// Package server assembles the authentication service: it opens the user
// store, applies migrations, builds the resolver, password hasher, token
// issuer and login throttle, and serves HTTP until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/schoolauth/internal/dbx"
	"github.com/dmitrijs2005/schoolauth/internal/logging"
	"github.com/dmitrijs2005/schoolauth/internal/server/auth"
	"github.com/dmitrijs2005/schoolauth/internal/server/config"
	"github.com/dmitrijs2005/schoolauth/internal/server/httpserver"
	"github.com/dmitrijs2005/schoolauth/internal/server/identity"
	"github.com/dmitrijs2005/schoolauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/schoolauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/schoolauth/internal/server/services"
	"github.com/dmitrijs2005/schoolauth/internal/server/throttle"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	users   users.Repository
	redis   *redis.Client
	limiter throttle.Limiter
	server  *httpserver.HTTPServer
}

// NewApp validates c and builds every component. Any failure aborts
// startup.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	gin.SetMode(gin.ReleaseMode)
	return newApp(ctx, c, logging.NewJSONLogger(os.Stdout, c.LogLevel))
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	app := &App{config: c, logger: logger}

	if err := app.initStore(ctx); err != nil {
		return nil, err
	}

	svc, err := app.initAuthService()
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	if err := app.initLimiter(ctx); err != nil {
		app.close(ctx)
		return nil, err
	}

	sameSite, err := c.SameSite()
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	app.server = httpserver.NewHTTPServer(httpserver.Options{
		Address:        c.EndpointAddrHTTP,
		Cookie:         httpserver.CookieOptions{Secure: c.CookieSecure, SameSite: sameSite},
		AllowedOrigins: c.AllowedOrigins,
		Limiter:        app.limiter,
	}, logger, svc)

	return app, nil
}

func (app *App) initStore(ctx context.Context) error {
	db, dialect, err := dbx.Open(ctx, app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.New(dialect)
	if err != nil {
		_ = db.Close()
		return err
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("db migrations error: %w", err)
	}

	app.db = db
	app.users = rm.Users(db)
	app.logger.Info(ctx, "user store ready", "dialect", string(dialect))
	return nil
}

func (app *App) initAuthService() (*services.AuthService, error) {
	hasher, err := auth.NewPasswordHasher(app.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuer([]byte(app.config.SecretKey), app.config.SigningAlgorithm, app.config.AccessTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	resolver := identity.NewStudentFirstResolver(app.users)
	return services.NewAuthService(resolver, hasher, issuer, app.logger), nil
}

// initLimiter picks the shared Redis counter when REDIS_URL is set and the
// in-process token buckets otherwise. A zero rate disables throttling.
func (app *App) initLimiter(ctx context.Context) error {
	c := app.config
	if c.LoginRatePerMinute == 0 {
		app.logger.Warn(ctx, "login throttling disabled")
		return nil
	}

	if c.RedisURL == "" {
		app.limiter = throttle.NewMemoryLimiter(c.LoginRatePerMinute, c.LoginBurst)
		return nil
	}

	client, err := throttle.NewRedisClient(ctx, c.RedisURL)
	if err != nil {
		return fmt.Errorf("redis init error: %w", err)
	}
	app.redis = client
	app.limiter = throttle.NewRedisLimiter(client, c.LoginRatePerMinute, c.LoginBurst)
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) func() {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the database and Redis connections.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	stopSignals := app.initSignalHandler(cancelFunc)
	defer stopSignals()

	var wg sync.WaitGroup

	if ml, ok := app.limiter.(*throttle.MemoryLimiter); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ml.Run(ctx)
		}()
	}

	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
	}

	cancelFunc()
	wg.Wait()
	app.close(context.Background())

	app.logger.Info(context.Background(), "App stopped")
	return err
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close error", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(ctx, "db close error", "error", err)
		}
	}
}
