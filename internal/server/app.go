// Package server initializes and runs the affinity API server.
// It opens the stores, runs migrations, creates the bootstrap admin, starts
// the HTTP server and the session sweeper, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/affinity/internal/logging"
	"github.com/dmitrijs2005/affinity/internal/server/config"
	"github.com/dmitrijs2005/affinity/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/affinity/internal/server/rest"
	"github.com/dmitrijs2005/affinity/internal/server/services"
	"github.com/dmitrijs2005/affinity/internal/server/shared/db"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	redis       *redis.Client
	userService *services.UserService
	sweeper     *services.SessionSweeper
}

// seams for tests
var (
	openPostgres = db.OpenPostgres
	openRedis    = db.OpenRedis
)

// NewApp connects to the configured stores and prepares every component.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	app := &App{config: c, logger: logger}

	rm, err := app.initStores(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	if err := rm.RunMigrations(ctx, app.db); err != nil {
		app.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	us, err := services.NewUserService(app.db, rm, c, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("user service init error: %w", err)
	}
	app.userService = us

	if _, err := us.BootstrapAdmin(ctx, services.RegisterInput{
		Name:     c.BootstrapAdminName,
		Email:    c.BootstrapAdminEmail,
		Password: c.BootstrapAdminPassword,
	}); err != nil {
		app.Close()
		return nil, fmt.Errorf("bootstrap admin error: %w", err)
	}

	app.sweeper = services.NewSessionSweeper(rm.Sessions(app.db), c.SessionSweepInterval, logger)

	return app, nil
}

func (app *App) initStores(ctx context.Context) (repomanager.RepositoryManager, error) {
	switch app.config.SessionStore {
	case config.SessionStorePostgres, config.SessionStoreRedis:
	default:
		return nil, fmt.Errorf("unknown session store %q", app.config.SessionStore)
	}

	conn, err := openPostgres(ctx, app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = conn

	if app.config.SessionStore == config.SessionStoreRedis {
		client, err := openRedis(ctx, app.config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		app.redis = client
		return repomanager.NewRedisSessionsManager(client), nil
	}

	return repomanager.NewPostgresRepositoryManager(), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.userService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the stores.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "session_store", app.config.SessionStore)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	wg.Wait()

	app.Close()
	app.logger.Info(context.Background(), "App stopped")
}

// Close releases the store connections. It is safe to call more than once.
func (app *App) Close() {
	if app.redis != nil {
		_ = app.redis.Close()
		app.redis = nil
	}
	if app.db != nil {
		_ = app.db.Close()
		app.db = nil
	}
}
