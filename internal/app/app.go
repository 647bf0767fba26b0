package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/mba-counselor/internal/data/db"
	server "github.com/yungbote/mba-counselor/internal/http"
	httpMW "github.com/yungbote/mba-counselor/internal/http/middleware"
	"github.com/yungbote/mba-counselor/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *server.Server
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services

	database *db.DatabaseService
	limiter  *httpMW.SessionRateLimiter
	cancel   context.CancelFunc
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	database, err := db.NewDatabaseService(log, db.ConfigFromEnv())
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.Migrate(database.DB()); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := database.DB().DB()
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("database handle: %w", err)
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	reposet := wireRepos(database.DB(), log)
	serviceset := wireServices(log, cfg, clients, reposet)
	handlerset := wireHandlers(log, serviceset, sqlDB)

	var limiter *httpMW.SessionRateLimiter
	if cfg.ChatRatePerMinute > 0 {
		limiter = httpMW.NewSessionRateLimiter(cfg.ChatRatePerMinute)
	}

	return &App{
		Log:      log,
		DB:       database.DB(),
		Server:   wireServer(log, cfg, handlerset, limiter),
		Cfg:      cfg,
		Clients:  clients,
		Repos:    reposet,
		Services: serviceset,
		database: database,
		limiter:  limiter,
	}, nil
}

// Start launches the background sweepers. It is a no-op when already started.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Services.Sessions.StartJanitor(ctx, time.Minute)
	if a.limiter != nil {
		a.limiter.StartCleanup(ctx.Done(), 5*time.Minute)
	}
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "addr", a.Cfg.Addr(), "vector_provider", a.Cfg.VectorProvider)
	return a.Server.Run(a.Cfg.Addr())
}

func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close()
	if a.database != nil {
		_ = a.database.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
