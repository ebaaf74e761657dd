package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/review-digest/internal/data/db"
	server "github.com/yungbote/review-digest/internal/http"
	"github.com/yungbote/review-digest/internal/jobs/scheduler"
	"github.com/yungbote/review-digest/internal/observability"
	"github.com/yungbote/review-digest/internal/platform/envutil"
	"github.com/yungbote/review-digest/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics

	pg           *db.PostgresService
	scheduler    *scheduler.Scheduler
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.OtelConfig())

	pg, err := db.NewPostgresService(log, cfg.Postgres)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.Migrate(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	metrics := observability.NewMetrics()
	reposet := wireRepos(theDB, log)
	clientset, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	serviceset, err := wireServices(theDB, log, cfg, reposet, clientset, metrics)
	if err != nil {
		log.Sync()
		return nil, err
	}
	handlerset := wireHandlers(log, serviceset, pg)
	router := wireRouter(log, cfg, handlerset, metrics)

	a := &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clientset,
		Services:     serviceset,
		Metrics:      metrics,
		pg:           pg,
		otelShutdown: otelShutdown,
	}
	if cfg.Sweep.Enabled {
		s, err := scheduler.New(log, scheduler.Config{Spec: cfg.Sweep.Cron, Timeout: cfg.SweepTimeout()})
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := s.Schedule(a.sweep); err != nil {
			a.Close()
			return nil, err
		}
		a.scheduler = s
	}
	return a, nil
}

func (a *App) sweep(ctx context.Context) error {
	_, err := a.Services.ReviewDigest.Sweep(ctx)
	return err
}

// Serve runs the HTTP server and the sweep scheduler until ctx ends.
func (a *App) Serve(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.scheduler != nil {
		a.scheduler.Start(ctx)
		defer a.scheduler.Stop()
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
	srv := &server.Server{Engine: a.Router}
	return srv.Run(ctx, a.Cfg.HTTPAddr)
}

// SweepOnce resolves every reviewed module once and returns.
func (a *App) SweepOnce(ctx context.Context) error {
	report, err := a.Services.ReviewDigest.Sweep(ctx)
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("sweep: %d of %d modules failed", report.Failed, report.Modules)
	}
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Clients.DigestBus != nil {
		_ = a.Clients.DigestBus.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
