package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/geopulse/core/internal/config"
	"github.com/geopulse/core/internal/database"
	"github.com/geopulse/core/internal/middleware"
	"github.com/geopulse/core/internal/modules/gateway"
	"github.com/geopulse/core/internal/modules/location"
	"github.com/geopulse/core/internal/modules/permissions"
	"github.com/geopulse/core/internal/modules/presence"
	"github.com/geopulse/core/internal/modules/retention"
	pkgcron "github.com/geopulse/core/internal/pkg/cron"
	"github.com/geopulse/core/internal/pkg/events"
	pkgredis "github.com/geopulse/core/internal/pkg/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// App holds all application dependencies.
type App struct {
	cfg    *config.AppConfig
	router *gin.Engine
	db     *mongo.Database
	rc     *pkgredis.Client
	bus    *events.Bus
	hub    *gateway.Hub
	logger *zap.Logger
	cancel context.CancelFunc
	sched  *pkgcron.Scheduler

	presenceStore *presence.MongoStore
	tracker       *presence.Tracker
	permsSvc      *permissions.Service
	feed          *location.DeviceFeed
	locStore      *location.MongoStore
	sampler       *location.Sampler
	sweeper       *retention.Sweeper
}

// New initializes the application: config → Mongo → Redis → hub → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := applyRuntimeSettings(cfg, logger); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("database: %w", err)
	}

	rc, err := pkgredis.Connect(cfg.RedisURL)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("redis: %w", err)
	}

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(buildCORSConfig(cfg)))

	bus := events.NewBus()
	presenceStore := presence.NewMongoStore(db, bus)
	tracker := presence.NewTracker(presenceStore, logger)
	permsSvc := permissions.NewService(db, logger)
	feed := location.NewDeviceFeed()
	locStore := location.NewMongoStore(db, bus)
	sampler := location.NewSampler(locStore, feed, feed, permsSvc, logger, location.Config{
		Interval:          cfg.Tracking.Interval(),
		MinDistanceMeters: cfg.Tracking.MinDistanceMeters,
	})
	sweeper := retention.NewSweeper(locStore, logger, cfg.Tracking.RetentionDays)

	hub := gateway.NewHub(rc, logger, func(token string) (string, bool) {
		uid, err := middleware.ValidateToken(token)
		return uid, err == nil
	}, func(uid string) {
		tracker.Alive(context.Background(), uid)
	})
	go hub.Run(ctx, bus)

	sched := pkgcron.New()
	registerCronJobs(sched, presenceStore, sweeper, logger)
	go sched.Start(ctx)

	app := &App{
		cfg:    cfg,
		router: router,
		db:     db,
		rc:     rc,
		bus:    bus,
		hub:    hub,
		logger: logger,
		cancel: cancel,
		sched:  sched,

		presenceStore: presenceStore,
		tracker:       tracker,
		permsSvc:      permsSvc,
		feed:          feed,
		locStore:      locStore,
		sampler:       sampler,
		sweeper:       sweeper,
	}
	app.registerRoutes(rc)

	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background goroutines and closes connections. The
// tracking session is stopped first so no write races the teardown.
func (a *App) Shutdown() {
	a.sampler.Stop()
	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.Disconnect(ctx, a.db); err != nil {
		a.logger.Warn("mongo disconnect failed", zap.Error(err))
	}
	if err := a.rc.Close(); err != nil {
		a.logger.Warn("redis close failed", zap.Error(err))
	}
}

var processStart = time.Now()
