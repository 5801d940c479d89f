package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"crm/internal/auth"
	"crm/internal/bus"
	"crm/internal/config"
	cronrunner "crm/internal/cron"
	"crm/internal/db"
	"crm/internal/handler"
	"crm/internal/logger"
	gormrepository "crm/internal/repository/gorm"
	"crm/internal/service"
	syncengine "crm/internal/sync"
	"crm/internal/ws"
)

func main() {
	cfgPath := os.Getenv("CRM_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("CRM_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log, cfg.App.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := bus.NewHub()
	var eventBus bus.Bus = hub
	if cfg.Redis.Addr != "" {
		bridge := bus.NewRedisBridge(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}), cfg.Redis.Channel, hub, logger)
		eventBus = bridge
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("redis bridge stopped", zap.Error(err))
			}
		}()
		logger.Info("redis event bridge enabled", zap.String("channel", cfg.Redis.Channel))
	}

	jwt := auth.JWT{
		Secret:   []byte(cfg.Auth.JWTSecret),
		TokenTTL: cfg.Auth.TokenTTL,
		Issuer:   cfg.Auth.Issuer,
	}

	syncSvc := &service.SyncService{
		Repo:         store,
		Bus:          eventBus,
		Logger:       logger,
		Reconciler:   &syncengine.Reconciler{Repo: store, Logger: logger},
		Cursor:       &syncengine.PullCursor{Repo: store},
		MaxBatchSize: cfg.Sync.MaxBatchSize,
	}
	reminderScan := &service.ReminderScanService{
		Repo:   store,
		Bus:    eventBus,
		Logger: logger,
		Limit:  cfg.Reminders.ScanLimit,
	}
	automation := &service.AutomationService{
		Repo:   store,
		Hub:    hub,
		Bus:    eventBus,
		Logger: logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(handler.CORSMiddleware())
	engine.Use(auth.Middleware(jwt, cfg.Auth.Disabled))
	engine.Use(handler.WriteAuditMiddleware(logger))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	handler.RegisterDocs(engine)

	authHandler := &handler.AuthHandler{Repo: store, JWT: jwt, Logger: logger}
	authHandler.Register(engine)
	callHandler := &handler.CallHandler{Repo: store, Bus: eventBus, Logger: logger}
	callHandler.Register(engine)
	leadHandler := &handler.LeadHandler{Repo: store, Bus: eventBus, Logger: logger}
	leadHandler.Register(engine)
	reminderHandler := &handler.ReminderHandler{Repo: store, Bus: eventBus, Logger: logger}
	reminderHandler.Register(engine)
	syncHandler := &handler.SyncHandler{Sync: syncSvc, Repo: store, Logger: logger}
	syncHandler.Register(engine)
	notificationHandler := &handler.NotificationHandler{Repo: store, Logger: logger}
	notificationHandler.Register(engine)
	automationHandler := &handler.AutomationHandler{Repo: store, Logger: logger}
	automationHandler.Register(engine)
	analyticsHandler := &handler.AnalyticsHandler{Repo: store, Logger: logger}
	analyticsHandler.Register(engine)

	wsHub := ws.NewHub(jwt, syncSvc, hub, logger)
	wsHub.Register(engine)
	go wsHub.Run(ctx)

	go func() {
		if err := automation.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("automation service stopped", zap.Error(err))
		}
	}()

	cronRunner := cronrunner.New(logger, ctx)
	_, err = cronRunner.Add("@every "+cfg.Reminders.ScanInterval.String(), func(ctx context.Context) {
		if err := reminderScan.Scan(ctx); err != nil {
			logger.Warn("reminder due scan failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Warn("cron register reminder scan failed", zap.Error(err))
	}
	_, err = cronRunner.Add(cfg.Retention.CleanupCron, func(ctx context.Context) {
		cutoff := time.Now().UTC().Add(-cfg.Retention.SyncLogMaxAge)
		n, err := store.DeleteSyncLogsBefore(ctx, cutoff)
		if err != nil {
			logger.Warn("sync log cleanup failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("deleted old sync logs", zap.Int64("count", n))
		}
	})
	if err != nil {
		logger.Warn("cron register sync log cleanup failed", zap.Error(err))
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
