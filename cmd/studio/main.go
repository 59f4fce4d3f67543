package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pion/webrtc/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Seeksy-app/studio-engine/internal/core/services"
	httphandlers "github.com/Seeksy-app/studio-engine/internal/handlers/http"
	backupinfra "github.com/Seeksy-app/studio-engine/internal/infrastructure/backup"
	"github.com/Seeksy-app/studio-engine/internal/infrastructure/jobs"
	"github.com/Seeksy-app/studio-engine/internal/infrastructure/media"
	"github.com/Seeksy-app/studio-engine/internal/infrastructure/middleware"
	"github.com/Seeksy-app/studio-engine/internal/infrastructure/monitoring"
	"github.com/Seeksy-app/studio-engine/internal/infrastructure/realtime"
	"github.com/Seeksy-app/studio-engine/internal/infrastructure/reliability"
	"github.com/Seeksy-app/studio-engine/internal/infrastructure/repositories"
	"github.com/Seeksy-app/studio-engine/internal/infrastructure/storage"
	backuppkg "github.com/Seeksy-app/studio-engine/pkg/backup"
	"github.com/Seeksy-app/studio-engine/pkg/circuitbreaker"
	"github.com/Seeksy-app/studio-engine/pkg/config"
	"github.com/Seeksy-app/studio-engine/pkg/logger"
	"github.com/Seeksy-app/studio-engine/pkg/tracing"
)

func main() {
	startTime := time.Now()

	// Optional .env for local development
	_ = godotenv.Load()

	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error
	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		cfg = config.DefaultConfig()
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	if cfg.Tracing.Enabled {
		tracerProvider, err := tracing.Init(tracing.Config{
			Enabled:     true,
			ServiceName: "studio-engine",
			JaegerURL:   cfg.Tracing.JaegerURL,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			log.Warnw("failed to initialize tracing", "error", err)
		} else {
			defer tracerProvider.Shutdown(context.Background())
		}
	}

	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	assetRepo := repoFactory.CreateAssetRepository()
	templateRepo := repoFactory.CreateTemplateRepository()
	usageRepo := repoFactory.CreateUsageRepository()
	prefsRepo := repoFactory.CreatePreferencesRepository()
	profileRepo := repoFactory.CreateProfileRepository()
	presenceRepo := repoFactory.CreatePresenceRepository()

	// Object storage behind a circuit breaker
	fileStorage, err := storage.NewFileStorage(cfg.Storage.BasePath, cfg.Storage.PublicBaseURL, log)
	if err != nil {
		log.Fatalw("failed to initialize storage", "error", err)
	}
	objectStorage := reliability.NewStorageWrapper(fileStorage, circuitbreaker.DefaultConfig(), log)

	// Job trigger and presence feed need Redis; degrade gracefully without it
	var jobTrigger = jobs.NewNoopJobTrigger(log)
	var presenceFeed = realtime.NewMemoryPresenceFeed()
	if client := repoFactory.RedisClient(); client != nil {
		jobTrigger = jobs.NewRedisJobTrigger(client, log)
		presenceFeed = realtime.NewRedisPresenceFeed(client, log)
	}

	// Media ingest engine and recorder
	var iceServers []webrtc.ICEServer
	for _, s := range cfg.Media.ICEServers {
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       s.URLs,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	if len(iceServers) == 0 {
		iceServers = []webrtc.ICEServer{
			{URLs: []string{"stun:stun.l.google.com:19302"}},
		}
	}

	engine := media.NewEngine(media.Config{
		ICEServers:     iceServers,
		AcquireTimeout: cfg.Media.AcquireTimeout,
	}, log)
	defer engine.Close()

	recorder := media.NewRecorder(cfg.Media.KeyframeInterval, log)

	// Core services
	authService := services.NewAuthService(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)
	deviceService := services.NewDeviceService(engine, log)
	recordingService := services.NewRecordingService(
		deviceService,
		recorder,
		services.NewMarkerTrack(),
		services.RecordingConfig{
			FlushInterval:  cfg.Recording.FlushInterval,
			MaxDuration:    cfg.Recording.MaxDuration,
			MaxBufferBytes: cfg.Recording.MaxBufferBytes,
			MimeType:       cfg.Recording.MimeType,
		},
		log,
	)
	sceneService := services.NewSceneService(assetRepo, log)
	persistenceService := services.NewPersistenceService(
		templateRepo,
		assetRepo,
		usageRepo,
		prefsRepo,
		objectStorage,
		jobTrigger,
		log,
	)
	liveService := services.NewLiveService(profileRepo, assetRepo, recordingService, persistenceService, log)
	presenceMonitor := services.NewPresenceMonitor(
		presenceRepo,
		presenceFeed,
		cfg.Presence.ActiveWindow,
		cfg.Presence.RefreshInterval,
		log,
	)

	// Periodic library snapshots
	var backupScheduler *backupinfra.Scheduler
	if cfg.Backup.Enabled {
		snapshotStorage, err := backuppkg.NewFileStorage(cfg.Backup.Directory)
		if err != nil {
			log.Fatalw("failed to initialize backup storage", "error", err)
		}
		backupService := backuppkg.NewBackupService(snapshotStorage, "1.0.0")
		backupScheduler = backupinfra.NewScheduler(backupService, assetRepo, templateRepo, backupinfra.Config{
			Interval:      cfg.Backup.Interval,
			RetentionDays: cfg.Backup.RetentionDays,
		}, log)
		go backupScheduler.Start(context.Background())
	}

	// Monitoring
	prometheusCollector := monitoring.NewPrometheusCollector()
	healthChecker := monitoring.NewHealthChecker()
	healthChecker.AddCheck("repositories", func(ctx context.Context) (bool, error) {
		if err := repoFactory.HealthCheck(ctx); err != nil {
			return false, err
		}
		return true, nil
	}, 30*time.Second, 2*time.Second)

	// HTTP handlers
	authHandler := httphandlers.NewAuthHandler(authService)
	sessionHandler := httphandlers.NewSessionHandler(httphandlers.SessionHandlerDeps{
		Devices:     deviceService,
		Recording:   recordingService,
		Scenes:      sceneService,
		Live:        liveService,
		Persistence: persistenceService,
		Monitor:     presenceMonitor,
		Presence:    presenceRepo,
		Profiles:    profileRepo,
		Feed:        presenceFeed,
		Engine:      engine,
		Metrics:     prometheusCollector,
		Logger:      log,
	})

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.ErrorHandlerMiddleware(log))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}

	authHandler.SetupRoutes(router)
	sessionHandler.SetupRoutes(router,
		middleware.AuthMiddleware(authService),
		middleware.OptionalAuthMiddleware(authService),
	)

	// Recorded media is served straight from local storage
	router.Static("/media", cfg.Storage.BasePath)

	router.GET("/health", func(c *gin.Context) {
		status := healthChecker.CheckAll(c.Request.Context())
		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status.Status,
			"checks":    status.Checks,
			"timestamp": status.Timestamp,
			"uptime":    time.Since(startTime).String(),
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := repoFactory.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	if cfg.Monitoring.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting studio engine on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("received shutdown signal", "signal", sig)
	}

	log.Info("shutting down studio engine...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("graceful shutdown failed", "error", err)
	}

	// Stop session machinery after the HTTP surface is closed
	presenceMonitor.Stop()
	deviceService.Stop()
	if backupScheduler != nil {
		backupScheduler.Stop()
	}

	log.Info("studio engine stopped")
}
