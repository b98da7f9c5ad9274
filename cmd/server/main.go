package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	activityapp "github.com/crm/backend/internal/application/activity"
	auditapp "github.com/crm/backend/internal/application/audit"
	contactapp "github.com/crm/backend/internal/application/contact"
	dealapp "github.com/crm/backend/internal/application/deal"
	identityapp "github.com/crm/backend/internal/application/identity"
	monitoringapp "github.com/crm/backend/internal/application/monitoring"
	reportapp "github.com/crm/backend/internal/application/report"
	taskapp "github.com/crm/backend/internal/application/task"
	"github.com/crm/backend/internal/domain/task"
	"github.com/crm/backend/internal/infrastructure/auth"
	"github.com/crm/backend/internal/infrastructure/cache"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/email"
	"github.com/crm/backend/internal/infrastructure/event"
	csvimport "github.com/crm/backend/internal/infrastructure/import"
	"github.com/crm/backend/internal/infrastructure/logger"
	inframonitoring "github.com/crm/backend/internal/infrastructure/monitoring"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/storage"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/crm/backend/internal/infrastructure/worker"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/internal/interfaces/http/router"
)

// version is stamped at build time via -ldflags
var version = "dev"

const tenantCacheTTL = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting CRM backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing and profiling come up before anything that records spans.
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", zap.Error(err))
	}
	if profiler != nil && profiler.IsEnabled() && cfg.Telemetry.SpanProfiles {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Span profiles unavailable", zap.Error(err))
		}
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracing(cfg.Telemetry, log)
		if err := dbTracing.Register(db.DB); err != nil {
			log.Warn("Database tracing unavailable", zap.Error(err))
		}
	}

	// Redis backs the token blacklist and the task status cache. Without it
	// both fall back to process-local stores.
	var blacklist auth.TokenBlacklist
	var statusStore task.StatusStore
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, using in-memory fallbacks", zap.Error(err))
		blacklist = auth.NewInMemoryTokenBlacklist()
		statusStore = cache.NewInMemoryTaskStatusStore()
	} else {
		defer func() {
			_ = redisClient.Close()
		}()
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		statusStore = cache.NewRedisTaskStatusStore(redisClient, cfg.Worker.StatusTTL)
	}

	metrics := telemetry.NewMetrics(cfg.App.Name)

	// Repositories
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	apiKeyRepo := persistence.NewGormAPIKeyRepository(db.DB)
	contactRepo := persistence.NewGormContactRepository(db.DB)
	dealRepo := persistence.NewGormDealRepository(db.DB)
	activityRepo := persistence.NewGormActivityRepository(db.DB)
	auditRepo := persistence.NewGormAuditRepository(db.DB)
	taskRepo := persistence.NewGormTaskRepository(db.DB)
	snapshotRepo := persistence.NewGormSnapshotRepository(db.DB)
	alertRepo := persistence.NewGormAlertRepository(db.DB)

	// Domain events feed the audit trail
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(auditapp.NewRecorder(auditRepo, log))

	jwtService := auth.NewJWTService(cfg.JWT)

	// Application services
	authService := identityapp.NewAuthService(userRepo, tenantRepo, jwtService, blacklist, identityapp.DefaultAuthServiceConfig())
	authService.SetEventPublisher(eventBus)
	userService := identityapp.NewUserService(userRepo, tenantRepo)
	userService.SetEventPublisher(eventBus)
	tenantService := identityapp.NewTenantService(tenantRepo, userRepo)
	apiKeyService := identityapp.NewAPIKeyService(apiKeyRepo)
	apiKeyService.SetEventPublisher(eventBus)
	contactService := contactapp.NewContactService(contactRepo)
	contactService.SetEventPublisher(eventBus)
	importSessions := csvimport.NewInMemorySessionStore(24 * time.Hour)
	defer importSessions.Stop()
	contactService.SetImportSessionStore(importSessions)
	dealService := dealapp.NewDealService(dealRepo, contactRepo)
	dealService.SetEventPublisher(eventBus)
	activityService := activityapp.NewActivityService(activityRepo, contactRepo, dealRepo)
	activityService.SetEventPublisher(eventBus)
	auditService := auditapp.NewAuditService(auditRepo)
	taskService := taskapp.NewTaskService(taskRepo, statusStore)
	reportService := reportapp.NewReportService(snapshotRepo)

	// System monitoring
	var collector *inframonitoring.Collector
	if cfg.Monitoring.Enabled {
		collector = inframonitoring.NewCollector(
			cfg.Monitoring,
			inframonitoring.GopsutilSampler(cfg.Monitoring.DiskPath),
			alertRepo,
			metrics.Registry(),
			log,
		)
		collector.Start()
		defer collector.Stop()
	}
	var sampleSource monitoringapp.SampleSource
	if collector != nil {
		sampleSource = collector
	}
	monitoringService := monitoringapp.NewMonitoringService(alertRepo, sampleSource)

	// Background task engine
	var taskEngine *worker.Engine
	if cfg.Worker.Enabled {
		var exportStorage worker.ExportStorage
		if cfg.Storage.Bucket != "" {
			s3Storage, err := storage.NewS3ExportStorage(&cfg.Storage)
			if err != nil {
				log.Fatal("Failed to initialize export storage", zap.Error(err))
			}
			exportStorage = s3Storage
		} else {
			log.Warn("No storage bucket configured, exports stay in memory")
			exportStorage = storage.NewStubExportStorage()
		}

		var sender email.Sender
		if cfg.Email.Host != "" {
			smtpSender, err := email.NewSMTPSender(cfg.Email, log)
			if err != nil {
				log.Fatal("Failed to initialize email sender", zap.Error(err))
			}
			sender = smtpSender
		} else {
			log.Warn("No SMTP host configured, emails are recorded only")
			sender = email.NewRecordingSender()
		}

		taskEngine = worker.NewEngine(cfg.Worker, taskRepo, statusStore, log,
			worker.NewEmailExecutor(sender),
			worker.NewExportExecutor(contactRepo, dealRepo, exportStorage),
			worker.NewReportExecutor(dealRepo, activityRepo, snapshotRepo),
		)
		if err := taskEngine.Start(ctx); err != nil {
			log.Fatal("Failed to start task engine", zap.Error(err))
		}
	}

	handlers := router.Handlers{
		Auth:     handler.NewAuthHandler(authService, userService, auditService),
		Contact:  handler.NewContactHandler(contactService),
		Deal:     handler.NewDealHandler(dealService),
		Activity: handler.NewActivityHandler(activityService),
		User:     handler.NewUserHandler(userService, authService),
		Tenant:   handler.NewTenantHandler(tenantService),
		APIKey:   handler.NewAPIKeyHandler(apiKeyService),
		Audit:    handler.NewAuditHandler(auditService),
		Task:     handler.NewTaskHandler(taskService),
		Report:   handler.NewReportHandler(reportService, taskService),
		System:   handler.NewSystemHandler(monitoringService, db, version),
	}

	ginEngine := router.New(router.Config{
		App:             cfg,
		Logger:          log,
		Metrics:         metrics,
		JWTService:      jwtService,
		TokenBlacklist:  blacklist,
		APIKeyRepo:      apiKeyRepo,
		UserRepo:        userRepo,
		TenantValidator: middleware.NewRepositoryTenantValidator(tenantRepo, tenantCacheTTL),
	}, handlers)

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        ginEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if taskEngine != nil {
		if err := taskEngine.Stop(shutdownCtx); err != nil {
			log.Error("Task engine shutdown failed", zap.Error(err))
		}
	}
	if profiler != nil {
		if err := profiler.Stop(); err != nil {
			log.Error("Profiler shutdown failed", zap.Error(err))
		}
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
