package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/pimtask/internal/cache"
	"github.com/benvon/pimtask/internal/config"
	"github.com/benvon/pimtask/internal/database"
	"github.com/benvon/pimtask/internal/editor"
	"github.com/benvon/pimtask/internal/handlers"
	"github.com/benvon/pimtask/internal/logger"
	"github.com/benvon/pimtask/internal/metrics"
	"github.com/benvon/pimtask/internal/middleware"
	"github.com/benvon/pimtask/internal/models"
	"github.com/benvon/pimtask/internal/queue"
	"github.com/benvon/pimtask/internal/telemetry"
	"github.com/benvon/pimtask/internal/temporal"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const (
	dlqInterval  = 1 * time.Hour
	dlqRetention = 24 * time.Hour
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.ServerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(telemetry.ServerServiceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	zapLogger, closeLogFile := logger.WithRotatingFile(zapLogger, cfg.LogFile, telemetry.ServerServiceName, debugMode)
	defer func() {
		_ = logger.Sync(zapLogger)
		_ = closeLogFile()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("local_timezone", cfg.LocalTimezone),
		zap.String("default_collection", cfg.DefaultCollection),
		zap.Strings("allowed_origins", cfg.AllowedOrigins),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	shutdownTracer := telemetry.Setup(context.Background(), cfg.OTELEnabled, telemetry.ServerServiceName, cfg.OTELEndpoint, zapLogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	// Connect to database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()
	if err := db.Migrate(startupCtx); err != nil {
		zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
	}

	zones := temporal.NewSystemZones(cfg.LocalTimezone)
	taskRepo := database.NewTaskRepository(db, zones)
	taskRepo.SetLogger(zapLogger)
	collectionRepo := database.NewCollectionRepository(db)
	if err := collectionRepo.Ensure(startupCtx, models.Collection{UID: cfg.DefaultCollection, DisplayName: cfg.DefaultCollection}); err != nil {
		zapLogger.Fatal("failed_to_ensure_default_collection", zap.Error(err))
	}

	// Connect to Redis for drafts and rate limiting
	redisClient, err := cache.NewRedisClient(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// RabbitMQ is optional: without it task events are not published
	var store editor.Store = taskRepo
	var queueCheck handlers.CheckFunc
	if cfg.RabbitMQURL != "" {
		jobQueue, err := queue.ConnectRabbitMQ(startupCtx, cfg.RabbitMQURL, 0, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		store = queue.NewPublishingStore(taskRepo, jobQueue, zapLogger)
		queueCheck = jobQueue.HealthCheck

		dlqGC := queue.NewGarbageCollector(jobQueue, dlqInterval, dlqRetention, zapLogger)
		go func() {
			if err := dlqGC.Start(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", dlqInterval),
			zap.Duration("retention", dlqRetention),
		)
	} else {
		zapLogger.Warn("rabbitmq_not_configured_task_events_disabled")
	}

	draftStore := cache.NewRedisDraftStore(redisClient, cfg.DraftTTL)
	serverMetrics := metrics.New()
	draftHandler := handlers.NewDraftHandler(draftStore, taskRepo, collectionRepo, store, zones, cfg.DefaultCollection, zapLogger)
	draftHandler.SetMetrics(serverMetrics)
	healthChecker := handlers.NewHealthChecker(map[string]handlers.CheckFunc{
		"database": db.HealthCheck,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
		"queue": queueCheck,
	}, zapLogger)

	rateLimitMW, err := middleware.RedisRateLimit(redisClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Setup router. Middleware registered first wraps outermost.
	r := mux.NewRouter()
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware(telemetry.ServerServiceName))
	}
	r.Use(serverMetrics.Middleware)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.Recover(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Public routes (no rate limiting for health checks)
	r.HandleFunc(middleware.HealthPath, healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")
	r.Handle("/metrics", serverMetrics.Handler()).Methods("GET")
	handlers.NewOpenAPIHandler().RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(rateLimitMW)
	draftHandler.RegisterRoutes(apiRouter)

	// Preflight requests are answered by the CORS middleware; this route
	// makes sure mux matches them at all.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   45 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	// Only expose minimal version info
	_, _ = fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}
