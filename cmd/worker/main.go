package main

import (
	"context"
	"flag"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/pimtask/internal/config"
	"github.com/benvon/pimtask/internal/database"
	"github.com/benvon/pimtask/internal/logger"
	"github.com/benvon/pimtask/internal/metrics"
	"github.com/benvon/pimtask/internal/queue"
	"github.com/benvon/pimtask/internal/telemetry"
	"github.com/benvon/pimtask/internal/workers"
	"go.uber.org/zap"
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
	if cfg.RabbitMQURL == "" {
		log.Fatalf("RABBITMQ_URL is required for the worker")
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(telemetry.WorkerServiceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	zapLogger, closeLogFile := logger.WithRotatingFile(zapLogger, cfg.LogFile, telemetry.WorkerServiceName, debugMode)
	defer func() {
		_ = logger.Sync(zapLogger)
		_ = closeLogFile()
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	shutdownTracer := telemetry.Setup(context.Background(), cfg.OTELEnabled, telemetry.WorkerServiceName, cfg.OTELEndpoint, zapLogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	// Initialize database connection
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

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobQueue, err := queue.ConnectRabbitMQ(ctx, cfg.RabbitMQURL, 0, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	recorder := workers.NewHistoryRecorder(database.NewHistoryRepository(db), jobQueue, zapLogger)

	// The worker has no API router, so metrics get their own listener
	workerMetrics := metrics.New()
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("metrics_server_failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}
	zapLogger.Info("worker_started")

	// Process messages
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}
				err := recorder.ProcessJob(ctx, msg)
				jobType := "unknown"
				if job := msg.GetJob(); job != nil {
					jobType = string(job.Type)
				}
				workerMetrics.ObserveJob(jobType, err)
				if err != nil {
					fields := []zap.Field{zap.Error(err)}
					if job := msg.GetJob(); job != nil {
						fields = append(fields,
							zap.String("job_id", job.ID.String()),
							zap.String("job_type", string(job.Type)),
						)
					}
					zapLogger.Error("failed_to_process_job", fields...)
				}
			}
		}
	}()

	// Handle errors
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	zapLogger.Info("worker_shutting_down")
	cancel()
	zapLogger.Info("worker_stopped")
}
