package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/geoclaim/internal/classify"
	"github.com/geoclaim/internal/config"
	"github.com/geoclaim/internal/infrastructure/gemini"
	"github.com/geoclaim/internal/infrastructure/kml"
	"github.com/geoclaim/internal/pkg/logger"
	"github.com/geoclaim/internal/pkg/metrics"
	"github.com/geoclaim/internal/repository/cache"
	redisRepo "github.com/geoclaim/internal/repository/redis"
	"github.com/geoclaim/internal/usecase"
	"github.com/geoclaim/internal/worker"
	"github.com/geoclaim/internal/worker/audit"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "geoclaim-worker")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting GeoClaim Audit Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Int("batch_size", cfg.Worker.BatchSize),
		zap.Int("concurrency", cfg.Worker.Concurrency))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 4. Initialize repositories
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), redisRepo.StreamOptions{
		BatchSize: int64(cfg.Worker.BatchSize),
		Block:     cfg.Worker.StreamReadTimeout,
	}, log)

	m := metrics.New()
	generator, err := gemini.NewGenerator(ctx, &cfg.Gemini)
	if err != nil {
		log.Fatal("Gemini is required for land status audits", zap.Error(err))
	}
	gateway := gemini.NewGateway(generator, &cfg.Gemini, m, log)

	// 5. Initialize use cases
	localityUC := usecase.NewLocalityUseCase(
		kml.NewSource(&cfg.Sources, log),
		kml.NewParser(cfg.Sources.LocalityIDPrefix, classify.NewLocalityClassifier()),
		m,
		log,
	)
	loadCtx, cancelLoad := context.WithTimeout(ctx, time.Duration(cfg.Sources.RequestTimeout)*time.Second)
	log.Info("Locality catalog loaded", zap.Int("count", localityUC.Load(loadCtx)))
	cancelLoad()

	researchUC := usecase.NewResearchUseCase(gateway, nil, localityUC, nil, log)
	auditUC := usecase.NewAuditUseCase(localityUC, researchUC, streamRepo, m, log)

	// 6. Initialize workers
	auditWorker := audit.NewLocalityAuditWorker(
		streamRepo,
		auditUC,
		audit.Options{
			ConsumerGroup: cfg.Worker.ConsumerGroup,
			MaxRetries:    cfg.Worker.MaxRetries,
			BatchSize:     cfg.Worker.BatchSize,
			Concurrency:   cfg.Worker.Concurrency,
			ClaimMinIdle:  cfg.Worker.ClaimMinIdle,
			ClaimInterval: cfg.Worker.ClaimInterval,
		},
		log,
	)

	// 7. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(auditWorker)

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info("Received shutdown signal")
	case <-workerManager.Done():
		log.Error("All workers exited", zap.Errors("failures", workerManager.Failures()))
	}

	// Stop first: начатые пачки дорабатываются на ctx
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}
	cancel()

	log.Info("Worker shutdown complete")
}
