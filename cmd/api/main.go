package main

// @title GeoClaim API
// @version 1.0.0
// @description Сервис исследования минеральных локаций США. Каталог локаций из KML, поиск, исследование локации с помощью Gemini (минералы, безопасность, погода, видео, земельный статус), высоты, синтез речи и серверные сессии карты.
// @description
// @description Основные возможности:
// @description - Каталог локаций с фильтрами и поиском по радиусу
// @description - Трёхуровневый поиск: каталог, модель, геокодер
// @description - Панели исследования с параллельной загрузкой
// @description - Проверка земельного статуса синхронно или через Redis Streams

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/geoclaim/docs"
	"github.com/geoclaim/internal/classify"
	"github.com/geoclaim/internal/config"
	httpDelivery "github.com/geoclaim/internal/delivery/http"
	"github.com/geoclaim/internal/delivery/http/handler"
	"github.com/geoclaim/internal/domain/repository"
	"github.com/geoclaim/internal/infrastructure/elevation"
	"github.com/geoclaim/internal/infrastructure/gemini"
	"github.com/geoclaim/internal/infrastructure/kml"
	"github.com/geoclaim/internal/infrastructure/nominatim"
	"github.com/geoclaim/internal/pkg/logger"
	"github.com/geoclaim/internal/pkg/metrics"
	"github.com/geoclaim/internal/repository/cache"
	"github.com/geoclaim/internal/repository/mineral"
	redisRepo "github.com/geoclaim/internal/repository/redis"
	"github.com/geoclaim/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger and metrics
	log, err := logger.New(cfg.Log.Level, "geoclaim-api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	m := metrics.New()

	log.Info("Starting GeoClaim API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
	)

	// baseCtx живёт до остановки: на нём работают загрузки панелей сессий
	baseCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// 3. Connect to Redis (optional)
	var (
		redisClient *cache.Redis
		streamRepo  repository.StreamRepository
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()

		ctx, cancel := context.WithTimeout(baseCtx, 5*time.Second)
		if err := redisClient.Health(ctx); err != nil {
			cancel()
			log.Fatal("Redis health check failed", zap.Error(err))
		}
		cancel()

		streamRepo = redisRepo.NewStreamRepository(redisClient.Client(), redisRepo.StreamOptions{}, log)
		log.Info("Redis connected")
	}

	// 4. Initialize repositories
	var cacheRepo repository.CacheRepository
	if cfg.Cache.Backend == "redis" && redisClient != nil {
		cacheRepo = cache.NewCacheRepository(redisClient)
	} else {
		if cfg.Cache.Backend == "redis" {
			log.Warn("CACHE_BACKEND=redis requires REDIS_ENABLED=true, falling back to memory cache")
		}
		cacheRepo = cache.NewMemoryRepository(cfg.Cache.SearchCacheTTL, cfg.Cache.CleanupPeriod, log)
	}

	kmlSource := kml.NewSource(&cfg.Sources, log)
	parser := kml.NewParser(cfg.Sources.LocalityIDPrefix, classify.NewLocalityClassifier())
	minerals := mineral.NewRegistry(
		mineral.NewSource(cfg.Sources.MineralListURL, time.Duration(cfg.Sources.RequestTimeout)*time.Second, log),
		log,
	)
	elevationRepo := elevation.NewClient(&cfg.Elevation, cacheRepo, cfg.Cache.ElevationTTL, m, log)
	geocoder := nominatim.NewClient(&cfg.Geocoder, cacheRepo, cfg.Cache.SearchCacheTTL, m, log)

	// 5. Initialize Gemini gateway
	generator, err := gemini.NewGenerator(baseCtx, &cfg.Gemini)
	if err != nil {
		log.Warn("Gemini is not available, AI features will return fallbacks", zap.Error(err))
		generator = gemini.NewUnavailableGenerator(err.Error())
	}
	gateway := gemini.NewGateway(generator, &cfg.Gemini, m, log)

	log.Info("Repositories initialized")

	// 6. Initialize use cases
	localityUC := usecase.NewLocalityUseCase(kmlSource, parser, m, log)
	loadCtx, cancelLoad := context.WithTimeout(baseCtx, time.Duration(cfg.Sources.RequestTimeout)*time.Second)
	count := localityUC.Load(loadCtx)
	cancelLoad()
	log.Info("Locality catalog loaded", zap.Int("count", count))

	// реестр минералов подгружается в фоне; до загрузки поиск изображений пропускается
	go func() {
		if err := minerals.Load(baseCtx); err != nil {
			log.Warn("Mineral registry is not loaded", zap.Error(err))
		}
	}()

	researchUC := usecase.NewResearchUseCase(gateway, minerals, localityUC, elevationRepo, log)
	searchUC := usecase.NewSearchUseCase(localityUC, gateway, geocoder, m, log)
	sessionUC := usecase.NewSessionUseCase(baseCtx, &cfg.Session, localityUC, researchUC, searchUC, m, log)
	auditUC := usecase.NewAuditUseCase(localityUC, researchUC, streamRepo, m, log)

	log.Info("Use cases initialized", zap.Bool("async_audit", auditUC.AsyncEnabled()))

	// 7. Initialize HTTP handlers
	handlers := httpDelivery.Handlers{
		Health:   handler.NewHealthHandler(localityUC, minerals, sessionUC),
		Locality: handler.NewLocalityHandler(localityUC, researchUC, auditUC, log),
		Research: handler.NewResearchHandler(researchUC, localityUC, log),
		Search:   handler.NewSearchHandler(searchUC, log),
		Session:  handler.NewSessionHandler(sessionUC, log),
	}

	// 8. Initialize HTTP server
	server := httpDelivery.NewServer(cfg, m, log, handlers)

	// 9. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 10. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	// отменяем загрузки панелей и ждём их завершения
	stopBackground()
	sessionUC.Wait()

	log.Info("Server stopped successfully")
}
