package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/geoclaim/internal/config"
	"github.com/geoclaim/internal/delivery/http/handler"
	"github.com/geoclaim/internal/delivery/http/middleware"
	"github.com/geoclaim/internal/pkg/errors"
	"github.com/geoclaim/internal/pkg/metrics"
	"github.com/geoclaim/internal/pkg/utils"
)

// Handlers - набор обработчиков API
type Handlers struct {
	Health   *handler.HealthHandler
	Locality *handler.LocalityHandler
	Research *handler.ResearchHandler
	Search   *handler.SearchHandler
	Session  *handler.SessionHandler
}

// Server - HTTP сервер на основе Fiber
type Server struct {
	app      *fiber.App
	config   *config.Config
	metrics  *metrics.Metrics
	logger   *zap.Logger
	handlers Handlers
}

// NewServer - создание нового HTTP сервера. m может быть nil
func NewServer(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger, handlers Handlers) *Server {
	readTimeout := cfg.Server.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := cfg.Server.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 150 * time.Second
	}

	app := fiber.New(fiber.Config{
		AppName:      "GeoClaim",
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    8 * 1024 * 1024,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:      app,
		config:   cfg,
		metrics:  m,
		logger:   logger,
		handlers: handlers,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App - доступ к приложению Fiber для тестов
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	if s.metrics != nil {
		s.app.Use(middleware.Metrics(s.metrics))
	}
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)
	if s.metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))
	}

	h := s.handlers
	api := s.app.Group("/api/v1")

	api.Get("/health", h.Health.Health)

	// Localities. /nearby регистрируется до /:id
	api.Get("/localities", h.Locality.List)
	api.Get("/localities/nearby", h.Locality.Nearby)
	api.Get("/localities/:id", h.Locality.Get)
	api.Get("/localities/:id/research", h.Locality.Research)
	api.Get("/localities/:id/elevation", h.Locality.Elevation)
	api.Post("/localities/:id/audit", h.Locality.Audit)

	// Research
	api.Get("/minerals/lookup", h.Research.MineralLookup)
	api.Post("/chat", h.Research.Chat)
	api.Post("/research/structured", h.Research.StructuredQuery)
	api.Post("/speak", h.Research.Speak)

	// Search & layers
	api.Get("/search", h.Search.Search)
	api.Get("/layers", h.Search.Layers)

	// Sessions
	sessions := api.Group("/sessions")
	sessions.Post("/", h.Session.Create)
	sessions.Get("/:id", h.Session.Get)
	sessions.Post("/:id/select", h.Session.Select)
	sessions.Delete("/:id/select", h.Session.CloseDetails)
	sessions.Post("/:id/chat", h.Session.Chat)
	sessions.Post("/:id/search", h.Session.Search)
	sessions.Put("/:id/layers", h.Session.SetLayers)
	sessions.Post("/:id/audit", h.Session.Audit)
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - ошибки, не обработанные хендлерами (404 маршрута, паники, тайм-ауты)
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if e, ok := err.(*fiber.Error); ok {
			if e.Code >= fiber.StatusInternalServerError {
				logger.Error("HTTP Error", zap.String("path", c.Path()), zap.Int("status", e.Code), zap.Error(err))
			}
			appErr := errors.New(httpCode(e.Code), e.Message, e.Code)
			return utils.SendError(c, appErr)
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return utils.SendError(c, err)
	}
}

func httpCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusRequestEntityTooLarge:
		return "REQUEST_TOO_LARGE"
	case fiber.StatusRequestTimeout:
		return "REQUEST_TIMEOUT"
	default:
		if status < fiber.StatusInternalServerError {
			return "BAD_REQUEST"
		}
		return "INTERNAL_SERVER_ERROR"
	}
}
