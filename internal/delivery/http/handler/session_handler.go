package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/geoclaim/internal/pkg/utils"
	"github.com/geoclaim/internal/usecase"
	"github.com/geoclaim/internal/usecase/dto"
)

// SessionHandler - состояние карты клиента
type SessionHandler struct {
	sessions *usecase.SessionUseCase
	logger   *zap.Logger
}

// NewSessionHandler - создание нового SessionHandler
func NewSessionHandler(sessions *usecase.SessionUseCase, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Create godoc
// @Summary Новая сессия
// @Tags Sessions
// @Produce json
// @Success 201 {object} utils.SuccessResponse{data=dto.SessionSnapshot}
// @Router /api/v1/sessions [post]
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	snap := h.sessions.Create()
	return utils.SendStatus(c, fiber.StatusCreated, snap)
}

// Get godoc
// @Summary Состояние сессии
// @Description Текущий выбор, состояния панелей (idle, loading, ready, failed), чат, вид и слои
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionSnapshot}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id} [get]
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	snap, err := h.sessions.Snapshot(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, snap, nil)
}

// Select godoc
// @Summary Выбор локации
// @Description Сбрасывает панели и чат, запускает загрузку панелей в фоне. Результаты прежнего выбора отбрасываются.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.SelectRequest true "ID локации"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionSnapshot}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/select [post]
func (h *SessionHandler) Select(c *fiber.Ctx) error {
	var req dto.SelectRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	snap, err := h.sessions.Select(c.Params("id"), req.LocalityID)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, snap, nil)
}

// CloseDetails godoc
// @Summary Закрыть панель деталей
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionSnapshot}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/select [delete]
func (h *SessionHandler) CloseDetails(c *fiber.Ctx) error {
	snap, err := h.sessions.CloseDetails(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, snap, nil)
}

// Chat godoc
// @Summary Чат сессии
// @Description Выбранная локация служит контекстом. Режим по умолчанию Search. Ответ после смены выбора помечается stale.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.SessionChatRequest true "Сообщение"
// @Success 200 {object} utils.SuccessResponse{data=dto.ChatResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/chat [post]
func (h *SessionHandler) Chat(c *fiber.Ctx) error {
	var req dto.SessionChatRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.sessions.Chat(c.UserContext(), c.Params("id"), req.Message, req.Mode)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, resp, nil)
}

// Search godoc
// @Summary Поиск в сессии
// @Description Глобальный поиск; найденный вид применяется к карте, найденная локация выбирается
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.SearchRequest true "Запрос"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionSearchResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/search [post]
func (h *SessionHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	resp, err := h.sessions.Search(c.UserContext(), c.Params("id"), req.Query)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, resp, nil)
}

// SetLayers godoc
// @Summary Видимость слоёв
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.LayersRequest true "Базовый слой и наложения"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionSnapshot}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/layers [put]
func (h *SessionHandler) SetLayers(c *fiber.Ctx) error {
	var req dto.LayersRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	snap, err := h.sessions.SetLayers(c.Params("id"), req.Base, req.Overlays)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, snap, nil)
}

// Audit godoc
// @Summary Проверка земельного статуса выбора
// @Tags Sessions
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=domain.LandStatus}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/audit [post]
func (h *SessionHandler) Audit(c *fiber.Ctx) error {
	status, err := h.sessions.Audit(c.UserContext(), c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, status, nil)
}
