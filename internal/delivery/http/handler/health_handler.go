package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/geoclaim/internal/pkg/utils"
	"github.com/geoclaim/internal/usecase"
	"github.com/geoclaim/internal/usecase/dto"
)

// MineralStatus - состояние реестра минералов
type MineralStatus interface {
	IsLoaded() bool
	Size() int
}

// HealthHandler обрабатывает проверку состояния сервиса
type HealthHandler struct {
	localities *usecase.LocalityUseCase
	minerals   MineralStatus
	sessions   *usecase.SessionUseCase
}

// NewHealthHandler создает новый экземпляр HealthHandler
func NewHealthHandler(localities *usecase.LocalityUseCase, minerals MineralStatus, sessions *usecase.SessionUseCase) *HealthHandler {
	return &HealthHandler{
		localities: localities,
		minerals:   minerals,
		sessions:   sessions,
	}
}

// Health godoc
// @Summary Состояние сервиса
// @Description Размер каталога, готовность реестра минералов и число активных сессий. Пустой каталог не считается ошибкой.
// @Tags Health
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.HealthResponse}
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	resp := dto.HealthResponse{
		Status:          "healthy",
		Localities:      h.localities.Size(),
		CatalogLoadedAt: h.localities.LoadedAt(),
	}
	if resp.Localities == 0 {
		resp.Status = "degraded"
	}
	if h.minerals != nil {
		resp.MineralsLoaded = h.minerals.IsLoaded()
		resp.MineralEntries = h.minerals.Size()
	}
	if h.sessions != nil {
		resp.ActiveSessions = h.sessions.Count()
	}
	return utils.SendSuccess(c, resp, nil)
}
