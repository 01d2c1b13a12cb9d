package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/pkg/utils"
	"github.com/geoclaim/internal/usecase"
	"github.com/geoclaim/internal/usecase/dto"
)

// SearchHandler - обработчик глобального поиска и каталога слоёв
type SearchHandler struct {
	searchUC *usecase.SearchUseCase
	logger   *zap.Logger
}

// NewSearchHandler - создание нового SearchHandler
func NewSearchHandler(searchUC *usecase.SearchUseCase, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{
		searchUC: searchUC,
		logger:   logger,
	}
}

// Search godoc
// @Summary Глобальный поиск
// @Description Каталог по имени, затем модель, затем геокодер Nominatim. Отсутствие результата - tier none со статусом 200.
// @Tags Search
// @Produce json
// @Param q query string true "Поисковый запрос"
// @Success 200 {object} utils.SuccessResponse{data=domain.SearchResult}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/search [get]
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchRequest
	if ok, err := parseQuery(c, &req); !ok {
		return err
	}

	result := h.searchUC.Search(c.UserContext(), req.Query)
	return utils.SendSuccess(c, result, nil)
}

// Layers godoc
// @Summary Каталог слоёв карты
// @Description Базовые слои, наложения и легенда типов локаций
// @Tags Search
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.LayersResponse}
// @Router /api/v1/layers [get]
func (h *SearchHandler) Layers(c *fiber.Ctx) error {
	return utils.SendSuccess(c, dto.LayersResponse{
		BaseLayers: domain.BaseLayers,
		Overlays:   domain.Overlays,
		Legend:     domain.Legend,
	}, nil)
}
