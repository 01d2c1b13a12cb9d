package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/geoclaim/internal/pkg/utils"
	"github.com/geoclaim/internal/usecase"
	"github.com/geoclaim/internal/usecase/dto"
)

// LocalityHandler - обработчик каталога локаций
type LocalityHandler struct {
	localities *usecase.LocalityUseCase
	research   *usecase.ResearchUseCase
	audit      *usecase.AuditUseCase
	logger     *zap.Logger
}

// NewLocalityHandler - создание нового LocalityHandler
func NewLocalityHandler(
	localities *usecase.LocalityUseCase,
	research *usecase.ResearchUseCase,
	audit *usecase.AuditUseCase,
	logger *zap.Logger,
) *LocalityHandler {
	return &LocalityHandler{
		localities: localities,
		research:   research,
		audit:      audit,
		logger:     logger,
	}
}

// List godoc
// @Summary Список локаций
// @Description Фильтрация каталога по типу, происхождению координат, подстроке имени и прямоугольнику
// @Tags Localities
// @Produce json
// @Param type query string false "Тип локации (mine, prospect, settlement, ...)"
// @Param status query string false "Происхождение координат (direct, estimated, highlight)"
// @Param q query string false "Подстрока имени"
// @Param bbox query string false "minLng,minLat,maxLng,maxLat"
// @Param limit query int false "Максимум записей"
// @Success 200 {object} utils.SuccessResponse{data=dto.LocalityListResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/localities [get]
func (h *LocalityHandler) List(c *fiber.Ctx) error {
	var req dto.ListLocalitiesRequest
	if ok, err := parseQuery(c, &req); !ok {
		return err
	}

	result, err := h.localities.List(req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total: result.Total,
		Limit: req.Limit,
	})
}

// Get godoc
// @Summary Локация по ID
// @Tags Localities
// @Produce json
// @Param id path string true "ID локации (loc-usa-N)"
// @Success 200 {object} utils.SuccessResponse{data=domain.Locality}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/localities/{id} [get]
func (h *LocalityHandler) Get(c *fiber.Ctx) error {
	loc, err := h.localities.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, loc, nil)
}

// Nearby godoc
// @Summary Локации в радиусе
// @Description Поиск по расстоянию haversine, результаты отсортированы по удалению
// @Tags Localities
// @Produce json
// @Param lat query number true "Широта"
// @Param lng query number true "Долгота"
// @Param radius_km query number false "Радиус в км" default(25)
// @Param limit query int false "Максимум записей" default(50)
// @Success 200 {object} utils.SuccessResponse{data=dto.NearbyResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/localities/nearby [get]
func (h *LocalityHandler) Nearby(c *fiber.Ctx) error {
	var req dto.NearbyRequest
	if ok, err := parseQuery(c, &req); !ok {
		return err
	}

	result, err := h.localities.Nearby(req)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{Total: result.Total})
}

// Research godoc
// @Summary Исследование локации
// @Description Параллельно запрашивает минералы, безопасность, погоду, видео и высоту. Сбой панели даёт пустое значение и имя панели в degraded.
// @Tags Localities
// @Produce json
// @Param id path string true "ID локации"
// @Success 200 {object} utils.SuccessResponse{data=dto.ResearchBundle}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/localities/{id}/research [get]
func (h *LocalityHandler) Research(c *fiber.Ctx) error {
	loc, err := h.localities.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	bundle := h.research.ResearchBundle(c.UserContext(), loc)
	if len(bundle.Degraded) > 0 {
		h.logger.Info("Research bundle degraded",
			zap.String("locality_id", loc.ID),
			zap.Strings("panels", bundle.Degraded))
	}
	return utils.SendSuccess(c, bundle, nil)
}

// Elevation godoc
// @Summary Высота локации
// @Description Высота над уровнем моря; data равно null, если сервис высот недоступен
// @Tags Localities
// @Produce json
// @Param id path string true "ID локации"
// @Success 200 {object} utils.SuccessResponse{data=domain.Elevation}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/localities/{id}/elevation [get]
func (h *LocalityHandler) Elevation(c *fiber.Ctx) error {
	loc, err := h.localities.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	elev, _ := h.research.FetchElevation(c.UserContext(), loc)
	return utils.SendSuccess(c, elev, nil)
}

// Audit godoc
// @Summary Проверка земельного статуса
// @Description Поиск по данным BLM SMA. С async=true событие уходит в Redis Stream и ответ 202 содержит request_id.
// @Tags Localities
// @Produce json
// @Param id path string true "ID локации"
// @Param async query bool false "Асинхронная проверка через воркер"
// @Success 200 {object} utils.SuccessResponse{data=dto.AuditResponse}
// @Success 202 {object} utils.SuccessResponse{data=dto.AuditResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/localities/{id}/audit [post]
func (h *LocalityHandler) Audit(c *fiber.Ctx) error {
	id := c.Params("id")

	if c.QueryBool("async") {
		resp, err := h.audit.Enqueue(c.UserContext(), id)
		if err != nil {
			return utils.SendError(c, err)
		}
		return utils.SendStatus(c, fiber.StatusAccepted, resp)
	}

	resp, err := h.audit.Audit(c.UserContext(), id)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, resp, nil)
}
