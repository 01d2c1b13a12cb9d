package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/pkg/utils"
	"github.com/geoclaim/internal/usecase"
	"github.com/geoclaim/internal/usecase/dto"
)

// ResearchHandler - чат, структурированные запросы, речь и изображения минералов
type ResearchHandler struct {
	research   *usecase.ResearchUseCase
	localities *usecase.LocalityUseCase
	logger     *zap.Logger
}

// NewResearchHandler - создание нового ResearchHandler
func NewResearchHandler(research *usecase.ResearchUseCase, localities *usecase.LocalityUseCase, logger *zap.Logger) *ResearchHandler {
	return &ResearchHandler{
		research:   research,
		localities: localities,
		logger:     logger,
	}
}

// Chat godoc
// @Summary Чат без сессии
// @Description Один ход диалога с моделью. Сбой модели возвращается как текст-извинение со статусом 200.
// @Tags Research
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Сообщение, режим и история"
// @Success 200 {object} utils.SuccessResponse{data=dto.ChatResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/chat [post]
func (h *ResearchHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	mode := req.Mode
	if mode == "" {
		mode = domain.ChatModeNormal
	}

	var loc *domain.Locality
	if req.LocalityID != "" {
		found, err := h.localities.Get(req.LocalityID)
		if err != nil {
			return utils.SendError(c, err)
		}
		loc = &found
	}

	resp := h.research.Chat(c.UserContext(), usecase.ChatInput{
		Message:   req.Message,
		Mode:      mode,
		History:   req.History,
		Locality:  loc,
		ImageJPEG: req.Image,
	})
	return utils.SendSuccess(c, resp, nil)
}

// StructuredQuery godoc
// @Summary Структурированный запрос
// @Description Ответ модели в форме переданной схемы (type OBJECT или ARRAY). При сбое возвращается {} или [].
// @Tags Research
// @Accept json
// @Produce json
// @Param request body dto.StructuredQueryRequest true "Промпт и схема"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/research/structured [post]
func (h *ResearchHandler) StructuredQuery(c *fiber.Ctx) error {
	var req dto.StructuredQueryRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	schema, err := usecase.ParseSchema(req.Schema)
	if err != nil {
		return utils.SendError(c, err)
	}

	mode := req.Mode
	if mode == "" {
		mode = domain.ChatModeNormal
	}

	raw := h.research.StructuredQuery(c.UserContext(), req.Prompt, schema, mode)
	return utils.SendSuccess(c, raw, nil)
}

// Speak godoc
// @Summary Синтез речи
// @Description Возвращает WAV (PCM 16 бит, 24 кГц, моно)
// @Tags Research
// @Accept json
// @Produce audio/wav
// @Param request body dto.SpeakRequest true "Текст"
// @Success 200 {file} binary
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/speak [post]
func (h *ResearchHandler) Speak(c *fiber.Ctx) error {
	var req dto.SpeakRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	wav, err := h.research.Speak(c.UserContext(), req.Text)
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Set(fiber.HeaderContentType, "audio/wav")
	return c.Send(wav)
}

// MineralLookup godoc
// @Summary Изображение минерала
// @Description Точное совпадение имени, затем вхождение подстроки в порядке загрузки списка
// @Tags Research
// @Produce json
// @Param name query string true "Название минерала"
// @Success 200 {object} utils.SuccessResponse{data=dto.MineralLookupResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/minerals/lookup [get]
func (h *ResearchHandler) MineralLookup(c *fiber.Ctx) error {
	resp, err := h.research.LookupMineral(c.UserContext(), c.Query("name"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, resp, nil)
}
