package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"

	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/domain/repository"
	"github.com/geoclaim/internal/infrastructure/gemini"
	"github.com/geoclaim/internal/pkg/audio"
	"github.com/geoclaim/internal/pkg/errors"
	"github.com/geoclaim/internal/usecase/dto"
)

// Fixed texts shown instead of a failed model answer.
const (
	ApologyText             = "The geological database connection was interrupted. This usually happens if the search query is too specific for the current model. Try a broader location name."
	ResearchInterruptedText = "Research interrupted. Check the BLM Overlay or search grounding manually."
)

// Panel names, used in logs, metrics and ResearchBundle.Degraded.
const (
	PanelMinerals  = "minerals"
	PanelSafety    = "safety"
	PanelWeather   = "weather"
	PanelVideos    = "videos"
	PanelElevation = "elevation"
	PanelAudit     = "audit"
)

// AIGateway - механизм обращения к модели
type AIGateway interface {
	Chat(ctx context.Context, req gemini.ChatRequest) domain.Outcome[gemini.ChatReply]
	StructuredQuery(ctx context.Context, req gemini.StructuredRequest) domain.Outcome[json.RawMessage]
	Speak(ctx context.Context, text string) domain.Outcome[[]byte]
}

// MineralImages - реестр изображений минералов
type MineralImages interface {
	Load(ctx context.Context) error
	IsLoaded() bool
	Lookup(name string) (string, bool)
}

// ChatInput - один ход чата
type ChatInput struct {
	Message  string
	Mode     domain.ChatMode
	History  []domain.ChatMessage
	Locality *domain.Locality
	// ImageJPEG - base64 или data URL
	ImageJPEG string
}

// ResearchUseCase - политика поверх шлюза: fallback-тексты и пустые результаты вместо ошибок
type ResearchUseCase struct {
	gateway    AIGateway
	minerals   MineralImages
	localities *LocalityUseCase
	elevation  repository.ElevationRepository
	logger     *zap.Logger
}

// NewResearchUseCase - создание нового ResearchUseCase
func NewResearchUseCase(
	gateway AIGateway,
	minerals MineralImages,
	localities *LocalityUseCase,
	elevation repository.ElevationRepository,
	logger *zap.Logger,
) *ResearchUseCase {
	return &ResearchUseCase{
		gateway:    gateway,
		minerals:   minerals,
		localities: localities,
		elevation:  elevation,
		logger:     logger,
	}
}

// Chat никогда не возвращает ошибку: сбой модели превращается в ApologyText
func (uc *ResearchUseCase) Chat(ctx context.Context, in ChatInput) dto.ChatResponse {
	out := uc.gateway.Chat(ctx, gemini.ChatRequest{
		Message:   in.Message,
		Mode:      in.Mode,
		History:   in.History,
		Context:   in.Locality,
		ImageJPEG: in.ImageJPEG,
	})
	if !out.OK {
		uc.logger.Warn("Chat failed, returning apology",
			zap.String("mode", string(in.Mode)),
			zap.String("reason", out.Reason))
		return dto.ChatResponse{
			Text:           ApologyText,
			GroundingLinks: []domain.GroundingLink{},
		}
	}

	reply := out.Value
	resp := dto.ChatResponse{
		Text:           reply.Text,
		GroundingLinks: reply.GroundingLinks,
	}
	if resp.GroundingLinks == nil {
		resp.GroundingLinks = []domain.GroundingLink{}
	}

	if len(reply.FunctionCalls) > 0 && uc.localities != nil {
		resp.Localities = uc.localities.ExecuteFunctionCalls(reply.FunctionCalls)
		if resp.Text == "" {
			resp.Text = nearbySummary(len(resp.Localities))
		}
	}
	return resp
}

func nearbySummary(n int) string {
	switch n {
	case 0:
		return "No localities from the dataset were found in that area."
	case 1:
		return "Found 1 locality from the dataset in that area."
	default:
		return fmt.Sprintf("Found %d localities from the dataset in that area.", n)
	}
}

// StructuredQuery возвращает JSON по схеме или пустую коллекцию ([] либо {}) при сбое
func (uc *ResearchUseCase) StructuredQuery(ctx context.Context, prompt string, schema *gemini.Schema, mode domain.ChatMode) json.RawMessage {
	raw, _ := uc.structured(ctx, prompt, schema, mode)
	return raw
}

func (uc *ResearchUseCase) structured(ctx context.Context, prompt string, schema *gemini.Schema, mode domain.ChatMode) (json.RawMessage, bool) {
	out := uc.gateway.StructuredQuery(ctx, gemini.StructuredRequest{
		Prompt: prompt,
		Schema: schema,
		Mode:   mode,
	})
	if !out.OK {
		uc.logger.Warn("Structured query failed, returning empty result", zap.String("reason", out.Reason))
		return EmptyFor(schema), false
	}
	return out.Value, true
}

// EmptyFor - пустое значение формы схемы
func EmptyFor(schema *gemini.Schema) json.RawMessage {
	if schema != nil && schema.Type == genai.TypeArray {
		return json.RawMessage("[]")
	}
	return json.RawMessage("{}")
}

// ParseSchema разбирает схему ответа, присланную клиентом
func ParseSchema(raw json.RawMessage) (*gemini.Schema, error) {
	var schema gemini.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, errors.ErrInvalidRequest.WithMessage("schema is not a valid JSON object")
	}
	switch schema.Type {
	case genai.TypeObject, genai.TypeArray:
		return &schema, nil
	default:
		return nil, errors.ErrInvalidRequest.WithMessage("schema type must be OBJECT or ARRAY")
	}
}

// decodeStructured разбирает ответ в dst; при несоответствии формы dst остаётся нулевым
func decodeStructured[T any](uc *ResearchUseCase, panel string, raw json.RawMessage, dst *T) bool {
	if err := json.Unmarshal(raw, dst); err != nil {
		uc.logger.Warn("Structured result does not match expected shape",
			zap.String("panel", panel),
			zap.Error(err))
		var zero T
		*dst = zero
		return false
	}
	return true
}

func describe(loc domain.Locality) string {
	return fmt.Sprintf("'%s' at %.5f, %.5f (type: %s, deposit: %s, method: %s)",
		loc.Name, loc.Coordinates.Lat, loc.Coordinates.Lng,
		loc.Type, loc.DepositTypeOrDefault(), loc.MiningMethodOrDefault())
}

// FetchSafetyInfo - оценка опасностей объекта. ok=false - результат пустой из-за сбоя
func (uc *ResearchUseCase) FetchSafetyInfo(ctx context.Context, loc domain.Locality) (domain.SiteSafety, bool) {
	prompt := fmt.Sprintf("Assess field safety for visiting the locality %s. "+
		"Consider abandoned workings, unstable ground, bad air, water, wildlife and remoteness of the terrain. "+
		"Use current localized reports where possible.", describe(loc))

	raw, ok := uc.structured(ctx, prompt, gemini.SafetySchema(), domain.ChatModeNormal)
	var safety domain.SiteSafety
	if !decodeStructured(uc, PanelSafety, raw, &safety) {
		return domain.SiteSafety{}, false
	}
	return safety, ok
}

// FetchWeatherInfo - текущая погода у объекта
func (uc *ResearchUseCase) FetchWeatherInfo(ctx context.Context, loc domain.Locality) (domain.SiteWeather, bool) {
	prompt := fmt.Sprintf("Report the current weather and field conditions near the locality %s. "+
		"Include the best season to visit this terrain and any active alerts.", describe(loc))

	raw, ok := uc.structured(ctx, prompt, gemini.WeatherSchema(), domain.ChatModeNormal)
	var weather domain.SiteWeather
	if !decodeStructured(uc, PanelWeather, raw, &weather) {
		return domain.SiteWeather{}, false
	}
	return weather, ok
}

// FetchYoutubeVideos - видео и документальные материалы по объекту. Записи без URL отбрасываются
func (uc *ResearchUseCase) FetchYoutubeVideos(ctx context.Context, loc domain.Locality) ([]domain.SiteVideo, bool) {
	prompt := fmt.Sprintf("Find YouTube videos or documentaries about the mine site or area of the locality %s. "+
		"Return at most 6 videos with full URLs.", describe(loc))

	raw, ok := uc.structured(ctx, prompt, gemini.VideosSchema(), domain.ChatModeNormal)
	var videos []domain.SiteVideo
	if !decodeStructured(uc, PanelVideos, raw, &videos) {
		return []domain.SiteVideo{}, false
	}

	result := make([]domain.SiteVideo, 0, len(videos))
	for _, v := range videos {
		if strings.TrimSpace(v.URL) == "" {
			continue
		}
		result = append(result, v)
	}
	return result, ok
}

// FetchMinerals - минералы и окаменелости объекта с изображениями из реестра
func (uc *ResearchUseCase) FetchMinerals(ctx context.Context, loc domain.Locality) ([]domain.MineralSpecimen, bool) {
	if uc.minerals != nil && !uc.minerals.IsLoaded() {
		if err := uc.minerals.Load(ctx); err != nil {
			uc.logger.Warn("Mineral registry not ready, images will be missing", zap.Error(err))
		}
	}

	prompt := fmt.Sprintf("List the notable minerals and fossils documented at the locality %s. "+
		"Prefer mindat.org and USGS mineral reports. Return at most 12 species.", describe(loc))

	raw, ok := uc.structured(ctx, prompt, gemini.MineralsSchema(), domain.ChatModeNormal)
	var specimens []domain.MineralSpecimen
	if !decodeStructured(uc, PanelMinerals, raw, &specimens) {
		return []domain.MineralSpecimen{}, false
	}

	result := make([]domain.MineralSpecimen, 0, len(specimens))
	for _, s := range specimens {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			continue
		}
		if uc.minerals != nil && uc.minerals.IsLoaded() {
			if url, found := uc.minerals.Lookup(s.Name); found {
				s.ImageURL = url
			}
		}
		result = append(result, s)
	}
	return result, ok
}

// LookupMineral ищет изображение минерала, при необходимости загружая реестр
func (uc *ResearchUseCase) LookupMineral(ctx context.Context, name string) (*dto.MineralLookupResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.ErrInvalidRequest.WithMessage("name is required")
	}
	if uc.minerals == nil {
		return nil, errors.ErrMineralNotFound
	}
	if !uc.minerals.IsLoaded() {
		if err := uc.minerals.Load(ctx); err != nil {
			uc.logger.Warn("Mineral registry not ready", zap.Error(err))
			return nil, errors.ErrMineralNotFound.WithMessage("mineral registry is not loaded")
		}
	}

	url, ok := uc.minerals.Lookup(name)
	if !ok {
		return nil, errors.ErrMineralNotFound.WithDetails(map[string]interface{}{"name": name})
	}
	return &dto.MineralLookupResponse{Name: name, ImageURL: url}, nil
}

// FetchElevation - высота точки; nil при отсутствии данных или сбое
func (uc *ResearchUseCase) FetchElevation(ctx context.Context, loc domain.Locality) (*domain.Elevation, bool) {
	if uc.elevation == nil {
		return nil, false
	}
	elev, err := uc.elevation.Lookup(ctx, loc.Coordinates)
	if err != nil {
		uc.logger.Warn("Elevation lookup failed",
			zap.String("locality_id", loc.ID),
			zap.Error(err))
		return nil, false
	}
	return elev, true
}

// AuditLandStatus - проверка владельца земли по данным BLM SMA с поиском
func (uc *ResearchUseCase) AuditLandStatus(ctx context.Context, loc domain.Locality) (domain.LandStatus, bool) {
	query := fmt.Sprintf("Provide current land ownership status for '%s' at coordinates %v, %v. "+
		"Cross-reference BLM Surface Management Agency (SMA) data and state records. "+
		"Determine if it is Federal, State, or Private property. Cite your sources.",
		loc.Name, loc.Coordinates.Lat, loc.Coordinates.Lng)

	out := uc.gateway.Chat(ctx, gemini.ChatRequest{
		Message: query,
		Mode:    domain.ChatModeSearch,
	})
	if !out.OK {
		uc.logger.Warn("Land status audit failed",
			zap.String("locality_id", loc.ID),
			zap.String("reason", out.Reason))
		return domain.LandStatus{
			Text:           ResearchInterruptedText,
			GroundingLinks: []domain.GroundingLink{},
		}, false
	}

	links := out.Value.GroundingLinks
	if links == nil {
		links = []domain.GroundingLink{}
	}
	return domain.LandStatus{Text: out.Value.Text, GroundingLinks: links}, true
}

// Speak синтезирует речь и возвращает WAV. Воспроизведение - забота клиента
func (uc *ResearchUseCase) Speak(ctx context.Context, text string) ([]byte, error) {
	out := uc.gateway.Speak(ctx, text)
	if !out.OK {
		uc.logger.Warn("Speech synthesis failed", zap.String("reason", out.Reason))
		return nil, errors.ErrSpeechUnavailable
	}

	wav, err := audio.EncodeWAV(out.Value, gemini.SpeechSampleRate, gemini.SpeechChannels)
	if err != nil {
		uc.logger.Error("Failed to encode speech", zap.Error(err))
		return nil, errors.ErrSpeechUnavailable
	}
	return wav, nil
}

// ResearchBundle запускает все панели параллельно; частичный результат допустим
func (uc *ResearchUseCase) ResearchBundle(ctx context.Context, loc domain.Locality) dto.ResearchBundle {
	bundle := dto.ResearchBundle{LocalityID: loc.ID}

	var (
		mu       sync.Mutex
		degraded []string
	)
	mark := func(panel string, ok bool) {
		if ok {
			return
		}
		mu.Lock()
		degraded = append(degraded, panel)
		mu.Unlock()
	}

	// ошибки не возвращаются: каждая панель деградирует независимо
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var ok bool
		bundle.Minerals, ok = uc.FetchMinerals(gctx, loc)
		mark(PanelMinerals, ok)
		return nil
	})
	g.Go(func() error {
		var ok bool
		bundle.Safety, ok = uc.FetchSafetyInfo(gctx, loc)
		mark(PanelSafety, ok)
		return nil
	})
	g.Go(func() error {
		var ok bool
		bundle.Weather, ok = uc.FetchWeatherInfo(gctx, loc)
		mark(PanelWeather, ok)
		return nil
	})
	g.Go(func() error {
		var ok bool
		bundle.Videos, ok = uc.FetchYoutubeVideos(gctx, loc)
		mark(PanelVideos, ok)
		return nil
	})
	g.Go(func() error {
		var ok bool
		bundle.Elevation, ok = uc.FetchElevation(gctx, loc)
		mark(PanelElevation, ok)
		return nil
	})
	_ = g.Wait()

	bundle.Degraded = sortedPanels(degraded)
	return bundle
}

var panelOrder = []string{PanelMinerals, PanelSafety, PanelWeather, PanelVideos, PanelElevation}

func sortedPanels(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	result := make([]string, 0, len(names))
	for _, p := range panelOrder {
		if set[p] {
			result = append(result, p)
		}
	}
	return result
}
