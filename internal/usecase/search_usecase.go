package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/domain/repository"
	"github.com/geoclaim/internal/infrastructure/gemini"
	"github.com/geoclaim/internal/pkg/metrics"
	"github.com/geoclaim/internal/pkg/utils"
)

// aiLocation - ответ уровня ai
type aiLocation struct {
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
}

// SearchUseCase - глобальный поиск: каталог, затем модель, затем геокодер
type SearchUseCase struct {
	localities *LocalityUseCase
	gateway    AIGateway
	geocoder   repository.GeocodingRepository
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewSearchUseCase - создание нового SearchUseCase. gateway и geocoder могут быть nil
func NewSearchUseCase(
	localities *LocalityUseCase,
	gateway AIGateway,
	geocoder repository.GeocodingRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SearchUseCase {
	return &SearchUseCase{
		localities: localities,
		gateway:    gateway,
		geocoder:   geocoder,
		metrics:    m,
		logger:     logger,
	}
}

// Search проходит уровни строго по порядку. Сбой любого уровня проглатывается,
// при отсутствии результата возвращается tier none.
func (uc *SearchUseCase) Search(ctx context.Context, query string) domain.SearchResult {
	query = strings.TrimSpace(query)
	result := uc.search(ctx, query)
	if uc.metrics != nil {
		uc.metrics.SearchTiers.WithLabelValues(string(result.Tier)).Inc()
	}
	uc.logger.Debug("Search resolved",
		zap.String("query", query),
		zap.String("tier", string(result.Tier)))
	return result
}

func (uc *SearchUseCase) search(ctx context.Context, query string) domain.SearchResult {
	none := domain.SearchResult{Tier: domain.SearchTierNone, Query: query}
	if query == "" {
		return none
	}

	if loc, ok := uc.localities.FindByName(query); ok {
		return domain.SearchResult{
			Tier:     domain.SearchTierLocal,
			Query:    query,
			Locality: &loc,
			Viewport: &domain.Viewport{Center: loc.Coordinates, Zoom: domain.ZoomLocalMatch},
		}
	}

	if loc, ok := uc.searchAI(ctx, query); ok {
		return domain.SearchResult{
			Tier:     domain.SearchTierAI,
			Query:    query,
			Locality: loc,
			Viewport: &domain.Viewport{Center: loc.Coordinates, Zoom: domain.ZoomAIMatch},
		}
	}

	if ctx.Err() != nil {
		return none
	}

	if uc.geocoder != nil {
		geo, err := uc.geocoder.Search(ctx, query)
		if err != nil {
			uc.logger.Warn("Geocoder failed", zap.String("query", query), zap.Error(err))
			return none
		}
		if geo != nil {
			return domain.SearchResult{
				Tier:     domain.SearchTierGeocoder,
				Query:    query,
				Viewport: &domain.Viewport{Center: geo.Coordinates, Zoom: domain.ZoomGeocoderMatch},
			}
		}
	}

	return none
}

// searchAI синтезирует highlight-локацию; в каталог она не добавляется
func (uc *SearchUseCase) searchAI(ctx context.Context, query string) (*domain.Locality, bool) {
	if uc.gateway == nil {
		return nil, false
	}

	prompt := fmt.Sprintf("Identify the location for %q in the USA. "+
		"If it's a mine, town, or county, provide its coordinates and a brief description.", query)

	out := uc.gateway.StructuredQuery(ctx, gemini.StructuredRequest{
		Prompt: prompt,
		Schema: gemini.LocationSchema(),
		Mode:   domain.ChatModeFast,
	})
	if !out.OK {
		uc.logger.Debug("AI search tier failed", zap.String("reason", out.Reason))
		return nil, false
	}

	var data aiLocation
	if err := json.Unmarshal(out.Value, &data); err != nil {
		uc.logger.Debug("AI search tier returned unexpected shape", zap.Error(err))
		return nil, false
	}
	if data.Lat == nil || data.Lng == nil ||
		math.IsNaN(*data.Lat) || math.IsNaN(*data.Lng) ||
		!utils.ValidateCoordinates(*data.Lat, *data.Lng) {
		uc.logger.Debug("AI search tier returned unusable coordinates", zap.String("query", query))
		return nil, false
	}

	name := strings.TrimSpace(data.Name)
	if name == "" {
		name = query
	}
	description := strings.TrimSpace(data.Description)
	if description == "" {
		description = "Research result for " + query
	}
	locType := domain.LocalityType(strings.ToLower(strings.TrimSpace(data.Type)))
	if !locType.IsValid() {
		locType = domain.LocalityMine
	}

	return &domain.Locality{
		ID:          "search-" + uuid.NewString(),
		Name:        name,
		Description: description,
		Coordinates: domain.Coordinates{Lat: *data.Lat, Lng: *data.Lng},
		Type:        locType,
		Status:      domain.StatusHighlight,
	}, true
}
