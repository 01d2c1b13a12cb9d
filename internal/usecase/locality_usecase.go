package usecase

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/domain/repository"
	"github.com/geoclaim/internal/infrastructure/gemini"
	"github.com/geoclaim/internal/infrastructure/kml"
	"github.com/geoclaim/internal/pkg/errors"
	"github.com/geoclaim/internal/pkg/metrics"
	"github.com/geoclaim/internal/pkg/utils"
	"github.com/geoclaim/internal/usecase/dto"
)

const (
	defaultNearbyRadiusKm = 25.0
	defaultNearbyLimit    = 50
)

// catalog - неизменяемый снимок загруженных локаций
type catalog struct {
	items    []domain.Locality
	byID     map[string]int
	loadedAt time.Time
}

// LocalityUseCase - каталог локаций, загружаемый один раз из KML
type LocalityUseCase struct {
	source  repository.DocumentSource
	parser  *kml.Parser
	catalog atomic.Pointer[catalog]
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewLocalityUseCase - создание нового LocalityUseCase. Каталог пуст до Load
func NewLocalityUseCase(
	source repository.DocumentSource,
	parser *kml.Parser,
	m *metrics.Metrics,
	logger *zap.Logger,
) *LocalityUseCase {
	uc := &LocalityUseCase{
		source:  source,
		parser:  parser,
		metrics: m,
		logger:  logger,
	}
	uc.catalog.Store(newCatalog(nil, time.Time{}))
	return uc
}

func newCatalog(items []domain.Locality, loadedAt time.Time) *catalog {
	c := &catalog{
		items:    items,
		byID:     make(map[string]int, len(items)),
		loadedAt: loadedAt,
	}
	for i, loc := range items {
		c.byID[loc.ID] = i
	}
	return c
}

// Load загружает и разбирает документ. Любая ошибка даёт пустой каталог
// и запись в лог, но не ошибку вызывающему.
func (uc *LocalityUseCase) Load(ctx context.Context) int {
	start := time.Now()

	data, err := uc.source.Fetch(ctx)
	if err != nil {
		uc.logger.Error("Failed to fetch locality document, catalog is empty", zap.Error(err))
		uc.store(nil)
		return 0
	}

	if kml.IsKMZ(data) {
		data, err = kml.ExtractKMZ(data)
		if err != nil {
			uc.logger.Error("Failed to unpack KMZ, catalog is empty", zap.Error(err))
			uc.store(nil)
			return 0
		}
	}

	localities, err := uc.parser.ParseBytes(data)
	if err != nil {
		uc.logger.Error("Failed to parse locality document, catalog is empty", zap.Error(err))
		uc.store(nil)
		return 0
	}

	uc.store(localities)
	uc.logger.Info("Locality catalog loaded",
		zap.Int("localities", len(localities)),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)))
	return len(localities)
}

func (uc *LocalityUseCase) store(items []domain.Locality) {
	uc.catalog.Store(newCatalog(items, time.Now()))
	if uc.metrics != nil {
		uc.metrics.CatalogSize.Set(float64(len(items)))
	}
}

// Size - количество локаций в каталоге
func (uc *LocalityUseCase) Size() int {
	return len(uc.catalog.Load().items)
}

// LoadedAt - время последней загрузки, нулевое до первой
func (uc *LocalityUseCase) LoadedAt() time.Time {
	return uc.catalog.Load().loadedAt
}

// All возвращает весь каталог. Срез не изменяется и не должен изменяться вызывающим
func (uc *LocalityUseCase) All() []domain.Locality {
	return uc.catalog.Load().items
}

// Get - локация по ID
func (uc *LocalityUseCase) Get(id string) (domain.Locality, error) {
	c := uc.catalog.Load()
	i, ok := c.byID[id]
	if !ok {
		return domain.Locality{}, errors.ErrLocalityNotFound.WithDetails(map[string]interface{}{
			"id": id,
		})
	}
	return c.items[i], nil
}

// FindByName - первая в порядке документа локация, имя которой содержит query без учёта регистра
func (uc *LocalityUseCase) FindByName(query string) (domain.Locality, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return domain.Locality{}, false
	}
	for _, loc := range uc.catalog.Load().items {
		if strings.Contains(strings.ToLower(loc.Name), q) {
			return loc, true
		}
	}
	return domain.Locality{}, false
}

// List - фильтрация каталога. Total считается до применения limit
func (uc *LocalityUseCase) List(req dto.ListLocalitiesRequest) (*dto.LocalityListResponse, error) {
	var bbox *domain.BoundingBox
	if req.BBox != "" {
		b, err := ParseBBox(req.BBox)
		if err != nil {
			return nil, err
		}
		bbox = b
	}

	q := strings.ToLower(strings.TrimSpace(req.Query))
	items := uc.catalog.Load().items
	result := make([]domain.Locality, 0)
	total := 0

	for _, loc := range items {
		if req.Type != "" && string(loc.Type) != req.Type {
			continue
		}
		if req.Status != "" && string(loc.Status) != req.Status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(loc.Name), q) {
			continue
		}
		if bbox != nil && !bbox.Contains(loc.Coordinates) {
			continue
		}
		total++
		if req.Limit <= 0 || len(result) < req.Limit {
			result = append(result, loc)
		}
	}

	return &dto.LocalityListResponse{
		Localities: result,
		Total:      total,
	}, nil
}

// Nearby - локации в радиусе от точки, по возрастанию расстояния
func (uc *LocalityUseCase) Nearby(req dto.NearbyRequest) (*dto.NearbyResponse, error) {
	if !utils.ValidateCoordinates(req.Lat, req.Lng) {
		return nil, errors.ErrInvalidCoordinates
	}
	if req.RadiusKm == 0 {
		req.RadiusKm = defaultNearbyRadiusKm
	}
	if !utils.ValidateRadius(req.RadiusKm) {
		return nil, errors.ErrInvalidRadius
	}
	if req.Limit <= 0 {
		req.Limit = defaultNearbyLimit
	}

	found := uc.within(domain.Coordinates{Lat: req.Lat, Lng: req.Lng}, req.RadiusKm)
	total := len(found)
	if len(found) > req.Limit {
		found = found[:req.Limit]
	}

	return &dto.NearbyResponse{
		Localities: found,
		Total:      total,
	}, nil
}

func (uc *LocalityUseCase) within(center domain.Coordinates, radiusKm float64) []dto.NearbyLocality {
	found := make([]dto.NearbyLocality, 0)
	for _, loc := range uc.catalog.Load().items {
		d := utils.HaversineDistance(center.Lat, center.Lng, loc.Coordinates.Lat, loc.Coordinates.Lng)
		if d <= radiusKm {
			found = append(found, dto.NearbyLocality{Locality: loc, DistanceKm: math.Round(d*1000) / 1000})
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].DistanceKm < found[j].DistanceKm
	})
	return found
}

// ExecuteFunctionCalls выполняет findLocalitiesNearby, запрошенные моделью.
// Неизвестные функции и вызовы без координат пропускаются.
func (uc *LocalityUseCase) ExecuteFunctionCalls(calls []domain.FunctionCall) []domain.Locality {
	seen := make(map[string]bool)
	result := make([]domain.Locality, 0)

	for _, call := range calls {
		if call.Name != gemini.FindLocalitiesNearby {
			uc.logger.Warn("Unknown function call requested", zap.String("name", call.Name))
			continue
		}
		lat, okLat := numberArg(call.Args, "latitude")
		lng, okLng := numberArg(call.Args, "longitude")
		if !okLat || !okLng || !utils.ValidateCoordinates(lat, lng) {
			uc.logger.Warn("Function call without usable coordinates", zap.Any("args", call.Args))
			continue
		}
		radius, ok := numberArg(call.Args, "radiusMiles")
		if !ok || radius <= 0 {
			radius = gemini.DefaultNearbyRadiusMiles
		}

		for _, n := range uc.within(domain.Coordinates{Lat: lat, Lng: lng}, utils.MilesToKm(radius)) {
			if seen[n.ID] {
				continue
			}
			seen[n.ID] = true
			result = append(result, n.Locality)
		}
	}
	return result
}

func numberArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// ParseBBox разбирает "minLng,minLat,maxLng,maxLat"
func ParseBBox(raw string) (*domain.BoundingBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, errors.ErrInvalidRequest.WithMessage("bbox must be minLng,minLat,maxLng,maxLat")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.ErrInvalidRequest.WithMessage("bbox must contain four numbers")
		}
		vals[i] = v
	}
	b := &domain.BoundingBox{MinLng: vals[0], MinLat: vals[1], MaxLng: vals[2], MaxLat: vals[3]}
	if !utils.ValidateCoordinates(b.MinLat, b.MinLng) || !utils.ValidateCoordinates(b.MaxLat, b.MaxLng) ||
		b.MinLat > b.MaxLat || b.MinLng > b.MaxLng {
		return nil, errors.ErrInvalidCoordinates.WithDetails(map[string]interface{}{"bbox": raw})
	}
	return b, nil
}
