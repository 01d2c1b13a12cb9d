package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/geoclaim/internal/config"
	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/domain/repository"
	"github.com/geoclaim/internal/pkg/metrics"
	"github.com/geoclaim/internal/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// noResult кешируется вместо пустого ответа, чтобы не повторять запрос
const noResult = "null"

type client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	suffix     string
	limiter    *rate.Limiter
	cache      repository.CacheRepository
	cacheTTL   time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewClient создает клиента Nominatim с ограничением частоты запросов
// (политика Nominatim - не больше 1 запроса в секунду). cache может быть nil
func NewClient(
	cfg *config.GeocoderConfig,
	cache repository.CacheRepository,
	cacheTTL time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) repository.GeocodingRepository {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	return &client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		suffix:     cfg.QuerySuffix,
		limiter:    rate.NewLimiter(limit, 1),
		cache:      cache,
		cacheTTL:   cacheTTL,
		metrics:    m,
		logger:     logger,
	}
}

// Search геокодирует запрос (с добавленным суффиксом) и возвращает первый результат
func (c *client) Search(ctx context.Context, query string) (*domain.GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	q := query + c.suffix
	cacheKey := "geocode:" + strings.ToLower(q)

	if data, ok := c.fromCache(ctx, cacheKey); ok {
		return data, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("q", q)
	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("Geocoding query", zap.String("query", q))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.count("error")
		c.logger.Error("Failed to execute geocoding request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.count("bad_status")
		c.logger.Error("Geocoder returned error", zap.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("geocoder error: status %d", resp.StatusCode)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		c.count("decode_error")
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	c.count("ok")

	result := firstValid(places)
	c.toCache(ctx, cacheKey, result)
	return result, nil
}

func firstValid(places []place) *domain.GeocodeResult {
	if len(places) == 0 {
		return nil
	}
	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil
	}
	if !utils.ValidateCoordinates(lat, lng) {
		return nil
	}
	return &domain.GeocodeResult{
		Coordinates: domain.Coordinates{Lat: lat, Lng: lng},
		DisplayName: places[0].DisplayName,
	}
}

func (c *client) fromCache(ctx context.Context, key string) (*domain.GeocodeResult, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, err := c.cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil, false
	}
	if string(data) == noResult {
		return nil, true
	}
	var result domain.GeocodeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *client) toCache(ctx context.Context, key string, result *domain.GeocodeResult) {
	if c.cache == nil {
		return
	}
	data := []byte(noResult)
	if result != nil {
		encoded, err := json.Marshal(result)
		if err != nil {
			return
		}
		data = encoded
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		c.logger.Warn("Failed to cache geocoding result", zap.Error(err))
	}
}

func (c *client) count(outcome string) {
	if c.metrics != nil {
		c.metrics.UpstreamRequests.WithLabelValues("nominatim", outcome).Inc()
	}
}
