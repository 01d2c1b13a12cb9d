package elevation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geoclaim/internal/config"
	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/domain/repository"
	"github.com/geoclaim/internal/pkg/metrics"
	"go.uber.org/zap"
)

type client struct {
	httpClient *http.Client
	baseURL    string
	cache      repository.CacheRepository
	cacheTTL   time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// lookupResponse - ответ Open-Elevation /api/v1/lookup
type lookupResponse struct {
	Results []struct {
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		Elevation *float64 `json:"elevation"`
	} `json:"results"`
}

// NewClient создает клиента Open-Elevation. cache может быть nil
func NewClient(
	cfg *config.ElevationConfig,
	cache repository.CacheRepository,
	cacheTTL time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) repository.ElevationRepository {
	return &client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cache:      cache,
		cacheTTL:   cacheTTL,
		metrics:    m,
		logger:     logger,
	}
}

// Lookup возвращает высоту точки в метрах
func (c *client) Lookup(ctx context.Context, point domain.Coordinates) (*domain.Elevation, error) {
	locations := fmt.Sprintf("%.6f,%.6f", point.Lat, point.Lng)
	cacheKey := "elevation:" + locations

	if cached := c.fromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	reqURL := fmt.Sprintf("%s/api/v1/lookup?locations=%s", c.baseURL, url.QueryEscape(locations))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.count("error")
		c.logger.Error("Failed to execute elevation request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.count("bad_status")
		c.logger.Error("Elevation API returned error", zap.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("elevation API error: status %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.count("decode_error")
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	c.count("ok")

	if len(body.Results) == 0 || body.Results[0].Elevation == nil {
		return nil, nil
	}

	elev := &domain.Elevation{Meters: *body.Results[0].Elevation}
	c.toCache(ctx, cacheKey, elev)
	return elev, nil
}

func (c *client) fromCache(ctx context.Context, key string) *domain.Elevation {
	if c.cache == nil {
		return nil
	}
	data, err := c.cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil
	}
	var elev domain.Elevation
	if err := json.Unmarshal(data, &elev); err != nil {
		return nil
	}
	return &elev
}

func (c *client) toCache(ctx context.Context, key string, elev *domain.Elevation) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(elev)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		c.logger.Warn("Failed to cache elevation", zap.Error(err))
	}
}

func (c *client) count(outcome string) {
	if c.metrics != nil {
		c.metrics.UpstreamRequests.WithLabelValues("open-elevation", outcome).Inc()
	}
}
