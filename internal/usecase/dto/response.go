package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/geoclaim/internal/domain"
)

// LocalityListResponse - страница каталога
type LocalityListResponse struct {
	Localities []domain.Locality `json:"localities"`
	Total      int               `json:"total"`
}

// NearbyLocality - локация с расстоянием до центра поиска
type NearbyLocality struct {
	domain.Locality
	DistanceKm float64 `json:"distance_km"`
}

// NearbyResponse - ответ на поиск в радиусе
type NearbyResponse struct {
	Localities []NearbyLocality `json:"localities"`
	Total      int              `json:"total"`
}

// ChatResponse - ответ чата. Ошибки модели сюда не попадают
type ChatResponse struct {
	Text           string                 `json:"text"`
	GroundingLinks []domain.GroundingLink `json:"grounding_links"`
	// Localities - результат findLocalitiesNearby в режиме Maps
	Localities []domain.Locality `json:"localities,omitempty"`
	// Stale - ответ пришёл после смены выбора и не попал в расшифровку
	Stale bool `json:"stale,omitempty"`
}

// ResearchBundle - все панели исследования локации
type ResearchBundle struct {
	LocalityID string                   `json:"locality_id"`
	Minerals   []domain.MineralSpecimen `json:"minerals"`
	Safety     domain.SiteSafety        `json:"safety"`
	Weather    domain.SiteWeather       `json:"weather"`
	Videos     []domain.SiteVideo       `json:"videos"`
	Elevation  *domain.Elevation        `json:"elevation"`
	// Degraded - панели, вернувшие пустой результат из-за сбоя
	Degraded []string `json:"degraded,omitempty"`
}

// MineralLookupResponse - найденное изображение минерала
type MineralLookupResponse struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// LayersResponse - каталог слоёв и легенда
type LayersResponse struct {
	BaseLayers []domain.TileLayer  `json:"base_layers"`
	Overlays   []domain.TileLayer  `json:"overlays"`
	Legend     []domain.LegendItem `json:"legend"`
}

// AuditResponse - результат проверки земельного статуса
type AuditResponse struct {
	RequestID  uuid.UUID          `json:"request_id"`
	LocalityID string             `json:"locality_id"`
	Status     string             `json:"status"`
	LandStatus *domain.LandStatus `json:"land_status,omitempty"`
}

// Audit statuses
const (
	AuditQueued    = "queued"
	AuditCompleted = "completed"
)

// HealthResponse - состояние сервиса
type HealthResponse struct {
	Status          string    `json:"status"`
	Localities      int       `json:"localities"`
	MineralsLoaded  bool      `json:"minerals_loaded"`
	MineralEntries  int       `json:"mineral_entries"`
	ActiveSessions  int       `json:"active_sessions"`
	CatalogLoadedAt time.Time `json:"catalog_loaded_at,omitempty"`
}
