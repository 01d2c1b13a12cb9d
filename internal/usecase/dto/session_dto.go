package dto

import (
	"time"

	"github.com/geoclaim/internal/domain"
)

// PanelState - состояние панели деталей
type PanelState string

const (
	PanelIdle    PanelState = "idle"
	PanelLoading PanelState = "loading"
	PanelReady   PanelState = "ready"
	PanelFailed  PanelState = "failed"
)

// Panel - слот одного независимого результата
type Panel[T any] struct {
	State PanelState `json:"state"`
	Data  T          `json:"data"`
}

// SessionPanels - панели текущего выбора
type SessionPanels struct {
	Minerals  Panel[[]domain.MineralSpecimen] `json:"minerals"`
	Safety    Panel[*domain.SiteSafety]       `json:"safety"`
	Weather   Panel[*domain.SiteWeather]      `json:"weather"`
	Videos    Panel[[]domain.SiteVideo]       `json:"videos"`
	Elevation Panel[*domain.Elevation]        `json:"elevation"`
	Audit     Panel[*domain.LandStatus]       `json:"audit"`
}

// SessionSnapshot - состояние сессии для отрисовки
type SessionSnapshot struct {
	ID          string               `json:"id"`
	Selection   *domain.Locality     `json:"selection"`
	DetailsOpen bool                 `json:"details_open"`
	Generation  uint64               `json:"generation"`
	Panels      SessionPanels        `json:"panels"`
	Chat        []domain.ChatMessage `json:"chat"`
	Viewport    domain.Viewport      `json:"viewport"`
	BaseLayer   string               `json:"base_layer"`
	Overlays    []string             `json:"overlays"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// SessionSearchResponse - результат поиска, применённый к сессии
type SessionSearchResponse struct {
	Result   domain.SearchResult `json:"result"`
	Snapshot SessionSnapshot     `json:"snapshot"`
}
