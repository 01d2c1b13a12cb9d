package dto

import (
	"encoding/json"

	"github.com/geoclaim/internal/domain"
)

// ListLocalitiesRequest - фильтры списка локаций
type ListLocalitiesRequest struct {
	Type   string `query:"type" validate:"omitempty,localitytype"`
	Status string `query:"status" validate:"omitempty,oneof=direct estimated highlight"`
	Query  string `query:"q" validate:"omitempty,max=200"`
	// BBox в формате minLng,minLat,maxLng,maxLat
	BBox  string `query:"bbox"`
	Limit int    `query:"limit" validate:"omitempty,min=1,max=50000"`
}

// NearbyRequest - поиск локаций в радиусе
type NearbyRequest struct {
	Lat      float64 `query:"lat" validate:"min=-90,max=90"`
	Lng      float64 `query:"lng" validate:"min=-180,max=180"`
	RadiusKm float64 `query:"radius_km" validate:"omitempty,min=0.1,max=500"`
	Limit    int     `query:"limit" validate:"omitempty,min=1,max=500"`
}

// ChatRequest - запрос к чату без сессии
type ChatRequest struct {
	Message    string               `json:"message" validate:"required,max=8000"`
	Mode       domain.ChatMode      `json:"mode" validate:"omitempty,chatmode"`
	History    []domain.ChatMessage `json:"history,omitempty" validate:"max=100"`
	LocalityID string               `json:"locality_id,omitempty"`
	// Image - JPEG в base64 или data URL
	Image string `json:"image,omitempty"`
}

// StructuredQueryRequest - запрос со схемой ответа
type StructuredQueryRequest struct {
	Prompt string          `json:"prompt" validate:"required,max=8000"`
	Schema json.RawMessage `json:"schema" validate:"required"`
	Mode   domain.ChatMode `json:"mode" validate:"omitempty,chatmode"`
}

// SpeakRequest - текст для синтеза речи
type SpeakRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// SearchRequest - глобальный поиск
type SearchRequest struct {
	Query string `json:"query" query:"q" validate:"required,max=200"`
}

// SelectRequest - выбор локации в сессии
type SelectRequest struct {
	LocalityID string `json:"locality_id" validate:"required"`
}

// SessionChatRequest - сообщение в чат сессии
type SessionChatRequest struct {
	Message string          `json:"message" validate:"required,max=8000"`
	Mode    domain.ChatMode `json:"mode" validate:"omitempty,chatmode"`
}

// LayersRequest - видимость слоёв карты
type LayersRequest struct {
	Base     string   `json:"base" validate:"required,baselayer"`
	Overlays []string `json:"overlays" validate:"omitempty,dive,overlay"`
}
