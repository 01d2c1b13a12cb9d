package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stream names
const (
	StreamLocalityAudit     = "stream:locality:audit"
	StreamLocalityAuditDone = "stream:locality:audit:done"
)

// LocalityAuditEvent - входящее событие на проверку земельного статуса.
// Либо LocalityID из каталога, либо имя и координаты произвольной точки.
type LocalityAuditEvent struct {
	RequestID  uuid.UUID `json:"request_id"`
	LocalityID string    `json:"locality_id,omitempty"`
	Name       string    `json:"name,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
}

// HasPoint проверяет, что событие несёт собственные координаты
func (e *LocalityAuditEvent) HasPoint() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// LocalityAuditDoneEvent - результат проверки
type LocalityAuditDoneEvent struct {
	RequestID   uuid.UUID   `json:"request_id"`
	LocalityID  string      `json:"locality_id,omitempty"`
	LandStatus  *LandStatus `json:"land_status,omitempty"`
	Error       string      `json:"error,omitempty"`
	CompletedAt time.Time   `json:"completed_at"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
