package repository

import (
	"context"
	"time"

	"github.com/geoclaim/internal/domain"
)

// StreamRepository - очередь проверок земельного статуса поверх Redis Streams.
// Событие лежит JSON-ом в поле "data" сообщения.
type StreamRepository interface {
	// ConsumeStream отдаёт новые сообщения группы; канал закрывается после отмены ctx
	ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error)

	// ClaimPending переназначает consumer'у до count сообщений,
	// которые висят в PEL группы дольше minIdle (XAUTOCLAIM)
	ClaimPending(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]domain.StreamMessage, error)

	// AckMessage снимает сообщение из списка ожидающих (PEL) группы
	AckMessage(ctx context.Context, stream, group, messageID string) error

	// CreateConsumerGroup идемпотентна: существующая группа не считается ошибкой
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// PublishToStream кодирует data в JSON и добавляет сообщение в стрим
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}
