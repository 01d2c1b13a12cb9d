package worker

import (
	"context"
)

// Worker - фоновый потребитель стрима
type Worker interface {
	// Start блокируется до Stop, отмены ctx или фатальной ошибки
	Start(ctx context.Context) error

	// Stop сигнализирует о завершении; повторный вызов безопасен
	Stop() error

	Name() string

	// Stats - счётчики обработанных сообщений
	Stats() Stats
}

// Stats - итог работы воркера
type Stats struct {
	Processed uint64
	Failed    uint64
}
