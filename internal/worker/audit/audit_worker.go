package audit

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/domain/repository"
	"github.com/geoclaim/internal/worker"
)

// AuditProcessor выполняет проверку по сообщению стрима.
// Ошибка означает, что сообщение нужно оставить неподтверждённым.
type AuditProcessor interface {
	ProcessEvent(ctx context.Context, data string) (*domain.LocalityAuditDoneEvent, error)
}

// Options - параметры воркера
type Options struct {
	ConsumerGroup string
	// MaxRetries - попытки публикации результата
	MaxRetries int
	// BatchSize - сколько сообщений собирать в пачку
	BatchSize int
	// Concurrency - сколько проверок пачки выполнять одновременно
	Concurrency int
	// ClaimMinIdle - через сколько неподтверждённое сообщение забирается себе; 0 выключает
	ClaimMinIdle time.Duration
	// ClaimInterval - как часто проверять PEL, по умолчанию ClaimMinIdle
	ClaimInterval time.Duration
}

// LocalityAuditWorker обрабатывает события проверки земельного статуса
type LocalityAuditWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	processor    AuditProcessor
	consumerName string
	opts         Options
}

// NewLocalityAuditWorker создает новый LocalityAuditWorker
func NewLocalityAuditWorker(
	streamRepo repository.StreamRepository,
	processor AuditProcessor,
	opts Options,
	logger *zap.Logger,
) *LocalityAuditWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.ClaimMinIdle > 0 && opts.ClaimInterval <= 0 {
		opts.ClaimInterval = opts.ClaimMinIdle
	}

	return &LocalityAuditWorker{
		BaseWorker:   worker.NewBaseWorker("locality-audit", opts.ConsumerGroup, logger),
		streamRepo:   streamRepo,
		processor:    processor,
		consumerName: consumerName,
		opts:         opts,
	}
}

// Start запускает воркер и блокируется до Stop, отмены ctx или закрытия стрима.
// Начатая пачка дорабатывается с ctx, а не с контекстом чтения.
func (w *LocalityAuditWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting LocalityAuditWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("batch_size", w.opts.BatchSize),
		zap.Int("concurrency", w.opts.Concurrency))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamLocalityAudit, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.StopChan():
			cancel()
		case <-consumeCtx.Done():
		}
	}()

	// сначала то, что осталось от упавших consumer'ов
	var claimTick <-chan time.Time
	if w.opts.ClaimMinIdle > 0 {
		if batch := w.claim(consumeCtx); len(batch) > 0 {
			w.processBatch(ctx, batch)
		}
		ticker := time.NewTicker(w.opts.ClaimInterval)
		defer ticker.Stop()
		claimTick = ticker.C
	}

	messages, err := w.streamRepo.ConsumeStream(consumeCtx, domain.StreamLocalityAudit, w.ConsumerGroup(), w.consumerName)
	if err != nil {
		logger.Error("Failed to subscribe to stream", zap.Error(err))
		return fmt.Errorf("failed to consume stream: %w", err)
	}

	for {
		batch, open := w.collect(consumeCtx, messages, claimTick)
		if len(batch) > 0 {
			w.processBatch(ctx, batch)
		}
		if !open {
			if ctx.Err() != nil {
				logger.Info("Context cancelled")
				return ctx.Err()
			}
			logger.Info("Worker stopped")
			return nil
		}
	}
}

// collect ждёт первое сообщение и добирает уже пришедшие до BatchSize.
// По тику claimTick пачкой становятся зависшие сообщения из PEL.
// open=false - чтение закончено.
func (w *LocalityAuditWorker) collect(ctx context.Context, messages <-chan domain.StreamMessage, claimTick <-chan time.Time) ([]domain.StreamMessage, bool) {
	var batch []domain.StreamMessage

	select {
	case msg, ok := <-messages:
		if !ok {
			return nil, false
		}
		batch = append(batch, msg)
	case <-claimTick:
		return w.claim(ctx), true
	case <-ctx.Done():
		return nil, false
	}

	for len(batch) < w.opts.BatchSize {
		select {
		case msg, ok := <-messages:
			if !ok {
				return batch, false
			}
			batch = append(batch, msg)
		default:
			return batch, true
		}
	}
	return batch, true
}

// claim забирает до BatchSize сообщений, простаивающих в PEL дольше ClaimMinIdle.
// Пачки обрабатываются последовательно, поэтому свои сообщения в работе сюда не попадают.
func (w *LocalityAuditWorker) claim(ctx context.Context) []domain.StreamMessage {
	batch, err := w.streamRepo.ClaimPending(ctx, domain.StreamLocalityAudit, w.ConsumerGroup(),
		w.consumerName, w.opts.ClaimMinIdle, int64(w.opts.BatchSize))
	if err != nil {
		if ctx.Err() == nil {
			w.Logger().Warn("Failed to claim pending messages", zap.Error(err))
		}
		return nil
	}
	if len(batch) > 0 {
		w.Logger().Info("Reclaimed pending messages", zap.Int("count", len(batch)))
	}
	return batch
}

// processBatch обрабатывает пачку параллельно с ограничением Concurrency
func (w *LocalityAuditWorker) processBatch(ctx context.Context, batch []domain.StreamMessage) {
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(w.opts.Concurrency)
	for _, msg := range batch {
		g.Go(func() error {
			w.handle(ctx, msg)
			return nil
		})
	}
	_ = g.Wait()

	w.Logger().Info("Batch processed",
		zap.Int("messages", len(batch)),
		zap.Duration("duration", time.Since(start)))
}

// handle: проверка, публикация результата, ACK. Без публикации сообщение не подтверждается.
func (w *LocalityAuditWorker) handle(ctx context.Context, msg domain.StreamMessage) {
	logger := w.Logger().With(zap.String("message_id", msg.ID))

	done, err := w.processor.ProcessEvent(ctx, msg.Data)
	if err != nil {
		w.Record(false)
		logger.Warn("Audit interrupted, message left pending", zap.Error(err))
		return
	}

	if err := w.publish(ctx, done); err != nil {
		w.Record(false)
		logger.Error("Failed to publish audit result, message left pending",
			zap.String("request_id", done.RequestID.String()),
			zap.Error(err))
		return
	}

	if err := w.streamRepo.AckMessage(ctx, domain.StreamLocalityAudit, w.ConsumerGroup(), msg.ID); err != nil {
		// сообщение будет доставлено повторно
		w.Record(false)
		logger.Error("Failed to ack message", zap.Error(err))
		return
	}
	w.Record(true)

	if done.Error != "" {
		logger.Warn("Audit completed with error",
			zap.String("request_id", done.RequestID.String()),
			zap.String("error", done.Error))
	}
}

// publish повторяет публикацию до MaxRetries раз с линейной паузой
func (w *LocalityAuditWorker) publish(ctx context.Context, done *domain.LocalityAuditDoneEvent) error {
	var err error
	for attempt := 1; attempt <= w.opts.MaxRetries; attempt++ {
		if err = w.streamRepo.PublishToStream(ctx, domain.StreamLocalityAuditDone, done); err == nil {
			return nil
		}
		if attempt == w.opts.MaxRetries {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("publish failed after %d attempts: %w", w.opts.MaxRetries, err)
}
