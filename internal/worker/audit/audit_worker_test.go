package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/worker"
	"github.com/geoclaim/internal/worker/audit"
)

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) ClaimPending(ctx context.Context, stream, group, consumer string, minIdle time.Duration, count int64) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, minIdle, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

// MockProcessor is a mock of AuditProcessor
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) ProcessEvent(ctx context.Context, data string) (*domain.LocalityAuditDoneEvent, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LocalityAuditDoneEvent), args.Error(1)
}

func feed(messages ...domain.StreamMessage) <-chan domain.StreamMessage {
	ch := make(chan domain.StreamMessage, len(messages))
	for _, m := range messages {
		ch <- m
	}
	close(ch)
	return ch
}

func newWorker(stream *MockStreamRepository, processor *MockProcessor, retries int) *audit.LocalityAuditWorker {
	return audit.NewLocalityAuditWorker(stream, processor, audit.Options{
		ConsumerGroup: "test-group",
		MaxRetries:    retries,
		BatchSize:     5,
		Concurrency:   2,
	}, zap.NewNop())
}

func TestLocalityAuditWorker_Name(t *testing.T) {
	w := newWorker(&MockStreamRepository{}, &MockProcessor{}, 3)
	assert.Equal(t, "locality-audit", w.Name())
	assert.Equal(t, "test-group", w.ConsumerGroup())
}

func TestLocalityAuditWorker_Stop(t *testing.T) {
	w := newWorker(&MockStreamRepository{}, &MockProcessor{}, 3)

	// Stop should not error even if not started
	assert.NoError(t, w.Stop())
	// Calling stop multiple times should be safe
	assert.NoError(t, w.Stop())
	assert.True(t, w.IsStopped())
}

func TestLocalityAuditWorker_ProcessesAndAcks(t *testing.T) {
	stream := &MockStreamRepository{}
	processor := &MockProcessor{}

	first := &domain.LocalityAuditDoneEvent{RequestID: uuid.New(), LocalityID: "loc-usa-0", LandStatus: &domain.LandStatus{Text: "Federal"}}
	second := &domain.LocalityAuditDoneEvent{RequestID: uuid.New(), Error: "malformed event: unexpected end of JSON input"}

	stream.On("CreateConsumerGroup", mock.Anything, domain.StreamLocalityAudit, "test-group").Return(nil)
	stream.On("ConsumeStream", mock.Anything, domain.StreamLocalityAudit, "test-group", mock.Anything).
		Return(feed(
			domain.StreamMessage{ID: "1-0", Data: `{"locality_id":"loc-usa-0"}`},
			domain.StreamMessage{ID: "2-0", Data: `{`},
		), nil)
	processor.On("ProcessEvent", mock.Anything, `{"locality_id":"loc-usa-0"}`).Return(first, nil)
	processor.On("ProcessEvent", mock.Anything, `{`).Return(second, nil)
	stream.On("PublishToStream", mock.Anything, domain.StreamLocalityAuditDone, first).Return(nil)
	stream.On("PublishToStream", mock.Anything, domain.StreamLocalityAuditDone, second).Return(nil)
	stream.On("AckMessage", mock.Anything, domain.StreamLocalityAudit, "test-group", "1-0").Return(nil)
	stream.On("AckMessage", mock.Anything, domain.StreamLocalityAudit, "test-group", "2-0").Return(nil)

	w := newWorker(stream, processor, 3)
	require.NoError(t, w.Start(context.Background()))

	stream.AssertExpectations(t)
	processor.AssertExpectations(t)
	assert.Equal(t, worker.Stats{Processed: 2}, w.Stats())
}

func TestLocalityAuditWorker_InterruptedNotAcked(t *testing.T) {
	stream := &MockStreamRepository{}
	processor := &MockProcessor{}

	stream.On("CreateConsumerGroup", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	stream.On("ConsumeStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(feed(domain.StreamMessage{ID: "1-0", Data: `{"locality_id":"loc-usa-0"}`}), nil)
	processor.On("ProcessEvent", mock.Anything, mock.Anything).Return(nil, context.Canceled)

	w := newWorker(stream, processor, 3)
	require.NoError(t, w.Start(context.Background()))

	assert.Equal(t, worker.Stats{Failed: 1}, w.Stats())
	stream.AssertNotCalled(t, "PublishToStream", mock.Anything, mock.Anything, mock.Anything)
	stream.AssertNotCalled(t, "AckMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLocalityAuditWorker_PublishRetries(t *testing.T) {
	stream := &MockStreamRepository{}
	processor := &MockProcessor{}
	done := &domain.LocalityAuditDoneEvent{RequestID: uuid.New()}

	stream.On("CreateConsumerGroup", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	stream.On("ConsumeStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(feed(domain.StreamMessage{ID: "1-0", Data: "{}"}), nil)
	processor.On("ProcessEvent", mock.Anything, "{}").Return(done, nil)
	stream.On("PublishToStream", mock.Anything, domain.StreamLocalityAuditDone, done).Return(errors.New("READONLY")).Times(2)
	stream.On("PublishToStream", mock.Anything, domain.StreamLocalityAuditDone, done).Return(nil).Once()
	stream.On("AckMessage", mock.Anything, mock.Anything, mock.Anything, "1-0").Return(nil)

	require.NoError(t, newWorker(stream, processor, 3).Start(context.Background()))

	stream.AssertNumberOfCalls(t, "PublishToStream", 3)
	stream.AssertCalled(t, "AckMessage", mock.Anything, mock.Anything, mock.Anything, "1-0")
}

func TestLocalityAuditWorker_PublishExhausted(t *testing.T) {
	stream := &MockStreamRepository{}
	processor := &MockProcessor{}
	done := &domain.LocalityAuditDoneEvent{RequestID: uuid.New()}

	stream.On("CreateConsumerGroup", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	stream.On("ConsumeStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(feed(domain.StreamMessage{ID: "1-0", Data: "{}"}), nil)
	processor.On("ProcessEvent", mock.Anything, "{}").Return(done, nil)
	stream.On("PublishToStream", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("READONLY"))

	require.NoError(t, newWorker(stream, processor, 2).Start(context.Background()))

	stream.AssertNumberOfCalls(t, "PublishToStream", 2)
	stream.AssertNotCalled(t, "AckMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLocalityAuditWorker_ConsumerGroupError(t *testing.T) {
	stream := &MockStreamRepository{}
	stream.On("CreateConsumerGroup", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("NOAUTH"))

	err := newWorker(stream, &MockProcessor{}, 3).Start(context.Background())
	assert.Error(t, err)
	stream.AssertNotCalled(t, "ConsumeStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLocalityAuditWorker_StopWhileIdle(t *testing.T) {
	stream := &MockStreamRepository{}
	idle := make(chan domain.StreamMessage)
	stream.On("CreateConsumerGroup", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	stream.On("ConsumeStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return((<-chan domain.StreamMessage)(idle), nil)

	w := newWorker(stream, &MockProcessor{}, 3)

	var (
		wg       sync.WaitGroup
		startErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		startErr = w.Start(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, w.Stop())
	wg.Wait()
	assert.NoError(t, startErr)
}

func TestLocalityAuditWorker_ContextCancellation(t *testing.T) {
	stream := &MockStreamRepository{}
	idle := make(chan domain.StreamMessage)
	stream.On("CreateConsumerGroup", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	stream.On("ConsumeStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return((<-chan domain.StreamMessage)(idle), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := newWorker(stream, &MockProcessor{}, 3).Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocalityAuditWorker_ReclaimsPendingOnStart(t *testing.T) {
	stream := &MockStreamRepository{}
	processor := &MockProcessor{}
	done := &domain.LocalityAuditDoneEvent{RequestID: uuid.New(), LocalityID: "loc-usa-3"}

	stream.On("CreateConsumerGroup", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	stream.On("ClaimPending", mock.Anything, domain.StreamLocalityAudit, "test-group", mock.Anything, time.Minute, int64(5)).
		Return([]domain.StreamMessage{{ID: "7-0", Data: `{"locality_id":"loc-usa-3"}`}}, nil).Once()
	stream.On("ConsumeStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(feed(), nil)
	processor.On("ProcessEvent", mock.Anything, `{"locality_id":"loc-usa-3"}`).Return(done, nil)
	stream.On("PublishToStream", mock.Anything, domain.StreamLocalityAuditDone, done).Return(nil)
	stream.On("AckMessage", mock.Anything, domain.StreamLocalityAudit, "test-group", "7-0").Return(nil)

	w := audit.NewLocalityAuditWorker(stream, processor, audit.Options{
		ConsumerGroup: "test-group",
		MaxRetries:    1,
		BatchSize:     5,
		ClaimMinIdle:  time.Minute,
		ClaimInterval: time.Hour,
	}, zap.NewNop())
	require.NoError(t, w.Start(context.Background()))

	stream.AssertExpectations(t)
	processor.AssertExpectations(t)
	assert.Equal(t, worker.Stats{Processed: 1}, w.Stats())
}

func TestLocalityAuditWorker_ReclaimsPendingPeriodically(t *testing.T) {
	stream := &MockStreamRepository{}
	processor := &MockProcessor{}
	done := &domain.LocalityAuditDoneEvent{RequestID: uuid.New()}
	idle := make(chan domain.StreamMessage)
	acked := make(chan struct{})

	stream.On("CreateConsumerGroup", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	stream.On("ClaimPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.StreamMessage{}, nil).Once()
	stream.On("ClaimPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.StreamMessage{{ID: "9-0", Data: "{}"}}, nil).Once()
	stream.On("ClaimPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.StreamMessage{}, nil)
	stream.On("ConsumeStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return((<-chan domain.StreamMessage)(idle), nil)
	processor.On("ProcessEvent", mock.Anything, "{}").Return(done, nil)
	stream.On("PublishToStream", mock.Anything, domain.StreamLocalityAuditDone, done).Return(nil)
	stream.On("AckMessage", mock.Anything, mock.Anything, mock.Anything, "9-0").
		Run(func(mock.Arguments) { close(acked) }).Return(nil).Once()

	w := audit.NewLocalityAuditWorker(stream, processor, audit.Options{
		ConsumerGroup: "test-group",
		MaxRetries:    1,
		ClaimMinIdle:  time.Minute,
		ClaimInterval: 10 * time.Millisecond,
	}, zap.NewNop())

	var (
		wg       sync.WaitGroup
		startErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		startErr = w.Start(context.Background())
	}()

	select {
	case <-acked:
	case <-time.After(2 * time.Second):
		t.Fatal("reclaimed message was not acked")
	}
	require.NoError(t, w.Stop())
	wg.Wait()

	assert.NoError(t, startErr)
	assert.Equal(t, uint64(1), w.Stats().Processed)
}

func TestLocalityAuditWorker_ReclaimDisabledByDefault(t *testing.T) {
	stream := &MockStreamRepository{}
	stream.On("CreateConsumerGroup", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	stream.On("ConsumeStream", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(feed(), nil)

	require.NoError(t, newWorker(stream, &MockProcessor{}, 3).Start(context.Background()))
	stream.AssertNotCalled(t, "ClaimPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
