package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/domain/repository"
	"github.com/geoclaim/internal/pkg/errors"
	"github.com/geoclaim/internal/pkg/metrics"
	"github.com/geoclaim/internal/pkg/utils"
	"github.com/geoclaim/internal/usecase/dto"
)

// AuditUseCase - проверка земельного статуса: сразу или через стрим
type AuditUseCase struct {
	localities *LocalityUseCase
	research   *ResearchUseCase
	// streams nil, когда Redis не настроен
	streams repository.StreamRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewAuditUseCase - создание нового AuditUseCase
func NewAuditUseCase(
	localities *LocalityUseCase,
	research *ResearchUseCase,
	streams repository.StreamRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *AuditUseCase {
	return &AuditUseCase{
		localities: localities,
		research:   research,
		streams:    streams,
		metrics:    m,
		logger:     logger,
	}
}

// AsyncEnabled сообщает, можно ли ставить проверки в очередь
func (uc *AuditUseCase) AsyncEnabled() bool {
	return uc.streams != nil
}

// Audit синхронно проверяет локацию каталога
func (uc *AuditUseCase) Audit(ctx context.Context, localityID string) (*dto.AuditResponse, error) {
	loc, err := uc.localities.Get(localityID)
	if err != nil {
		return nil, err
	}

	status, ok := uc.research.AuditLandStatus(ctx, loc)
	uc.count(ok)

	return &dto.AuditResponse{
		RequestID:  uuid.New(),
		LocalityID: loc.ID,
		Status:     dto.AuditCompleted,
		LandStatus: &status,
	}, nil
}

// Enqueue публикует событие проверки в стрим; результат придёт в StreamLocalityAuditDone
func (uc *AuditUseCase) Enqueue(ctx context.Context, localityID string) (*dto.AuditResponse, error) {
	if uc.streams == nil {
		return nil, errors.ErrAsyncUnavailable
	}
	if _, err := uc.localities.Get(localityID); err != nil {
		return nil, err
	}

	event := domain.LocalityAuditEvent{
		RequestID:  uuid.New(),
		LocalityID: localityID,
	}
	if err := uc.streams.PublishToStream(ctx, domain.StreamLocalityAudit, event); err != nil {
		uc.logger.Error("Failed to enqueue audit",
			zap.String("locality_id", localityID),
			zap.Error(err))
		return nil, errors.ErrAsyncUnavailable.WithMessage("failed to enqueue audit")
	}

	return &dto.AuditResponse{
		RequestID:  event.RequestID,
		LocalityID: localityID,
		Status:     dto.AuditQueued,
	}, nil
}

// resolve находит локацию события: по ID каталога или по собственным координатам
func (uc *AuditUseCase) resolve(event domain.LocalityAuditEvent) (domain.Locality, error) {
	if event.LocalityID != "" {
		loc, err := uc.localities.Get(event.LocalityID)
		if err == nil {
			return loc, nil
		}
		if !event.HasPoint() {
			return domain.Locality{}, fmt.Errorf("locality %s not in catalog", event.LocalityID)
		}
	}
	if !event.HasPoint() {
		return domain.Locality{}, fmt.Errorf("event has neither locality_id nor coordinates")
	}
	if !utils.ValidateCoordinates(*event.Latitude, *event.Longitude) {
		return domain.Locality{}, fmt.Errorf("invalid coordinates %v,%v", *event.Latitude, *event.Longitude)
	}

	name := strings.TrimSpace(event.Name)
	if name == "" {
		name = fmt.Sprintf("Point %.5f, %.5f", *event.Latitude, *event.Longitude)
	}
	return domain.Locality{
		ID:          event.LocalityID,
		Name:        name,
		Coordinates: domain.Coordinates{Lat: *event.Latitude, Lng: *event.Longitude},
		Type:        domain.LocalityOther,
		Status:      domain.StatusHighlight,
	}, nil
}

// ProcessEvent разбирает сообщение стрима и выполняет проверку.
// Ошибка возвращается только для сообщений, которые стоит повторить.
func (uc *AuditUseCase) ProcessEvent(ctx context.Context, data string) (*domain.LocalityAuditDoneEvent, error) {
	var event domain.LocalityAuditEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		uc.count(false)
		return &domain.LocalityAuditDoneEvent{
			Error:       "malformed event: " + err.Error(),
			CompletedAt: time.Now().UTC(),
		}, nil
	}

	done := &domain.LocalityAuditDoneEvent{
		RequestID:  event.RequestID,
		LocalityID: event.LocalityID,
	}

	loc, err := uc.resolve(event)
	if err != nil {
		uc.count(false)
		done.Error = err.Error()
		done.CompletedAt = time.Now().UTC()
		return done, nil
	}

	status, ok := uc.research.AuditLandStatus(ctx, loc)
	if !ok && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	uc.count(ok)

	done.LandStatus = &status
	if !ok {
		done.Error = "audit degraded"
	}
	done.CompletedAt = time.Now().UTC()
	return done, nil
}

func (uc *AuditUseCase) count(ok bool) {
	if uc.metrics == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "degraded"
	}
	uc.metrics.AuditsProcessed.WithLabelValues(outcome).Inc()
}
