package repository

import (
	"context"

	"github.com/geoclaim/internal/domain"
)

// ElevationRepository - высота точки над уровнем моря
type ElevationRepository interface {
	// Lookup возвращает (nil, nil), если сервис не знает высоту точки
	Lookup(ctx context.Context, point domain.Coordinates) (*domain.Elevation, error)
}
