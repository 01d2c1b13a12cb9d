package repository

import (
	"context"

	"github.com/geoclaim/internal/domain"
)

// GeocodingRepository - прямое геокодирование свободного текста
type GeocodingRepository interface {
	// Search возвращает первый результат или (nil, nil), если ничего не найдено
	Search(ctx context.Context, query string) (*domain.GeocodeResult, error)
}
