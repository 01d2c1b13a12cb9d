package cache

import (
	"context"
	"time"

	"github.com/geoclaim/internal/domain/repository"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

type memoryRepository struct {
	store  *gocache.Cache
	logger *zap.Logger
}

// NewMemoryRepository - кеш в памяти процесса для запуска без Redis.
// ttl <= 0 в Set означает значение по умолчанию хранилища.
func NewMemoryRepository(defaultTTL, cleanupInterval time.Duration, logger *zap.Logger) repository.CacheRepository {
	return &memoryRepository{
		store:  gocache.New(defaultTTL, cleanupInterval),
		logger: logger,
	}
}

func (r *memoryRepository) Get(_ context.Context, key string) ([]byte, error) {
	val, ok := r.store.Get(key)
	if !ok {
		return nil, nil // Cache miss
	}

	data, ok := val.([]byte)
	if !ok {
		return nil, nil
	}
	r.logger.Debug("Cache hit", zap.String("key", key))

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (r *memoryRepository) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	data := make([]byte, len(value))
	copy(data, value)
	r.store.Set(key, data, ttl)
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, key string) error {
	r.store.Delete(key)
	return nil
}

func (r *memoryRepository) Exists(_ context.Context, key string) (bool, error) {
	_, ok := r.store.Get(key)
	return ok, nil
}
