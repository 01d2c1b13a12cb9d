package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/geoclaim/internal/config"
	"github.com/geoclaim/internal/domain/repository"
)

func exerciseRepository(t *testing.T, repo repository.CacheRepository) {
	ctx := context.Background()
	key := "test:geocode:lucky strike"

	val, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, val, "miss must be nil, nil")

	require.NoError(t, repo.Set(ctx, key, []byte(`{"lat":39.1}`), time.Minute))

	val, err = repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"lat":39.1}`, string(val))

	ok, err := repo.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Delete(ctx, key))
	ok, err = repo.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository(time.Minute, time.Minute, zap.NewNop()))
}

func TestMemoryRepository_Expiry(t *testing.T) {
	repo := NewMemoryRepository(time.Minute, time.Minute, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "short", []byte("x"), 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	val, err := repo.Get(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestMemoryRepository_ValuesAreCopied(t *testing.T) {
	repo := NewMemoryRepository(time.Minute, time.Minute, zap.NewNop())
	ctx := context.Background()

	in := []byte("abc")
	require.NoError(t, repo.Set(ctx, "k", in, 0))
	in[0] = 'z'

	out, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))
}

func TestRedisRepository(t *testing.T) {
	r, err := NewRedis(&config.RedisConfig{Host: "localhost", Port: 6379, DB: 1}, zap.NewNop())
	if err != nil {
		t.Skipf("Redis not available for integration tests: %v", err)
	}
	defer r.Close()

	exerciseRepository(t, NewCacheRepository(r))
}
