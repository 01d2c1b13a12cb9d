package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/geoclaim/internal/config"
	"github.com/geoclaim/internal/repository/cache"
)

func newConfig(baseURL string) *config.GeocoderConfig {
	return &config.GeocoderConfig{
		BaseURL:     baseURL,
		UserAgent:   "geoclaim-test/1.0",
		QuerySuffix: " USA",
		Timeout:     time.Second,
	}
}

func TestClient_Search(t *testing.T) {
	logger := zap.NewNop()

	t.Run("first result used and cached", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			assert.Equal(t, "/search", r.URL.Path)
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			assert.Equal(t, "Leadville USA", r.URL.Query().Get("q"))
			assert.Equal(t, "geoclaim-test/1.0", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`[
				{"lat":"39.2508","lon":"-106.2925","display_name":"Leadville, Lake County, Colorado"},
				{"lat":"1","lon":"1","display_name":"Other"}
			]`))
		}))
		defer server.Close()

		mem := cache.NewMemoryRepository(time.Minute, time.Minute, logger)
		c := NewClient(newConfig(server.URL), mem, time.Minute, nil, logger)

		res, err := c.Search(context.Background(), "Leadville")
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.InDelta(t, 39.2508, res.Coordinates.Lat, 1e-9)
		assert.InDelta(t, -106.2925, res.Coordinates.Lng, 1e-9)
		assert.Equal(t, "Leadville, Lake County, Colorado", res.DisplayName)

		_, err = c.Search(context.Background(), "leadville")
		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("no results", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}))
		defer server.Close()

		c := NewClient(newConfig(server.URL), nil, 0, nil, logger)
		res, err := c.Search(context.Background(), "Atlantis")
		require.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("unparseable coordinates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"lat":"north","lon":"-106"}]`))
		}))
		defer server.Close()

		c := NewClient(newConfig(server.URL), nil, 0, nil, logger)
		res, err := c.Search(context.Background(), "x")
		require.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		c := NewClient(newConfig(server.URL), nil, 0, nil, logger)
		_, err := c.Search(context.Background(), "Leadville")
		assert.Error(t, err)
	})

	t.Run("blank query makes no request", func(t *testing.T) {
		c := NewClient(newConfig("http://127.0.0.1:1"), nil, 0, nil, logger)
		res, err := c.Search(context.Background(), "   ")
		require.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("rate limited requests wait", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		}))
		defer server.Close()

		cfg := newConfig(server.URL)
		cfg.RateLimit = 20 // один запрос в 50 мс
		c := NewClient(cfg, nil, 0, nil, logger)

		start := time.Now()
		for _, q := range []string{"a", "b", "c"} {
			_, err := c.Search(context.Background(), q)
			require.NoError(t, err)
		}
		assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	})
}
