package mineral

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Fetch(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

const sampleList = `Copper: https://img.example.com/copper.jpg
https://img.example.com/gold.jpg Gold

not a mineral line
Native Copper; https://img.example.com/native-copper.jpg
Quartz, https://img.example.com/quartz-old.jpg
Quartz: https://img.example.com/quartz.jpg
: https://img.example.com/nameless.jpg
`

func TestRegistry_Load(t *testing.T) {
	src := new(mockSource)
	src.On("Fetch", mock.Anything).Return([]byte(sampleList), nil).Once()

	r := NewRegistry(src, zap.NewNop())
	require.NoError(t, r.Load(context.Background()))

	assert.True(t, r.IsLoaded())
	assert.Equal(t, 4, r.Size())

	// second call is a no-op
	require.NoError(t, r.Load(context.Background()))
	src.AssertExpectations(t)
}

func TestRegistry_Lookup(t *testing.T) {
	src := new(mockSource)
	src.On("Fetch", mock.Anything).Return([]byte(sampleList), nil)

	r := NewRegistry(src, zap.NewNop())
	require.NoError(t, r.Load(context.Background()))

	tests := []struct {
		name  string
		query string
		url   string
		found bool
	}{
		{"exact", "Gold", "https://img.example.com/gold.jpg", true},
		{"exact preferred over substring", "native copper", "https://img.example.com/native-copper.jpg", true},
		{"substring of query", "Arborescent Native Copper", "https://img.example.com/copper.jpg", true},
		{"query substring of key", "nativ", "https://img.example.com/native-copper.jpg", true},
		{"duplicate keeps latest url", "QUARTZ", "https://img.example.com/quartz.jpg", true},
		{"unknown", "Azurite", "", false},
		{"blank", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, ok := r.Lookup(tt.query)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.url, url)
		})
	}
}

func TestRegistry_FailedLoadRetries(t *testing.T) {
	src := new(mockSource)
	src.On("Fetch", mock.Anything).Return(nil, errors.New("connection reset")).Once()
	src.On("Fetch", mock.Anything).Return([]byte(sampleList), nil).Once()

	r := NewRegistry(src, zap.NewNop())

	err := r.Load(context.Background())
	require.Error(t, err)
	assert.False(t, r.IsLoaded())
	assert.Zero(t, r.Size())
	_, ok := r.Lookup("gold")
	assert.False(t, ok)

	require.NoError(t, r.Load(context.Background()))
	assert.True(t, r.IsLoaded())
	src.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestRegistry_OversizedLineLeavesNotReady(t *testing.T) {
	oversized := sampleList + strings.Repeat("x", 2*1024*1024) + "\nAzurite: https://img.example.com/azurite.jpg\n"

	src := new(mockSource)
	src.On("Fetch", mock.Anything).Return([]byte(oversized), nil).Once()
	src.On("Fetch", mock.Anything).Return([]byte(sampleList), nil).Once()

	r := NewRegistry(src, zap.NewNop())

	err := r.Load(context.Background())
	require.ErrorIs(t, err, bufio.ErrTooLong)
	assert.False(t, r.IsLoaded())
	assert.Zero(t, r.Size())

	require.NoError(t, r.Load(context.Background()))
	assert.True(t, r.IsLoaded())
	src.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestRegistry_ConcurrentLoadFetchesOnce(t *testing.T) {
	src := new(mockSource)
	src.On("Fetch", mock.Anything).Return([]byte(sampleList), nil).Once()

	r := NewRegistry(src, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Load(context.Background())
		}()
	}
	wg.Wait()

	src.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestNewSource(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "minerals.txt")
		require.NoError(t, os.WriteFile(path, []byte(sampleList), 0o600))

		data, err := NewSource(path, time.Second, zap.NewNop()).Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, sampleList, string(data))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewSource(filepath.Join(t.TempDir(), "none.txt"), time.Second, zap.NewNop()).Fetch(context.Background())
		assert.Error(t, err)
	})

	t.Run("http", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(sampleList))
		}))
		defer server.Close()

		r := NewRegistry(NewSource(server.URL, time.Second, zap.NewNop()), zap.NewNop())
		require.NoError(t, r.Load(context.Background()))
		assert.Equal(t, 4, r.Size())
	})

	t.Run("http failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		r := NewRegistry(NewSource(server.URL, time.Second, zap.NewNop()), zap.NewNop())
		assert.Error(t, r.Load(context.Background()))
		assert.False(t, r.IsLoaded())
	})
}
