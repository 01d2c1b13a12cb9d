package usecase_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/infrastructure/gemini"
	"github.com/geoclaim/internal/infrastructure/kml"
	"github.com/geoclaim/internal/usecase"
)

// MockGateway is a mock of usecase.AIGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Chat(ctx context.Context, req gemini.ChatRequest) domain.Outcome[gemini.ChatReply] {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Outcome[gemini.ChatReply])
}

func (m *MockGateway) StructuredQuery(ctx context.Context, req gemini.StructuredRequest) domain.Outcome[json.RawMessage] {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Outcome[json.RawMessage])
}

func (m *MockGateway) Speak(ctx context.Context, text string) domain.Outcome[[]byte] {
	args := m.Called(ctx, text)
	return args.Get(0).(domain.Outcome[[]byte])
}

// MockElevation is a mock of repository.ElevationRepository
type MockElevation struct {
	mock.Mock
}

func (m *MockElevation) Lookup(ctx context.Context, point domain.Coordinates) (*domain.Elevation, error) {
	args := m.Called(ctx, point)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Elevation), args.Error(1)
}

// MockGeocoder is a mock of repository.GeocodingRepository
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Search(ctx context.Context, query string) (*domain.GeocodeResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GeocodeResult), args.Error(1)
}

// MockStreamRepository is a mock of repository.StreamRepository
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
	return m.Called(ctx, stream, group, messageID).Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	return m.Called(ctx, stream, group).Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	return m.Called(ctx, stream, data).Error(0)
}

// staticSource отдаёт фиксированный документ
type staticSource struct {
	mu    sync.Mutex
	data  []byte
	err   error
	calls int
}

func (s *staticSource) Fetch(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

type testPlacemark struct {
	name, description string
	lat, lng          float64
}

func kmlDocument(placemarks ...testPlacemark) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><kml xmlns="http://www.opengis.net/kml/2.2"><Document>`)
	for _, p := range placemarks {
		fmt.Fprintf(&b, `<Placemark><name>%s</name><description>%s</description><Point><coordinates>%v,%v,0</coordinates></Point></Placemark>`,
			p.name, p.description, p.lng, p.lat)
	}
	b.WriteString(`</Document></kml>`)
	return []byte(b.String())
}

// sampleCatalog: loc-usa-0..3
var sampleCatalog = []testPlacemark{
	{name: "Lucky Strike Mine", description: "Underground shaft, lode vein", lat: 39.1, lng: -105.2},
	{name: "Gold Hill Placer", description: "Placer diggings", lat: 40.0, lng: -105.4},
	{name: "Ghost town of Bodie", description: "", lat: 38.21, lng: -119.01},
	{name: "Leadville Smelter", description: "", lat: 39.25, lng: -106.29},
}

func loadedLocalities(t *testing.T, placemarks ...testPlacemark) *usecase.LocalityUseCase {
	t.Helper()
	if len(placemarks) == 0 {
		placemarks = sampleCatalog
	}
	uc := usecase.NewLocalityUseCase(
		&staticSource{data: kmlDocument(placemarks...)},
		kml.NewParser("loc-usa", nil),
		nil,
		zap.NewNop(),
	)
	require.Equal(t, len(placemarks), uc.Load(context.Background()))
	return uc
}

// promptHas сопоставляет структурированный запрос по фрагменту промпта
func promptHas(fragment string) interface{} {
	return mock.MatchedBy(func(req gemini.StructuredRequest) bool {
		return strings.Contains(req.Prompt, fragment)
	})
}

func jsonOK(raw string) domain.Outcome[json.RawMessage] {
	return domain.Success(json.RawMessage(raw))
}

func jsonFail() domain.Outcome[json.RawMessage] {
	return domain.Failure[json.RawMessage]("upstream unavailable")
}

const (
	fragMinerals = "notable minerals"
	fragSafety   = "Assess field safety"
	fragWeather  = "current weather"
	fragVideos   = "YouTube videos"
	fragLocation = "Identify the location"
)
