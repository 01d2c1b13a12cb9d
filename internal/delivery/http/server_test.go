package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/geoclaim/internal/config"
	httpdelivery "github.com/geoclaim/internal/delivery/http"
	"github.com/geoclaim/internal/delivery/http/handler"
	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/infrastructure/gemini"
	"github.com/geoclaim/internal/infrastructure/kml"
	"github.com/geoclaim/internal/pkg/metrics"
	"github.com/geoclaim/internal/repository/mineral"
	"github.com/geoclaim/internal/usecase"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Chat(ctx context.Context, req gemini.ChatRequest) domain.Outcome[gemini.ChatReply] {
	return m.Called(ctx, req).Get(0).(domain.Outcome[gemini.ChatReply])
}

func (m *mockGateway) StructuredQuery(ctx context.Context, req gemini.StructuredRequest) domain.Outcome[json.RawMessage] {
	return m.Called(ctx, req).Get(0).(domain.Outcome[json.RawMessage])
}

func (m *mockGateway) Speak(ctx context.Context, text string) domain.Outcome[[]byte] {
	return m.Called(ctx, text).Get(0).(domain.Outcome[[]byte])
}

type bytesSource []byte

func (b bytesSource) Fetch(context.Context) ([]byte, error) {
	return b, nil
}

const testKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2"><Document>
<Placemark><name>Lucky Strike Mine</name><description>Underground shaft</description><Point><coordinates>-105.2,39.1,0</coordinates></Point></Placemark>
<Placemark><name>Ghost town of Bodie</name><Point><coordinates>-119.01,38.21,0</coordinates></Point></Placemark>
</Document></kml>`

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

type testServer struct {
	server   *httpdelivery.Server
	gateway  *mockGateway
	sessions *usecase.SessionUseCase
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	m := metrics.New()
	gw := &mockGateway{}

	localities := usecase.NewLocalityUseCase(bytesSource(testKML), kml.NewParser("loc-usa", nil), m, logger)
	require.Equal(t, 2, localities.Load(context.Background()))

	registry := mineral.NewRegistry(bytesSource("Copper: https://img.example/copper.jpg\n"), logger)
	research := usecase.NewResearchUseCase(gw, registry, localities, nil, logger)
	search := usecase.NewSearchUseCase(localities, gw, nil, m, logger)
	sessions := usecase.NewSessionUseCase(context.Background(),
		&config.SessionConfig{TTL: time.Minute, CleanupPeriod: time.Minute},
		localities, research, search, m, logger)
	audit := usecase.NewAuditUseCase(localities, research, nil, m, logger)

	cfg := &config.Config{Server: config.ServerConfig{CORSOrigins: "*"}}
	server := httpdelivery.NewServer(cfg, m, logger, httpdelivery.Handlers{
		Health:   handler.NewHealthHandler(localities, registry, sessions),
		Locality: handler.NewLocalityHandler(localities, research, audit, logger),
		Research: handler.NewResearchHandler(research, localities, logger),
		Search:   handler.NewSearchHandler(search, logger),
		Session:  handler.NewSessionHandler(sessions, logger),
	})

	return &testServer{server: server, gateway: gw, sessions: sessions}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.server.App().Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func TestServer_Health(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.do(t, "GET", "/api/v1/health", nil)
	require.Equal(t, 200, status)

	var health struct {
		Status     string `json:"status"`
		Localities int    `json:"localities"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 2, health.Localities)
}

func TestServer_Localities(t *testing.T) {
	ts := newTestServer(t)

	t.Run("list with type filter", func(t *testing.T) {
		status, env := ts.do(t, "GET", "/api/v1/localities?type=mine", nil)
		require.Equal(t, 200, status)

		var list struct {
			Localities []domain.Locality `json:"localities"`
			Total      int               `json:"total"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &list))
		assert.Equal(t, 1, list.Total)
		assert.Equal(t, "loc-usa-0", list.Localities[0].ID)
	})

	t.Run("invalid type", func(t *testing.T) {
		status, env := ts.do(t, "GET", "/api/v1/localities?type=volcano", nil)
		assert.Equal(t, 400, status)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
		assert.Equal(t, "localitytype", env.Error.Details["Type"])
	})

	t.Run("get by id", func(t *testing.T) {
		status, env := ts.do(t, "GET", "/api/v1/localities/loc-usa-1", nil)
		require.Equal(t, 200, status)
		var loc domain.Locality
		require.NoError(t, json.Unmarshal(env.Data, &loc))
		assert.Equal(t, "Ghost town of Bodie", loc.Name)
	})

	t.Run("not found", func(t *testing.T) {
		status, env := ts.do(t, "GET", "/api/v1/localities/loc-usa-9", nil)
		assert.Equal(t, 404, status)
		assert.Equal(t, "LOCALITY_NOT_FOUND", env.Error.Code)
	})

	t.Run("nearby", func(t *testing.T) {
		status, env := ts.do(t, "GET", "/api/v1/localities/nearby?lat=39.1&lng=-105.2&radius_km=10", nil)
		require.Equal(t, 200, status)
		var nearby struct {
			Total int `json:"total"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &nearby))
		assert.Equal(t, 1, nearby.Total)
	})
}

func TestServer_Chat_Apology(t *testing.T) {
	ts := newTestServer(t)
	ts.gateway.On("Chat", mock.Anything, mock.Anything).Return(domain.Failure[gemini.ChatReply]("quota exceeded"))

	status, env := ts.do(t, "POST", "/api/v1/chat", map[string]string{"message": "hello", "mode": "Thinking"})
	require.Equal(t, 200, status)

	var resp struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, usecase.ApologyText, resp.Text)
}

func TestServer_Chat_InvalidMode(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.do(t, "POST", "/api/v1/chat", map[string]string{"message": "hello", "mode": "Turbo"})
	assert.Equal(t, 400, status)
	assert.Equal(t, "chatmode", env.Error.Details["Mode"])
}

func TestServer_StructuredQuery(t *testing.T) {
	ts := newTestServer(t)
	ts.gateway.On("StructuredQuery", mock.Anything, mock.Anything).Return(domain.Failure[json.RawMessage]("timeout"))

	status, env := ts.do(t, "POST", "/api/v1/research/structured", map[string]interface{}{
		"prompt": "list minerals",
		"schema": map[string]interface{}{"type": "ARRAY", "items": map[string]string{"type": "STRING"}},
	})
	require.Equal(t, 200, status)
	assert.JSONEq(t, `[]`, string(env.Data))

	status, _ = ts.do(t, "POST", "/api/v1/research/structured", map[string]interface{}{
		"prompt": "x",
		"schema": map[string]string{"type": "STRING"},
	})
	assert.Equal(t, 400, status)
}

func TestServer_Speak(t *testing.T) {
	ts := newTestServer(t)
	ts.gateway.On("Speak", mock.Anything, "Welcome").Return(domain.Success([]byte{0, 0, 1, 0}))

	req := httptest.NewRequest("POST", "/api/v1/speak", strings.NewReader(`{"text":"Welcome"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.server.App().Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "audio/wav", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "RIFF", string(body[:4]))
}

func TestServer_MineralLookup(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.do(t, "GET", "/api/v1/minerals/lookup?name=Native%20Copper", nil)
	require.Equal(t, 200, status)
	assert.Contains(t, string(env.Data), "copper.jpg")

	status, _ = ts.do(t, "GET", "/api/v1/minerals/lookup?name=Kryptonite", nil)
	assert.Equal(t, 404, status)
}

func TestServer_Audit_AsyncUnavailable(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.do(t, "POST", "/api/v1/localities/loc-usa-0/audit?async=true", nil)
	assert.Equal(t, 503, status)
	assert.Equal(t, "ASYNC_UNAVAILABLE", env.Error.Code)
}

func TestServer_SessionFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.gateway.On("StructuredQuery", mock.Anything, mock.Anything).Return(domain.Success(json.RawMessage(`[]`)))

	status, env := ts.do(t, "POST", "/api/v1/sessions", nil)
	require.Equal(t, 201, status)
	var snap struct {
		ID        string   `json:"id"`
		BaseLayer string   `json:"base_layer"`
		Overlays  []string `json:"overlays"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	require.NotEmpty(t, snap.ID)
	assert.Equal(t, "osm", snap.BaseLayer)

	base := fmt.Sprintf("/api/v1/sessions/%s", snap.ID)

	status, _ = ts.do(t, "POST", base+"/audit", nil)
	assert.Equal(t, 409, status)

	status, _ = ts.do(t, "POST", base+"/select", map[string]string{"locality_id": "loc-usa-0"})
	require.Equal(t, 200, status)
	ts.sessions.Wait()

	status, env = ts.do(t, "GET", base, nil)
	require.Equal(t, 200, status)
	assert.Contains(t, string(env.Data), `"details_open":true`)

	status, env = ts.do(t, "PUT", base+"/layers", map[string]interface{}{"base": "usgsTopo", "overlays": []string{"macrostrat"}})
	require.Equal(t, 200, status)
	assert.Contains(t, string(env.Data), `"base_layer":"usgsTopo"`)

	status, _ = ts.do(t, "PUT", base+"/layers", map[string]interface{}{"base": "bing"})
	assert.Equal(t, 400, status)

	status, env = ts.do(t, "DELETE", base+"/select", nil)
	require.Equal(t, 200, status)
	assert.Contains(t, string(env.Data), `"selection":null`)

	status, env = ts.do(t, "GET", "/api/v1/sessions/unknown", nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, "SESSION_NOT_FOUND", env.Error.Code)
}

func TestServer_Metrics(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, "GET", "/api/v1/layers", nil)

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := ts.server.App().Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "geoclaim_http_requests_total")
	assert.Contains(t, string(body), "geoclaim_catalog_localities 2")
}

func TestServer_UnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	status, env := ts.do(t, "GET", "/api/v1/nowhere", nil)
	assert.Equal(t, 404, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
