package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/geoclaim/internal/config"
	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/pkg/errors"
	"github.com/geoclaim/internal/pkg/metrics"
	"github.com/geoclaim/internal/usecase/dto"
)

// initialViewport - вид на континентальные США
var initialViewport = domain.Viewport{
	Center: domain.Coordinates{Lat: 39.8, Lng: -98.5},
	Zoom:   4,
}

// session - состояние карты одного клиента. Все поля под mu
type session struct {
	mu          sync.Mutex
	id          string
	selection   *domain.Locality
	detailsOpen bool
	// generation растёт при каждом выборе; результат применяется только при совпадении
	generation uint64
	cancel     context.CancelFunc
	panels     dto.SessionPanels
	chat       []domain.ChatMessage
	viewport   domain.Viewport
	baseLayer  string
	overlays   []string
	updatedAt  time.Time
}

func idlePanels() dto.SessionPanels {
	return dto.SessionPanels{
		Minerals:  dto.Panel[[]domain.MineralSpecimen]{State: dto.PanelIdle},
		Safety:    dto.Panel[*domain.SiteSafety]{State: dto.PanelIdle},
		Weather:   dto.Panel[*domain.SiteWeather]{State: dto.PanelIdle},
		Videos:    dto.Panel[[]domain.SiteVideo]{State: dto.PanelIdle},
		Elevation: dto.Panel[*domain.Elevation]{State: dto.PanelIdle},
		Audit:     dto.Panel[*domain.LandStatus]{State: dto.PanelIdle},
	}
}

func loadingPanels() dto.SessionPanels {
	p := idlePanels()
	p.Minerals.State = dto.PanelLoading
	p.Safety.State = dto.PanelLoading
	p.Weather.State = dto.PanelLoading
	p.Videos.State = dto.PanelLoading
	p.Elevation.State = dto.PanelLoading
	return p
}

func stateFor(ok bool) dto.PanelState {
	if ok {
		return dto.PanelReady
	}
	return dto.PanelFailed
}

// snapshot вызывается под s.mu
func (s *session) snapshot() dto.SessionSnapshot {
	snap := dto.SessionSnapshot{
		ID:          s.id,
		DetailsOpen: s.detailsOpen,
		Generation:  s.generation,
		Panels:      s.panels,
		Chat:        append([]domain.ChatMessage{}, s.chat...),
		Viewport:    s.viewport,
		BaseLayer:   s.baseLayer,
		Overlays:    append([]string{}, s.overlays...),
		UpdatedAt:   s.updatedAt,
	}
	if s.selection != nil {
		sel := *s.selection
		snap.Selection = &sel
	}
	return snap
}

// applyIfCurrent применяет результат, только если выбор не сменился
func (s *session) applyIfCurrent(gen uint64, apply func(*dto.SessionPanels)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	apply(&s.panels)
	s.updatedAt = time.Now()
	return true
}

// SessionUseCase - контроллер карты: выбор локации, панели, чат, слои
type SessionUseCase struct {
	store      *gocache.Cache
	localities *LocalityUseCase
	research   *ResearchUseCase
	search     *SearchUseCase
	// baseCtx живёт дольше запроса: загрузки панелей переживают HTTP-хендлер
	baseCtx  context.Context
	inflight sync.WaitGroup
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewSessionUseCase - создание нового SessionUseCase
func NewSessionUseCase(
	baseCtx context.Context,
	cfg *config.SessionConfig,
	localities *LocalityUseCase,
	research *ResearchUseCase,
	search *SearchUseCase,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SessionUseCase {
	uc := &SessionUseCase{
		store:      gocache.New(cfg.TTL, cfg.CleanupPeriod),
		localities: localities,
		research:   research,
		search:     search,
		baseCtx:    baseCtx,
		metrics:    m,
		logger:     logger,
	}
	uc.store.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*session); ok {
			s.mu.Lock()
			if s.cancel != nil {
				s.cancel()
			}
			s.mu.Unlock()
		}
		uc.reportActive()
		uc.logger.Debug("Session evicted", zap.String("session_id", id))
	})
	return uc
}

func (uc *SessionUseCase) reportActive() {
	if uc.metrics != nil {
		uc.metrics.ActiveSessions.Set(float64(uc.store.ItemCount()))
	}
}

// Count - число живых сессий
func (uc *SessionUseCase) Count() int {
	return uc.store.ItemCount()
}

// Wait ждёт завершения всех запущенных загрузок панелей
func (uc *SessionUseCase) Wait() {
	uc.inflight.Wait()
}

// Create - новая сессия с начальным видом и слоями по умолчанию
func (uc *SessionUseCase) Create() dto.SessionSnapshot {
	s := &session{
		id:        uuid.NewString(),
		panels:    idlePanels(),
		viewport:  initialViewport,
		baseLayer: domain.DefaultBaseLayer,
		overlays:  append([]string{}, domain.DefaultOverlays...),
		updatedAt: time.Now(),
	}
	uc.store.SetDefault(s.id, s)
	uc.reportActive()

	uc.logger.Debug("Session created", zap.String("session_id", s.id))

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// get достаёт сессию и продлевает её жизнь
func (uc *SessionUseCase) get(id string) (*session, error) {
	v, ok := uc.store.Get(id)
	if !ok {
		return nil, errors.ErrSessionNotFound.WithDetails(map[string]interface{}{"id": id})
	}
	s := v.(*session)
	uc.store.SetDefault(id, s)
	return s, nil
}

// Snapshot - текущее состояние, включая частично загруженные панели
func (uc *SessionUseCase) Snapshot(id string) (dto.SessionSnapshot, error) {
	s, err := uc.get(id)
	if err != nil {
		return dto.SessionSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// Select выбирает локацию каталога
func (uc *SessionUseCase) Select(id, localityID string) (dto.SessionSnapshot, error) {
	s, err := uc.get(id)
	if err != nil {
		return dto.SessionSnapshot{}, err
	}
	loc, err := uc.localities.Get(localityID)
	if err != nil {
		return dto.SessionSnapshot{}, err
	}
	return uc.selectLocality(s, loc), nil
}

// selectLocality синхронно сбрасывает панели и чат, затем запускает независимые загрузки
func (uc *SessionUseCase) selectLocality(s *session, loc domain.Locality) dto.SessionSnapshot {
	ctx, cancel := context.WithCancel(uc.baseCtx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	s.cancel = cancel
	s.selection = &loc
	s.detailsOpen = true
	s.panels = loadingPanels()
	s.chat = nil
	s.updatedAt = time.Now()
	snap := s.snapshot()
	s.mu.Unlock()

	uc.logger.Debug("Locality selected",
		zap.String("session_id", s.id),
		zap.String("locality_id", loc.ID),
		zap.Uint64("generation", gen))

	uc.launch(ctx, s, gen, PanelMinerals, func(ctx context.Context) func(*dto.SessionPanels) {
		data, ok := uc.research.FetchMinerals(ctx, loc)
		return func(p *dto.SessionPanels) {
			p.Minerals = dto.Panel[[]domain.MineralSpecimen]{State: stateFor(ok), Data: data}
		}
	})
	uc.launch(ctx, s, gen, PanelSafety, func(ctx context.Context) func(*dto.SessionPanels) {
		data, ok := uc.research.FetchSafetyInfo(ctx, loc)
		return func(p *dto.SessionPanels) {
			p.Safety = dto.Panel[*domain.SiteSafety]{State: stateFor(ok), Data: &data}
		}
	})
	uc.launch(ctx, s, gen, PanelWeather, func(ctx context.Context) func(*dto.SessionPanels) {
		data, ok := uc.research.FetchWeatherInfo(ctx, loc)
		return func(p *dto.SessionPanels) {
			p.Weather = dto.Panel[*domain.SiteWeather]{State: stateFor(ok), Data: &data}
		}
	})
	uc.launch(ctx, s, gen, PanelVideos, func(ctx context.Context) func(*dto.SessionPanels) {
		data, ok := uc.research.FetchYoutubeVideos(ctx, loc)
		return func(p *dto.SessionPanels) {
			p.Videos = dto.Panel[[]domain.SiteVideo]{State: stateFor(ok), Data: data}
		}
	})
	uc.launch(ctx, s, gen, PanelElevation, func(ctx context.Context) func(*dto.SessionPanels) {
		data, ok := uc.research.FetchElevation(ctx, loc)
		return func(p *dto.SessionPanels) {
			p.Elevation = dto.Panel[*domain.Elevation]{State: stateFor(ok), Data: data}
		}
	})

	return snap
}

func (uc *SessionUseCase) launch(
	ctx context.Context,
	s *session,
	gen uint64,
	panel string,
	fetch func(context.Context) func(*dto.SessionPanels),
) {
	uc.inflight.Add(1)
	go func() {
		defer uc.inflight.Done()

		apply := fetch(ctx)
		if !s.applyIfCurrent(gen, apply) {
			uc.discarded(s.id, panel, gen)
		}
	}()
}

func (uc *SessionUseCase) discarded(sessionID, panel string, gen uint64) {
	uc.logger.Debug("Stale result discarded",
		zap.String("session_id", sessionID),
		zap.String("panel", panel),
		zap.Uint64("generation", gen))
	if uc.metrics != nil {
		uc.metrics.StaleResults.WithLabelValues(panel).Inc()
	}
}

// CloseDetails возвращает сессию в Idle; данные панелей сохраняются
func (uc *SessionUseCase) CloseDetails(id string) (dto.SessionSnapshot, error) {
	s, err := uc.get(id)
	if err != nil {
		return dto.SessionSnapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = nil
	s.detailsOpen = false
	s.updatedAt = time.Now()
	return s.snapshot(), nil
}

// Chat добавляет сообщение пользователя и ответ модели. Выбранная локация служит контекстом.
// Ответ, пришедший после смены выбора, возвращается с Stale и в расшифровку не попадает.
func (uc *SessionUseCase) Chat(ctx context.Context, id, message string, mode domain.ChatMode) (dto.ChatResponse, error) {
	s, err := uc.get(id)
	if err != nil {
		return dto.ChatResponse{}, err
	}
	if mode == "" {
		mode = domain.ChatModeSearch
	}

	s.mu.Lock()
	gen := s.generation
	history := append([]domain.ChatMessage{}, s.chat...)
	var selection *domain.Locality
	if s.selection != nil {
		sel := *s.selection
		selection = &sel
	}
	s.chat = append(s.chat, domain.ChatMessage{Role: domain.RoleUser, Text: message, Mode: mode})
	s.updatedAt = time.Now()
	s.mu.Unlock()

	resp := uc.research.Chat(ctx, ChatInput{
		Message:  message,
		Mode:     mode,
		History:  history,
		Locality: selection,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		resp.Stale = true
		uc.discarded(s.id, "chat", gen)
		return resp, nil
	}
	s.chat = append(s.chat, domain.ChatMessage{
		Role:           domain.RoleModel,
		Text:           resp.Text,
		Mode:           mode,
		GroundingLinks: resp.GroundingLinks,
	})
	s.updatedAt = time.Now()
	return resp, nil
}

// SetLayers задаёт базовый слой и набор наложений
func (uc *SessionUseCase) SetLayers(id, base string, overlays []string) (dto.SessionSnapshot, error) {
	if _, ok := domain.FindBaseLayer(base); !ok {
		return dto.SessionSnapshot{}, errors.ErrInvalidLayer.WithDetails(map[string]interface{}{"base": base})
	}
	seen := make(map[string]bool, len(overlays))
	active := make([]string, 0, len(overlays))
	for _, key := range overlays {
		key = strings.TrimSpace(key)
		if _, ok := domain.FindOverlay(key); !ok {
			return dto.SessionSnapshot{}, errors.ErrInvalidLayer.WithDetails(map[string]interface{}{"overlay": key})
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		active = append(active, key)
	}

	s, err := uc.get(id)
	if err != nil {
		return dto.SessionSnapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseLayer = base
	s.overlays = active
	s.updatedAt = time.Now()
	return s.snapshot(), nil
}

// Audit проверяет земельный статус текущего выбора
func (uc *SessionUseCase) Audit(ctx context.Context, id string) (domain.LandStatus, error) {
	s, err := uc.get(id)
	if err != nil {
		return domain.LandStatus{}, err
	}

	s.mu.Lock()
	if s.selection == nil {
		s.mu.Unlock()
		return domain.LandStatus{}, errors.ErrNoSelection
	}
	loc := *s.selection
	gen := s.generation
	s.panels.Audit = dto.Panel[*domain.LandStatus]{State: dto.PanelLoading}
	s.mu.Unlock()

	status, ok := uc.research.AuditLandStatus(ctx, loc)
	applied := s.applyIfCurrent(gen, func(p *dto.SessionPanels) {
		p.Audit = dto.Panel[*domain.LandStatus]{State: stateFor(ok), Data: &status}
	})
	if !applied {
		uc.discarded(s.id, PanelAudit, gen)
	}
	return status, nil
}

// Search выполняет глобальный поиск и применяет результат к сессии:
// вид карты для любого найденного уровня, выбор - для local и ai
func (uc *SessionUseCase) Search(ctx context.Context, id, query string) (dto.SessionSearchResponse, error) {
	s, err := uc.get(id)
	if err != nil {
		return dto.SessionSearchResponse{}, err
	}

	result := uc.search.Search(ctx, query)

	if result.Viewport != nil {
		s.mu.Lock()
		s.viewport = *result.Viewport
		s.updatedAt = time.Now()
		s.mu.Unlock()
	}

	var snap dto.SessionSnapshot
	if result.Locality != nil {
		snap = uc.selectLocality(s, *result.Locality)
	} else {
		s.mu.Lock()
		snap = s.snapshot()
		s.mu.Unlock()
	}

	return dto.SessionSearchResponse{Result: result, Snapshot: snap}, nil
}
