package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geoclaim/internal/config"
	"github.com/geoclaim/internal/domain"
	"github.com/geoclaim/internal/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Fixed texts returned to users.
const (
	LinksOnlyText = "I have successfully gathered geological and safety records for this site. You can access the specific research links below."

	defaultLinkTitle      = "Geological Resource"
	contextDescriptionMax = 500
)

// PCM format of synthesized speech.
const (
	SpeechSampleRate = 24000
	SpeechChannels   = 1
)

// Schema - схема ответа для структурированных запросов
type Schema = genai.Schema

// ChatRequest - один ход диалога
type ChatRequest struct {
	Message string
	Mode    domain.ChatMode
	History []domain.ChatMessage
	// Context - локация, к которой привязывается ответ
	Context *domain.Locality
	// ImageJPEG - необязательное вложение в base64
	ImageJPEG string
}

// ChatReply - ответ модели
type ChatReply struct {
	Text           string
	GroundingLinks []domain.GroundingLink
	FunctionCalls  []domain.FunctionCall
}

// StructuredRequest - запрос с ограничением формы ответа
type StructuredRequest struct {
	Prompt string
	Schema *Schema
	// Mode выбирает модель; инструменты в структурированном режиме не используются
	Mode domain.ChatMode
}

// Gateway - механизм обращения к генеративной модели.
// Ошибки не пробрасываются: каждый вызов возвращает domain.Outcome.
type Gateway struct {
	generator ContentGenerator
	cfg       *config.GeminiConfig
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewGateway создает шлюз. m может быть nil
func NewGateway(generator ContentGenerator, cfg *config.GeminiConfig, m *metrics.Metrics, logger *zap.Logger) *Gateway {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Gateway{
		generator: generator,
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, burst),
		metrics:   m,
		logger:    logger,
	}
}

// Chat отправляет историю и новое сообщение
func (g *Gateway) Chat(ctx context.Context, req ChatRequest) domain.Outcome[ChatReply] {
	mode := req.Mode
	if !mode.IsValid() {
		mode = domain.ChatModeNormal
	}
	p := profileFor(mode, g.cfg)

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, msg := range req.History {
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}
		role := genai.RoleUser
		if msg.Role == domain.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Text, genai.Role(role)))
	}

	parts := []*genai.Part{genai.NewPartFromText(WithSiteContext(req.Message, req.Context))}
	if req.ImageJPEG != "" {
		img, err := decodeImage(req.ImageJPEG)
		if err != nil {
			return domain.Failure[ChatReply](err.Error())
		}
		parts = append(parts, genai.NewPartFromBytes(img, "image/jpeg"))
	}
	contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))

	resp, err := g.generate(ctx, "chat", string(mode), p.model, contents, p.config())
	if err != nil {
		return domain.Failure[ChatReply](err.Error())
	}

	reply := ChatReply{
		Text:           responseText(resp),
		GroundingLinks: GroundingLinks(resp),
		FunctionCalls:  functionCalls(resp),
	}
	if reply.Text == "" && len(reply.GroundingLinks) > 0 {
		reply.Text = LinksOnlyText
	}
	if reply.Text == "" && len(reply.FunctionCalls) == 0 {
		g.logger.Warn("Empty model response", zap.String("mode", string(mode)))
		return domain.Failure[ChatReply]("empty response")
	}

	return domain.Success(reply)
}

// StructuredQuery запрашивает JSON по схеме и проверяет, что ответ - валидный JSON
func (g *Gateway) StructuredQuery(ctx context.Context, req StructuredRequest) domain.Outcome[json.RawMessage] {
	if req.Schema == nil {
		return domain.Failure[json.RawMessage]("schema is required")
	}
	mode := req.Mode
	if !mode.IsValid() {
		mode = domain.ChatModeNormal
	}
	p := profileFor(mode, g.cfg)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    req.Schema,
	}
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	resp, err := g.generate(ctx, "structured", string(mode), p.model, contents, cfg)
	if err != nil {
		return domain.Failure[json.RawMessage](err.Error())
	}

	raw := ExtractJSON(responseText(resp))
	if raw == "" || !json.Valid([]byte(raw)) {
		g.logger.Warn("Structured response is not valid JSON", zap.Int("length", len(raw)))
		return domain.Failure[json.RawMessage]("response is not valid JSON")
	}

	return domain.Success(json.RawMessage(raw))
}

// Speak синтезирует речь и возвращает 16-битный PCM (24 кГц, моно)
func (g *Gateway) Speak(ctx context.Context, text string) domain.Outcome[[]byte] {
	if strings.TrimSpace(text) == "" {
		return domain.Failure[[]byte]("text is empty")
	}

	voice := g.cfg.Voice
	if voice == "" {
		voice = "Kore"
	}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityAudio)},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	resp, err := g.generate(ctx, "speak", "tts", g.cfg.TTSModel, contents, cfg)
	if err != nil {
		return domain.Failure[[]byte](err.Error())
	}

	pcm := inlineAudio(resp)
	if len(pcm) == 0 {
		return domain.Failure[[]byte]("no audio in response")
	}
	return domain.Success(pcm)
}

func (g *Gateway) generate(
	ctx context.Context,
	operation, mode, model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	if err := g.limiter.Wait(ctx); err != nil {
		g.observe(operation, mode, "rate_limited", 0)
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	resp, err := g.generator.GenerateContent(ctx, model, contents, cfg)
	elapsed := time.Since(start)

	if err != nil {
		g.observe(operation, mode, "error", elapsed)
		g.logger.Error("Gemini API error",
			zap.String("operation", operation),
			zap.String("model", model),
			zap.Error(err))
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil {
		g.observe(operation, mode, "error", elapsed)
		return nil, errors.New("generate content: nil response")
	}

	g.observe(operation, mode, "ok", elapsed)
	g.logger.Debug("Gemini call completed",
		zap.String("operation", operation),
		zap.String("model", model),
		zap.Duration("elapsed", elapsed))
	return resp, nil
}

func (g *Gateway) observe(operation, mode, outcome string, elapsed time.Duration) {
	if g.metrics == nil {
		return
	}
	g.metrics.GatewayCalls.WithLabelValues(operation, mode, outcome).Inc()
	if elapsed > 0 {
		g.metrics.GatewayDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
	}
}

// WithSiteContext добавляет к сообщению блок с описанием выбранной локации
func WithSiteContext(message string, loc *domain.Locality) string {
	if loc == nil {
		return message
	}

	var b strings.Builder
	b.WriteString("[SITE CONTEXT]\n")
	fmt.Fprintf(&b, "Name: %s\n", loc.Name)
	fmt.Fprintf(&b, "Coordinates: %.6f, %.6f\n", loc.Coordinates.Lat, loc.Coordinates.Lng)
	fmt.Fprintf(&b, "Type: %s\n", loc.Type)
	if loc.Type.IsMineLike() {
		fmt.Fprintf(&b, "Deposit: %s\n", loc.DepositTypeOrDefault())
		fmt.Fprintf(&b, "Method: %s\n", loc.MiningMethodOrDefault())
	}
	fmt.Fprintf(&b, "Description: %s\n", truncateRunes(loc.Description, contextDescriptionMax))
	b.WriteString("[/SITE CONTEXT]\n\n")
	b.WriteString(message)
	return b.String()
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// responseText - текст первого кандидата; если его нет, текстовые части всех кандидатов
func responseText(resp *genai.GenerateContentResponse) string {
	if text := strings.TrimSpace(resp.Text()); text != "" {
		return text
	}

	var texts []string
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if part != nil && strings.TrimSpace(part.Text) != "" {
				texts = append(texts, part.Text)
			}
		}
	}
	return strings.TrimSpace(strings.Join(texts, "\n"))
}

// GroundingLinks собирает ссылки из метаданных первого кандидата; записи без URI отбрасываются
func GroundingLinks(resp *genai.GenerateContentResponse) []domain.GroundingLink {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].GroundingMetadata == nil {
		return []domain.GroundingLink{}
	}

	links := []domain.GroundingLink{}
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil {
			continue
		}
		var title, uri string
		switch {
		case chunk.Web != nil && chunk.Web.URI != "":
			title, uri = chunk.Web.Title, chunk.Web.URI
		case chunk.Maps != nil && chunk.Maps.URI != "":
			title, uri = chunk.Maps.Title, chunk.Maps.URI
		case chunk.RetrievedContext != nil && chunk.RetrievedContext.URI != "":
			title, uri = chunk.RetrievedContext.Title, chunk.RetrievedContext.URI
		default:
			continue
		}
		if title == "" {
			title = defaultLinkTitle
		}
		links = append(links, domain.GroundingLink{Title: title, URI: uri})
	}
	return links
}

func functionCalls(resp *genai.GenerateContentResponse) []domain.FunctionCall {
	calls := resp.FunctionCalls()
	if len(calls) == 0 {
		return nil
	}
	out := make([]domain.FunctionCall, 0, len(calls))
	for _, c := range calls {
		if c == nil {
			continue
		}
		out = append(out, domain.FunctionCall{Name: c.Name, Args: c.Args})
	}
	return out
}

func inlineAudio(resp *genai.GenerateContentResponse) []byte {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data
		}
	}
	return nil
}

// ExtractJSON снимает markdown-ограждение и вырезает JSON от первой
// открывающей до последней закрывающей скобки того же вида
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return ""
	}
	closer := "}"
	if text[start] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end < start {
		return ""
	}
	return text[start : end+1]
}

func decodeImage(data string) ([]byte, error) {
	// data URL: "data:image/jpeg;base64,...."
	if i := strings.Index(data, ","); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+1:]
	}
	img, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid image attachment: %w", err)
	}
	return img, nil
}
