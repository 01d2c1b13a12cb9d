package gemini

import (
	"context"
	"fmt"

	"github.com/geoclaim/internal/config"
	"google.golang.org/genai"
)

// ContentGenerator - часть genai.Models, которой пользуется шлюз.
// В тестах подменяется фейком.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGenerator создает клиента Gemini API
func NewGenerator(ctx context.Context, cfg *config.GeminiConfig) (ContentGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return client.Models, nil
}

// unavailableGenerator отвечает ошибкой на любой вызов; используется, когда ключ не задан
type unavailableGenerator struct {
	reason string
}

// NewUnavailableGenerator - генератор-заглушка для запуска без API ключа.
// Шлюз превращает его ошибки в обычные деградированные ответы.
func NewUnavailableGenerator(reason string) ContentGenerator {
	return &unavailableGenerator{reason: reason}
}

func (g *unavailableGenerator) GenerateContent(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return nil, fmt.Errorf("gemini unavailable: %s", g.reason)
}
