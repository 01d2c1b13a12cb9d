package mineral

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/geoclaim/internal/domain/repository"
	"go.uber.org/zap"
)

const maxListSize = 16 << 20

type httpSource struct {
	httpClient *http.Client
	url        string
	logger     *zap.Logger
}

type fileSource struct {
	path string
}

// NewSource выбирает источник по схеме: http(s) - загрузка по сети, иначе файл
func NewSource(location string, timeout time.Duration, logger *zap.Logger) repository.DocumentSource {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &httpSource{
			httpClient: &http.Client{Timeout: timeout},
			url:        location,
			logger:     logger,
		}
	}
	return &fileSource{path: location}
}

func (s *httpSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("Failed to execute request", zap.String("url", s.url), zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mineral catalog sync failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxListSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return data, nil
}

func (s *fileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mineral list %s: %w", s.path, err)
	}
	return data, nil
}
