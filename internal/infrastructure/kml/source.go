package kml

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/geoclaim/internal/config"
	"github.com/geoclaim/internal/domain/repository"
	"go.uber.org/zap"
)

// maxDocumentSize ограничивает размер загружаемого документа (KML или KMZ)
const maxDocumentSize = 256 << 20

type source struct {
	httpClient *http.Client
	url        string
	logger     *zap.Logger
}

// NewSource создает источник KML документа по фиксированному URL
func NewSource(cfg *config.SourcesConfig, logger *zap.Logger) repository.DocumentSource {
	return &source{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		url:    cfg.KMLURL,
		logger: logger,
	}
}

// Fetch загружает документ. KMZ архив распаковывается, возвращается первый .kml файл
func (s *source) Fetch(ctx context.Context) ([]byte, error) {
	if s.url == "" {
		return nil, fmt.Errorf("kml url is not configured")
	}

	s.logger.Debug("Fetching KML document", zap.String("url", s.url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("Failed to execute request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("KML source returned error",
			zap.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("kml fetch failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	if IsKMZ(data) {
		s.logger.Debug("KMZ archive detected, extracting document")
		return ExtractKMZ(data)
	}

	return data, nil
}

// IsKMZ проверяет сигнатуру ZIP архива
func IsKMZ(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte("PK\x03\x04"))
}

// ExtractKMZ возвращает содержимое первого .kml файла архива
// (doc.kml по соглашению, но имя не проверяется)
func ExtractKMZ(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open kmz: %w", err)
	}

	for _, f := range zr.File {
		if !strings.EqualFold(path.Ext(f.Name), ".kml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in kmz: %w", f.Name, err)
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxDocumentSize))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s in kmz: %w", f.Name, err)
		}
		return content, nil
	}

	return nil, fmt.Errorf("no kml file found in kmz archive")
}
