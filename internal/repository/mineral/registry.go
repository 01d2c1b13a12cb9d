// Package mineral holds the specimen image registry: a flat, insertion
// ordered mapping from lower-cased mineral names to image URLs, loaded once
// from a line-oriented text resource.
package mineral

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/geoclaim/internal/domain/repository"
	"go.uber.org/zap"
)

var (
	urlPattern         = regexp.MustCompile(`https?://\S+`)
	punctuationPattern = regexp.MustCompile(`[:;,]`)
)

type entry struct {
	name string
	url  string
}

// Registry is safe for concurrent use. A failed Load leaves it not ready
// and the next Load retries.
type Registry struct {
	source repository.DocumentSource
	logger *zap.Logger

	loadMu sync.Mutex

	mu      sync.RWMutex
	loaded  bool
	entries []entry
	index   map[string]int
}

// NewRegistry создает пустой реестр; данные появляются после Load
func NewRegistry(source repository.DocumentSource, logger *zap.Logger) *Registry {
	return &Registry{
		source: source,
		logger: logger,
		index:  make(map[string]int),
	}
}

// Load читает источник и заполняет реестр. После успеха повторные вызовы ничего не делают.
func (r *Registry) Load(ctx context.Context) error {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	if r.IsLoaded() {
		return nil
	}

	data, err := r.source.Fetch(ctx)
	if err != nil {
		r.logger.Error("Mineral list loading failed", zap.Error(err))
		return fmt.Errorf("failed to load mineral list: %w", err)
	}

	entries, index, err := parseList(data)
	if err != nil {
		r.logger.Error("Mineral list parsing failed", zap.Error(err))
		return fmt.Errorf("failed to parse mineral list: %w", err)
	}

	r.mu.Lock()
	r.entries = entries
	r.index = index
	r.loaded = true
	r.mu.Unlock()

	r.logger.Info("Mineral image registry loaded", zap.Int("specimens", len(entries)))
	return nil
}

// IsLoaded сообщает, был ли успешный Load
func (r *Registry) IsLoaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Size - количество записей
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Lookup ищет URL изображения. Точное совпадение имеет приоритет над
// подстрокой; среди подстрок побеждает первая запись в порядке загрузки.
func (r *Registry) Lookup(name string) (string, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if i, ok := r.index[query]; ok {
		return r.entries[i].url, true
	}

	for _, e := range r.entries {
		if strings.Contains(query, e.name) || strings.Contains(e.name, query) {
			return e.url, true
		}
	}
	return "", false
}

// parseList разбирает строки вида "Name: URL" или "URL Name".
// Повторное имя обновляет URL, сохраняя исходную позицию.
// Ошибка чтения (например, строка длиннее 1 МиБ) отменяет весь разбор.
func parseList(data []byte) ([]entry, map[string]int, error) {
	var entries []entry
	index := make(map[string]int)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		url := urlPattern.FindString(line)
		if url == "" {
			continue
		}

		name := strings.Replace(line, url, "", 1)
		name = punctuationPattern.ReplaceAllString(name, "")
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}

		if i, ok := index[name]; ok {
			entries[i].url = url
			continue
		}
		index[name] = len(entries)
		entries = append(entries, entry{name: name, url: url})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}

	return entries, index, nil
}
