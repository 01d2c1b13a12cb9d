package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Log       LogConfig
	Worker    WorkerConfig
	Sources   SourcesConfig
	Gemini    GeminiConfig
	Elevation ElevationConfig
	Geocoder  GeocoderConfig
	Session   SessionConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
	// CORSOrigins через запятую; "*" разрешает любые
	CORSOrigins  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
	// DialTimeout - тайм-аут подключения и первого PING
	DialTimeout time.Duration
}

type CacheConfig struct {
	// Backend: redis | memory
	Backend        string
	SearchCacheTTL time.Duration
	ElevationTTL   time.Duration
	CleanupPeriod  time.Duration
}

type LogConfig struct {
	Level string
}

type WorkerConfig struct {
	Enabled           bool
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	MaxRetries        int
	BatchSize         int
	Concurrency       int
	ClaimMinIdle      time.Duration
	ClaimInterval     time.Duration
}

type SourcesConfig struct {
	KMLURL           string
	MineralListURL   string
	LocalityIDPrefix string
	// RequestTimeout в секундах
	RequestTimeout int
}

type GeminiConfig struct {
	APIKey        string
	FlashModel    string
	ProModel      string
	MapsModel     string
	LiteModel     string
	TTSModel      string
	Voice         string
	ThinkingLimit int
	RateLimit     float64
	RateBurst     int
	Timeout       time.Duration
}

type ElevationConfig struct {
	BaseURL string
	Timeout time.Duration
}

type GeocoderConfig struct {
	BaseURL     string
	UserAgent   string
	QuerySuffix string
	RateLimit   float64
	Timeout     time.Duration
}

type SessionConfig struct {
	TTL           time.Duration
	CleanupPeriod time.Duration
}

func setDefaults() {
	viper.SetDefault("API_HOST", "0.0.0.0")
	viper.SetDefault("API_PORT", 8080)
	viper.SetDefault("API_ENV", "development")
	viper.SetDefault("API_CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	viper.SetDefault("API_READ_TIMEOUT", 10)
	// ответы модели с поиском бывают долгими
	viper.SetDefault("API_WRITE_TIMEOUT", 150)

	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 10)
	viper.SetDefault("REDIS_DIAL_TIMEOUT", 5)

	viper.SetDefault("CACHE_BACKEND", "memory")
	viper.SetDefault("SEARCH_CACHE_TTL", 3600)
	viper.SetDefault("ELEVATION_CACHE_TTL", 86400)
	viper.SetDefault("CACHE_CLEANUP_PERIOD", 600)

	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("WORKER_ENABLED", true)
	viper.SetDefault("WORKER_CONSUMER_GROUP", "locality-audit-workers")
	viper.SetDefault("WORKER_STREAM_READ_TIMEOUT", 5000)
	viper.SetDefault("WORKER_MAX_RETRIES", 3)
	viper.SetDefault("WORKER_BATCH_SIZE", 10)
	viper.SetDefault("WORKER_CONCURRENCY", 4)
	viper.SetDefault("WORKER_CLAIM_MIN_IDLE", 300000)
	viper.SetDefault("WORKER_CLAIM_INTERVAL", 60000)

	viper.SetDefault("KML_URL", "https://pub-90f3d40bb40d44ab8aeb9563e62f17ec.r2.dev/localities_USA.kml")
	viper.SetDefault("MINERAL_LIST_URL", "mineral_list.txt")
	viper.SetDefault("LOCALITY_ID_PREFIX", "loc-usa")
	viper.SetDefault("SOURCE_REQUEST_TIMEOUT", 60)

	viper.SetDefault("GEMINI_FLASH_MODEL", "gemini-3-flash-preview")
	viper.SetDefault("GEMINI_PRO_MODEL", "gemini-3-pro-preview")
	viper.SetDefault("GEMINI_MAPS_MODEL", "gemini-2.5-flash")
	viper.SetDefault("GEMINI_LITE_MODEL", "gemini-flash-lite-latest")
	viper.SetDefault("GEMINI_TTS_MODEL", "gemini-2.5-flash-preview-tts")
	viper.SetDefault("GEMINI_VOICE", "Kore")
	viper.SetDefault("GEMINI_THINKING_BUDGET", 24576)
	viper.SetDefault("GEMINI_RATE_LIMIT", 5)
	viper.SetDefault("GEMINI_RATE_BURST", 10)
	viper.SetDefault("GEMINI_TIMEOUT", 120)

	viper.SetDefault("ELEVATION_BASE_URL", "https://api.open-elevation.com")
	viper.SetDefault("ELEVATION_TIMEOUT", 10)

	viper.SetDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org")
	viper.SetDefault("GEOCODER_USER_AGENT", "geoclaim/1.0")
	viper.SetDefault("GEOCODER_QUERY_SUFFIX", " USA")
	viper.SetDefault("GEOCODER_RATE_LIMIT", 1)
	viper.SetDefault("GEOCODER_TIMEOUT", 10)

	viper.SetDefault("SESSION_TTL", 3600)
	viper.SetDefault("SESSION_CLEANUP_PERIOD", 300)
}

func Load() (*Config, error) {
	setDefaults()
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// .env не обязателен: в контейнере всё приходит из окружения
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),

			CORSOrigins:  viper.GetString("API_CORS_ORIGINS"),
			ReadTimeout:  time.Duration(viper.GetInt("API_READ_TIMEOUT")) * time.Second,
			WriteTimeout: time.Duration(viper.GetInt("API_WRITE_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			PoolSize: viper.GetInt("REDIS_POOL_SIZE"),

			DialTimeout: time.Duration(viper.GetInt("REDIS_DIAL_TIMEOUT")) * time.Second,
		},
		Cache: CacheConfig{
			Backend:        strings.ToLower(viper.GetString("CACHE_BACKEND")),
			SearchCacheTTL: time.Duration(viper.GetInt("SEARCH_CACHE_TTL")) * time.Second,
			ElevationTTL:   time.Duration(viper.GetInt("ELEVATION_CACHE_TTL")) * time.Second,
			CleanupPeriod:  time.Duration(viper.GetInt("CACHE_CLEANUP_PERIOD")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Worker: WorkerConfig{
			Enabled:           viper.GetBool("WORKER_ENABLED"),
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			MaxRetries:        viper.GetInt("WORKER_MAX_RETRIES"),
			BatchSize:         viper.GetInt("WORKER_BATCH_SIZE"),
			Concurrency:       viper.GetInt("WORKER_CONCURRENCY"),
			ClaimMinIdle:      time.Duration(viper.GetInt("WORKER_CLAIM_MIN_IDLE")) * time.Millisecond,
			ClaimInterval:     time.Duration(viper.GetInt("WORKER_CLAIM_INTERVAL")) * time.Millisecond,
		},
		Sources: SourcesConfig{
			KMLURL:           viper.GetString("KML_URL"),
			MineralListURL:   viper.GetString("MINERAL_LIST_URL"),
			LocalityIDPrefix: viper.GetString("LOCALITY_ID_PREFIX"),
			RequestTimeout:   viper.GetInt("SOURCE_REQUEST_TIMEOUT"),
		},
		Gemini: GeminiConfig{
			APIKey:        firstNonEmpty(viper.GetString("GEMINI_API_KEY"), viper.GetString("API_KEY")),
			FlashModel:    viper.GetString("GEMINI_FLASH_MODEL"),
			ProModel:      viper.GetString("GEMINI_PRO_MODEL"),
			MapsModel:     viper.GetString("GEMINI_MAPS_MODEL"),
			LiteModel:     viper.GetString("GEMINI_LITE_MODEL"),
			TTSModel:      viper.GetString("GEMINI_TTS_MODEL"),
			Voice:         viper.GetString("GEMINI_VOICE"),
			ThinkingLimit: viper.GetInt("GEMINI_THINKING_BUDGET"),
			RateLimit:     viper.GetFloat64("GEMINI_RATE_LIMIT"),
			RateBurst:     viper.GetInt("GEMINI_RATE_BURST"),
			Timeout:       time.Duration(viper.GetInt("GEMINI_TIMEOUT")) * time.Second,
		},
		Elevation: ElevationConfig{
			BaseURL: viper.GetString("ELEVATION_BASE_URL"),
			Timeout: time.Duration(viper.GetInt("ELEVATION_TIMEOUT")) * time.Second,
		},
		Geocoder: GeocoderConfig{
			BaseURL:     viper.GetString("GEOCODER_BASE_URL"),
			UserAgent:   viper.GetString("GEOCODER_USER_AGENT"),
			QuerySuffix: viper.GetString("GEOCODER_QUERY_SUFFIX"),
			RateLimit:   viper.GetFloat64("GEOCODER_RATE_LIMIT"),
			Timeout:     time.Duration(viper.GetInt("GEOCODER_TIMEOUT")) * time.Second,
		},
		Session: SessionConfig{
			TTL:           time.Duration(viper.GetInt("SESSION_TTL")) * time.Second,
			CleanupPeriod: time.Duration(viper.GetInt("SESSION_CLEANUP_PERIOD")) * time.Second,
		},
	}

	if cfg.Worker.BatchSize <= 0 {
		cfg.Worker.BatchSize = 10
	}
	if cfg.Worker.Concurrency <= 0 {
		cfg.Worker.Concurrency = 1
	}
	if cfg.Cache.Backend != "redis" {
		cfg.Cache.Backend = "memory"
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
