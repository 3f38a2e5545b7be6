package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	NotionToken        string
	NotionDatabaseID   string
	NotionBaseURL      string
	NotionVersion      string
	NotionPageSize     int
	NotionMaxPages     int
	GeminiAPIKey       string
	GeminiVisionModel  string
	GeminiBaseURL      string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	CacheTTL           time.Duration
	StoragePath        string
	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	MaxUploadBytes     int64
	RefreshInterval    time.Duration
	AdminToken         string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		NotionToken:        strings.TrimSpace(os.Getenv("NOTION_TOKEN")),
		NotionDatabaseID:   strings.TrimSpace(os.Getenv("NOTION_DATABASE_ID")),
		NotionBaseURL:      getEnv("NOTION_BASE_URL", "https://api.notion.com/v1"),
		NotionVersion:      getEnv("NOTION_VERSION", "2022-06-28"),
		NotionPageSize:     getEnvInt("NOTION_PAGE_SIZE", 100),
		NotionMaxPages:     getEnvInt("NOTION_MAX_PAGES", 1),
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiVisionModel:  getEnv("GEMINI_VISION_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:      os.Getenv("GEMINI_BASE_URL"),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		CacheTTL:           time.Minute * time.Duration(getEnvInt("CACHE_TTL_MINUTES", 360)),
		StoragePath:        strings.TrimSpace(os.Getenv("STORAGE_PATH")),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
		RefreshInterval:    time.Minute * time.Duration(getEnvInt("REFRESH_INTERVAL_MINUTES", 30)),
		AdminToken:         strings.TrimSpace(os.Getenv("ADMIN_TOKEN")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.NotionDatabaseID == "" {
		return nil, fmt.Errorf("NOTION_DATABASE_ID is required")
	}

	if cfg.NotionPageSize <= 0 || cfg.NotionPageSize > 100 {
		cfg.NotionPageSize = 100
	}
	if cfg.NotionMaxPages <= 0 {
		cfg.NotionMaxPages = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
