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
	AppEnv         string
	Port           string
	BriaAPIKey     string
	GoogleAPIKey   string
	BriaBaseURL    string
	GeminiBaseURL  string
	GeminiModel    string
	VeoModel       string
	StoragePath    string
	StorageBaseURL string
	CatalogDBPath  string
	TemplateDir    string
	GeoIPDBPath    string
	DefaultLocale  string
	AllowedOrigins []string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	BriaRateLimitPerMin  int
	VideoPollInterval    time.Duration
	VideoPollMaxAttempts int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. The two provider API keys are the only required
// settings; everything else has a development-friendly default.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		BriaAPIKey:     os.Getenv("BRIA_API_KEY"),
		GoogleAPIKey:   os.Getenv("GOOGLE_API_KEY"),
		BriaBaseURL:    getEnv("BRIA_BASE_URL", "https://engine.prod.bria-api.com"),
		GeminiBaseURL:  getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
		VeoModel:       getEnv("VEO_MODEL", "veo-3.1-generate-001"),
		StoragePath:    getEnv("STORAGE_PATH", "static/uploads"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		CatalogDBPath:  getEnv("CATALOG_DB_PATH", "static/uploads/catalog.db"),
		TemplateDir:    getEnv("TEMPLATE_DIR", "assets/templates"),
		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:  getEnv("DEFAULT_LOCALE", "en"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 600)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		BriaRateLimitPerMin:  getEnvInt("BRIA_RATE_LIMIT_PER_MINUTE", 20),
		VideoPollInterval:    time.Second * time.Duration(getEnvInt("VIDEO_POLL_INTERVAL_SECONDS", 10)),
		VideoPollMaxAttempts: getEnvInt("VIDEO_POLL_MAX_ATTEMPTS", 40),
	}

	if cfg.BriaAPIKey == "" {
		return nil, fmt.Errorf("BRIA_API_KEY is required")
	}

	if cfg.GoogleAPIKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is required")
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

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
