package infra

import (
	"testing"
	"time"
)

func setRequiredKeys(t *testing.T) {
	t.Helper()
	t.Setenv("BRIA_API_KEY", "bria-key")
	t.Setenv("GOOGLE_API_KEY", "google-key")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredKeys(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.BriaBaseURL != "https://engine.prod.bria-api.com" {
		t.Fatalf("bria base url = %q", cfg.BriaBaseURL)
	}
	if cfg.VideoPollInterval != 10*time.Second {
		t.Fatalf("poll interval = %v", cfg.VideoPollInterval)
	}
	if cfg.VideoPollMaxAttempts != 40 {
		t.Fatalf("poll attempts = %d", cfg.VideoPollMaxAttempts)
	}
	if cfg.HTTPWriteTimeout <= cfg.VideoPollInterval*time.Duration(cfg.VideoPollMaxAttempts) {
		t.Fatalf("write timeout %v does not cover the polling window", cfg.HTTPWriteTimeout)
	}
	if len(cfg.AllowedOrigins) == 0 {
		t.Fatalf("expected a default allowed origin")
	}
}

func TestLoadConfigRequiresProviderKeys(t *testing.T) {
	t.Setenv("BRIA_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without BRIA_API_KEY")
	}

	t.Setenv("BRIA_API_KEY", "bria-key")
	t.Setenv("GOOGLE_API_KEY", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error without GOOGLE_API_KEY")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredKeys(t)
	t.Setenv("PORT", "9000")
	t.Setenv("VIDEO_POLL_INTERVAL_SECONDS", "2")
	t.Setenv("VIDEO_POLL_MAX_ATTEMPTS", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "9000" {
		t.Fatalf("port = %q", cfg.Port)
	}
	if cfg.VideoPollInterval != 2*time.Second {
		t.Fatalf("poll interval = %v", cfg.VideoPollInterval)
	}
	if cfg.VideoPollMaxAttempts != 5 {
		t.Fatalf("poll attempts = %d", cfg.VideoPollMaxAttempts)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("allowed origins = %v", cfg.AllowedOrigins)
	}
}
