package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/subsgate")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AppEnv != "development" {
		t.Errorf("expected development env, got %s", cfg.AppEnv)
	}
	if cfg.AppPort != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.AppPort)
	}
	if cfg.DeviceLimit != 1 {
		t.Errorf("expected device limit 1, got %d", cfg.DeviceLimit)
	}
	if cfg.StoreTimeout != 5*time.Second {
		t.Errorf("expected 5s store timeout, got %v", cfg.StoreTimeout)
	}
	if !cfg.RateLimitLoginEnabled {
		t.Error("expected login rate limiting enabled by default")
	}
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Error("expected development mode helpers to agree with APP_ENV")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when required variables are missing")
	}
}

func TestLoad_InvalidDeviceLimit(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DEVICE_LIMIT", "0")

	if _, err := Load(); err == nil {
		t.Error("expected error for zero device limit")
	}
}

func TestGetCORSAllowedOrigins(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://example.com, https://app.example.com ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	origins := cfg.GetCORSAllowedOrigins()
	if len(origins) != 2 {
		t.Fatalf("expected 2 origins, got %d", len(origins))
	}
	if origins[0] != "https://example.com" || origins[1] != "https://app.example.com" {
		t.Errorf("unexpected origins: %v", origins)
	}
}
