package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv はテストに影響する環境変数を空にする。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "FEED_URL", "FETCH_TIMEOUT", "FETCH_MAX_SIZE", "FEED_SSRF_PROTECTION",
		"DATABASE_URL", "REFRESH_ON_START", "REFRESH_SCHEDULE", "SEED_FROM_FIXTURE",
		"VIEW_CACHE_TTL", "TIMEZONE", "SERVER_PORT", "CORS_ALLOWED_ORIGIN",
		"RATE_LIMIT_GENERAL", "RATE_LIMIT_REFRESH", "LOG_LEVEL", "CALENDAR_REMINDER",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.FeedURL != DefaultFeedURL {
		t.Errorf("FeedURL = %q, want default", cfg.FeedURL)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want %v", cfg.FetchTimeout, 10*time.Second)
	}
	if cfg.FetchMaxSize != 20<<20 {
		t.Errorf("FetchMaxSize = %d, want %d", cfg.FetchMaxSize, 20<<20)
	}
	if !cfg.FeedSSRFProtection {
		t.Error("FeedSSRFProtection should default to true")
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if !cfg.RefreshOnStart {
		t.Error("RefreshOnStart should default to true")
	}
	if cfg.RefreshSchedule != "" {
		t.Errorf("RefreshSchedule = %q, want empty", cfg.RefreshSchedule)
	}
	if cfg.SeedFromFixture {
		t.Error("SeedFromFixture should default to false")
	}
	if cfg.ViewCacheTTL != time.Minute {
		t.Errorf("ViewCacheTTL = %v, want 1m", cfg.ViewCacheTTL)
	}
	if cfg.Timezone.String() != "Europe/Prague" {
		t.Errorf("Timezone = %v, want Europe/Prague", cfg.Timezone)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.RateLimitGeneral != 120 || cfg.RateLimitRefresh != 6 {
		t.Errorf("RateLimit = %d/%d, want 120/6", cfg.RateLimitGeneral, cfg.RateLimitRefresh)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.CalendarReminder != time.Hour {
		t.Errorf("CalendarReminder = %v, want 1h", cfg.CalendarReminder)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("FEED_URL", "https://data.brno.cz/events.geojson")
	t.Setenv("FETCH_TIMEOUT", "30s")
	t.Setenv("FETCH_MAX_SIZE", "1048576")
	t.Setenv("FEED_SSRF_PROTECTION", "false")
	t.Setenv("DATABASE_URL", "postgres://zazij:zazij@db:5432/zazij?sslmode=disable")
	t.Setenv("REFRESH_ON_START", "0")
	t.Setenv("REFRESH_SCHEDULE", "*/15 * * * *")
	t.Setenv("SEED_FROM_FIXTURE", "true")
	t.Setenv("VIEW_CACHE_TTL", "0s")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGIN", "https://zazij.example")
	t.Setenv("RATE_LIMIT_GENERAL", "60")
	t.Setenv("RATE_LIMIT_REFRESH", "2")
	t.Setenv("CALENDAR_REMINDER", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.FeedURL != "https://data.brno.cz/events.geojson" {
		t.Errorf("FeedURL = %q", cfg.FeedURL)
	}
	if cfg.FetchTimeout != 30*time.Second || cfg.FetchMaxSize != 1048576 {
		t.Errorf("fetch = %v / %d", cfg.FetchTimeout, cfg.FetchMaxSize)
	}
	if cfg.FeedSSRFProtection || cfg.RefreshOnStart || !cfg.SeedFromFixture {
		t.Errorf("bools = ssrf:%v start:%v seed:%v", cfg.FeedSSRFProtection, cfg.RefreshOnStart, cfg.SeedFromFixture)
	}
	if cfg.DatabaseURL == "" || cfg.RefreshSchedule != "*/15 * * * *" {
		t.Errorf("DatabaseURL=%q RefreshSchedule=%q", cfg.DatabaseURL, cfg.RefreshSchedule)
	}
	if cfg.ViewCacheTTL != 0 || cfg.Timezone != time.UTC {
		t.Errorf("ViewCacheTTL=%v Timezone=%v", cfg.ViewCacheTTL, cfg.Timezone)
	}
	if cfg.ServerPort != "9090" || cfg.CORSAllowedOrigin != "https://zazij.example" {
		t.Errorf("server = %q / %q", cfg.ServerPort, cfg.CORSAllowedOrigin)
	}
	if cfg.RateLimitGeneral != 60 || cfg.RateLimitRefresh != 2 {
		t.Errorf("RateLimit = %d/%d", cfg.RateLimitGeneral, cfg.RateLimitRefresh)
	}
	if cfg.CalendarReminder != 0 {
		t.Errorf("CalendarReminder = %v, want 0", cfg.CalendarReminder)
	}
}

func TestLoad_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FETCH_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_GENERAL", "many")
	t.Setenv("FEED_SSRF_PROTECTION", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want default", cfg.FetchTimeout)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want default", cfg.RateLimitGeneral)
	}
	if !cfg.FeedSSRFProtection {
		t.Error("FeedSSRFProtection should fall back to true")
	}
}

func TestLoad_InvalidTimezone_ReturnsError(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEZONE", "Europe/Atlantis")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid TIMEZONE")
	}
}

func TestLoad_NonPositiveMaxSize_ReturnsError(t *testing.T) {
	clearEnv(t)
	t.Setenv("FETCH_MAX_SIZE", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative FETCH_MAX_SIZE")
	}
}

// TestLoad_ConfigFile はYAMLの値が使われ、環境変数で上書きされることを検証する。
func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "zazij.yaml")
	yamlContent := `
feed_url: https://mirror.example/events.geojson
fetch_timeout: 5s
refresh_on_start: false
refresh_schedule: "0 * * * *"
timezone: UTC
server_port: "7070"
rate_limit_refresh: 3
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "9191")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.FeedURL != "https://mirror.example/events.geojson" {
		t.Errorf("FeedURL = %q", cfg.FeedURL)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", cfg.FetchTimeout)
	}
	if cfg.RefreshOnStart {
		t.Error("RefreshOnStart should be false from file")
	}
	if cfg.RefreshSchedule != "0 * * * *" {
		t.Errorf("RefreshSchedule = %q", cfg.RefreshSchedule)
	}
	if cfg.ServerPort != "9191" {
		t.Errorf("ServerPort = %q, env should override file", cfg.ServerPort)
	}
	if cfg.RateLimitRefresh != 3 {
		t.Errorf("RateLimitRefresh = %d, want 3", cfg.RateLimitRefresh)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want default 120", cfg.RateLimitGeneral)
	}
}

func TestLoad_ConfigFileErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}

	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("feed_url: [unterminated"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid YAML")
	}
}
