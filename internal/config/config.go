// Package config は環境変数と任意のYAMLファイルからアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// DefaultFeedURL はブルノ市のイベントフィード（ArcGIS FeatureServer、GeoJSON）。
const DefaultFeedURL = "https://services6.arcgis.com/fUWVlHWZNxUvTUh8/arcgis/rest/services/Events/FeatureServer/0/query?outFields=*&where=1%3D1&f=geojson"

// Config はアプリケーション全体の設定を保持する。
// 起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Feed
	FeedURL            string
	FetchTimeout       time.Duration
	FetchMaxSize       int64
	FeedSSRFProtection bool

	// Database（空の場合、お気に入りはインメモリで保持する）
	DatabaseURL string

	// Refresh
	RefreshOnStart  bool
	RefreshSchedule string
	SeedFromFixture bool

	// View
	ViewCacheTTL     time.Duration
	Timezone         *time.Location
	CalendarReminder time.Duration // ICSエクスポートのアラーム（0で無効）

	// Server
	ServerPort        string
	CORSAllowedOrigin string

	// Rate Limit（1分あたり・クライアントごと）
	RateLimitGeneral int
	RateLimitRefresh int

	// Logging
	LogLevel string
}

// fileConfig はCONFIG_FILEで指定するYAMLの構造。
// 環境変数と同じ項目を持ち、値は環境変数で上書きされる。
type fileConfig struct {
	FeedURL            string `yaml:"feed_url"`
	FetchTimeout       string `yaml:"fetch_timeout"`
	FetchMaxSize       int64  `yaml:"fetch_max_size"`
	FeedSSRFProtection *bool  `yaml:"feed_ssrf_protection"`
	DatabaseURL        string `yaml:"database_url"`
	RefreshOnStart     *bool  `yaml:"refresh_on_start"`
	RefreshSchedule    string `yaml:"refresh_schedule"`
	SeedFromFixture    *bool  `yaml:"seed_from_fixture"`
	ViewCacheTTL       string `yaml:"view_cache_ttl"`
	Timezone           string `yaml:"timezone"`
	CalendarReminder   string `yaml:"calendar_reminder"`
	ServerPort         string `yaml:"server_port"`
	CORSAllowedOrigin  string `yaml:"cors_allowed_origin"`
	RateLimitGeneral   int    `yaml:"rate_limit_general"`
	RateLimitRefresh   int    `yaml:"rate_limit_refresh"`
	LogLevel           string `yaml:"log_level"`
}

// Load はCONFIG_FILE（任意）と環境変数からConfigを読み込む。
// 必須項目はなく、未設定の項目にはデフォルト値が入る。
func Load() (*Config, error) {
	fc := &fileConfig{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		loaded, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		fc = loaded
	}

	cfg := &Config{}
	cfg.FeedURL = getEnvString("FEED_URL", orString(fc.FeedURL, DefaultFeedURL))
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", orDuration(fc.FetchTimeout, 10*time.Second))
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", orInt64(fc.FetchMaxSize, 20<<20))
	cfg.FeedSSRFProtection = getEnvBool("FEED_SSRF_PROTECTION", orBool(fc.FeedSSRFProtection, true))
	cfg.DatabaseURL = getEnvString("DATABASE_URL", fc.DatabaseURL)
	cfg.RefreshOnStart = getEnvBool("REFRESH_ON_START", orBool(fc.RefreshOnStart, true))
	cfg.RefreshSchedule = getEnvString("REFRESH_SCHEDULE", fc.RefreshSchedule)
	cfg.SeedFromFixture = getEnvBool("SEED_FROM_FIXTURE", orBool(fc.SeedFromFixture, false))
	cfg.ViewCacheTTL = getEnvDuration("VIEW_CACHE_TTL", orDuration(fc.ViewCacheTTL, time.Minute))
	cfg.CalendarReminder = getEnvDuration("CALENDAR_REMINDER", orDuration(fc.CalendarReminder, time.Hour))
	cfg.ServerPort = getEnvString("SERVER_PORT", orString(fc.ServerPort, "8080"))
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", orString(fc.CORSAllowedOrigin, "http://localhost:3000"))
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", orInt(fc.RateLimitGeneral, 120))
	cfg.RateLimitRefresh = getEnvInt("RATE_LIMIT_REFRESH", orInt(fc.RateLimitRefresh, 6))
	cfg.LogLevel = getEnvString("LOG_LEVEL", orString(fc.LogLevel, "info"))

	tzName := getEnvString("TIMEZONE", orString(fc.Timezone, "Europe/Prague"))
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}
	cfg.Timezone = loc

	if cfg.FetchMaxSize <= 0 {
		return nil, fmt.Errorf("FETCH_MAX_SIZE must be positive: %d", cfg.FetchMaxSize)
	}

	return cfg, nil
}

func loadFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	fc := &fileConfig{}
	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvBool(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func orString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func orInt64(v, def int64) int64 {
	if v != 0 {
		return v
	}
	return def
}

func orBool(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

func orDuration(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
