package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/zazij/internal/cache"
	"github.com/hitoshi/zazij/internal/middleware"
	"github.com/hitoshi/zazij/internal/repository"
	"github.com/hitoshi/zazij/internal/sanitize"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// イベント
	Events    EventSource
	Refresher RefreshRunner
	Sanitizer sanitize.ContentSanitizerService
	ViewCache *cache.ViewCache

	// お気に入り
	Favorites        repository.FavoriteRepository
	CalendarReminder time.Duration

	// 表示
	Location *time.Location
	Now      func() time.Time

	// MetricsHandler は /metrics で公開するハンドラー。nilの場合は登録しない。
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RequestID → Logging → SecurityHeaders → CORS → RateLimit(General)
//
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = sanitize.NewContentSanitizer()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	statusHandler := NewStatusHandler(deps.Events, deps.Refresher)
	eventHandler := NewEventHandler(deps.Events, deps.Favorites, sanitizer, deps.ViewCache, deps.Location, deps.Now)
	favoriteHandler := NewFavoriteHandler(deps.Favorites, deps.Events, deps.Location, deps.CalendarReminder, deps.Now)

	// --- 運用エンドポイント ---
	r.Get("/health", statusHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- API ---
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		r.Get("/api/status", statusHandler.Status)

		// POST /api/refresh - 手動リフレッシュ（専用レート制限を追加）
		if deps.RateLimiter != nil {
			r.With(deps.RateLimiter.RefreshMiddleware()).Post("/api/refresh", statusHandler.Refresh)
		} else {
			r.Post("/api/refresh", statusHandler.Refresh)
		}

		r.Route("/api/events", func(r chi.Router) {
			r.Get("/", eventHandler.ListEvents)
			r.Get("/today", eventHandler.ListToday)
			r.Get("/{id}", eventHandler.GetEvent)
		})

		r.Get("/api/categories", eventHandler.ListCategories)

		r.Get("/api/favorites.ics", favoriteHandler.ExportFavorites)
		r.Route("/api/favorites", func(r chi.Router) {
			r.Get("/", favoriteHandler.ListFavorites)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", favoriteHandler.GetFavorite)
				r.Put("/", favoriteHandler.AddFavorite)
				r.Delete("/", favoriteHandler.RemoveFavorite)
			})
		})
	})

	return r
}
