package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/zazij/internal/cache"
	"github.com/hitoshi/zazij/internal/config"
	"github.com/hitoshi/zazij/internal/database"
	"github.com/hitoshi/zazij/internal/feed"
	"github.com/hitoshi/zazij/internal/handler"
	"github.com/hitoshi/zazij/internal/logger"
	"github.com/hitoshi/zazij/internal/metrics"
	"github.com/hitoshi/zazij/internal/middleware"
	"github.com/hitoshi/zazij/internal/repository"
	"github.com/hitoshi/zazij/internal/sanitize"
	"github.com/hitoshi/zazij/internal/security"
	"github.com/hitoshi/zazij/internal/store"
	"github.com/hitoshi/zazij/internal/worker/refresh"
)

// Init はアプリケーションの初期化を行う。
// 環境変数（とCONFIG_FILE）からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. LOG_LEVELを反映する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。ログはwへ、fetchの結果は標準出力へ書き出す。
func Run(w io.Writer, args []string) error {
	return run(w, os.Stdout, args)
}

func run(w, out io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("feed_url", cfg.FeedURL),
	)

	switch cmd {
	case CommandMigrate:
		action, ok := ParseMigrateAction(args)
		if !ok {
			return fmt.Errorf("unknown migrate action: %q (want up, down or version)", args[1])
		}
		return runMigrate(cfg, action, out)
	case CommandFetch:
		return runFetch(context.Background(), cfg, out)
	default:
		return runServe(cfg)
	}
}

// components はserveモードで組み立てる依存関係一式。
type components struct {
	store       *store.MemoryStore
	refresher   *store.Refresher
	scheduler   *refresh.Scheduler
	rateLimiter *middleware.RateLimiter
	router      http.Handler
	db          *sql.DB
}

// Close は保持しているリソースを解放する。
func (c *components) Close() {
	if c.rateLimiter != nil {
		c.rateLimiter.Stop()
	}
	if c.db != nil {
		c.db.Close()
	}
}

// newFeedHTTPClient はフィード取得用のHTTPクライアントを生成する。
// FEED_SSRF_PROTECTIONが有効な場合はURLを静的に検証し、safeurlのクライアントを使う。
func newFeedHTTPClient(cfg *config.Config) (*http.Client, error) {
	if !cfg.FeedSSRFProtection {
		return &http.Client{Timeout: cfg.FetchTimeout}, nil
	}
	guard := security.NewFeedGuard()
	if err := guard.Validate(cfg.FeedURL); err != nil {
		return nil, fmt.Errorf("invalid FEED_URL: %w", err)
	}
	return guard.Client(cfg.FetchTimeout), nil
}

// buildComponents は設定から全依存関係をワイヤリングする。
// DATABASE_URLが空の場合、お気に入りはインメモリで保持する。
func buildComponents(ctx context.Context, cfg *config.Config, log *slog.Logger) (*components, error) {
	c := &components{}

	// 1. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 2. フィードクライアント
	httpClient, err := newFeedHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	feedClient := feed.NewClient(httpClient, cfg.FeedURL, cfg.FetchMaxSize, collector, log)

	// 3. ストアとリフレッシャー
	if cfg.SeedFromFixture {
		events, err := feed.LoadFixture()
		if err != nil {
			return nil, fmt.Errorf("failed to load fixture: %w", err)
		}
		c.store = store.NewSeededStore(events)
		collector.RecordSnapshotSize(len(events))
		log.Info("store seeded from bundled fixture", slog.Int("events", len(events)))
	} else {
		c.store = store.NewMemoryStore()
	}
	c.refresher = store.NewRefresher(c.store, feedClient, collector, log)

	// 4. お気に入り
	var favorites repository.FavoriteRepository
	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := database.Ping(ctx, db, 5*time.Second); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		c.db = db
		favorites = repository.NewPostgresFavoriteRepo(db)
		log.Info("database connection established",
			slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		)
	} else {
		favorites = repository.NewMemoryFavoriteRepo()
		log.Info("DATABASE_URL not set; favorites are kept in memory")
	}

	// 5. スケジューラ（任意）
	if cfg.RefreshSchedule != "" {
		scheduler, err := refresh.NewScheduler(cfg.RefreshSchedule, cfg.Timezone, c.refresher, log)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.scheduler = scheduler
	}

	// 6. ルーター
	c.rateLimiter = middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitRefresh),
	)
	c.router = handler.NewRouter(&handler.RouterDeps{
		Logger:            log,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       c.rateLimiter,
		Events:            c.store,
		Refresher:         c.refresher,
		Sanitizer:         sanitize.NewContentSanitizer(),
		ViewCache:         cache.NewViewCache(cfg.ViewCacheTTL),
		Favorites:         favorites,
		CalendarReminder:  cfg.CalendarReminder,
		Location:          cfg.Timezone,
		Now:               time.Now,
		MetricsHandler:    metrics.Handler(reg),
	})

	return c, nil
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := slog.Default()
	c, err := buildComponents(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()

	// 起動時の更新はサーバー起動を待たせない
	if cfg.RefreshOnStart {
		go c.refresher.Refresh(ctx)
	}

	if c.scheduler != nil {
		go c.scheduler.Start(ctx)
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      c.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.FetchTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case <-ctx.Done():
	}
	log.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("API server stopped gracefully")
	return nil
}

// runFetch はフィードを1回取得し、デコードしたイベントをJSONでoutへ書き出す。
// ストアやサーバーは使わない。
func runFetch(ctx context.Context, cfg *config.Config, out io.Writer) error {
	httpClient, err := newFeedHTTPClient(cfg)
	if err != nil {
		return err
	}
	client := feed.NewClient(httpClient, cfg.FeedURL, cfg.FetchMaxSize, metrics.Nop{}, slog.Default())

	events, err := client.FetchEvents(ctx)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	slog.Info("feed fetched", slog.Int("events", len(events)))

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}

// runMigrate はデータベースマイグレーションを実行する。
// upはすべての未適用マイグレーションを順番に適用し、downは1つ戻す。
// versionは現在のバージョンをoutへ書き出す。
func runMigrate(cfg *config.Config, action MigrateAction, out io.Writer) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for migrate")
	}

	slog.Info("running database migrations",
		slog.String("action", string(action)),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch action {
	case MigrateDown:
		if err := database.RollbackMigration(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration rollback failed: %w", err)
		}
	case MigrateVersion:
		version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to read migration version: %w", err)
		}
		fmt.Fprintf(out, "version=%d dirty=%t\n", version, dirty)
		return nil
	default:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
