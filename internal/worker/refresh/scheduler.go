// Package refresh はイベントフィードの定期リフレッシュを提供する。
// cron形式のスケジュールでstore.Refresherを呼び出す外部の呼び出し元として動作する。
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hitoshi/zazij/internal/store"
)

// Refresher はリフレッシュの実行インターフェース。
type Refresher interface {
	Refresh(ctx context.Context) (store.RefreshResult, error)
}

// Scheduler はcronスケジュールに従ってリフレッシュを実行する。
// 前回のリフレッシュが実行中の場合、その回はスキップする。
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	spec      string
	refresher Refresher
	logger    *slog.Logger

	mu  sync.Mutex
	ctx context.Context
}

// NewScheduler はSchedulerを生成する。
// specは標準の5フィールド形式（例: "*/15 * * * *"）または "@every 30m" 等の記述子。
func NewScheduler(spec string, loc *time.Location, refresher Refresher, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.Local
	}

	cronLogger := cronLogger{logger: logger}
	s := &Scheduler{
		spec:      spec,
		refresher: refresher,
		logger:    logger,
		ctx:       context.Background(),
	}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	id, err := s.cron.AddFunc(spec, func() {
		s.RunOnce(s.baseContext())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register refresh job: %w", err)
	}
	s.entryID = id

	return s, nil
}

// Start はスケジューラを起動し、コンテキストがキャンセルされるまでブロックする。
// 停止時は実行中のリフレッシュの完了を待つ。
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("リフレッシュスケジューラを開始しました",
		slog.String("schedule", s.spec),
		slog.Time("next", s.Next()),
	)

	<-ctx.Done()

	<-s.cron.Stop().Done()
	s.logger.Info("リフレッシュスケジューラを停止しました")
}

// RunOnce はリフレッシュを1回実行する。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	result, err := s.refresher.Refresh(ctx)
	if err != nil {
		s.logger.Warn("定期リフレッシュに失敗しました",
			slog.String("error", err.Error()),
			slog.Bool("shared", result.Shared),
		)
		return err
	}

	s.logger.Info("定期リフレッシュが完了しました",
		slog.Int("events", result.EventCount),
		slog.Float64("duration_ms", float64(result.Duration.Milliseconds())),
		slog.Bool("shared", result.Shared),
	)
	return nil
}

// Next は次回の実行予定時刻を返す。未起動の場合はゼロ値。
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

func (s *Scheduler) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// cronLogger はcron.Loggerをslogに接続する。
type cronLogger struct {
	logger *slog.Logger
}

// Info はcronの定常ログ（スケジュール・起動・実行）をDebugレベルで出力する。
func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

// Error はcronのエラー（ジョブのpanic等）を出力する。
func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{slog.String("error", err.Error())}, keysAndValues...)...)
}
