package store

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hitoshi/zazij/internal/feed"
	"github.com/hitoshi/zazij/internal/metrics"
	"github.com/hitoshi/zazij/internal/model"
)

// RefreshResult はリフレッシュ1回の結果。
type RefreshResult struct {
	Status     model.FetchStatus
	EventCount int
	Duration   time.Duration
	// Shared は実行中の別のリフレッシュに合流した場合にtrue。
	Shared bool
}

// Refresher はフィードを取得してストアへ反映する。
// 同時に要求されたリフレッシュは実行中の1回に合流させ、
// 後着の結果が先着の結果を上書きする競合を防ぐ。
type Refresher struct {
	store   EventStore
	fetcher feed.Fetcher
	metrics metrics.MetricsCollector
	logger  *slog.Logger
	group   singleflight.Group
}

// NewRefresher はRefresherの新しいインスタンスを生成する。
func NewRefresher(store EventStore, fetcher feed.Fetcher, collector metrics.MetricsCollector, logger *slog.Logger) *Refresher {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Refresher{
		store:   store,
		fetcher: fetcher,
		metrics: collector,
		logger:  logger,
	}
}

// Refresh はストアをFetchingにしてフィードを取得し、結果に応じて
// Success（スナップショット置換）またはFailed（スナップショット保持）へ遷移する。
//
// 呼び出し元のctxがキャンセルされても実行中のフェッチは中断しない。
// ctxは合流の待機にのみ使われる。
func (r *Refresher) Refresh(ctx context.Context) (RefreshResult, error) {
	ch := r.group.DoChan("refresh", func() (interface{}, error) {
		return r.run(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		result := res.Val.(RefreshResult)
		result.Shared = res.Shared
		if result.Status.Err != nil {
			return result, result.Status.Err
		}
		return result, nil
	case <-ctx.Done():
		return RefreshResult{Status: r.store.Status()}, ctx.Err()
	}
}

func (r *Refresher) run(ctx context.Context) (interface{}, error) {
	start := time.Now()
	r.store.SetStatus(model.Fetching())

	events, err := r.fetcher.FetchEvents(ctx)
	duration := time.Since(start)
	if err != nil {
		fetchErr := model.AsFetchError(err)
		r.store.SetStatus(model.Failed(fetchErr))
		r.metrics.RecordFetchFailure(string(fetchErr.Kind))
		r.logger.Error("イベントの更新に失敗しました。直前のスナップショットを保持します",
			slog.String("kind", string(fetchErr.Kind)),
			slog.String("error", fetchErr.Error()),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)
		// エラーはRefreshResult.Statusで返す。singleflightのerrは使わない。
		return RefreshResult{Status: model.Failed(fetchErr), Duration: duration}, nil
	}

	version := r.store.Commit(events, model.Succeeded())
	r.metrics.RecordFetchSuccess()
	r.metrics.RecordSnapshotSize(len(events))
	r.logger.Info("イベントを更新しました",
		slog.Int("events", len(events)),
		slog.Uint64("version", version),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return RefreshResult{Status: model.Succeeded(), EventCount: len(events), Duration: duration}, nil
}
