// Package feed はブルノ市のイベントフィード（ArcGIS FeatureServerのGeoJSON）を
// 取得し、ドメインモデルに変換する。
//
// クライアントは1回のGETのみを行い、リトライ・ページング・差分取得はしない。
// 取得結果をストアへ反映するのは呼び出し側の責務。
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/zazij/internal/metrics"
	"github.com/hitoshi/zazij/internal/model"
)

// DefaultURL はブルノ市オープンデータのイベントフィード。
const DefaultURL = "https://services6.arcgis.com/fUWVlHWZNxUvTUh8/arcgis/rest/services/Events/FeatureServer/0/query?outFields=*&where=1%3D1&f=geojson"

const userAgent = "ZazijBrno/1.0 (+https://github.com/hitoshi/zazij)"

// Fetcher はイベント一覧を取得するインターフェース。
// ストアのリフレッシュやCLIから利用する。
type Fetcher interface {
	FetchEvents(ctx context.Context) ([]model.Event, error)
}

// Client はフィードエンドポイントへのHTTPクライアント。
type Client struct {
	httpClient  *http.Client
	feedURL     string
	maxBodySize int64
	metrics     metrics.MetricsCollector
	logger      *slog.Logger
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientにはSSRF防止付きクライアント（security.FeedGuard.Client）を渡す。
// タイムアウトはhttpClientのTimeoutに従う。
func NewClient(
	httpClient *http.Client,
	feedURL string,
	maxBodySize int64,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Client {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Client{
		httpClient:  httpClient,
		feedURL:     feedURL,
		maxBodySize: maxBodySize,
		metrics:     collector,
		logger:      logger,
	}
}

// FetchEvents はフィードを取得してデコードする。
// 返却されるエラーは常に*model.FetchError。
func (c *Client) FetchEvents(ctx context.Context) ([]model.Event, error) {
	start := time.Now()
	defer func() { c.metrics.RecordFetchLatency(time.Since(start)) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, model.NewTransportError(fmt.Errorf("リクエスト作成に失敗: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("フィードへのHTTPリクエストに失敗しました",
			slog.String("feed_url", c.feedURL),
			slog.String("error", err.Error()),
		)
		return nil, model.NewTransportError(err)
	}
	defer resp.Body.Close()

	c.metrics.RecordHTTPStatus(resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("フィードが200以外のステータスを返しました",
			slog.String("feed_url", c.feedURL),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, model.NewBadResponseError(resp.StatusCode)
	}

	// 上限+1バイトまで読み、超過を検出する
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, model.NewTransportError(fmt.Errorf("レスポンスの読み込みに失敗: %w", err))
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, model.NewDecodeError(fmt.Errorf("レスポンスが上限%dバイトを超えています", c.maxBodySize))
	}

	events, err := Decode(body)
	if err != nil {
		c.logger.Error("フィードのデコードに失敗しました",
			slog.String("feed_url", c.feedURL),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	duration := time.Since(start)
	c.logger.Info("フィードを取得しました",
		slog.String("feed_url", c.feedURL),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("events", len(events)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return events, nil
}
