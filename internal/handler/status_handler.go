package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/zazij/internal/middleware"
	"github.com/hitoshi/zazij/internal/model"
	"github.com/hitoshi/zazij/internal/store"
)

// RefreshRunner はフィードの手動リフレッシュを実行するインターフェース。
type RefreshRunner interface {
	Refresh(ctx context.Context) (store.RefreshResult, error)
}

// StatusHandler はフェッチ状態と手動リフレッシュのHTTPハンドラー。
type StatusHandler struct {
	events    EventSource
	refresher RefreshRunner
}

// NewStatusHandler はStatusHandlerを生成する。
func NewStatusHandler(events EventSource, refresher RefreshRunner) *StatusHandler {
	return &StatusHandler{events: events, refresher: refresher}
}

// statusResponse はフェッチ状態のレスポンス。
type statusResponse struct {
	State     model.FetchState     `json:"state"`
	ErrorKind model.FetchErrorKind `json:"error_kind,omitempty"`
	Events    int                  `json:"events"`
	Version   uint64               `json:"version"`
}

// refreshResponse は手動リフレッシュのレスポンス。
type refreshResponse struct {
	statusResponse
	Fetched    int                           `json:"fetched"`
	DurationMS int64                         `json:"duration_ms"`
	Shared     bool                          `json:"shared"`
	Error      *middleware.ErrorResponseBody `json:"error,omitempty"`
}

func (h *StatusHandler) currentStatus() statusResponse {
	status := h.events.Status()
	snapshot, version := h.events.SnapshotWithVersion()
	resp := statusResponse{
		State:   status.State,
		Events:  len(snapshot),
		Version: version,
	}
	if status.Err != nil {
		resp.ErrorKind = status.Err.Kind
	}
	return resp
}

// Health はヘルスチェック用に200 OKを返す。
// GET /health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Status は現在のフェッチ状態とスナップショットの件数を返す。
// GET /api/status
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, h.currentStatus())
}

// Refresh はフィードを再取得する。実行中のリフレッシュがあれば合流する。
// 失敗時は502を返すが、直前のスナップショットは保持される。
// POST /api/refresh
func (h *StatusHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.refresher.Refresh(r.Context())
	if err != nil && r.Context().Err() != nil {
		// クライアントが切断した。フェッチ自体は継続している
		return
	}

	resp := refreshResponse{
		statusResponse: h.currentStatus(),
		Fetched:        result.EventCount,
		DurationMS:     result.Duration.Milliseconds(),
		Shared:         result.Shared,
	}

	if err != nil {
		apiErr := model.NewRefreshFailedError(model.AsFetchError(err))
		resp.Error = &middleware.ErrorResponseBody{
			Code:     apiErr.Code,
			Message:  apiErr.Message,
			Category: apiErr.Category,
			Action:   apiErr.Action,
		}
		middleware.WriteJSON(w, http.StatusBadGateway, resp)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}
