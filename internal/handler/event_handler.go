package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/zazij/internal/cache"
	"github.com/hitoshi/zazij/internal/category"
	"github.com/hitoshi/zazij/internal/middleware"
	"github.com/hitoshi/zazij/internal/model"
	"github.com/hitoshi/zazij/internal/query"
	"github.com/hitoshi/zazij/internal/sanitize"
)

// EventSource はハンドラーが参照するイベントストアの読み取り側インターフェース。
type EventSource interface {
	Snapshot() []model.Event
	// SnapshotWithVersion はスナップショットと世代番号を同じ時点で読み出す。
	SnapshotWithVersion() ([]model.Event, uint64)
	Status() model.FetchStatus
	Version() uint64
}

// FavoriteIDLister はお気に入りIDの取得インターフェース。
type FavoriteIDLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// EventHandler はイベント一覧・詳細のHTTPハンドラー。
type EventHandler struct {
	events    EventSource
	favorites FavoriteIDLister
	sanitizer sanitize.ContentSanitizerService
	views     *cache.ViewCache
	loc       *time.Location
	now       func() time.Time
}

// NewEventHandler はEventHandlerを生成する。viewsがnilの場合はキャッシュしない。
func NewEventHandler(events EventSource, favorites FavoriteIDLister, sanitizer sanitize.ContentSanitizerService, views *cache.ViewCache, loc *time.Location, now func() time.Time) *EventHandler {
	if views == nil {
		views = cache.NewViewCache(0)
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &EventHandler{
		events:    events,
		favorites: favorites,
		sanitizer: sanitizer,
		views:     views,
		loc:       loc,
		now:       now,
	}
}

// ListEvents は絞り込み条件を適用したイベント一覧を返す。
// GET /api/events?from=&to=&categories=&q=
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	criteria, apiErr := parseCriteria(r.URL.Query(), h.loc)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	now := h.now()
	snapshot, version := h.events.SnapshotWithVersion()
	// 「今後のイベント」の判定はnowに依存するため、分単位でキーを分ける
	key := criteria.CacheKey() + "|m=" + strconv.FormatInt(now.Truncate(time.Minute).Unix(), 10)
	events := h.views.GetOrCompute(version, key, func() []model.Event {
		return criteria.Apply(snapshot, now)
	})

	h.writeEventList(w, r, events, version)
}

// ListToday は現在開催中のイベントを返す。
// GET /api/events/today
func (h *EventHandler) ListToday(w http.ResponseWriter, r *http.Request) {
	snapshot, version := h.events.SnapshotWithVersion()
	events := query.HappeningToday(snapshot, h.now())
	h.writeEventList(w, r, events, version)
}

// GetEvent はイベント詳細を返す。
// GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseEventID(r)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	event, found := query.FindByID(h.events.Snapshot(), id)
	if !found {
		handleServiceError(w, model.NewEventNotFoundError(id))
		return
	}

	favorites, err := h.favoriteSet(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toEventDetailResponse(event, h.loc, favorites[id], h.sanitizer))
}

// ListCategories はカテゴリとアイコンの一覧を宣言順で返す。
// GET /api/categories
func (h *EventHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	all := category.All()
	out := make([]categoryResponse, len(all))
	for i, c := range all {
		out[i] = categoryResponse{Label: c.String(), Icon: c.Icon()}
	}
	middleware.WriteJSON(w, http.StatusOK, out)
}

func (h *EventHandler) writeEventList(w http.ResponseWriter, r *http.Request, events []model.Event, version uint64) {
	favorites, err := h.favoriteSet(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, eventListResponse{
		Events:  toEventResponses(events, h.loc, favorites),
		Count:   len(events),
		Version: version,
	})
}

func (h *EventHandler) favoriteSet(ctx context.Context) (map[int64]bool, error) {
	if h.favorites == nil {
		return nil, nil
	}
	ids, err := h.favorites.ListIDs(ctx)
	if err != nil {
		slog.Error("お気に入りの取得に失敗しました", slog.String("error", err.Error()))
		return nil, err
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
