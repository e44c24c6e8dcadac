package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/zazij/internal/calendar"
	"github.com/hitoshi/zazij/internal/middleware"
	"github.com/hitoshi/zazij/internal/model"
	"github.com/hitoshi/zazij/internal/query"
	"github.com/hitoshi/zazij/internal/repository"
)

// favoritesCalendarName はICSエクスポートのカレンダー名。
const favoritesCalendarName = "Zažij Brno: oblíbené akce"

// FavoriteHandler はお気に入りのHTTPハンドラー。
type FavoriteHandler struct {
	repo     repository.FavoriteRepository
	events   EventSource
	loc      *time.Location
	reminder time.Duration
	now      func() time.Time
}

// NewFavoriteHandler はFavoriteHandlerを生成する。
// reminderが正の場合、ICSの各イベントに開始前のアラームを付ける。
func NewFavoriteHandler(repo repository.FavoriteRepository, events EventSource, loc *time.Location, reminder time.Duration, now func() time.Time) *FavoriteHandler {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &FavoriteHandler{
		repo:     repo,
		events:   events,
		loc:      loc,
		reminder: reminder,
		now:      now,
	}
}

// ListFavorites はお気に入りのイベントを登録順で返す。
// 現在のスナップショットにないイベントは含めない。
// GET /api/favorites
func (h *FavoriteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.repo.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	ids := make([]int64, len(favorites))
	addedAt := make(map[int64]time.Time, len(favorites))
	for i, f := range favorites {
		ids[i] = f.EventID
		addedAt[f.EventID] = f.CreatedAt
	}

	snapshot, version := h.events.SnapshotWithVersion()
	events := query.SelectByIDs(snapshot, ids)
	out := make([]favoriteEventResponse, len(events))
	for i, e := range events {
		out[i] = favoriteEventResponse{
			eventResponse: toEventResponse(e, h.loc, true),
			FavoritedAt:   addedAt[e.ID].In(h.loc),
		}
	}
	middleware.WriteJSON(w, http.StatusOK, favoriteListResponse{
		Events:  out,
		Count:   len(out),
		Version: version,
	})
}

// ExportFavorites はお気に入りのイベントをiCalendar形式で返す。
// GET /api/favorites.ics
func (h *FavoriteHandler) ExportFavorites(w http.ResponseWriter, r *http.Request) {
	events, err := h.resolveFavorites(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	body := calendar.Export(events, calendar.Options{
		CalendarName:   favoritesCalendarName,
		Now:            h.now(),
		ReminderBefore: h.reminder,
	})

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="zazij-favorites.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// GetFavorite はイベントのお気に入り状態を返す。
// GET /api/favorites/{id}
func (h *FavoriteHandler) GetFavorite(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseEventID(r)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	ok, err := h.repo.Contains(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, favoriteStateResponse{EventID: id, IsFavorite: ok})
}

// AddFavorite はイベントをお気に入りに登録する。冪等。
// 現在のスナップショットにないイベントは登録できない。
// PUT /api/favorites/{id}
func (h *FavoriteHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseEventID(r)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	if _, found := query.FindByID(h.events.Snapshot(), id); !found {
		handleServiceError(w, model.NewEventNotFoundError(id))
		return
	}

	if err := h.repo.Add(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	slog.Info("お気に入りに登録しました", slog.Int64("event_id", id))
	middleware.WriteJSON(w, http.StatusOK, favoriteStateResponse{EventID: id, IsFavorite: true})
}

// RemoveFavorite はイベントをお気に入りから削除する。冪等。
// DELETE /api/favorites/{id}
func (h *FavoriteHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseEventID(r)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	if err := h.repo.Remove(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FavoriteHandler) resolveFavorites(r *http.Request) ([]model.Event, error) {
	ids, err := h.repo.ListIDs(r.Context())
	if err != nil {
		return nil, err
	}
	return query.SelectByIDs(h.events.Snapshot(), ids), nil
}
