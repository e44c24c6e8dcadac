package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/zazij/internal/model"
	"github.com/hitoshi/zazij/internal/repository"
	"github.com/hitoshi/zazij/internal/store"
)

// --- モック定義 ---

// mockEventSource はEventSourceのモック実装。
type mockEventSource struct {
	mu      sync.Mutex
	events  []model.Event
	status  model.FetchStatus
	version uint64
}

func (m *mockEventSource) Snapshot() []model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *mockEventSource) SnapshotWithVersion() ([]model.Event, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Event, len(m.events))
	copy(out, m.events)
	return out, m.version
}

func (m *mockEventSource) Status() model.FetchStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *mockEventSource) Version() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// mockRefresher はRefreshRunnerのモック実装。
type mockRefresher struct {
	refreshFn func(ctx context.Context) (store.RefreshResult, error)
	calls     int
}

func (m *mockRefresher) Refresh(ctx context.Context) (store.RefreshResult, error) {
	m.calls++
	if m.refreshFn != nil {
		return m.refreshFn(ctx)
	}
	return store.RefreshResult{Status: model.Succeeded()}, nil
}

// failingFavoriteRepo はすべての操作でエラーを返すFavoriteRepository。
type failingFavoriteRepo struct{}

var errFavoriteStorage = errors.New("connection refused")

func (failingFavoriteRepo) List(ctx context.Context) ([]model.FavoriteEvent, error) {
	return nil, errFavoriteStorage
}
func (failingFavoriteRepo) ListIDs(ctx context.Context) ([]int64, error) {
	return nil, errFavoriteStorage
}
func (failingFavoriteRepo) Add(ctx context.Context, eventID int64) error { return errFavoriteStorage }
func (failingFavoriteRepo) Remove(ctx context.Context, eventID int64) error {
	return errFavoriteStorage
}
func (failingFavoriteRepo) Contains(ctx context.Context, eventID int64) (bool, error) {
	return false, errFavoriteStorage
}

var _ repository.FavoriteRepository = failingFavoriteRepo{}

// --- テストデータ ---

var prague = mustLoadLocation("Europe/Prague")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// testNow は 2026-01-15 12:00（プラハ時間）。
var testNow = time.Date(2026, 1, 15, 12, 0, 0, 0, prague)

func fixedNow() time.Time { return testNow }

func strPtr(s string) *string { return &s }

func newEvent(id int64, name, categories string, start, end time.Time) model.Event {
	return model.Event{
		ID:            id,
		Name:          name,
		DetailURL:     "https://www.gotobrno.cz/akce/" + name,
		RawCategories: categories,
		Latitude:      49.1951,
		Longitude:     16.6068,
		StartAtMillis: start.UnixMilli(),
		EndAtMillis:   end.UnixMilli(),
	}
}

func day(d, hour int) time.Time {
	return time.Date(2026, 1, d, hour, 0, 0, 0, prague)
}

// testEvents は一覧系テストの共通データ。
//
//	1: 終了済み
//	2: 本日開催中（Hudba）
//	3: 1/20 開催（Divadlo, エンティティ入り）
//	4: 1/25 開催（Hudba）
//	5: 1/18 開催（カテゴリなし）
func testEvents() []model.Event {
	e3 := newEvent(3, "Hamlet &amp; spol.", "Divadlo", day(20, 19), day(20, 22))
	e3.Description = strPtr("<p>Klasika &quot;Hamlet&quot;</p><script>alert(1)</script>")
	e3.TicketInfo = strPtr("od 200&nbsp;Kč")
	e3.ImageURL = strPtr("https://www.gotobrno.cz/img/hamlet.jpg")
	return []model.Event{
		newEvent(1, "Minulost", "Výstava", day(10, 10), day(12, 18)),
		newEvent(2, "Jazz v parku", "Hudba, Festivaly", day(15, 9), day(15, 21)),
		e3,
		newEvent(4, "Rock night", "Hudba", day(25, 20), day(25, 23)),
		newEvent(5, "Bez kategorie", "", day(18, 10), day(18, 12)),
	}
}

func newTestSource() *mockEventSource {
	return &mockEventSource{events: testEvents(), status: model.Succeeded(), version: 3}
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

func decodeEventList(t *testing.T, w *httptest.ResponseRecorder) eventListResponse {
	t.Helper()
	var result eventListResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode event list: %v", err)
	}
	return result
}

func eventIDs(events []eventResponse) []int64 {
	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
