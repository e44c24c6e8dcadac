package repository

import (
	"context"
	"sync"
	"time"

	"github.com/hitoshi/zazij/internal/model"
)

// FavoriteRepository はお気に入りイベントIDの永続化インターフェース。
// イベント本体は保存せず、IDのみを扱う。
type FavoriteRepository interface {
	// List はお気に入りを登録順に返す。
	List(ctx context.Context) ([]model.FavoriteEvent, error)
	// ListIDs はお気に入りのイベントIDを登録順に返す。
	ListIDs(ctx context.Context) ([]int64, error)
	// Add はイベントIDを登録する。登録済みの場合は何もしない。
	Add(ctx context.Context, eventID int64) error
	// Remove はイベントIDを削除する。未登録の場合は何もしない。
	Remove(ctx context.Context, eventID int64) error
	// Contains はイベントIDが登録済みかを返す。
	Contains(ctx context.Context, eventID int64) (bool, error)
}

// MemoryFavoriteRepo はFavoriteRepositoryのインメモリ実装。
// DATABASE_URL未設定時とテストで使用する。
type MemoryFavoriteRepo struct {
	mu    sync.RWMutex
	order []int64
	added map[int64]time.Time
	now   func() time.Time
}

// NewMemoryFavoriteRepo はMemoryFavoriteRepoを生成する。
func NewMemoryFavoriteRepo() *MemoryFavoriteRepo {
	return &MemoryFavoriteRepo{
		added: make(map[int64]time.Time),
		now:   time.Now,
	}
}

// List はお気に入りを登録順に返す。
func (r *MemoryFavoriteRepo) List(ctx context.Context) ([]model.FavoriteEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.FavoriteEvent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, model.FavoriteEvent{EventID: id, CreatedAt: r.added[id]})
	}
	return out, nil
}

// ListIDs はお気に入りのイベントIDを登録順に返す。
func (r *MemoryFavoriteRepo) ListIDs(ctx context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]int64, len(r.order))
	copy(out, r.order)
	return out, nil
}

// Add はイベントIDを登録する。
func (r *MemoryFavoriteRepo) Add(ctx context.Context, eventID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.added[eventID]; ok {
		return nil
	}
	r.added[eventID] = r.now()
	r.order = append(r.order, eventID)
	return nil
}

// Remove はイベントIDを削除する。
func (r *MemoryFavoriteRepo) Remove(ctx context.Context, eventID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.added[eventID]; !ok {
		return nil
	}
	delete(r.added, eventID)
	for i, id := range r.order {
		if id == eventID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Contains はイベントIDが登録済みかを返す。
func (r *MemoryFavoriteRepo) Contains(ctx context.Context, eventID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.added[eventID]
	return ok, nil
}
