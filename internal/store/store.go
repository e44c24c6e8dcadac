// Package store はイベントのプロセス内キャッシュとフェッチ状態を保持する。
//
// スナップショットは成功したフェッチの結果で丸ごと置き換えられる。
// 失敗時は直前のスナップショットを保持したまま状態のみFailedになる。
package store

import (
	"sync"

	"github.com/hitoshi/zazij/internal/model"
)

// EventStore はイベントスナップショットとフェッチ状態のインターフェース。
type EventStore interface {
	// Snapshot は現在のイベント一覧のコピーを返す（フィードの順序のまま）。
	Snapshot() []model.Event
	// Replace はスナップショットを丸ごと置き換える。
	Replace(events []model.Event)
	Status() model.FetchStatus
	SetStatus(status model.FetchStatus)
	// Version はReplaceのたびに増加する世代番号。ビューキャッシュのキーに使う。
	Version() uint64
	// SnapshotWithVersion はスナップショットとその世代番号を同時に返す。
	SnapshotWithVersion() ([]model.Event, uint64)
	// Commit はスナップショットの置き換えと状態の更新を1回のロックで行い、新しい世代番号を返す。
	Commit(events []model.Event, status model.FetchStatus) uint64
}

// MemoryStore はEventStoreのインメモリ実装。
// 書き込みはRefresherからのみ行い、読み取りは任意のゴルーチンから行える。
type MemoryStore struct {
	mu      sync.RWMutex
	events  []model.Event
	status  model.FetchStatus
	version uint64
}

// NewMemoryStore は空のストアをNotStarted状態で生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{status: model.NotStarted()}
}

// NewSeededStore は同梱スナップショット等で初期化したストアを生成する。
// 状態はNotStartedのまま。
func NewSeededStore(events []model.Event) *MemoryStore {
	s := NewMemoryStore()
	s.events = cloneEvents(events)
	return s
}

// Snapshot は現在のイベント一覧のコピーを返す。
func (s *MemoryStore) Snapshot() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEvents(s.events)
}

// Replace はスナップショットを置き換え、世代番号を進める。
func (s *MemoryStore) Replace(events []model.Event) {
	copied := cloneEvents(events)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = copied
	s.version++
}

// SnapshotWithVersion はスナップショットのコピーと世代番号を返す。
// 両者は同じロックの中で読むため、常に対応が取れている。
func (s *MemoryStore) SnapshotWithVersion() ([]model.Event, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEvents(s.events), s.version
}

// Commit はスナップショットの置き換えとフェッチ状態の更新をまとめて行う。
// 読み取り側が新しいスナップショットと古い状態の組み合わせを見ることはない。
func (s *MemoryStore) Commit(events []model.Event, status model.FetchStatus) uint64 {
	copied := cloneEvents(events)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = copied
	s.status = status
	s.version++
	return s.version
}

// Status は現在のフェッチ状態を返す。
func (s *MemoryStore) Status() model.FetchStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetStatus はフェッチ状態を更新する。
func (s *MemoryStore) SetStatus(status model.FetchStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Version は現在の世代番号を返す。
func (s *MemoryStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Len はスナップショットの件数を返す。
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func cloneEvents(events []model.Event) []model.Event {
	if events == nil {
		return []model.Event{}
	}
	out := make([]model.Event, len(events))
	copy(out, events)
	return out
}
