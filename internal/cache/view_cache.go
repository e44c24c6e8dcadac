// Package cache は絞り込み結果のインメモリキャッシュを提供する。
package cache

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hitoshi/zazij/internal/model"
)

// ViewCache は一覧の絞り込み結果をストアの世代番号ごとにキャッシュする。
// スナップショットが置き換わると世代番号が変わるため、古い結果は参照されずTTLで消える。
type ViewCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewViewCache はViewCacheを生成する。ttlが0以下の場合はキャッシュしない。
func NewViewCache(ttl time.Duration) *ViewCache {
	if ttl <= 0 {
		return &ViewCache{}
	}
	return &ViewCache{
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// GetOrCompute はキャッシュ済みの結果を返し、なければcomputeの結果を保存して返す。
// 返却されるスライスは呼び出し側で変更しないこと。
func (v *ViewCache) GetOrCompute(version uint64, key string, compute func() []model.Event) []model.Event {
	if v.cache == nil {
		return compute()
	}

	fullKey := strconv.FormatUint(version, 10) + ":" + key
	if cached, found := v.cache.Get(fullKey); found {
		if events, ok := cached.([]model.Event); ok {
			return events
		}
	}

	events := compute()
	v.cache.Set(fullKey, events, gocache.DefaultExpiration)
	return events
}

// ItemCount は保持している件数を返す（期限切れで未削除のものを含む）。
func (v *ViewCache) ItemCount() int {
	if v.cache == nil {
		return 0
	}
	return v.cache.ItemCount()
}

// Flush はすべてのエントリを削除する。
func (v *ViewCache) Flush() {
	if v.cache != nil {
		v.cache.Flush()
	}
}
