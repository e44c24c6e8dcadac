package cache

import (
	"testing"
	"time"

	"github.com/hitoshi/zazij/internal/model"
)

func TestViewCache_HitAndMiss(t *testing.T) {
	v := NewViewCache(time.Minute)
	calls := 0
	compute := func() []model.Event {
		calls++
		return []model.Event{{ID: int64(calls)}}
	}

	first := v.GetOrCompute(1, "q=jazz", compute)
	second := v.GetOrCompute(1, "q=jazz", compute)
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
	if first[0].ID != second[0].ID {
		t.Errorf("cached result differs: %v vs %v", first, second)
	}

	// 世代番号が変わると再計算される
	third := v.GetOrCompute(2, "q=jazz", compute)
	if calls != 2 || third[0].ID != 2 {
		t.Errorf("new version should recompute: calls=%d result=%v", calls, third)
	}

	// 別のキー
	v.GetOrCompute(2, "q=opera", compute)
	if calls != 3 {
		t.Errorf("different key should recompute: calls=%d", calls)
	}
	if v.ItemCount() != 3 {
		t.Errorf("ItemCount() = %d, want 3", v.ItemCount())
	}

	v.Flush()
	if v.ItemCount() != 0 {
		t.Errorf("ItemCount() after Flush = %d", v.ItemCount())
	}
}

func TestViewCache_Expiry(t *testing.T) {
	v := NewViewCache(20 * time.Millisecond)
	calls := 0
	compute := func() []model.Event {
		calls++
		return nil
	}

	v.GetOrCompute(1, "k", compute)
	time.Sleep(40 * time.Millisecond)
	v.GetOrCompute(1, "k", compute)

	if calls != 2 {
		t.Errorf("compute called %d times after expiry, want 2", calls)
	}
}

func TestViewCache_Disabled(t *testing.T) {
	v := NewViewCache(0)
	calls := 0
	compute := func() []model.Event {
		calls++
		return nil
	}

	v.GetOrCompute(1, "k", compute)
	v.GetOrCompute(1, "k", compute)

	if calls != 2 {
		t.Errorf("disabled cache should always compute: calls=%d", calls)
	}
	if v.ItemCount() != 0 {
		t.Error("disabled cache should hold nothing")
	}
	v.Flush()
}
