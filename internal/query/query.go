// Package query はイベント一覧に対する純粋なフィルタ・ソート関数を提供する。
//
// いずれの関数も入力スライスを変更せず、新しいスライスを返す。
// ソートは安定ソートで、開始時刻が同じイベントは入力順を保つ。
package query

import (
	"slices"
	"strings"
	"time"

	"github.com/hitoshi/zazij/internal/category"
	"github.com/hitoshi/zazij/internal/model"
)

// UpcomingSorted は終了時刻がnowより後のイベントを開始時刻の昇順で返す。
func UpcomingSorted(events []model.Event, now time.Time) []model.Event {
	nowMillis := now.UnixMilli()
	out := filter(events, func(e model.Event) bool {
		return e.EndAtMillis > nowMillis
	})
	sortByStart(out)
	return out
}

// HappeningToday はnowが[開始, 終了]（両端含む）に入るイベントを開始時刻の昇順で返す。
// 比較は秒単位で行う。
func HappeningToday(events []model.Event, now time.Time) []model.Event {
	nowSeconds := now.Unix()
	out := filter(events, func(e model.Event) bool {
		return nowSeconds >= e.StartAtSeconds() && nowSeconds <= e.EndAtSeconds()
	})
	sortByStart(out)
	return out
}

// InDateWindow は期間[windowStart, windowEnd]と重なるイベントを開始時刻の昇順で返す。
//
// 判定は (start ∈ [ws, we]) OR (start <= ws AND end >= ws)。
// 期間の開始より前に始まり期間の途中で終わるイベントは2つ目の条件に含まれるが、
// 「end <= we」を独立した条件としては扱わない。
func InDateWindow(events []model.Event, windowStart, windowEnd time.Time) []model.Event {
	ws, we := windowStart.UnixMilli(), windowEnd.UnixMilli()
	out := filter(events, func(e model.Event) bool {
		startsInside := e.StartAtMillis >= ws && e.StartAtMillis <= we
		spansStart := e.StartAtMillis <= ws && e.EndAtMillis >= ws
		return startsInside || spansStart
	})
	sortByStart(out)
	return out
}

// ByCategories は主カテゴリがselectedに含まれるイベントを返す。
// 主カテゴリのないイベントは常に除外される。
func ByCategories(events []model.Event, selected category.Set) []model.Event {
	return filter(events, func(e model.Event) bool {
		c, ok := e.PrimaryCategory()
		return ok && selected.Contains(c)
	})
}

// ByNameSearch はnameに対する大文字小文字を区別しない部分一致で絞り込む。
// 空のqueryはすべてに一致する。
func ByNameSearch(events []model.Event, q string) []model.Event {
	needle := strings.ToLower(q)
	return filter(events, func(e model.Event) bool {
		return strings.Contains(strings.ToLower(e.Name), needle)
	})
}

// FindByID はIDが一致する最初のイベントを返す。
func FindByID(events []model.Event, id int64) (model.Event, bool) {
	for _, e := range events {
		if e.ID == id {
			return e, true
		}
	}
	return model.Event{}, false
}

// SelectByIDs はidsの順にイベントを解決して返す。
// スナップショットに存在しないIDは読み飛ばす。
func SelectByIDs(events []model.Event, ids []int64) []model.Event {
	byID := make(map[int64]model.Event, len(events))
	for _, e := range events {
		if _, dup := byID[e.ID]; !dup {
			byID[e.ID] = e
		}
	}
	out := make([]model.Event, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

func filter(events []model.Event, keep func(model.Event) bool) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func sortByStart(events []model.Event) {
	slices.SortStableFunc(events, func(a, b model.Event) int {
		switch {
		case a.StartAtMillis < b.StartAtMillis:
			return -1
		case a.StartAtMillis > b.StartAtMillis:
			return 1
		default:
			return 0
		}
	})
}
