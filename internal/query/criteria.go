package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/zazij/internal/category"
	"github.com/hitoshi/zazij/internal/model"
)

// DateWindow は日付での絞り込み期間。
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// Criteria は一覧画面の絞り込み条件。
// Windowがnilなら期間で絞り込まない。Categoriesがnilなら全カテゴリを選択したものとみなす。
type Criteria struct {
	Window     *DateWindow
	Categories category.Set
	Query      string
}

// Apply は一覧の絞り込みを次の順で適用する。
// 期間があればスナップショット全体を期間で、なければ今後のイベントを選び（いずれも開始順）、
// カテゴリ、名前検索（空なら省略）の順で絞り込む。
// 期間指定時は終了済みのイベントも対象になる。
func (c Criteria) Apply(events []model.Event, now time.Time) []model.Event {
	var out []model.Event
	if c.Window != nil {
		out = InDateWindow(events, c.Window.Start, c.Window.End)
	} else {
		out = UpcomingSorted(events, now)
	}

	selected := c.Categories
	if selected == nil {
		selected = category.AllSet()
	}
	out = ByCategories(out, selected)

	if c.Query != "" {
		out = ByNameSearch(out, c.Query)
	}
	return out
}

// CacheKey はビューキャッシュ用に条件を文字列化する。
// 検索語は引用符付きで埋め込み、期間はミリ秒で表すため、異なる条件が同じキーになることはない。
func (c Criteria) CacheKey() string {
	var b strings.Builder
	b.WriteString("w=")
	if c.Window == nil {
		b.WriteString("-")
	} else {
		b.WriteString(strconv.FormatInt(c.Window.Start.UnixMilli(), 10))
		b.WriteString("/")
		b.WriteString(strconv.FormatInt(c.Window.End.UnixMilli(), 10))
	}

	b.WriteString("|c=")
	if c.Categories == nil {
		b.WriteString("*")
	} else {
		names := make([]string, 0, len(category.All()))
		for _, cat := range category.All() {
			if c.Categories.Contains(cat) {
				names = append(names, string(cat))
			}
		}
		b.WriteString(strconv.Quote(strings.Join(names, ",")))
	}

	b.WriteString("|q=")
	b.WriteString(strconv.Quote(c.Query))
	return b.String()
}
