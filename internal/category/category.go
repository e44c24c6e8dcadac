// Package category はイベントカテゴリの分類を提供する。
//
// フィードのcategoriesはカンマ区切りの文字列で複数カテゴリを持ち得るが、
// アイコン表示とフィルタリングには先頭で一致した1カテゴリのみを使用する。
package category

import "strings"

// Category はビルド時に固定されたイベントカテゴリ。
// 値はフィード上のラベル文字列そのもの。
type Category string

const (
	Music      Category = "Hudba"
	Education  Category = "Veletrhy / vzdělávací"
	Theater    Category = "Divadlo"
	Family     Category = "Pro rodiny"
	GuidedTour Category = "Komentované prohlídky"
	Exhibition Category = "Výstava"
	Festival   Category = "Festivaly"
	Featured   Category = "TOP akce"
	Nightlife  Category = "Noční život"
	Food       Category = "Gastronomické"
	Literature Category = "Literatura"
	Dance      Category = "Tanec"
	Sports     Category = "Sport"
	Folklore   Category = "Folklor"
)

// UnknownIcon はカテゴリが判定できない場合のアイコンタグ。
const UnknownIcon = "questionmark"

// all は宣言順のカテゴリ一覧。
var all = []Category{
	Music,
	Education,
	Theater,
	Family,
	GuidedTour,
	Exhibition,
	Festival,
	Featured,
	Nightlife,
	Food,
	Literature,
	Dance,
	Sports,
	Folklore,
}

var icons = map[Category]string{
	Music:      "music.note",
	Education:  "book.closed",
	Theater:    "theatermasks",
	Family:     "figure.and.child.holdinghands",
	GuidedTour: "person.2",
	Exhibition: "photo.on.rectangle",
	Festival:   "party.popper",
	Featured:   "star",
	Nightlife:  "moon.stars",
	Food:       "fork.knife",
	Literature: "text.book.closed",
	Dance:      "figure.dance",
	Sports:     "sportscourt",
	Folklore:   "guitars",
}

// All は全カテゴリを宣言順で返す。戻り値は呼び出し側で変更してよい。
func All() []Category {
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

// Parse はラベルが既知カテゴリと完全一致する場合にそのカテゴリを返す。
func Parse(label string) (Category, bool) {
	c := Category(label)
	_, ok := icons[c]
	return c, ok
}

// Classify はカンマ区切りのカテゴリ文字列から主カテゴリを判定する。
// 各トークンの前後空白を除去し、元の順序で最初に既知ラベルと完全一致したものを返す。
// 一致するトークンがない場合はfalseを返す。2件目以降の一致は捨てる。
func Classify(raw string) (Category, bool) {
	for _, token := range strings.Split(raw, ",") {
		if c, ok := Parse(strings.TrimSpace(token)); ok {
			return c, true
		}
	}
	return "", false
}

// IconFor はカテゴリのアイコンタグを返す。okがfalseの場合はUnknownIconを返す。
func IconFor(c Category, ok bool) string {
	if !ok {
		return UnknownIcon
	}
	if icon, found := icons[c]; found {
		return icon
	}
	return UnknownIcon
}

// Icon はカテゴリのアイコンタグを返す。
func (c Category) Icon() string {
	_, ok := icons[c]
	return IconFor(c, ok)
}

// String はフィード上のラベルを返す。
func (c Category) String() string {
	return string(c)
}

// Set はカテゴリの集合。
type Set map[Category]struct{}

// NewSet は指定カテゴリからなる集合を生成する。
func NewSet(cs ...Category) Set {
	s := make(Set, len(cs))
	for _, c := range cs {
		s[c] = struct{}{}
	}
	return s
}

// AllSet は全カテゴリからなる集合を返す。
func AllSet() Set {
	return NewSet(all...)
}

// Contains はカテゴリが集合に含まれるかを返す。
func (s Set) Contains(c Category) bool {
	_, ok := s[c]
	return ok
}
