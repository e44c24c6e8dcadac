// Package model はドメインモデルを定義する。
package model

import (
	"time"

	"github.com/hitoshi/zazij/internal/category"
)

// Event はフィードから取得し正規化した1件のイベントを表す。
// 生成後は変更しない。
// 日時はフィードのネイティブ単位であるミリ秒で保持し、
// 秒単位の値は都度導出する（フィールド名の接尾辞で単位を明示する）。
type Event struct {
	ID              int64
	Name            string  // HTMLエンティティを含み得る生の値
	Description     *string // HTMLエンティティを含み得る生の値
	TicketInfo      *string
	TicketDetailURL *string
	ImageURL        *string
	DetailURL       string
	RawCategories   string // カンマ区切り
	Latitude        float64
	Longitude       float64
	StartAtMillis   int64
	EndAtMillis     int64
}

// StartAtSeconds は開始日時をUNIX秒で返す（StartAtMillis / 1000）。
func (e Event) StartAtSeconds() int64 {
	return e.StartAtMillis / 1000
}

// EndAtSeconds は終了日時をUNIX秒で返す（EndAtMillis / 1000）。
func (e Event) EndAtSeconds() int64 {
	return e.EndAtMillis / 1000
}

// StartAt は表示用の開始日時を返す。
func (e Event) StartAt() time.Time {
	return time.UnixMilli(e.StartAtMillis)
}

// EndAt は表示用の終了日時を返す。
func (e Event) EndAt() time.Time {
	return time.UnixMilli(e.EndAtMillis)
}

// IsSingleDay は開始と終了が同一時刻のイベントかを返す。
func (e Event) IsSingleDay() bool {
	return e.StartAtMillis == e.EndAtMillis
}

// PrimaryCategory はRawCategoriesから主カテゴリを判定する。
func (e Event) PrimaryCategory() (category.Category, bool) {
	return category.Classify(e.RawCategories)
}

// CategoryIcon は主カテゴリのアイコンタグを返す。
// 主カテゴリがない場合はcategory.UnknownIconを返す。
func (e Event) CategoryIcon() string {
	return category.IconFor(e.PrimaryCategory())
}
