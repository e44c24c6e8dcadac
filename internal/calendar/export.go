// Package calendar はお気に入りイベントのiCalendar（ICS）エクスポートを提供する。
package calendar

import (
	"fmt"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/hitoshi/zazij/internal/model"
	"github.com/hitoshi/zazij/internal/sanitize"
)

// ProductID はPRODIDに設定する識別子。
const ProductID = "-//Zazij Brno//Favorites//CS"

// Options はエクスポートの設定。
type Options struct {
	// CalendarName はX-WR-CALNAMEに設定するカレンダー名。
	CalendarName string
	// Now はDTSTAMPに使う時刻。ゼロ値なら現在時刻。
	Now time.Time
	// ReminderBefore が正の場合、開始前にDISPLAYアラームを付ける。
	ReminderBefore time.Duration
}

// EventUID はイベントIDから安定したUIDを生成する。
func EventUID(id int64) string {
	return "event-" + strconv.FormatInt(id, 10) + "@zazij-brno"
}

// Export はイベント一覧をICS文字列に変換する。並び順は入力のまま。
// SUMMARYとDESCRIPTIONはエンティティとタグを除去したプレーンテキストにする。
func Export(events []model.Event, opts Options) string {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	name := opts.CalendarName
	if name == "" {
		name = "Zažij Brno"
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName(name)

	for _, e := range events {
		summary := sanitize.PlainText(e.Name)

		ve := cal.AddEvent(EventUID(e.ID))
		ve.SetDtStampTime(now.UTC())
		ve.SetStartAt(e.StartAt().UTC())
		ve.SetEndAt(e.EndAt().UTC())
		ve.SetSummary(summary)
		ve.SetURL(e.DetailURL)
		ve.SetProperty(ical.ComponentPropertyGeo, fmt.Sprintf("%.6f;%.6f", e.Latitude, e.Longitude))

		if e.Description != nil {
			if desc := sanitize.PlainText(*e.Description); desc != "" {
				ve.SetDescription(desc)
			}
		}
		if c, ok := e.PrimaryCategory(); ok {
			ve.SetProperty(ical.ComponentPropertyCategories, c.String())
		}

		if opts.ReminderBefore > 0 {
			alarm := ve.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetTrigger(triggerBefore(opts.ReminderBefore))
			alarm.SetProperty(ical.ComponentPropertyDescription, summary)
		}
	}

	return cal.Serialize()
}

// triggerBefore は開始前のTRIGGER値（例: -PT1H30M）を返す。
func triggerBefore(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	hours, minutes := minutes/60, minutes%60
	switch {
	case hours > 0 && minutes > 0:
		return fmt.Sprintf("-PT%dH%dM", hours, minutes)
	case hours > 0:
		return fmt.Sprintf("-PT%dH", hours)
	default:
		return fmt.Sprintf("-PT%dM", minutes)
	}
}
