package handler

import (
	"strings"
	"time"

	"github.com/hitoshi/zazij/internal/model"
	"github.com/hitoshi/zazij/internal/sanitize"
)

// --- レスポンス型 ---

// eventResponse は一覧用のイベントサマリー。
type eventResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     *string   `json:"category"`
	CategoryIcon string    `json:"category_icon"`
	StartAt      time.Time `json:"start_at"`
	EndAt        time.Time `json:"end_at"`
	SingleDay    bool      `json:"single_day"`
	ImageURL     *string   `json:"image_url"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	IsFavorite   bool      `json:"is_favorite"`
}

// eventDetailResponse はイベント詳細のレスポンス。
type eventDetailResponse struct {
	eventResponse
	Description     *string  `json:"description"`      // プレーンテキスト
	DescriptionHTML string   `json:"description_html"` // サニタイズ済みHTML
	TicketInfo      *string  `json:"ticket_info"`
	TicketDetailURL *string  `json:"ticket_detail_url"`
	DetailURL       string   `json:"detail_url"`
	Categories      []string `json:"categories"`
}

// eventListResponse はイベント一覧のレスポンス。
type eventListResponse struct {
	Events  []eventResponse `json:"events"`
	Count   int             `json:"count"`
	Version uint64          `json:"version"`
}

// categoryResponse はカテゴリ一覧の1件。
type categoryResponse struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// favoriteStateResponse はお気に入り状態のレスポンス。
type favoriteStateResponse struct {
	EventID    int64 `json:"event_id"`
	IsFavorite bool  `json:"is_favorite"`
}

// favoriteEventResponse はお気に入り一覧の要素。登録日時を含む。
type favoriteEventResponse struct {
	eventResponse
	FavoritedAt time.Time `json:"favorited_at"`
}

type favoriteListResponse struct {
	Events  []favoriteEventResponse `json:"events"`
	Count   int                     `json:"count"`
	Version uint64                  `json:"version"`
}

// toEventResponse はイベントを一覧用レスポンスに変換する。
// 名前のHTMLエンティティはここで置換する。
func toEventResponse(e model.Event, loc *time.Location, favorite bool) eventResponse {
	resp := eventResponse{
		ID:           e.ID,
		Name:         sanitize.Clean(e.Name),
		CategoryIcon: e.CategoryIcon(),
		StartAt:      e.StartAt().In(loc),
		EndAt:        e.EndAt().In(loc),
		SingleDay:    e.IsSingleDay(),
		ImageURL:     e.ImageURL,
		Latitude:     e.Latitude,
		Longitude:    e.Longitude,
		IsFavorite:   favorite,
	}
	if c, ok := e.PrimaryCategory(); ok {
		label := c.String()
		resp.Category = &label
	}
	return resp
}

func toEventDetailResponse(e model.Event, loc *time.Location, favorite bool, sanitizer sanitize.ContentSanitizerService) eventDetailResponse {
	resp := eventDetailResponse{
		eventResponse:   toEventResponse(e, loc, favorite),
		TicketInfo:      sanitize.CleanPtr(e.TicketInfo),
		TicketDetailURL: e.TicketDetailURL,
		DetailURL:       e.DetailURL,
		Categories:      splitCategories(e.RawCategories),
	}
	if e.Description != nil {
		plain := sanitize.PlainText(*e.Description)
		resp.Description = &plain
		resp.DescriptionHTML = sanitizer.Sanitize(sanitize.Clean(*e.Description))
	}
	return resp
}

func toEventResponses(events []model.Event, loc *time.Location, favorites map[int64]bool) []eventResponse {
	out := make([]eventResponse, len(events))
	for i, e := range events {
		out[i] = toEventResponse(e, loc, favorites[e.ID])
	}
	return out
}

// splitCategories はカンマ区切りのカテゴリ文字列を空要素を除いて分割する。
func splitCategories(raw string) []string {
	out := []string{}
	for _, token := range strings.Split(raw, ",") {
		if label := strings.TrimSpace(token); label != "" {
			out = append(out, label)
		}
	}
	return out
}
