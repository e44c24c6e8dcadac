package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/zazij/internal/category"
	"github.com/hitoshi/zazij/internal/model"
	"github.com/hitoshi/zazij/internal/query"
)

const dateOnlyLayout = "2006-01-02"

// parseEventID はURLパラメータ {id} をイベントIDとして解釈する。
func parseEventID(r *http.Request) (int64, *model.APIError) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, model.NewInvalidEventIDError(raw)
	}
	return id, nil
}

// parseCriteria はクエリ文字列から一覧の絞り込み条件を組み立てる。
//
//	from, to    RFC3339 または YYYY-MM-DD（両方必須）。日付のみのtoはその日の終わりまで。
//	categories  カンマ区切りのラベル。未指定は全カテゴリ、空文字列はカテゴリなし。
//	q           名前の部分一致（大文字小文字を区別しない）。
func parseCriteria(values url.Values, loc *time.Location) (query.Criteria, *model.APIError) {
	var c query.Criteria

	window, apiErr := parseDateWindow(values.Get("from"), values.Get("to"), loc)
	if apiErr != nil {
		return c, apiErr
	}
	c.Window = window

	if raw, present := values["categories"]; present {
		set, apiErr := parseCategorySet(raw)
		if apiErr != nil {
			return c, apiErr
		}
		c.Categories = set
	}

	c.Query = strings.TrimSpace(values.Get("q"))
	return c, nil
}

func parseDateWindow(fromRaw, toRaw string, loc *time.Location) (*query.DateWindow, *model.APIError) {
	if fromRaw == "" && toRaw == "" {
		return nil, nil
	}
	if fromRaw == "" || toRaw == "" {
		return nil, model.NewInvalidDateWindowError("from と to は両方指定してください")
	}

	start, err := parseBound(fromRaw, loc, false)
	if err != nil {
		return nil, model.NewInvalidDateWindowError("from: " + fromRaw)
	}
	end, err := parseBound(toRaw, loc, true)
	if err != nil {
		return nil, model.NewInvalidDateWindowError("to: " + toRaw)
	}
	if end.Before(start) {
		return nil, model.NewInvalidDateWindowError("to が from より前です")
	}
	return &query.DateWindow{Start: start, End: end}, nil
}

// parseBound は期間の端点を解釈する。日付のみの場合はlocでの日の始まり
// （endOfDayがtrueなら日の終わり）を返す。
func parseBound(raw string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation(dateOnlyLayout, raw, loc)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return day.AddDate(0, 0, 1).Add(-time.Millisecond), nil
	}
	return day, nil
}

func parseCategorySet(raw []string) (category.Set, *model.APIError) {
	set := category.NewSet()
	for _, value := range raw {
		for _, token := range strings.Split(value, ",") {
			label := strings.TrimSpace(token)
			if label == "" {
				continue
			}
			c, ok := category.Parse(label)
			if !ok {
				return nil, model.NewInvalidCategoryError(label)
			}
			set[c] = struct{}{}
		}
	}
	return set, nil
}
