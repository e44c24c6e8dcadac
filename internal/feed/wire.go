package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"

	"github.com/hitoshi/zazij/internal/model"
)

// wireDocument はArcGIS FeatureServerが返すGeoJSONのトップレベル。
type wireDocument struct {
	Features *[]wireFeature `json:"features"`
}

type wireFeature struct {
	Properties *wireProperties `json:"properties"`
}

// wireProperties はfeatures[].propertiesのフィールド。
// 必須フィールドはポインタで受け、欠落とnullをデコード失敗として扱う。
type wireProperties struct {
	ID          *float64 `json:"ID"`
	Name        *string  `json:"name"`
	Text        *string  `json:"text"`
	Tickets     *string  `json:"tickets"`
	TicketsInfo *string  `json:"tickets_info"`
	Images      *string  `json:"images"`
	URL         *string  `json:"url"`
	Categories  *string  `json:"categories"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	DateFrom    *float64 `json:"date_from"`
	DateTo      *float64 `json:"date_to"`
}

// Decode はフィードのペイロードをイベント一覧に変換する。
// スキーマに一致しない場合はFetchErrorDecode種別のFetchErrorを返す。
// 返却順はフィードの順序のまま（ソートしない）。
func Decode(data []byte) ([]model.Event, error) {
	var doc wireDocument
	// ドキュメントの後ろに余分なデータがあれば失敗とする
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, model.NewDecodeError(fmt.Errorf("JSONの解析に失敗: %w", err))
	}
	if doc.Features == nil {
		return nil, model.NewDecodeError(errors.New("featuresがありません"))
	}

	events := make([]model.Event, 0, len(*doc.Features))
	for i, f := range *doc.Features {
		if f.Properties == nil {
			return nil, model.NewDecodeError(fmt.Errorf("features[%d]: propertiesがありません", i))
		}
		ev, err := f.Properties.toEvent()
		if err != nil {
			return nil, model.NewDecodeError(fmt.Errorf("features[%d]: %w", i, err))
		}
		events = append(events, ev)
	}
	return events, nil
}

func (p *wireProperties) toEvent() (model.Event, error) {
	switch {
	case p.ID == nil:
		return model.Event{}, errors.New("IDがありません")
	case p.Name == nil:
		return model.Event{}, errors.New("nameがありません")
	case p.URL == nil:
		return model.Event{}, errors.New("urlがありません")
	case p.Categories == nil:
		return model.Event{}, errors.New("categoriesがありません")
	case p.Latitude == nil || p.Longitude == nil:
		return model.Event{}, errors.New("座標がありません")
	case p.DateFrom == nil || p.DateTo == nil:
		return model.Event{}, errors.New("date_from/date_toがありません")
	}

	id, err := integral("ID", *p.ID)
	if err != nil {
		return model.Event{}, err
	}
	from, err := integral("date_from", *p.DateFrom)
	if err != nil {
		return model.Event{}, err
	}
	to, err := integral("date_to", *p.DateTo)
	if err != nil {
		return model.Event{}, err
	}
	if err := absoluteURL("url", *p.URL); err != nil {
		return model.Event{}, err
	}

	// 空のimagesは画像なしとして扱う
	image := p.Images
	if image != nil && *image == "" {
		image = nil
	}
	if image != nil {
		if err := absoluteURL("images", *image); err != nil {
			return model.Event{}, err
		}
	}

	return model.Event{
		ID:              id,
		Name:            *p.Name,
		Description:     p.Text,
		TicketInfo:      p.Tickets,
		TicketDetailURL: p.TicketsInfo,
		ImageURL:        image,
		DetailURL:       *p.URL,
		RawCategories:   *p.Categories,
		Latitude:        *p.Latitude,
		Longitude:       *p.Longitude,
		StartAtMillis:   from,
		EndAtMillis:     to,
	}, nil
}

// integral は整数値でない数値を拒否する。
func integral(field string, v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("%sが整数ではありません: %v", field, v)
	}
	// float64(math.MaxInt64)は2^63に丸められるため、上限は2^63未満で判定する
	if v >= 1<<63 || v < -1<<63 {
		return 0, fmt.Errorf("%sが範囲外です: %v", field, v)
	}
	return int64(v), nil
}

func absoluteURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%sが不正なURLです: %w", field, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%sが絶対URLではありません: %q", field, raw)
	}
	return nil
}
