package feed

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/hitoshi/zazij/internal/model"
)

const baseProps = `"ID":7,"name":"Koncert","url":"https://www.gotobrno.cz/a","categories":"Hudba",` +
	`"latitude":49.19,"longitude":16.6,"date_from":1700000000000,"date_to":1700003600000`

func payloadWith(props string) []byte {
	return []byte(`{"features":[{"properties":{` + props + `}}]}`)
}

func TestDecode_RequiredFieldsAndSchema(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{name: "最小構成", payload: string(payloadWith(baseProps))},
		{name: "未知のプロパティは無視", payload: string(payloadWith(baseProps + `,"OBJECTID":99,"first_image":"x"`))},
		{name: "空のfeatures", payload: `{"features":[]}`},
		{name: "featuresなし", payload: `{"type":"FeatureCollection"}`, wantErr: true},
		{name: "propertiesなし", payload: `{"features":[{"type":"Feature"}]}`, wantErr: true},
		{name: "JSONでない", payload: `not json`, wantErr: true},
		{name: "後ろに余分なデータ", payload: `{"features":[]} this is not json`, wantErr: true},
		{name: "ドキュメントが2つ", payload: `{"features":[]}{"features":[]}`, wantErr: true},
		{name: "date_fromがint64の範囲外", payload: string(payloadWith(strings.Replace(baseProps, `"date_from":1700000000000`, `"date_from":9223372036854775808`, 1))), wantErr: true},
		{name: "nameがnull", payload: string(payloadWith(strings.Replace(baseProps, `"name":"Koncert"`, `"name":null`, 1))), wantErr: true},
		{name: "IDなし", payload: string(payloadWith(strings.Replace(baseProps, `"ID":7,`, ``, 1))), wantErr: true},
		{name: "IDが小数", payload: string(payloadWith(strings.Replace(baseProps, `"ID":7`, `"ID":7.5`, 1))), wantErr: true},
		{name: "IDが文字列", payload: string(payloadWith(strings.Replace(baseProps, `"ID":7`, `"ID":"7"`, 1))), wantErr: true},
		{name: "date_toなし", payload: string(payloadWith(strings.Replace(baseProps, `,"date_to":1700003600000`, ``, 1))), wantErr: true},
		{name: "urlが相対", payload: string(payloadWith(strings.Replace(baseProps, `https://www.gotobrno.cz/a`, `/akce/a`, 1))), wantErr: true},
		{name: "imagesが不正", payload: string(payloadWith(baseProps + `,"images":"plakat.jpg"`)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var fe *model.FetchError
				if !errors.As(err, &fe) || fe.Kind != model.FetchErrorDecode {
					t.Errorf("expected decode FetchError, got %v", err)
				}
			}
		})
	}
}

func TestIntegral_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		v       float64
		want    int64
		wantErr bool
	}{
		{name: "ゼロ", v: 0, want: 0},
		{name: "2^53", v: 1 << 53, want: 1 << 53},
		{name: "int64の最小値", v: -1 << 63, want: math.MinInt64},
		{name: "2^63は範囲外", v: 1 << 63, wantErr: true},
		{name: "MaxInt64は2^63に丸められ範囲外", v: math.MaxInt64, wantErr: true},
		{name: "最小値より小さい", v: -1 << 64, wantErr: true},
		{name: "NaN", v: math.NaN(), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := integral("date_from", tt.v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("integral(%v) error = %v, wantErr %v", tt.v, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("integral(%v) = %d, want %d", tt.v, got, tt.want)
			}
		})
	}
}

func TestDecode_OptionalFields(t *testing.T) {
	events, err := Decode(payloadWith(baseProps + `,"text":null,"tickets":"250 Kč","images":""`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	ev := events[0]
	if ev.Description != nil {
		t.Errorf("Description = %v, want nil", *ev.Description)
	}
	if ev.TicketInfo == nil || *ev.TicketInfo != "250 Kč" {
		t.Errorf("TicketInfo = %v", ev.TicketInfo)
	}
	if ev.TicketDetailURL != nil {
		t.Error("TicketDetailURL should be nil when absent")
	}
	if ev.ImageURL != nil {
		t.Error("empty images should be treated as absent")
	}
}

// TestDecode_SecondsRoundTrip はミリ秒から導出した秒が整数除算と一致することを検証する。
func TestDecode_SecondsRoundTrip(t *testing.T) {
	events, err := Decode(payloadWith(strings.Replace(baseProps, `"date_from":1700000000000`, `"date_from":1700000000999`, 1)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	ev := events[0]
	if ev.StartAtMillis != 1700000000999 || ev.EndAtMillis != 1700003600000 {
		t.Fatalf("millis = %d..%d", ev.StartAtMillis, ev.EndAtMillis)
	}
	if ev.StartAtSeconds() != ev.StartAtMillis/1000 || ev.StartAtSeconds() != 1700000000 {
		t.Errorf("StartAtSeconds() = %d", ev.StartAtSeconds())
	}
	if ev.EndAtSeconds() != 1700003600 {
		t.Errorf("EndAtSeconds() = %d", ev.EndAtSeconds())
	}
}

func TestLoadFixture(t *testing.T) {
	events, err := LoadFixture()
	if err != nil {
		t.Fatalf("LoadFixture() error = %v", err)
	}
	if len(events) != 6 {
		t.Fatalf("len(events) = %d, want 6", len(events))
	}

	byID := map[int64]model.Event{}
	for _, ev := range events {
		byID[ev.ID] = ev
	}
	if c, ok := byID[101].PrimaryCategory(); !ok || c != "Hudba" {
		t.Errorf("event 101 category = %v, %v", c, ok)
	}
	if c, ok := byID[104].PrimaryCategory(); !ok || c != "Gastronomické" {
		t.Errorf("event 104 should skip the unknown token: %v, %v", c, ok)
	}
	if _, ok := byID[106].PrimaryCategory(); ok {
		t.Error("event 106 should have no category")
	}
	if byID[103].ImageURL != nil {
		t.Error("event 103 has empty images and should have no image")
	}
	if !byID[105].IsSingleDay() {
		t.Error("event 105 should be single-day")
	}
}
