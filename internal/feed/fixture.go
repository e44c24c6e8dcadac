package feed

import (
	_ "embed"

	"github.com/hitoshi/zazij/internal/model"
)

// sampleEvents はフィードのワイヤ形式のスナップショット。
// ネットワークなしでストアを初期化する場合（プレビュー・テスト）に使用する。
//
//go:embed sample_events.json
var sampleEvents []byte

// LoadFixture は同梱のスナップショットをデコードして返す。
func LoadFixture() ([]model.Event, error) {
	return Decode(sampleEvents)
}

// FixtureBytes は同梱スナップショットの生データを返す。
func FixtureBytes() []byte {
	return sampleEvents
}
