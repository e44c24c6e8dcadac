package model

import "time"

// FavoriteEvent はユーザーがお気に入り登録したイベントを表す。
// 保存容量を抑えるためイベントIDのみを保持し、
// 表示時に現在のスナップショットと突き合わせる。
type FavoriteEvent struct {
	EventID   int64
	CreatedAt time.Time
}
