package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, event, feed, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeEventNotFound     = "EVENT_NOT_FOUND"
	ErrCodeInvalidEventID    = "INVALID_EVENT_ID"
	ErrCodeInvalidDateWindow = "INVALID_DATE_WINDOW"
	ErrCodeInvalidCategory   = "INVALID_CATEGORY"
	ErrCodeRefreshFailed     = "REFRESH_FAILED"
)

// NewEventNotFoundError はイベント未検出エラーを生成する。
func NewEventNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeEventNotFound,
		Message:  fmt.Sprintf("指定されたイベントが見つかりません: %d", id),
		Category: "event",
		Action:   "イベント一覧を再読み込みしてから再度お試しください。",
	}
}

// NewInvalidEventIDError は不正なイベントIDエラーを生成する。
func NewInvalidEventIDError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEventID,
		Message:  fmt.Sprintf("無効なイベントIDです: %s", raw),
		Category: "validation",
		Action:   "イベントIDには整数を指定してください。",
	}
}

// NewInvalidDateWindowError は不正な期間指定エラーを生成する。
func NewInvalidDateWindowError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDateWindow,
		Message:  fmt.Sprintf("無効な期間指定です: %s", reason),
		Category: "validation",
		Action:   "from と to の両方を RFC3339 形式または YYYY-MM-DD 形式で指定してください。",
	}
}

// NewInvalidCategoryError は未知カテゴリ指定エラーを生成する。
func NewInvalidCategoryError(label string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCategory,
		Message:  fmt.Sprintf("未知のカテゴリです: %s", label),
		Category: "validation",
		Action:   "/api/categories で取得できるカテゴリ名を指定してください。",
	}
}

// NewRefreshFailedError はフィード更新失敗エラーを生成する。
func NewRefreshFailedError(err *FetchError) *APIError {
	return &APIError{
		Code:     ErrCodeRefreshFailed,
		Message:  fmt.Sprintf("イベントフィードの更新に失敗しました: %s", err.Kind),
		Category: "feed",
		Action:   "しばらく待ってから再度更新してください。取得済みのイベントは引き続き表示されます。",
	}
}
