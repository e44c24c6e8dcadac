package model

import (
	"errors"
	"fmt"
)

// FetchState はイベントストアのフェッチ状態。
type FetchState string

const (
	// FetchStateNotStarted は起動直後の初期状態。
	FetchStateNotStarted FetchState = "not_started"
	// FetchStateFetching はフェッチ実行中。
	FetchStateFetching FetchState = "fetching"
	// FetchStateSuccess は直近のフェッチが成功した状態。
	FetchStateSuccess FetchState = "success"
	// FetchStateFailed は直近のフェッチが失敗した状態。
	FetchStateFailed FetchState = "failed"
)

// FetchErrorKind はフェッチ失敗の種別。閉じた列挙として扱う。
type FetchErrorKind string

const (
	// FetchErrorTransport はネットワーク到達不能・タイムアウト等の通信失敗。
	FetchErrorTransport FetchErrorKind = "transport_failure"
	// FetchErrorBadResponse は200以外のHTTPステータス。
	FetchErrorBadResponse FetchErrorKind = "bad_response"
	// FetchErrorDecode はスキーマ不一致・不正なペイロード。
	FetchErrorDecode FetchErrorKind = "decode_failure"
)

// FetchError はフィードクライアントが返すエラー。
type FetchError struct {
	Kind       FetchErrorKind
	StatusCode int // BadResponseの場合のみ設定される
	Err        error
}

// Error はerrorインターフェースを実装する。
func (e *FetchError) Error() string {
	switch {
	case e.Kind == FetchErrorBadResponse:
		return fmt.Sprintf("%s: unexpected status %d", e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

// Unwrap は原因エラーを返す。
func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewTransportError は通信失敗のFetchErrorを生成する。
func NewTransportError(err error) *FetchError {
	return &FetchError{Kind: FetchErrorTransport, Err: err}
}

// NewBadResponseError はHTTPステータス異常のFetchErrorを生成する。
func NewBadResponseError(statusCode int) *FetchError {
	return &FetchError{Kind: FetchErrorBadResponse, StatusCode: statusCode}
}

// NewDecodeError はデコード失敗のFetchErrorを生成する。
func NewDecodeError(err error) *FetchError {
	return &FetchError{Kind: FetchErrorDecode, Err: err}
}

// AsFetchError はerrをFetchErrorに変換する。
// FetchError以外のエラーは通信失敗として扱う。
func AsFetchError(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return NewTransportError(err)
}

// FetchStatus はフェッチ状態のタグ付きバリアント。
// ErrはStateがFetchStateFailedの場合のみ設定される。
type FetchStatus struct {
	State FetchState
	Err   *FetchError
}

// NotStarted は初期状態を返す。
func NotStarted() FetchStatus {
	return FetchStatus{State: FetchStateNotStarted}
}

// Fetching はフェッチ中の状態を返す。
func Fetching() FetchStatus {
	return FetchStatus{State: FetchStateFetching}
}

// Succeeded は成功状態を返す。
func Succeeded() FetchStatus {
	return FetchStatus{State: FetchStateSuccess}
}

// Failed は失敗状態を返す。
func Failed(err *FetchError) FetchStatus {
	return FetchStatus{State: FetchStateFailed, Err: err}
}

// IsTerminal は成功または失敗で確定した状態かを返す。
func (s FetchStatus) IsTerminal() bool {
	return s.State == FetchStateSuccess || s.State == FetchStateFailed
}
