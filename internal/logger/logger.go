// Package logger はJSON構造化ログの初期化を提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// ServiceName は全ログに付与するserviceフィールドの値。
const ServiceName = "zazij"

// New は指定レベル以上を出力するJSON構造化ロガーを生成する。
// すべてのエントリにserviceフィールドを付与する。
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler).With(slog.String("service", ServiceName))
}

// Setup はINFOレベルのJSON構造化ロガーを生成して返す。
func Setup(w io.Writer) *slog.Logger {
	return New(w, slog.LevelInfo)
}

// ParseLevel はLOG_LEVELの値をslog.Levelに変換する。
// 不明な値はINFOとして扱う。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupDefault はJSON構造化ロガーをグローバルロガーとして設定し、返す。
// wがnilの場合はos.Stdoutに出力する。
func SetupDefault(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	l := New(w, level)
	slog.SetDefault(l)
	return l
}
