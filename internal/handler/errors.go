package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/zazij/internal/middleware"
	"github.com/hitoshi/zazij/internal/model"
)

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はエラーを適切なHTTPステータスコードに変換して書き込む。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeEventNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidEventID, model.ErrCodeInvalidDateWindow, model.ErrCodeInvalidCategory:
		return http.StatusBadRequest
	case model.ErrCodeRefreshFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
