package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// TestLoggingMiddleware_LogsRequestFields はリクエストログに必要なフィールドが含まれることを検証する。
func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}

	// 必須フィールドの検証
	if entry["method"] != "GET" {
		t.Errorf("method = %q, want %q", entry["method"], "GET")
	}
	if entry["path"] != "/api/events" {
		t.Errorf("path = %q, want %q", entry["path"], "/api/events")
	}
	if _, ok := entry["status"]; !ok {
		t.Error("expected 'status' field in log entry")
	}
	if status, ok := entry["status"].(float64); ok && status != 200 {
		t.Errorf("status = %v, want 200", status)
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("expected 'duration_ms' field in log entry")
	}
}

// TestLoggingMiddleware_IncludesRequestIDAndQuery はリクエストIDとクエリがログに含まれることを検証する。
func TestLoggingMiddleware_IncludesRequestIDAndQuery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := NewRequestIDMiddleware()(NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/events?q=jazz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v", err)
	}

	if entry["request_id"] != w.Header().Get(RequestIDHeader) || entry["request_id"] == "" {
		t.Errorf("request_id = %v, header = %q", entry["request_id"], w.Header().Get(RequestIDHeader))
	}
	if entry["query"] != "q=jazz" {
		t.Errorf("query = %v, want %q", entry["query"], "q=jazz")
	}
	if entry["client_ip"] != "192.0.2.1" {
		t.Errorf("client_ip = %v, want 192.0.2.1", entry["client_ip"])
	}
}

// TestLoggingMiddleware_NoRequestID_OmitsField はリクエストIDがない場合にフィールドが出力されないことを検証する。
func TestLoggingMiddleware_NoRequestID_OmitsField(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v", err)
	}

	if _, ok := entry["request_id"]; ok {
		t.Errorf("request_id should be omitted, got %v", entry["request_id"])
	}
	if _, ok := entry["query"]; ok {
		t.Errorf("query should be omitted, got %v", entry["query"])
	}
}

// TestLoggingMiddleware_StatusLevelAndBytes はステータス・ログレベル・バイト数の記録を検証する。
func TestLoggingMiddleware_StatusLevelAndBytes(t *testing.T) {
	tests := []struct {
		name      string
		status    int // 0はWriteHeaderを呼ばない
		body      string
		wantCode  int
		wantLevel string
	}{
		{"implicit 200", 0, "hello", http.StatusOK, "INFO"},
		{"204", http.StatusNoContent, "", http.StatusNoContent, "INFO"},
		{"400", http.StatusBadRequest, `{"code":"INVALID_EVENT_ID"}`, http.StatusBadRequest, "WARN"},
		{"429", http.StatusTooManyRequests, "", http.StatusTooManyRequests, "WARN"},
		{"502", http.StatusBadGateway, "{}", http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

			handler := NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/refresh", nil))

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("failed to parse JSON log: %v", err)
			}
			if got := int(entry["status"].(float64)); got != tt.wantCode {
				t.Errorf("status = %d, want %d", got, tt.wantCode)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if got := int(entry["bytes"].(float64)); got != len(tt.body) {
				t.Errorf("bytes = %d, want %d", got, len(tt.body))
			}
			if d := entry["duration_ms"].(float64); d < 0 {
				t.Errorf("duration_ms = %v, should be >= 0", d)
			}
		})
	}
}

// TestLoggingMiddleware_RoutePattern はchiのルートパターンがログに含まれることを検証する。
func TestLoggingMiddleware_RoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	r := chi.NewRouter()
	r.Use(NewLoggingMiddleware(logger))
	r.Get("/api/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/events/102", nil))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v", err)
	}
	if entry["route"] != "/api/events/{id}" {
		t.Errorf("route = %v, want /api/events/{id}", entry["route"])
	}
	if entry["path"] != "/api/events/102" {
		t.Errorf("path = %v", entry["path"])
	}
}
