package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"designreport/internal/app/server"
	"designreport/internal/domain/report"
	"designreport/internal/platform/config"
	"designreport/internal/platform/sheet"
)

type apiError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *apiError       `json:"error"`
	RequestID string          `json:"requestId"`
}

var taskHeader = []string{"Ответственный", "Выполнена", "Оценка работы", "Количество макетов"}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Environment:          "test",
		LogFormat:            "json",
		WorkDir:              t.TempDir(),
		SessionTTL:           time.Hour,
		SessionSweepSchedule: "*/15 * * * *",
		MaxUploadBytes:       1 << 20,
		RateLimitPerMinute:   1000,
		DownloadSecret:       "test-secret",
		DownloadTokenTTL:     time.Hour,
		DataEncryptionKey:    "0123456789abcdef0123456789abcdef",
		FrontendDir:          filepath.Join(t.TempDir(), "missing"),
		MetricsEnabled:       true,
		Report: config.ReportSettings{
			TextAuthors: report.DefaultTextAuthors,
			Columns:     report.DefaultColumns(),
		},
	}
}

func startApp(t *testing.T, cfg config.Config) (*server.App, *httptest.Server) {
	t.Helper()
	app, err := server.New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	ts := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		ts.Close()
		app.Close()
	})
	return app, ts
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := sheet.Write(&buf, "Sheet1", taskHeader, rows); err != nil {
		t.Fatalf("failed to build workbook: %v", err)
	}
	return buf.Bytes()
}

func uploadForm(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := form.CreateFormFile(name, name+".xlsx")
		if err != nil {
			t.Fatalf("failed to add file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			t.Fatalf("failed to add field: %v", err)
		}
	}
	if err := form.Close(); err != nil {
		t.Fatalf("failed to close form: %v", err)
	}
	return &body, form.FormDataContentType()
}

func postForm(t *testing.T, client *http.Client, url string, body *bytes.Buffer, contentType string, want int) envelope {
	t.Helper()
	resp, err := client.Post(url, contentType, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	return decodeStatus(t, resp, want)
}

func doStatus(t *testing.T, client *http.Client, method, url string, headers map[string]string, want int) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != want {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, url, want, resp.StatusCode, string(raw))
	}
	return resp
}

func decodeStatus(t *testing.T, resp *http.Response, want int) envelope {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, string(raw))
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response %q: %v", string(raw), err)
	}
	return env
}

func envelopeDataMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("failed to decode object payload: %v", err)
	}
	return payload
}
