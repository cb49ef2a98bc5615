package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/transcription"
)

func audioFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "talk1.mp3")
	if err := os.WriteFile(p, []byte("fake-audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func testProvider(t *testing.T, url string) transcription.Provider {
	t.Helper()
	p, err := Factory()(map[string]any{
		"api_key":  "test-key",
		"base_url": url,
		"retry": map[string]any{
			"max_attempts":    3,
			"initial_backoff": "1ms",
			"max_backoff":     "2ms",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.FormValue("model") != "whisper-1" || r.FormValue("response_format") != "verbose_json" || r.FormValue("language") != "en" {
			t.Errorf("unexpected fields %v", r.MultipartForm.Value)
		}
		if _, hdr, err := r.FormFile("file"); err != nil || hdr.Filename != "talk1.mp3" {
			t.Errorf("expected file part talk1.mp3: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"hello world","language":"english","duration":6.0,
			"segments":[{"start":0,"end":2,"text":" hello"},{"start":2,"end":5,"text":" world"}]}`)
	}))
	defer srv.Close()

	resp, err := testProvider(t, srv.URL).Transcribe(context.Background(), transcription.TranscriptionRequest{
		AudioPath: audioFile(t),
		Language:  "en",
	})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if resp.Text != "hello world" || resp.Duration != 6.0 || len(resp.Segments) != 2 {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Segments[1].Text != " world" {
		t.Errorf("unexpected segment %+v", resp.Segments[1])
	}
}

func TestTranscribeRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = io.WriteString(w, `{"error":{"message":"slow down"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"text":"ok"}`)
	}))
	defer srv.Close()

	resp, err := testProvider(t, srv.URL).Transcribe(context.Background(), transcription.TranscriptionRequest{AudioPath: audioFile(t)})
	if err != nil {
		t.Fatalf("expected success after retry: %v", err)
	}
	if resp.Text != "ok" || calls.Load() != 2 {
		t.Errorf("unexpected result %q after %d calls", resp.Text, calls.Load())
	}
}

func TestTranscribeClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"invalid file format","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	_, err := testProvider(t, srv.URL).Transcribe(context.Background(), transcription.TranscriptionRequest{AudioPath: audioFile(t)})
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeExternalService || appErr.Retryable {
		t.Fatalf("expected non-retryable EXTERNAL_SERVICE_ERROR, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected one call, got %d", calls.Load())
	}
}

func TestTranscribeServerErrorExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := testProvider(t, srv.URL).Transcribe(context.Background(), transcription.TranscriptionRequest{AudioPath: audioFile(t)})
	if !errors.HasCode(err, errors.ErrCodeExternalService) {
		t.Fatalf("expected EXTERNAL_SERVICE_ERROR, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestTranscribeRequiresAPIKey(t *testing.T) {
	t.Setenv(apiKeyEnv, "")
	p := NewProvider(Config{})
	if p.IsAvailable(context.Background()) {
		t.Error("provider without key must not be available")
	}
	_, err := p.Transcribe(context.Background(), transcription.TranscriptionRequest{AudioPath: audioFile(t)})
	if !errors.HasCode(err, errors.ErrCodeMissingField) {
		t.Fatalf("expected MISSING_FIELD, got %v", err)
	}
}

func TestAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv(apiKeyEnv, "env-key")
	if !NewProvider(Config{}).IsAvailable(context.Background()) {
		t.Error("expected key from environment")
	}
}

func TestTranscribeMissingAudio(t *testing.T) {
	_, err := testProvider(t, "http://127.0.0.1:1").Transcribe(context.Background(), transcription.TranscriptionRequest{
		AudioPath: filepath.Join(t.TempDir(), "none.mp3"),
	})
	if !errors.HasCode(err, errors.ErrCodeIO) {
		t.Fatalf("expected IO_ERROR, got %v", err)
	}
}
