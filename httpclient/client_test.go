package httpclient

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/security"
	"github.com/kbukum/asrkit/security/tlstest"
)

func fastRetry() *Config {
	cfg := DefaultRetryConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 2 * time.Millisecond
	return &Config{Service: "whisper", Retry: cfg}
}

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON content type, got %q", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("X-Default") != "yes" {
			t.Error("expected default header")
		}
		if r.URL.Query().Get("lang") != "en" {
			t.Errorf("expected query param, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"hello"}`)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/", Headers: map[string]string{"X-Default": "yes"}})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/echo",
		Query:  map[string]string{"lang": "en"},
		Body:   map[string]string{"a": "b"},
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	var out struct{ Text string }
	if err := resp.DecodeJSON(&out); err != nil || out.Text != "hello" {
		t.Errorf("unexpected body %q (%v)", resp.Body, err)
	}
	if !resp.IsSuccess() {
		t.Error("expected success")
	}
}

func TestDoMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if r.FormValue("model") != "base" {
			t.Errorf("expected model field, got %q", r.FormValue("model"))
		}
		if _, ok := r.MultipartForm.Value["language"]; ok {
			t.Error("empty fields must be skipped")
		}
		f, hdr, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("expected audio part: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "talk1.mp3" || string(data) != "ID3" {
			t.Errorf("unexpected file %q %q", hdr.Filename, data)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "talk1.mp3")
	if err := os.WriteFile(path, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	part, err := FileFromPath("audio", path)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := New(Config{BaseURL: srv.URL})
	_, err = c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "transcribe",
		Body: &MultipartBody{
			Fields: map[string]string{"model": "base", "language": ""},
			Files:  []FilePart{part},
		},
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
}

func TestFileFromPathMissing(t *testing.T) {
	if _, err := FileFromPath("audio", filepath.Join(t.TempDir(), "none.mp3")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDoRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	cfg := fastRetry()
	cfg.BaseURL = srv.URL
	c, _ := New(*cfg)
	resp, err := c.Do(context.Background(), Request{Path: "/"})
	if err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if string(resp.Body) != "ok" || calls.Load() != 3 {
		t.Errorf("unexpected result %q after %d calls", resp.Body, calls.Load())
	}
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad audio", http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := fastRetry()
	cfg.BaseURL = srv.URL
	c, _ := New(*cfg)
	_, err := c.Do(context.Background(), Request{Path: "/"})
	if !errors.HasCode(err, errors.ErrCodeExternalService) {
		t.Fatalf("expected EXTERNAL_SERVICE_ERROR, got %v", err)
	}
	if IsRetryable(err) || StatusCode(err) != http.StatusBadRequest {
		t.Errorf("expected non-retryable 400, got retryable=%v status=%d", IsRetryable(err), StatusCode(err))
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", calls.Load())
	}
}

func TestDoConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, _ := New(Config{Service: "whisper", BaseURL: url})
	_, err := c.Do(context.Background(), Request{Path: "/health"})
	if !errors.HasCode(err, errors.ErrCodeServiceUnavailable) {
		t.Fatalf("expected SERVICE_UNAVAILABLE, got %v", err)
	}
	if c.Ping(context.Background(), "/health") {
		t.Error("ping should fail against a closed server")
	}
}

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		status    int
		code      errors.ErrorCode
		retryable bool
	}{
		{http.StatusNotFound, errors.ErrCodeNotFound, false},
		{http.StatusUnauthorized, errors.ErrCodeExternalService, false},
		{http.StatusTooManyRequests, errors.ErrCodeExternalService, true},
		{http.StatusBadGateway, errors.ErrCodeExternalService, true},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			err := ClassifyStatusCode("openai", tc.status, []byte("body"))
			if err.Code != tc.code || err.Retryable != tc.retryable {
				t.Errorf("expected %s retryable=%v, got %s retryable=%v", tc.code, tc.retryable, err.Code, err.Retryable)
			}
		})
	}
	if ClassifyStatusCode("openai", http.StatusOK, nil) != nil {
		t.Error("2xx must not be an error")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Timeout: -time.Second}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative timeout")
	}
	cfg.ApplyDefaults()
	if cfg.Timeout != defaultTimeout || cfg.Service != "http" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestTLSBackend(t *testing.T) {
	certs := tlstest.Generate(t)
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	cert, err := tls.LoadX509KeyPair(certs.CertFile, certs.KeyFile)
	if err != nil {
		t.Fatal(err)
	}
	srv.TLS = &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}
	srv.StartTLS()
	defer srv.Close()

	untrusted, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if untrusted.Ping(context.Background(), "/health") {
		t.Error("a certificate from an unknown CA must be rejected")
	}

	trusted, err := New(Config{BaseURL: srv.URL, TLS: &security.TLSConfig{CAFile: certs.CAFile}})
	if err != nil {
		t.Fatal(err)
	}
	if !trusted.Ping(context.Background(), "/health") {
		t.Error("expected the configured CA to verify the backend")
	}

	if _, err := New(Config{TLS: &security.TLSConfig{CertFile: certs.CertFile}}); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for a certificate without key, got %v", err)
	}
}
