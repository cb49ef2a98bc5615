package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("asrkit")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "asrkit" {
		t.Errorf("expected service 'asrkit', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{Level: "loud", Format: FormatJSON}
	var buf bytes.Buffer
	l := NewWithWriter(cfg, "test", &buf)
	l.Info("still logs at info")
	if !strings.Contains(buf.String(), "still logs at info") {
		t.Errorf("expected info output with invalid level, got %q", buf.String())
	}
}

func TestJSONOutputCarriesFields(t *testing.T) {
	cfg := &Config{Level: "debug", Format: FormatJSON}
	var buf bytes.Buffer
	l := NewWithWriter(cfg, "asrkit", &buf).WithComponent("corpus")

	l.Info("pair scored", Fields("reference", "talk1.txt", "rows", 2))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["message"] != "pair scored" {
		t.Errorf("unexpected message %v", entry["message"])
	}
	if entry[FieldComponent] != "corpus" {
		t.Errorf("expected component=corpus, got %v", entry[FieldComponent])
	}
	if entry["reference"] != "talk1.txt" {
		t.Errorf("expected reference field, got %v", entry["reference"])
	}
	if entry["service"] != "asrkit" {
		t.Errorf("expected service field, got %v", entry["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	cfg := &Config{Level: "warn", Format: FormatJSON}
	var buf bytes.Buffer
	l := NewWithWriter(cfg, "test", &buf)

	l.Info("hidden")
	l.Debug("hidden too")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestConsoleFormatTags(t *testing.T) {
	cfg := &Config{Level: "info", Format: FormatConsole, NoColor: true}
	var buf bytes.Buffer
	l := NewWithWriter(cfg, "asrkit", &buf)

	l.Warn("careful")
	out := buf.String()
	if !strings.Contains(out, "[ASR][WRN]") {
		t.Errorf("expected service and level tags, got %q", out)
	}
}

func TestWithError(t *testing.T) {
	cfg := &Config{Level: "info", Format: FormatJSON}
	var buf bytes.Buffer
	NewWithWriter(cfg, "test", &buf).WithError(errors.New("boom")).Error("failed")
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("expected error field, got %q", buf.String())
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Error("nothing")
	l.WithComponent("x").Info("nothing")
}

func TestInitSetsGlobal(t *testing.T) {
	prev := globalLogger
	defer SetGlobalLogger(prev)

	Init(Config{Level: "debug", Format: FormatJSON, ServiceName: "asrkit"})
	if GetGlobalLogger().service != "asrkit" {
		t.Errorf("expected global service asrkit, got %q", GetGlobalLogger().service)
	}
	if WithComponent("wer") == nil {
		t.Error("expected component logger")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected level info, got %q", cfg.Level)
	}
	if cfg.Format != FormatConsole {
		t.Errorf("expected console format, got %q", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected stderr output, got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"valid", Config{Level: "info", Format: "json", Output: "stdout"}, ""},
		{"bad level", Config{Level: "loud", Format: "json", Output: "stdout"}, "logging.level"},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stdout"}, "logging.format"},
		{"bad output", Config{Level: "info", Format: "json", Output: "file"}, "logging.output"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if len(m) != 2 {
		t.Fatalf("expected 2 fields, got %d (%v)", len(m), m)
	}
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	ef := ErrorFields("probe", errors.New("no ffprobe"))
	if ef[FieldOperation] != "probe" || ef[FieldError] != "no ffprobe" {
		t.Errorf("unexpected error fields %v", ef)
	}
	df := DurationFields("aggregate", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", df[FieldDuration])
	}
}
