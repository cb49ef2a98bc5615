package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/asrkit/config"
	"github.com/kbukum/asrkit/logger"
	"github.com/kbukum/asrkit/observability"
)

type testConfig struct {
	config.ServiceConfig
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{ServiceConfig: config.ServiceConfig{Name: name, Version: version, Environment: "development"}}
}

type staticChecker observability.Health

func (s staticChecker) CheckHealth(context.Context) observability.Health {
	return observability.Health(s)
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(newTestConfig("asrkit", "1.0.0"), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Name != "asrkit" || app.Version != "1.0.0" {
		t.Errorf("unexpected identity %s %s", app.Name, app.Version)
	}
	if app.gracefulTimeout != DefaultGracefulTimeout {
		t.Errorf("expected default timeout, got %v", app.gracefulTimeout)
	}
	if app.Cfg.Logging.Level != "info" {
		t.Errorf("expected defaults applied, got level %q", app.Cfg.Logging.Level)
	}
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	cfg := newTestConfig("asrkit", "")
	cfg.Environment = "moon"
	if _, err := NewApp(cfg); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestRunTaskHookOrder(t *testing.T) {
	app, err := NewApp(newTestConfig("asrkit", ""), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	record := func(name string) Hook {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	app.OnStart(record("start1"), record("start2"))
	app.OnStop(record("stop1"), record("stop2"))

	err = app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "start1,start2,task,stop2,stop1"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestRunTaskErrors(t *testing.T) {
	tests := []struct {
		name     string
		startErr error
		taskErr  error
		stopErr  error
		want     string
		ranTask  bool
	}{
		{"task error wins", nil, fmt.Errorf("task"), fmt.Errorf("stop"), "task", true},
		{"stop error surfaces", nil, nil, fmt.Errorf("stop"), "stop", true},
		{"start error skips task", fmt.Errorf("boom"), nil, nil, "boom", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app, _ := NewApp(newTestConfig("asrkit", ""), WithLogger(logger.Nop()))
			stopped := false
			app.OnStart(func(context.Context) error { return tc.startErr })
			app.OnStop(func(context.Context) error { stopped = true; return tc.stopErr })

			ran := false
			err := app.RunTask(context.Background(), func(context.Context) error {
				ran = true
				return tc.taskErr
			})
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %v", tc.want, err)
			}
			if ran != tc.ranTask {
				t.Errorf("task ran = %v, want %v", ran, tc.ranTask)
			}
			if !stopped {
				t.Error("stop hooks must run")
			}
		})
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "info", Format: "json"}, "asrkit", &buf)
	app, _ := NewApp(newTestConfig("asrkit", "2.0.0"), WithLogger(log), WithGracefulTimeout(time.Second))
	app.Summary.Track("storage", "local .")
	stopped := make(chan struct{})
	app.OnStop(func(context.Context) error { close(stopped); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	<-stopped
	if !strings.Contains(buf.String(), "asrkit 2.0.0 started") {
		t.Errorf("expected the startup summary in the log, got %s", buf.String())
	}
}

func TestReadyCheck(t *testing.T) {
	app, _ := NewApp(newTestConfig("asrkit", ""), WithLogger(logger.Nop()))
	app.AddHealthChecker(staticChecker{Name: "history", Status: observability.HealthStatusUp})
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("expected ready, got %v", err)
	}
	app.AddHealthChecker(staticChecker{Name: "storage", Status: observability.HealthStatusDown, Message: "gone"})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "storage(gone)") {
		t.Errorf("expected storage to be reported, got %v", err)
	}
	if len(app.HealthCheckers()) != 2 {
		t.Errorf("expected 2 checkers, got %d", len(app.HealthCheckers()))
	}
}

func TestSummaryLines(t *testing.T) {
	s := NewSummary("asrkit", "")
	s.SetStartupDuration(1500 * time.Millisecond)
	s.Track("storage", "local /data")
	s.Track("history", "sqlite runs.db")
	s.TrackRoute("GET", "/health", "health")

	lines := s.Lines()
	want := []string{
		"asrkit dev started in 1.50s",
		"  ├── storage: local /data",
		"  └── history: sqlite runs.db",
		"  routes (1)",
		"    └── GET    /health -> health",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %q", len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}
