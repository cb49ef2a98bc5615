package resilience

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kbukum/asrkit/errors"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), DefaultRetryConfig(), func() (string, error) {
		calls++
		return "transcript", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "transcript" || calls != 1 {
		t.Errorf("expected one call returning transcript, got %q after %d calls", result, calls)
	}
}

func TestRetry_RetriesRetryableAppErrors(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastConfig(), func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.ServiceUnavailable("whisper sidecar")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 3 {
		t.Errorf("expected success on third call, got %q after %d calls", result, calls)
	}
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"validation", errors.Validation("bad audio")},
		{"plain error", fmt.Errorf("disk full")},
		{"canceled", context.Canceled},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			_, err := Retry(context.Background(), fastConfig(), func() (int, error) {
				calls++
				return 0, tc.err
			})
			if err != tc.err {
				t.Errorf("expected original error, got %v", err)
			}
			if calls != 1 {
				t.Errorf("expected 1 call, got %d", calls)
			}
		})
	}
}

func TestRetry_ExceedsMaxAttempts(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastConfig(), func() (int, error) {
		calls++
		return 0, errors.Timeout("transcribe")
	})
	if !errors.HasCode(err, errors.ErrCodeTimeout) {
		t.Errorf("expected last TIMEOUT error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.InitialBackoff = time.Second
	cfg.MaxBackoff = time.Second

	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := Retry(ctx, cfg, func() (int, error) {
		calls++
		return 0, errors.ServiceUnavailable("sidecar")
	})
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestRetry_CustomRetryIfAndOnRetry(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryIf = func(error) bool { return true }
	var attempts []int
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		attempts = append(attempts, attempt)
	}

	_, _ = Retry(context.Background(), cfg, func() (int, error) {
		return 0, fmt.Errorf("flaky")
	})
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected OnRetry for attempts 1 and 2, got %v", attempts)
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg RetryConfig
	cfg.ApplyDefaults()
	if cfg.MaxAttempts != 3 || cfg.BackoffFactor != 2.0 || cfg.RetryIf == nil {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
	}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{5, time.Second},
	}
	for _, tc := range tests {
		if got := calculateBackoff(tc.attempt, cfg); got != tc.want {
			t.Errorf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}
