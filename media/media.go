// Package media probes audio files for their duration with ffprobe.
package media

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/observability"
	"github.com/kbukum/asrkit/process"
)

// Prober returns the duration of a media file in seconds.
type Prober interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Config configures the ffprobe binary.
type Config struct {
	Binary  string        `yaml:"binary" mapstructure:"binary"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = "ffprobe"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// FFProbe implements Prober by running ffprobe.
type FFProbe struct {
	cfg    Config
	runner process.Runner
}

// NewFFProbe creates an FFProbe. A nil runner uses a process.Executor
// bounded by cfg.Timeout.
func NewFFProbe(cfg Config, runner process.Runner) *FFProbe {
	cfg.ApplyDefaults()
	if runner == nil {
		runner = process.NewExecutor(process.Config{Timeout: cfg.Timeout})
	}
	return &FFProbe{cfg: cfg, runner: runner}
}

// Available reports whether the ffprobe binary is on PATH.
func (f *FFProbe) Available() bool {
	return process.Available(f.cfg.Binary)
}

// ProbeDuration runs `ffprobe -v error -show_format -of json <path>` and
// returns format.duration.
func (f *FFProbe) ProbeDuration(ctx context.Context, path string) (float64, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanProbe,
		attribute.String(observability.AttrAudioPath, path))
	defer span.End()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			err = errors.NotFound("audio file", path)
		} else {
			err = errors.IO("stat", path, err)
		}
		observability.FailSpan(span, err)
		return 0, err
	}

	res, err := f.runner.Run(ctx, process.Command{
		Binary: f.cfg.Binary,
		Args:   []string{"-v", "error", "-show_format", "-of", "json", path},
	})
	if err != nil {
		observability.FailSpan(span, err)
		return 0, err
	}
	d, err := ParseProbeOutput(res.Stdout)
	if err != nil {
		observability.FailSpan(span, err)
		return 0, err
	}
	return d, nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// ParseProbeOutput extracts format.duration from ffprobe's JSON output.
func ParseProbeOutput(data []byte) (float64, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, errors.InvalidFormat("ffprobe output", "JSON").WithCause(err)
	}
	raw := strings.TrimSpace(out.Format.Duration)
	if raw == "" || raw == "N/A" {
		return 0, errors.InvalidFormat("ffprobe output", "a format.duration value")
	}
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return 0, errors.InvalidFormat("media duration", "a finite non-negative number of seconds").
			WithDetail("value", raw)
	}
	return d, nil
}

var _ Prober = (*FFProbe)(nil)
