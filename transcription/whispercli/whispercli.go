// Package whispercli transcribes audio by running the openai-whisper
// command-line tool and reading its JSON output.
package whispercli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/observability"
	"github.com/kbukum/asrkit/process"
	"github.com/kbukum/asrkit/provider"
	"github.com/kbukum/asrkit/transcription"
)

const (
	// ProviderName is the registered name for the CLI provider.
	ProviderName = "whisper-cli"

	defaultBinary  = "whisper"
	defaultModel   = "small"
	defaultTimeout = 30 * time.Minute
)

// Config holds the CLI settings.
type Config struct {
	Binary  string        `yaml:"binary" mapstructure:"binary"`
	Model   string        `yaml:"model" mapstructure:"model"`
	Device  string        `yaml:"device" mapstructure:"device"`
	FP16    bool          `yaml:"fp16" mapstructure:"fp16"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// ExtraArgs are appended verbatim, e.g. ["--beam_size", "5"].
	ExtraArgs []string `yaml:"extra_args" mapstructure:"extra_args"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = defaultBinary
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Provider runs one whisper process per file.
type Provider struct {
	cfg    Config
	runner process.Runner
}

// NewProvider creates a CLI provider. A nil runner uses a process.Executor
// bounded by cfg.Timeout.
func NewProvider(cfg Config, runner process.Runner) *Provider {
	cfg.ApplyDefaults()
	if runner == nil {
		runner = process.NewExecutor(process.Config{Timeout: cfg.Timeout})
	}
	return &Provider{cfg: cfg, runner: runner}
}

// Factory returns a provider.Factory that builds the CLI provider from its
// config section.
func Factory() provider.Factory[transcription.Provider] {
	return func(cfg map[string]any) (transcription.Provider, error) {
		cc, err := provider.Decode[Config](cfg)
		if err != nil {
			return nil, errors.InvalidInput("transcription.whisper_cli", err.Error())
		}
		return NewProvider(cc, nil), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether the whisper binary is on PATH.
func (p *Provider) IsAvailable(_ context.Context) bool {
	return process.Available(p.cfg.Binary)
}

// Transcribe runs whisper on the audio file into a scratch directory and
// parses the JSON it writes there.
func (p *Provider) Transcribe(ctx context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe,
		attribute.String(observability.AttrAudioPath, req.AudioPath),
		attribute.String(observability.AttrProvider, ProviderName),
	)
	defer span.End()

	resp, err := p.transcribe(ctx, req)
	if err != nil {
		observability.FailSpan(span, err)
		return nil, err
	}
	return resp, nil
}

func (p *Provider) transcribe(ctx context.Context, req transcription.TranscriptionRequest) (*transcription.TranscriptionResponse, error) {
	if _, err := os.Stat(req.AudioPath); err != nil {
		return nil, errors.IO("read", req.AudioPath, err)
	}

	outDir, err := os.MkdirTemp("", "asrkit-whisper-*")
	if err != nil {
		return nil, errors.IO("create", os.TempDir(), err)
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	if _, err := p.runner.Run(ctx, process.Command{
		Binary: p.cfg.Binary,
		Args:   p.args(req, outDir),
	}); err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(req.AudioPath), filepath.Ext(req.AudioPath))
	jsonPath := filepath.Join(outDir, base+".json")
	data, err := os.ReadFile(jsonPath) //nolint:gosec // path built inside our scratch dir
	if err != nil {
		return nil, errors.IO("read", jsonPath, err)
	}
	return ParseOutput(data)
}

// args builds the whisper command line for one file.
func (p *Provider) args(req transcription.TranscriptionRequest, outDir string) []string {
	model := p.cfg.Model
	if req.Model != "" {
		model = req.Model
	}
	args := []string{
		req.AudioPath,
		"--model", model,
		"--output_format", "json",
		"--output_dir", outDir,
		"--verbose", "False",
	}
	if req.Language != "" {
		args = append(args, "--language", req.Language)
	}
	if p.cfg.Device != "" {
		args = append(args, "--device", p.cfg.Device)
	}
	if !p.cfg.FP16 {
		args = append(args, "--fp16", "False")
	}
	return append(args, p.cfg.ExtraArgs...)
}

type cliOutput struct {
	Text     string       `json:"text"`
	Language string       `json:"language"`
	Segments []cliSegment `json:"segments"`
}

type cliSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// ParseOutput decodes the JSON file whisper writes with --output_format json.
func ParseOutput(data []byte) (*transcription.TranscriptionResponse, error) {
	var out cliOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.InvalidFormat("whisper output", "JSON").WithCause(err)
	}
	resp := &transcription.TranscriptionResponse{
		Text:     out.Text,
		Language: out.Language,
		Segments: make([]transcription.Segment, len(out.Segments)),
	}
	for i, s := range out.Segments {
		resp.Segments[i] = transcription.Segment{Start: s.Start, End: s.End, Text: s.Text}
	}
	if n := len(out.Segments); n > 0 {
		resp.Duration = out.Segments[n-1].End
	}
	return resp, nil
}

var _ transcription.Provider = (*Provider)(nil)
