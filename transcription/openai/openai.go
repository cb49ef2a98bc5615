// Package openai transcribes audio through the OpenAI audio transcription
// API using the go-ai OpenAI adapter.
package openai

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m43i/go-ai/core"
	goai "github.com/m43i/go-ai/openai"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/httpclient"
	"github.com/kbukum/asrkit/observability"
	"github.com/kbukum/asrkit/provider"
	"github.com/kbukum/asrkit/resilience"
	"github.com/kbukum/asrkit/transcription"
)

const (
	// ProviderName is the registered name for the OpenAI provider.
	ProviderName = "openai"

	serviceName           = "openai"
	defaultModel          = "whisper-1"
	defaultResponseFormat = "verbose_json"
	defaultTimeout        = 10 * time.Minute
	apiKeyEnv             = "OPENAI_API_KEY"
)

// Config holds the OpenAI settings. APIKey falls back to OPENAI_API_KEY.
type Config struct {
	APIKey         string                 `yaml:"api_key" mapstructure:"api_key"`
	BaseURL        string                 `yaml:"base_url" mapstructure:"base_url"`
	Model          string                 `yaml:"model" mapstructure:"model"`
	ResponseFormat string                 `yaml:"response_format" mapstructure:"response_format"`
	Prompt         string                 `yaml:"prompt" mapstructure:"prompt"`
	Temperature    float64                `yaml:"temperature" mapstructure:"temperature"`
	Timeout        time.Duration          `yaml:"timeout" mapstructure:"timeout"`
	Retry          resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.APIKey == "" {
		c.APIKey = strings.TrimSpace(os.Getenv(apiKeyEnv))
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.ResponseFormat == "" {
		c.ResponseFormat = defaultResponseFormat
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	c.Retry.ApplyDefaults()
}

// Provider implements transcription.Provider with the go-ai adapter.
type Provider struct {
	cfg     Config
	adapter *goai.Adapter
}

// NewProvider creates an OpenAI provider.
func NewProvider(cfg Config) *Provider {
	cfg.ApplyDefaults()
	client := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &classifyingTransport{base: http.DefaultTransport},
	}
	adapter := goai.New(cfg.Model,
		goai.WithAPIKey(cfg.APIKey),
		goai.WithBaseURL(cfg.BaseURL),
		goai.WithHTTPClient(client),
	)
	return &Provider{cfg: cfg, adapter: adapter}
}

// Factory returns a provider.Factory that builds the OpenAI provider from
// its config section.
func Factory() provider.Factory[transcription.Provider] {
	return func(cfg map[string]any) (transcription.Provider, error) {
		oc, err := provider.Decode[Config](cfg)
		if err != nil {
			return nil, errors.InvalidInput("transcription.openai", err.Error())
		}
		return NewProvider(oc), nil
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether an API key is configured. The API itself is
// not called.
func (p *Provider) IsAvailable(_ context.Context) bool {
	return p.cfg.APIKey != ""
}

// Transcribe uploads the audio file and maps the verbose result.
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
	if p.cfg.APIKey == "" {
		return nil, errors.MissingField("transcription.openai.api_key")
	}
	audio, err := os.ReadFile(req.AudioPath) //nolint:gosec // caller-selected audio file
	if err != nil {
		return nil, errors.IO("read", req.AudioPath, err)
	}

	params := &core.TranscriptionParams{
		Audio:        audio,
		Filename:     filepath.Base(req.AudioPath),
		Language:     req.Language,
		ModelOptions: p.modelOptions(),
	}

	result, err := resilience.Retry(ctx, p.cfg.Retry, func() (*core.TranscriptionResult, error) {
		res, err := p.adapter.Transcribe(ctx, params)
		if err != nil {
			return nil, classify(ctx, err)
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return toResponse(result), nil
}

func (p *Provider) modelOptions() map[string]any {
	opts := map[string]any{"response_format": p.cfg.ResponseFormat}
	if p.cfg.Prompt != "" {
		opts["prompt"] = p.cfg.Prompt
	}
	if p.cfg.Temperature > 0 {
		opts["temperature"] = p.cfg.Temperature
	}
	return opts
}

// classify keeps AppErrors raised by the transport and turns the adapter's
// plain errors (4xx bodies, decode failures) into non-retryable ones.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.IsAppError(err) {
		return err
	}
	appErr := errors.ExternalServiceError(serviceName, err)
	appErr.Retryable = false
	return appErr
}

// classifyingTransport converts transport failures, 429 and 5xx responses
// into retryable AppErrors. The adapter wraps RoundTrip errors with %w, so
// they survive to classify.
type classifyingTransport struct {
	base http.RoundTripper
}

func (t *classifyingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, err
		}
		return nil, httpclient.NewConnectionError(serviceName, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		body := readAndClose(resp)
		return nil, httpclient.ClassifyStatusCode(serviceName, resp.StatusCode, body)
	}
	return resp, nil
}

func readAndClose(resp *http.Response) []byte {
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return body
}

func toResponse(res *core.TranscriptionResult) *transcription.TranscriptionResponse {
	out := &transcription.TranscriptionResponse{
		Text:     res.Text,
		Language: res.Language,
		Duration: res.Duration,
		Segments: make([]transcription.Segment, len(res.Segments)),
	}
	for i, s := range res.Segments {
		out.Segments[i] = transcription.Segment{Start: s.Start, End: s.End, Text: s.Text}
	}
	if out.Duration == 0 && len(res.Segments) > 0 {
		out.Duration = res.Segments[len(res.Segments)-1].End
	}
	return out
}

var _ transcription.Provider = (*Provider)(nil)
