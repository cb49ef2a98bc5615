// Package whisper transcribes audio through a faster-whisper HTTP sidecar.
package whisper

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/asrkit/errors"
	"github.com/kbukum/asrkit/httpclient"
	"github.com/kbukum/asrkit/observability"
	"github.com/kbukum/asrkit/provider"
	"github.com/kbukum/asrkit/resilience"
	"github.com/kbukum/asrkit/security"
	"github.com/kbukum/asrkit/transcription"
)

const (
	// ProviderName is the registered name for the sidecar provider.
	ProviderName = "whisper"

	defaultURL     = "http://localhost:8387"
	defaultModel   = "base"
	defaultTimeout = 10 * time.Minute
)

// Config holds the sidecar settings.
type Config struct {
	URL         string                 `yaml:"url" mapstructure:"url"`
	Model       string                 `yaml:"model" mapstructure:"model"`
	Language    string                 `yaml:"language" mapstructure:"language"`
	Device      string                 `yaml:"device" mapstructure:"device"`
	ComputeType string                 `yaml:"compute_type" mapstructure:"compute_type"`
	Timeout     time.Duration          `yaml:"timeout" mapstructure:"timeout"`
	Retry       resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
	TLS         security.TLSConfig     `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = defaultURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	c.Retry.ApplyDefaults()
}

// Provider implements transcription.Provider against the sidecar's
// POST /transcribe endpoint.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

// NewProvider creates a sidecar provider.
func NewProvider(cfg Config) (*Provider, error) {
	cfg.ApplyDefaults()
	retry := cfg.Retry
	client, err := httpclient.New(httpclient.Config{
		Service: ProviderName,
		BaseURL: cfg.URL,
		Timeout: cfg.Timeout,
		Retry:   &retry,
		TLS:     &cfg.TLS,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{cfg: cfg, client: client}, nil
}

// Factory returns a provider.Factory that builds the sidecar provider from
// its config section.
func Factory() provider.Factory[transcription.Provider] {
	return func(cfg map[string]any) (transcription.Provider, error) {
		wc, err := provider.Decode[Config](cfg)
		if err != nil {
			return nil, errors.InvalidInput("transcription.whisper", err.Error())
		}
		return NewProvider(wc)
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable reports whether GET /health answers 2xx.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.client.Ping(ctx, "/health")
}

// Transcribe uploads the audio file and returns the sidecar's transcript.
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
	audio, err := httpclient.FileFromPath("audio", req.AudioPath)
	if err != nil {
		return nil, errors.IO("read", req.AudioPath, err)
	}

	model := firstNonEmpty(req.Model, p.cfg.Model)
	lang := firstNonEmpty(req.Language, p.cfg.Language)

	resp, err := p.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/transcribe",
		Body: &httpclient.MultipartBody{
			Fields: map[string]string{
				"model":        model,
				"language":     lang,
				"device":       p.cfg.Device,
				"compute_type": p.cfg.ComputeType,
			},
			Files: []httpclient.FilePart{audio},
		},
	})
	if err != nil {
		return nil, err
	}

	var result sidecarResponse
	if err := resp.DecodeJSON(&result); err != nil {
		return nil, errors.InvalidFormat("whisper response", "JSON with a text field").WithCause(err)
	}
	return result.toResponse(), nil
}

type sidecarResponse struct {
	Text     string           `json:"text"`
	Segments []sidecarSegment `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

type sidecarSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (r *sidecarResponse) toResponse() *transcription.TranscriptionResponse {
	segments := make([]transcription.Segment, len(r.Segments))
	for i, seg := range r.Segments {
		segments[i] = transcription.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}

	duration := r.Duration
	if duration == 0 && len(r.Segments) > 0 {
		duration = r.Segments[len(r.Segments)-1].End
	}
	text := r.Text
	if text == "" && len(segments) > 0 {
		parts := make([]string, len(segments))
		for i, s := range segments {
			parts[i] = s.Text
		}
		text = strings.Join(parts, "")
	}

	return &transcription.TranscriptionResponse{
		Text:     text,
		Segments: segments,
		Duration: duration,
		Language: r.Language,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var _ transcription.Provider = (*Provider)(nil)
