package observability

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/asrkit/logger"
)

// Instrument names.
const (
	MetricPairsScored      = "asrkit.pairs.scored"
	MetricPairsFailed      = "asrkit.pairs.failed"
	MetricFilesTranscribed = "asrkit.files.transcribed"
	MetricWER              = "asrkit.wer"
)

// InitMeter installs an OTLP HTTP meter provider as the global provider.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Metrics holds the asrkit instruments.
type Metrics struct {
	pairsScored      metric.Int64Counter
	pairsFailed      metric.Int64Counter
	filesTranscribed metric.Int64Counter
	wer              metric.Float64Histogram
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	pairsScored, err := meter.Int64Counter(MetricPairsScored,
		metric.WithDescription("Reference/hypothesis pairs scored"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricPairsScored, err)
	}

	pairsFailed, err := meter.Int64Counter(MetricPairsFailed,
		metric.WithDescription("Pairs that could not be scored"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricPairsFailed, err)
	}

	filesTranscribed, err := meter.Int64Counter(MetricFilesTranscribed,
		metric.WithDescription("Audio files processed by batch transcription"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricFilesTranscribed, err)
	}

	wer, err := meter.Float64Histogram(MetricWER,
		metric.WithDescription("Word error rate per scored pair"),
		metric.WithExplicitBucketBoundaries(0, 0.05, 0.1, 0.2, 0.3, 0.5, 0.75, 1, 2),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricWER, err)
	}

	return &Metrics{
		pairsScored:      pairsScored,
		pairsFailed:      pairsFailed,
		filesTranscribed: filesTranscribed,
		wer:              wer,
	}, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns instruments bound to the global meter provider.
// Instruments created before Init forward to the provider Init installs.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		m, err := NewMetrics(otel.Meter(instrumentationName))
		if err != nil {
			logger.Warn("metrics disabled", logger.Fields(logger.FieldError, err.Error()))
			return
		}
		defaultMetrics = m
	})
	return defaultMetrics
}

// RecordPairScored counts a scored pair and records its WER.
func (m *Metrics) RecordPairScored(ctx context.Context, wer float64) {
	if m == nil {
		return
	}
	m.pairsScored.Add(ctx, 1)
	m.wer.Record(ctx, wer)
}

// RecordPairFailed counts a pair that failed with the given error code.
func (m *Metrics) RecordPairFailed(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.pairsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// RecordFileTranscribed counts one batch file with its outcome
// (ok, skipped, failed).
func (m *Metrics) RecordFileTranscribed(ctx context.Context, provider, status string) {
	if m == nil {
		return
	}
	m.filesTranscribed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	))
}
