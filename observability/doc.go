// Package observability wires OpenTelemetry tracing and metrics for asrkit.
//
// Telemetry is off unless an OTLP endpoint is configured; until Init
// installs real providers, spans and instruments go to the global no-op
// providers.
//
//	shutdown, err := observability.Init(ctx, cfg.Telemetry)
//	defer shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanAggregate)
//	defer span.End()
//
//	observability.DefaultMetrics().RecordPairScored(ctx, 0.25)
package observability
