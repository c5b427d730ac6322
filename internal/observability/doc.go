// Package observability provides logging, metrics and tracing for command
// dispatch.
//
// # Logging
//
// NewLogger builds a log/slog logger (JSON or text) whose records pick up the
// invocation ID and sender stored in the context and mask secrets such as bot
// tokens:
//
//	logger := observability.NewLogger(observability.LogConfig{Level: "debug"})
//	ctx = observability.WithInvocationID(ctx, uuid.NewString())
//	logger.InfoContext(ctx, "dispatching", "root", "town")
//
// # Metrics
//
// Metrics registers Prometheus collectors for dispatch outcomes, latency,
// tab completion and configuration errors. It implements commands.Recorder.
//
// # Tracing
//
// NewTracer exports OpenTelemetry spans over OTLP/gRPC when an endpoint is
// configured and falls back to the global no-op tracer otherwise.
package observability
