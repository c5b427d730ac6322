package observability

import (
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestNewTracerDisabled(t *testing.T) {
	tracer, shutdown := NewTracer(TraceConfig{})
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			t.Errorf("shutdown() error = %v", err)
		}
	}()

	if tracer.config.ServiceName != "cmdtree" {
		t.Errorf("ServiceName = %q, want cmdtree", tracer.config.ServiceName)
	}
	if tracer.config.SamplingRate != 0 {
		t.Errorf("SamplingRate = %v, want 0 kept as given", tracer.config.SamplingRate)
	}
	if tracer.Exporting() {
		t.Error("Exporting() = true without an endpoint")
	}

	_, span := tracer.Tracer().Start(context.Background(), "commands.dispatch")
	if span.SpanContext().IsSampled() {
		t.Error("no-op span reports sampled")
	}
	span.End()
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		if got := samplerFor(tt.rate).Description(); !strings.Contains(got, tt.want) {
			t.Errorf("samplerFor(%v) = %q, want it to mention %q", tt.rate, got, tt.want)
		}
	}
}

func TestServiceResource(t *testing.T) {
	res := serviceResource(TraceConfig{ServiceName: "cmdtree", ServiceVersion: "v1.2.3", Environment: "staging"})

	got := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		got[kv.Key] = kv.Value.Emit()
	}
	for key, want := range map[attribute.Key]string{
		"service.name":           "cmdtree",
		"service.version":        "v1.2.3",
		"deployment.environment": "staging",
	} {
		if got[key] != want {
			t.Errorf("%s = %q, want %q", key, got[key], want)
		}
	}
}
