package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/wayfarer/wayfarer/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:  "wayfarer-api",
		Environment:  "test",
		OTLPEndpoint: "localhost:4317",
	})

	require.NoError(t, err)
	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestProvider_Shutdown_NilProviders(t *testing.T) {
	assert.NoError(t, (&telemetry.Provider{}).Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, "ParentBased{root:AlwaysOnSampler"},
		{1, "ParentBased{root:AlwaysOnSampler"},
		{0.25, "ParentBased{root:TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		s := telemetry.Sampler(tt.ratio)
		assert.Contains(t, s.Description(), tt.want)
	}
}

func TestSampler_KeepsSampledParent(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(telemetry.Sampler(0.0001)))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, parent := sdktrace.NewTracerProvider().Tracer("test").Start(context.Background(), "parent")
	defer parent.End()
	require.True(t, parent.SpanContext().IsSampled())

	_, child := tp.Tracer("test").Start(ctx, "child")
	defer child.End()
	assert.True(t, child.SpanContext().IsSampled())
}

func TestGlobalAccessors(t *testing.T) {
	assert.NotNil(t, telemetry.Tracer("wayfarer-test"))
	assert.NotNil(t, telemetry.Meter("wayfarer-test"))
}
