package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetup_EmptyEndpoint_IsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
}

func TestNewProvider_ExportsSpansWithServiceName(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := newProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), "CommentView.Service.List")
	span.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "CommentView.Service.List", spans[0].Name)

	attrs := spans[0].Resource.Attributes()
	require.Contains(t, attrs, attribute.String("service.name", ServiceName))
}

func TestExporterOptions(t *testing.T) {
	require.Len(t, exporterOptions("collector:4318"), 2)
	require.Len(t, exporterOptions("https://collector.example.com/v1/traces"), 1)
}
