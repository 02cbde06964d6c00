package observability

import (
	"context"
	"io"
	"testing"

	"github.com/annel0/arena-game/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func TestInitTelemetry_Disabled(t *testing.T) {
	shutdown, err := InitTelemetry(context.Background(), false, "arena", logging.NewWriterLogger("otel", io.Discard, logging.OFF))
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewTracerProvider(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()

	tp, err := NewTracerProvider(ctx, "arena-test", trace.WithSpanProcessor(recorder))
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(ctx, "arena.round")
	span.End()
	require.NoError(t, tp.Shutdown(ctx))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Resource().Attributes(), semconv.ServiceName("arena-test"))
}
