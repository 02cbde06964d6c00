package observability

import (
	"context"
	"time"

	"github.com/annel0/arena-game/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Shutdown завершает экспорт трасс
type Shutdown func(context.Context) error

// InitTelemetry настраивает OTLP экспортер и устанавливает глобальный TracerProvider.
// При enabled == false глобальный провайдер остаётся no-op.
func InitTelemetry(ctx context.Context, enabled bool, serviceName string, logger *logging.Logger) (Shutdown, error) {
	if !enabled {
		logger.Debug("OpenTelemetry выключен")
		return func(context.Context) error { return nil }, nil
	}

	// OTLP HTTP экспортер (по умолчанию localhost:4318, настраивается OTEL_EXPORTER_OTLP_*)
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	tp, err := NewTracerProvider(ctx, serviceName, trace.WithBatcher(exp))
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	logger.Info("📡 OpenTelemetry инициализирован (OTLP → 4318, service=%s)", serviceName)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// NewTracerProvider создаёт провайдер с ресурсом service.name
func NewTracerProvider(ctx context.Context, serviceName string, opts ...trace.TracerProviderOption) (*trace.TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	opts = append(opts, trace.WithResource(res))
	return trace.NewTracerProvider(opts...), nil
}
