package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "tutorapp"

var globalTracer trace.Tracer

// InitGlobalTracer initializes the global tracer for the application.
func InitGlobalTracer() {
	globalTracer = otel.Tracer(tracerName)
}

// GetGlobalTracer returns the global tracer instance for the application.
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		globalTracer = otel.Tracer(tracerName)
	}
	return globalTracer
}

// TraceFunction starts a new span named "<area>.<function>".
func TraceFunction(ctx context.Context, area, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	spanName := fmt.Sprintf("%s.%s", area, functionName)
	return GetGlobalTracer().Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceTutorFunction starts a new span for a tutor service function.
func TraceTutorFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "tutor", functionName, attributes...)
}

// TraceOracleFunction starts a new span for a language model call.
func TraceOracleFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "oracle", functionName, attributes...)
}

// TraceHandlerFunction starts a new span for a handler function.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// AttributeLanguage returns a tracing attribute for a target language.
func AttributeLanguage(lang string) attribute.KeyValue {
	return attribute.String("language", lang)
}

// AttributeDifficulty returns a tracing attribute for a difficulty level.
func AttributeDifficulty(level string) attribute.KeyValue {
	return attribute.String("difficulty", level)
}

// AttributeSessionID returns a tracing attribute for a tutor session id.
func AttributeSessionID(id string) attribute.KeyValue {
	return attribute.String("tutor.session_id", id)
}

// AttributePhase returns a tracing attribute for the question lifecycle phase.
func AttributePhase(phase string) attribute.KeyValue {
	return attribute.String("tutor.phase", phase)
}

// AttributeProvider returns a tracing attribute for the oracle provider.
func AttributeProvider(provider string) attribute.KeyValue {
	return attribute.String("oracle.provider", provider)
}

// AttributeModel returns a tracing attribute for the oracle model.
func AttributeModel(model string) attribute.KeyValue {
	return attribute.String("oracle.model", model)
}
