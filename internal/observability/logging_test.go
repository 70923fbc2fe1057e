package observability

import (
	"context"
	"errors"
	"testing"

	"tutorapp/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &Logger{Logger: zap.New(core)}, logs
}

func TestLogWithContextAddsTraceInfo(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	tracer := tp.Tracer("test-tracer")

	logger, observedLogs := newObservedLogger(zap.InfoLevel)

	ctx, span := tracer.Start(context.Background(), "test-span")
	defer span.End()

	logger.Info(ctx, "question generated", map[string]interface{}{"language": "German"})

	entries := observedLogs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "question generated", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "German", fields["language"])
	assert.Equal(t, span.SpanContext().TraceID().String(), fields["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), fields["span_id"])
}

func TestLogWithContextNoSpan(t *testing.T) {
	logger, observedLogs := newObservedLogger(zap.InfoLevel)

	logger.Info(context.Background(), "test message", nil)

	entries := observedLogs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.NotContains(t, fields, "trace_id")
	assert.NotContains(t, fields, "span_id")
}

func TestLogger_ErrorAddsErrorField(t *testing.T) {
	logger, observedLogs := newObservedLogger(zap.DebugLevel)

	fields := map[string]interface{}{"provider": "gemini"}
	logger.Error(context.Background(), "oracle call failed", errors.New("status 503"), fields)

	entries := observedLogs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
	assert.Equal(t, "status 503", entries[0].ContextMap()["error"])
	assert.Equal(t, "gemini", entries[0].ContextMap()["provider"])
	assert.NotContains(t, fields, "error", "caller's field map must not be modified")
}

func TestLogger_MergesFieldMapsAndRespectsLevel(t *testing.T) {
	logger, observedLogs := newObservedLogger(zap.WarnLevel)

	logger.Debug(context.Background(), "dropped")
	logger.Info(context.Background(), "dropped too")
	logger.Warn(context.Background(), "feedback degraded",
		map[string]interface{}{"a": 1},
		nil,
		map[string]interface{}{"b": 2},
	)

	entries := observedLogs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.EqualValues(t, 1, entries[0].ContextMap()["a"])
	assert.EqualValues(t, 2, entries[0].ContextMap()["b"])
}

func TestNewLogger_DisabledIsNop(t *testing.T) {
	assert.NotNil(t, NewLogger(nil))
	logger := NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	assert.False(t, logger.Core().Enabled(zap.ErrorLevel))
	assert.NoError(t, logger.Shutdown(context.Background()))
}

func TestNewLoggerWithLevel_StdoutOnly(t *testing.T) {
	logger := NewLoggerWithLevel(&config.OpenTelemetryConfig{EnableLogging: true}, zap.WarnLevel)
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.Nil(t, logger.provider)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zap.WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, zap.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zap.InfoLevel, ParseLevel(""))
	assert.Equal(t, zap.InfoLevel, ParseLevel("chatty"))
}
