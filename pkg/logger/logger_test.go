package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsTraceID(t *testing.T) {
	observerLogger, logs := observer.New(zap.DebugLevel)
	dut := &ZapLogger{zap.New(observerLogger)}

	traceID := trace.TraceID{0x01, 0x02}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  trace.SpanID{0x03},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	dut.InfoWithContext(ctx, "with span")
	dut.WarnWithContext(context.Background(), "without span")

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	require.Equal(t, map[string]interface{}{"trace_id": traceID.String()}, entries[0].ContextMap())
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Empty(t, entries[1].ContextMap())
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestWithFields(t *testing.T) {
	observerLogger, logs := observer.New(zap.DebugLevel)
	logger := &ZapLogger{zap.New(observerLogger)}

	child := logger.With(zap.String("component", "pipeline"))
	child.Info("child")
	logger.Info("parent")

	require.Equal(t, map[string]interface{}{"component": "pipeline"}, logs.All()[0].ContextMap())
	require.Empty(t, logs.All()[1].ContextMap())
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		level   string
		wantErr bool
	}{
		{"json info", "json", "info", false},
		{"text debug", "text", "debug", false},
		{"none", "json", "none", false},
		{"bad level", "json", "verbose", true},
		{"bad format", "xml", "info", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.format, tt.level)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, l)
		})
	}
}
