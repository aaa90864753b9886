package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(entry observer.LoggedEntry) map[string]string {
	m := make(map[string]string, len(entry.Context))
	for _, f := range entry.Context {
		m[f.Key] = f.String
	}
	return m
}

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	l := zap.NewExample()
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
	assert.Same(t, l, FromContextOr(context.Background(), l))

	nop := FromContext(context.Background())
	require.NotNil(t, nop)
	nop.Info("dropped")
}

func TestWithProjectID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx, enriched := WithProjectID(context.Background(), base, "proj-1")
	assert.Equal(t, "proj-1", GetProjectID(ctx))
	assert.Empty(t, GetRunID(ctx))
	assert.Same(t, base, FromContext(ctx))

	enriched.Info("direct")
	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "proj-1", fieldMap(recorded.All()[0])[FieldProjectID])
}

func TestL_CarriesPricingIDs(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	ctx := WithContext(context.Background(), zap.New(core))
	ctx, _ = WithRunID(ctx, FromContext(ctx), "run-9")
	ctx, _ = WithProjectID(ctx, FromContext(ctx), "proj-1")
	openingCtx, _ := WithOpeningID(ctx, FromContext(ctx), "open-2")

	L(openingCtx).Warn("no cost found")
	L(ctx).Info("project priced")

	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]string{
		FieldRunID:     "run-9",
		FieldProjectID: "proj-1",
		FieldOpeningID: "open-2",
	}, fieldMap(entries[0]))
	assert.NotContains(t, fieldMap(entries[1]), FieldOpeningID, "sibling contexts do not share the opening")
}

func TestL_WithTraceContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := WithContext(spanContext(t), zap.New(core))

	L(ctx).With(zap.String("component", "quote")).Info("priced")

	fields := fieldMap(recorded.All()[0])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
	assert.Equal(t, "quote", fields["component"])
}

func TestContextLogger_Levels(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	cl := WithLogger(context.Background(), zap.New(core))

	cl.Debug("d")
	cl.Info("i")
	cl.Warn("w")
	cl.Error("e")
	cl.Zap().Info("z")

	assert.Equal(t, 5, recorded.Len())
	assert.Empty(t, recorded.All()[0].Context)
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := &ContextLogger{ctx: context.Background()}
	assert.NotPanics(t, func() {
		cl.Info("nothing")
		cl.With(zap.Int("n", 1)).Warn("still nothing")
	})
}
