package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	idsKey
)

// Field names of the pricing ids attached to log entries
const (
	FieldRunID     = "run_id"
	FieldProjectID = "project_id"
	FieldOpeningID = "opening_id"
)

// pricingIDs identify the work in progress. Each level is set once as the
// run narrows from the whole run to a project to a single opening.
type pricingIDs struct {
	run, project, opening string
}

func (ids pricingIDs) fields() []zap.Field {
	fields := make([]zap.Field, 0, 3)
	for _, f := range []struct{ key, val string }{
		{FieldRunID, ids.run},
		{FieldProjectID, ids.project},
		{FieldOpeningID, ids.opening},
	} {
		if f.val != "" {
			fields = append(fields, zap.String(f.key, f.val))
		}
	}
	return fields
}

func idsFrom(ctx context.Context) pricingIDs {
	ids, _ := ctx.Value(idsKey).(pricingIDs)
	return ids
}

// WithContext stores logger in ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	return FromContextOr(ctx, zap.NewNop())
}

// FromContextOr returns the logger stored in ctx, or fallback
func FromContextOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return fallback
}

// WithRunID tags ctx with the id of one pricing run. The returned logger
// carries the id; the logger stored in ctx stays untagged and L(ctx) adds it.
func WithRunID(ctx context.Context, logger *zap.Logger, runID string) (context.Context, *zap.Logger) {
	return withIDs(ctx, logger, FieldRunID, runID, func(ids *pricingIDs) { ids.run = runID })
}

// WithProjectID tags ctx with the project being priced
func WithProjectID(ctx context.Context, logger *zap.Logger, projectID string) (context.Context, *zap.Logger) {
	return withIDs(ctx, logger, FieldProjectID, projectID, func(ids *pricingIDs) { ids.project = projectID })
}

// WithOpeningID tags ctx with the opening being priced
func WithOpeningID(ctx context.Context, logger *zap.Logger, openingID string) (context.Context, *zap.Logger) {
	return withIDs(ctx, logger, FieldOpeningID, openingID, func(ids *pricingIDs) { ids.opening = openingID })
}

func withIDs(ctx context.Context, logger *zap.Logger, field, value string, set func(*pricingIDs)) (context.Context, *zap.Logger) {
	ids := idsFrom(ctx)
	set(&ids)
	ctx = WithContext(context.WithValue(ctx, idsKey, ids), logger)
	return ctx, logger.With(zap.String(field, value))
}

func GetRunID(ctx context.Context) string     { return idsFrom(ctx).run }
func GetProjectID(ctx context.Context) string { return idsFrom(ctx).project }
func GetOpeningID(ctx context.Context) string { return idsFrom(ctx).opening }

// ContextLogger logs with the trace and pricing ids found in its context
//
//	logger.L(ctx).Warn("no cost found for BOM line", zap.String("part_number", pn))
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns a ContextLogger over the logger stored in ctx
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: FromContext(ctx)}
}

// WithLogger returns a ContextLogger over logger rather than the one in ctx
func WithLogger(ctx context.Context, logger *zap.Logger) *ContextLogger {
	return &ContextLogger{ctx: ctx, logger: logger}
}

func (cl *ContextLogger) enrichedLogger() *zap.Logger {
	l := cl.logger
	if l == nil {
		l = zap.NewNop()
	}
	fields := idsFrom(cl.ctx).fields()
	if sc := trace.SpanContextFromContext(cl.ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	l := cl.logger
	if l == nil {
		l = zap.NewNop()
	}
	return &ContextLogger{ctx: cl.ctx, logger: l.With(fields...)}
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Debug(msg, fields...)
}

func (cl *ContextLogger) Info(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Info(msg, fields...)
}

func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Warn(msg, fields...)
}

func (cl *ContextLogger) Error(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Error(msg, fields...)
}

// Zap returns the enriched zap logger, for APIs that want one
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.enrichedLogger()
}
