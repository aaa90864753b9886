package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func observedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func query(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func fieldMap(entry observer.LoggedEntry) map[string]zapcore.Field {
	out := make(map[string]zapcore.Field, len(entry.Context))
	for _, f := range entry.Context {
		out[f.Key] = f
	}
	return out
}

func TestNewGormLogger_Options(t *testing.T) {
	gl, _ := observedGormLogger(gormlogger.Info)
	assert.Equal(t, DefaultSlowQueryThreshold, gl.slowThreshold)
	assert.True(t, gl.ignoreRecordNotFoundError)

	gl, _ = observedGormLogger(gormlogger.Info, WithSlowThreshold(time.Second), WithIgnoreRecordNotFoundError(false))
	assert.Equal(t, time.Second, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	gl, _ := observedGormLogger(gormlogger.Info)
	warn, ok := gl.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, warn.logLevel)
	assert.Equal(t, gormlogger.Info, gl.logLevel)
}

func TestGormLogger_Messages(t *testing.T) {
	tests := []struct {
		name  string
		level gormlogger.LogLevel
		log   func(*GormLogger)
		want  zapcore.Level
		msg   string
	}{
		{"info", gormlogger.Info, func(l *GormLogger) { l.Info(context.Background(), "migrating %s", "master_parts") }, zapcore.InfoLevel, "migrating master_parts"},
		{"warn", gormlogger.Warn, func(l *GormLogger) { l.Warn(context.Background(), "%d rows", 3) }, zapcore.WarnLevel, "3 rows"},
		{"error", gormlogger.Error, func(l *GormLogger) { l.Error(context.Background(), "broken") }, zapcore.ErrorLevel, "broken"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, recorded := observedGormLogger(tt.level)
			tt.log(gl)
			require.Equal(t, 1, recorded.Len())
			entry := recorded.All()[0]
			assert.Equal(t, tt.want, entry.Level)
			assert.Equal(t, tt.msg, entry.Message)
			assert.Equal(t, "gorm", entry.LoggerName)
		})
	}

	t.Run("below level is suppressed", func(t *testing.T) {
		gl, recorded := observedGormLogger(gormlogger.Error)
		gl.Info(context.Background(), "hidden")
		gl.Warn(context.Background(), "hidden")
		assert.Zero(t, recorded.Len())
	})
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		opts    []GormLoggerOption
		elapsed time.Duration
		err     error
		want    string // empty when nothing is logged
	}{
		{"failed query", gormlogger.Error, nil, 0, errors.New("no such table: bom_lines"), "query failed"},
		{"record not found ignored", gormlogger.Error, nil, 0, gormlogger.ErrRecordNotFound, ""},
		{"record not found logged", gormlogger.Error, []GormLoggerOption{WithIgnoreRecordNotFoundError(false)}, 0, gormlogger.ErrRecordNotFound, "query failed"},
		{"slow query", gormlogger.Warn, []GormLoggerOption{WithSlowThreshold(time.Millisecond)}, time.Second, nil, "slow query"},
		{"slow logging disabled", gormlogger.Warn, []GormLoggerOption{WithSlowThreshold(0)}, time.Second, nil, ""},
		{"fast query at warn", gormlogger.Warn, nil, 0, nil, ""},
		{"fast query at info", gormlogger.Info, nil, 0, nil, "query"},
		{"silent", gormlogger.Silent, nil, time.Second, errors.New("x"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, recorded := observedGormLogger(tt.level, tt.opts...)
			gl.Trace(context.Background(), time.Now().Add(-tt.elapsed), query(`SELECT * FROM "master_parts"`, 1), tt.err)
			if tt.want == "" {
				assert.Zero(t, recorded.Len())
				return
			}
			require.Equal(t, 1, recorded.Len())
			entry := recorded.All()[0]
			assert.Equal(t, tt.want, entry.Message)
			assert.Equal(t, `SELECT * FROM "master_parts"`, fieldMap(entry)["sql"].String)
		})
	}
}

func TestGormLogger_Trace_CarriesPricingIDs(t *testing.T) {
	gl, recorded := observedGormLogger(gormlogger.Info)

	ctx, _ := WithRunID(context.Background(), zap.NewNop(), "run-1")
	ctx, _ = WithProjectID(ctx, zap.NewNop(), "proj-1")
	ctx, _ = WithOpeningID(ctx, zap.NewNop(), "open-1")
	gl.Trace(ctx, time.Now(), query("SELECT 1", -1), nil)

	require.Equal(t, 1, recorded.Len())
	fields := fieldMap(recorded.All()[0])
	assert.Equal(t, "run-1", fields["run_id"].String)
	assert.Equal(t, "proj-1", fields["project_id"].String)
	assert.Equal(t, "open-1", fields["opening_id"].String)
	assert.NotContains(t, fields, "rows")
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"WARN", gormlogger.Warn},
		{"info", gormlogger.Info},
		{" debug ", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
