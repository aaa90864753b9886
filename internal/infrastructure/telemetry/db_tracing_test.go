package telemetry_test

import (
	"context"
	"testing"

	"github.com/quoteworks/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestInstrumentDB(t *testing.T) {
	t.Run("queries become child spans", func(t *testing.T) {
		recorder := withSpanRecorder(t)
		db := openMemoryDB(t)
		require.NoError(t, telemetry.InstrumentDB(db, telemetry.DBTracingConfig{Enabled: true, DBName: "quotes"}, zaptest.NewLogger(t)))
		assert.Contains(t, db.Config.Plugins, "otelgorm")

		ctx, root := otel.Tracer("test").Start(context.Background(), "quote.price_project")
		var one int
		require.NoError(t, db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error)
		root.End()
		assert.Equal(t, 1, one)

		var children int
		for _, s := range recorder.Ended() {
			if s.Parent().SpanID() == root.SpanContext().SpanID() {
				children++
			}
		}
		assert.Positive(t, children)
	})

	t.Run("disabled leaves the connection alone", func(t *testing.T) {
		db := openMemoryDB(t)
		require.NoError(t, telemetry.InstrumentDB(db, telemetry.DBTracingConfig{}, zaptest.NewLogger(t)))
		assert.NotContains(t, db.Config.Plugins, "otelgorm")
	})
}
