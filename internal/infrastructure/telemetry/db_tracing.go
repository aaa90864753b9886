package telemetry

import (
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls spans for catalog and project queries
type DBTracingConfig struct {
	Enabled bool
	DBName  string
	// WithQueryVariables records bound values in span statements. Off by
	// default since project names and customer data pass through them.
	WithQueryVariables bool
}

// InstrumentDB registers the otelgorm plugin so every query made with a
// span in its context becomes a child span. It uses the global tracer
// provider, so call it after NewTracerProvider.
func InstrumentDB(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.WithQueryVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return fmt.Errorf("registering query tracing: %w", err)
	}
	logger.Debug("Query tracing enabled", zap.String("db_name", cfg.DBName))
	return nil
}
