package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/quoteworks/backend/internal/infrastructure/config"
	"github.com/quoteworks/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// NewDatabase creates a new database connection with the given configuration.
// Queries are logged through zapLogger at logLevel; a nil logger silences them.
func NewDatabase(cfg *config.DatabaseConfig, zapLogger *zap.Logger, logLevel gormlogger.LogLevel) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
		PrepareStmt:            cfg.Driver == config.DriverPostgres,
	}
	if zapLogger != nil {
		gormCfg.Logger = logger.NewGormLogger(zapLogger, logLevel, logger.WithIgnoreRecordNotFoundError(true))
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite serializes writers and ":memory:" is per connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		return postgres.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Models lists every persisted entity in migration order
func Models() []any {
	return []any{
		&catalog.MasterPart{},
		&catalog.StockLengthRule{},
		&catalog.PricingRule{},
		&catalog.Product{},
		&catalog.BOMLine{},
		&catalog.ProductCategory{},
		&catalog.OptionCategory{},
		&catalog.IndividualOption{},
		&catalog.LinkedPart{},
		&catalog.OptionVariant{},
		&catalog.FinishType{},
		&catalog.GlassType{},
		&catalog.PricingSettings{},
		&project.PricingMode{},
		&project.Project{},
		&project.Opening{},
		&project.Panel{},
		&project.ComponentInstance{},
	}
}

// AutoMigrate creates or updates the catalog and project tables
func (d *Database) AutoMigrate(ctx context.Context) error {
	if err := d.DB.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrating schema: %w", err)
	}
	return nil
}

// DropAll drops every catalog and project table, children first
func (d *Database) DropAll(ctx context.Context) error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if err := d.DB.WithContext(ctx).Migrator().DropTable(models[i]); err != nil {
			return fmt.Errorf("dropping %T: %w", models[i], err)
		}
	}
	return nil
}

// TableStatus reports whether a model's table exists and how many rows it holds
type TableStatus struct {
	Table  string
	Exists bool
	Rows   int64
}

// Status inspects every model table
func (d *Database) Status(ctx context.Context) ([]TableStatus, error) {
	db := d.DB.WithContext(ctx)
	out := make([]TableStatus, 0, len(Models()))
	for _, m := range Models() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("parsing %T: %w", m, err)
		}
		st := TableStatus{Table: stmt.Schema.Table, Exists: db.Migrator().HasTable(m)}
		if st.Exists {
			if err := db.Model(m).Count(&st.Rows).Error; err != nil {
				return nil, fmt.Errorf("counting %s: %w", st.Table, err)
			}
		}
		out = append(out, st)
	}
	return out, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Stats returns database connection pool statistics and an error if unable to retrieve
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// Transaction executes a function within a database transaction
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}
