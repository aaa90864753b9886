// Package config loads quote engine settings from config.toml and QUOTE_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quoteworks/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Log       LogConfig
	Pricing   PricingConfig
	Report    ReportConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Name    string
	Env     string
	Version string
}

// DatabaseConfig selects the catalog store. Host through SSLMode apply to
// postgres; Path applies to sqlite, where ":memory:" keeps nothing on disk.
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // minutes
	ConnMaxIdleTime int // minutes
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// PricingConfig holds engine-wide pricing defaults. A project's own costing
// method and the catalog's price per pound take precedence.
type PricingConfig struct {
	DefaultCostingMethod strategy.CostingMethod
	DefaultPricePerPound decimal.Decimal
	ParallelOpenings     bool
	MaxParallelOpenings  int
}

type ReportConfig struct {
	OutputDir string
	WriteXLSX bool
}

type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
	DBTracing         bool
}

var defaults = map[string]any{
	"app.name":                        "quote-engine",
	"app.env":                         "development",
	"app.version":                     "dev",
	"database.driver":                 DriverPostgres,
	"database.host":                   "localhost",
	"database.port":                   5432,
	"database.user":                   "postgres",
	"database.dbname":                 "quotes",
	"database.sslmode":                "disable",
	"database.path":                   "quotes.db",
	"database.max_open_conns":         10,
	"database.max_idle_conns":         2,
	"database.conn_max_lifetime":      60,
	"database.conn_max_idle_time":     30,
	"log.level":                       "info",
	"log.format":                      "console",
	"log.output":                      "stderr",
	"pricing.default_costing_method":  string(strategy.CostingMethodFullStock),
	"pricing.default_price_per_pound": "0",
	"pricing.parallel_openings":       false,
	"pricing.max_parallel_openings":   0,
	"report.output_dir":               "reports",
	"report.write_xlsx":               false,
	"telemetry.enabled":               false,
	"telemetry.collector_endpoint":    "localhost:4317",
	"telemetry.sampling_ratio":        1.0,
	"telemetry.insecure":              false,
	"telemetry.metrics_interval":      "60s",
	"telemetry.logs_enabled":          false,
	"telemetry.db_tracing":            false,
}

// Load reads config.toml from the working directory or /etc/quote, then
// lets QUOTE_SECTION_KEY environment variables override any value, e.g.
// QUOTE_DATABASE_DRIVER=sqlite. A missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/quote")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	v.SetEnvPrefix("QUOTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	pricePerPound, err := decimal.NewFromString(strings.TrimSpace(v.GetString("pricing.default_price_per_pound")))
	if err != nil {
		return nil, fmt.Errorf("pricing.default_price_per_pound: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Version: v.GetString("app.version"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Pricing: PricingConfig{
			DefaultCostingMethod: strategy.CostingMethod(strings.ToUpper(v.GetString("pricing.default_costing_method"))),
			DefaultPricePerPound: pricePerPound,
			ParallelOpenings:     v.GetBool("pricing.parallel_openings"),
			MaxParallelOpenings:  v.GetInt("pricing.max_parallel_openings"),
		},
		Report: ReportConfig{
			OutputDir: v.GetString("report.output_dir"),
			WriteXLSX: v.GetBool("report.write_xlsx"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTracing:         v.GetBool("telemetry.db_tracing"),
		},
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate reports every invalid setting at once
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	db := c.Database
	check(db.Driver == DriverPostgres || db.Driver == DriverSQLite,
		"database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, db.Driver)
	check(db.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns >= 0, "database.max_idle_conns cannot be negative")
	check(db.MaxIdleConns <= db.MaxOpenConns,
		"database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)
	if c.App.Env == "production" && db.Driver == DriverPostgres {
		check(db.Password != "", "database.password is required in production")
		check(db.SSLMode != "disable", "database.sslmode cannot be 'disable' in production")
	}

	p := c.Pricing
	check(p.DefaultCostingMethod.IsValid(),
		"pricing.default_costing_method %q is not a known costing method", p.DefaultCostingMethod)
	check(!p.DefaultPricePerPound.IsNegative(), "pricing.default_price_per_pound cannot be negative")
	check(p.MaxParallelOpenings >= 0, "pricing.max_parallel_openings cannot be negative")

	check(c.Telemetry.SamplingRatio >= 0 && c.Telemetry.SamplingRatio <= 1,
		"telemetry.sampling_ratio must be between 0 and 1, got %g", c.Telemetry.SamplingRatio)
	check(c.Telemetry.MetricsInterval > 0, "telemetry.metrics_interval must be positive")

	return errors.Join(errs...)
}

// DSN returns the postgres connection URL with user, password and database
// name escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
