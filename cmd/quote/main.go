package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/quoteworks/backend/internal/application/quote"
	"github.com/quoteworks/backend/internal/application/report"
	"github.com/quoteworks/backend/internal/domain/catalog"
	"github.com/quoteworks/backend/internal/domain/project"
	"github.com/quoteworks/backend/internal/domain/shared"
	"github.com/quoteworks/backend/internal/infrastructure/config"
	"github.com/quoteworks/backend/internal/infrastructure/fixture"
	"github.com/quoteworks/backend/internal/infrastructure/logger"
	"github.com/quoteworks/backend/internal/infrastructure/persistence"
	costingregistry "github.com/quoteworks/backend/internal/infrastructure/strategy"
	"github.com/quoteworks/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var errReconcile = errors.New("reports do not reconcile")

type options struct {
	workbook string
	project  string
	outDir   string
	xlsx     bool
	logLevel string
}

func main() {
	var opts options
	flag.StringVar(&opts.workbook, "workbook", "", "Price projects from a YAML workbook instead of the database")
	flag.StringVar(&opts.project, "project", "", "Project key or UUID to price (default: every project)")
	flag.StringVar(&opts.outDir, "out", "", "Report output directory (default: report.output_dir)")
	flag.BoolVar(&opts.xlsx, "xlsx", false, "Also write the BOM summary as an XLSX workbook")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() > 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.outDir != "" {
		cfg.Report.OutputDir = opts.outDir
	}
	if opts.xlsx {
		cfg.Report.WriteXLSX = true
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, opts, log)
	stop()

	code := 0
	switch {
	case errors.Is(err, errReconcile):
		code = 2
	case err != nil:
		log.Error("Quote run failed", zap.String("code", shared.ErrorCode(err)), zap.Error(err))
		code = 1
	}
	_ = logger.Sync(log)
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, opts options, log *zap.Logger) error {
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("tracer provider: %w", err)
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("meter provider: %w", err)
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("logger provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
		if err := lp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()

	log = lp.Tee(log, log.Level())
	ctx, log = logger.WithRunID(ctx, log, uuid.NewString())
	log.Info("Starting quote engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("costing_method", string(cfg.Pricing.DefaultCostingMethod)),
	)

	metrics, err := telemetry.NewQuoteMetrics(mp.Meter("quote-engine"), log)
	if err != nil {
		return fmt.Errorf("quote metrics: %w", err)
	}

	src, err := openSource(cfg, opts.workbook, log)
	if err != nil {
		return err
	}
	defer src.close()

	ids, err := src.projectIDs(ctx, opts.project)
	if err != nil {
		return err
	}

	registry, err := costingregistry.NewRegistryWithDefaultCosting(cfg.Pricing.DefaultCostingMethod)
	if err != nil {
		return fmt.Errorf("costing strategies: %w", err)
	}

	quotes := quote.NewService(src.catalog, src.projects, registry, quote.Config{
		DefaultPricePerPound: cfg.Pricing.DefaultPricePerPound,
		ParallelOpenings:     cfg.Pricing.ParallelOpenings,
		MaxParallelOpenings:  cfg.Pricing.MaxParallelOpenings,
	}, log)
	quotes.SetMetrics(metrics)

	reports := report.NewService(report.Config{
		OutputDir: cfg.Report.OutputDir,
		WriteXLSX: cfg.Report.WriteXLSX,
	}, log)
	reports.SetMetrics(metrics)

	failed := 0
	for _, id := range ids {
		q, err := quotes.PriceProject(ctx, id)
		if err != nil {
			return fmt.Errorf("pricing project %s: %w", id, err)
		}
		rendered, files, err := reports.WriteAll(ctx, q)
		if err != nil {
			return fmt.Errorf("writing reports for %s: %w", q.Name, err)
		}
		result, err := reports.Reconcile(ctx, rendered)
		if err != nil {
			return fmt.Errorf("reconciling reports for %s: %w", q.Name, err)
		}

		fields := []zap.Field{
			zap.String("project", q.Name),
			zap.String("grand_total", q.Totals.GrandTotal.StringFixed(2)),
			zap.Int("no_cost_lines", q.NoCostLines),
			zap.String("pricing_debug", files.PricingDebug),
			zap.String("bom_summary", files.BOMSummary),
			zap.String("purchasing", files.Purchasing),
		}
		if files.BOMWorkbook != "" {
			fields = append(fields, zap.String("bom_workbook", files.BOMWorkbook))
		}
		if !result.OK() {
			failed++
			log.Error("Reconciliation failed", append(fields, zap.Int("failed_checks", len(result.Failed())))...)
			continue
		}
		log.Info("Quote written", fields...)
	}

	if failed > 0 {
		log.Error("Reports do not reconcile", zap.Int("projects", failed))
		return errReconcile
	}
	return nil
}

// source is where catalog and project data come from for one run
type source struct {
	catalog  catalog.Repository
	projects project.Repository
	all      func(context.Context) ([]uuid.UUID, error)
	close    func()
}

func openSource(cfg *config.Config, workbook string, log *zap.Logger) (*source, error) {
	if workbook != "" {
		store, err := fixture.Load(workbook)
		if err != nil {
			return nil, fmt.Errorf("loading workbook: %w", err)
		}
		log.Info("Workbook loaded",
			zap.String("path", workbook),
			zap.Int("parts", len(store.Parts())),
			zap.Int("products", len(store.Products())),
			zap.Int("projects", len(store.Projects())),
		)
		return &source{
			catalog:  store,
			projects: store,
			all: func(context.Context) ([]uuid.UUID, error) {
				ids := make([]uuid.UUID, 0, len(store.Projects()))
				for _, p := range store.Projects() {
					ids = append(ids, p.ID)
				}
				return ids, nil
			},
			close: func() {},
		}, nil
	}

	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if err := telemetry.InstrumentDB(db.DB, telemetry.DBTracingConfig{
		Enabled: cfg.Telemetry.Enabled && cfg.Telemetry.DBTracing,
		DBName:  cfg.Database.DBName,
	}, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	projectRepo := persistence.NewGormProjectRepository(db.DB)
	return &source{
		catalog:  persistence.NewGormCatalogRepository(db.DB),
		projects: projectRepo,
		all: func(ctx context.Context) ([]uuid.UUID, error) {
			projects, err := projectRepo.FindAll(ctx, shared.DefaultFilter())
			if err != nil {
				return nil, err
			}
			ids := make([]uuid.UUID, 0, len(projects))
			for _, p := range projects {
				ids = append(ids, p.ID)
			}
			return ids, nil
		},
		close: func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		},
	}, nil
}

// projectIDs resolves the -project flag. Workbook keys map to the same ids
// the seed command writes, so keys work against a seeded database too.
func (s *source) projectIDs(ctx context.Context, ref string) ([]uuid.UUID, error) {
	if ref == "" {
		ids, err := s.all(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing projects: %w", err)
		}
		if len(ids) == 0 {
			return nil, errors.New("no projects to price")
		}
		return ids, nil
	}
	if id, err := uuid.Parse(ref); err == nil {
		return []uuid.UUID{id}, nil
	}
	return []uuid.UUID{fixture.ProjectID(ref)}, nil
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Quote engine

Prices projects and writes the pricing-debug, BOM summary and purchasing
reports, then checks that the three reports reconcile.

Usage:
  quote [flags]

Flags:
  -workbook string   Price projects from a YAML workbook instead of the database
  -project string    Project key or UUID to price (default: every project)
  -out string        Report output directory (default: report.output_dir)
  -xlsx              Also write the BOM summary as an XLSX workbook
  -log-level string  Log level (debug, info, warn, error)

Exit status is 2 when any project's reports do not reconcile.

Examples:
  quote -workbook internal/infrastructure/fixture/testdata/storefront.yaml
  quote -workbook quotes.yaml -project storefront -xlsx
  QUOTE_DATABASE_DRIVER=sqlite quote -project front-door
`)
}
