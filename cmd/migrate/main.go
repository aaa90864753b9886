package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/quoteworks/backend/internal/infrastructure/config"
	"github.com/quoteworks/backend/internal/infrastructure/fixture"
	"github.com/quoteworks/backend/internal/infrastructure/logger"
	"github.com/quoteworks/backend/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var logLevel string

	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("driver", cfg.Database.Driver),
	)

	// Workbooks are validated before connecting so a bad file never
	// touches the database.
	var store *fixture.Store
	if command == "seed" {
		if len(args) < 2 {
			log.Fatal("Workbook path required. Usage: migrate seed <workbook.yaml>")
		}
		store, err = fixture.Load(args[1])
		if err != nil {
			log.Fatal("Failed to load workbook", zap.String("path", args[1]), zap.Error(err))
		}
	}

	db, err := persistence.NewDatabase(&cfg.Database, log, logger.MapGormLogLevel(logLevel))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	ctx := context.Background()

	switch command {
	case "up":
		if err := db.AutoMigrate(ctx); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}
		log.Info("Schema is up to date", zap.Int("tables", len(persistence.Models())))

	case "seed":
		if err := db.AutoMigrate(ctx); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}
		counts, err := db.Seed(ctx, seedFrom(store))
		if err != nil {
			log.Fatal("Seed failed", zap.Error(err))
		}
		log.Info("Workbook seeded",
			zap.String("path", args[1]),
			zap.Int("parts", counts.Parts),
			zap.Int("products", counts.Products),
			zap.Int("option_categories", counts.Categories),
			zap.Int("projects", counts.Projects),
		)

	case "status":
		tables, err := db.Status(ctx)
		if err != nil {
			log.Fatal("Failed to read schema status", zap.Error(err))
		}
		for _, t := range tables {
			if !t.Exists {
				fmt.Printf("  - %-22s missing\n", t.Table)
				continue
			}
			fmt.Printf("  - %-22s %d rows\n", t.Table, t.Rows)
		}

	case "drop":
		log.Warn("This will DROP every catalog and project table. Are you sure? (use -confirm flag)")
		confirm := false
		for _, arg := range args[1:] {
			if arg == "-confirm" || arg == "--confirm" {
				confirm = true
				break
			}
		}
		if !confirm {
			log.Fatal("Drop cancelled. Use 'migrate drop -confirm' to confirm.")
		}
		if err := db.DropAll(ctx); err != nil {
			log.Fatal("Drop failed", zap.Error(err))
		}
		log.Info("All tables dropped")

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func seedFrom(store *fixture.Store) persistence.Seed {
	return persistence.Seed{
		Parts:        store.Parts(),
		Products:     store.Products(),
		Categories:   store.Categories(),
		Finishes:     store.Finishes(),
		GlassTypes:   store.GlassTypes(),
		Settings:     store.Settings(),
		PricingModes: store.PricingModes(),
		Projects:     store.Projects(),
	}
}

func printUsage() {
	fmt.Println(`Quote Engine Database Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Create or update the catalog and project tables
  seed <workbook.yaml>  Migrate, then upsert a workbook's catalog and projects
  status                Show every table with its row count
  drop -confirm         Drop every catalog and project table (DANGEROUS!)

Flags:
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  QUOTE_DATABASE_DRIVER    postgres or sqlite (default: postgres)
  QUOTE_DATABASE_HOST      Database host (default: localhost)
  QUOTE_DATABASE_PORT      Database port (default: 5432)
  QUOTE_DATABASE_USER      Database user (default: postgres)
  QUOTE_DATABASE_PASSWORD  Database password
  QUOTE_DATABASE_DBNAME    Database name (default: quotes)
  QUOTE_DATABASE_SSLMODE   SSL mode (default: disable)
  QUOTE_DATABASE_PATH      SQLite file (default: quotes.db)

Examples:
  migrate up
  migrate seed internal/infrastructure/fixture/testdata/storefront.yaml
  QUOTE_DATABASE_DRIVER=sqlite migrate status
  migrate drop -confirm`)
}
