// Command seed imports the automation catalog.
//
// The file is the .xlsx catalog sheet, a JSON array of rows exported from
// it, or a catalog document. The first sheet of a workbook is read. The server exposes the same import at
// POST /admin/setup; this command is meant for first deployments.
//
// Flags:
//
//	--file     path to the catalog file (required)
//	--dry-run  validate the file without writing to the database
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/DukeRupert/ordoflow/internal"
	"github.com/DukeRupert/ordoflow/internal/seed"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	fileFlag := flag.String("file", "", "path to the catalog workbook, rows or document file")
	dryRunFlag := flag.Bool("dry-run", false, "validate without writing to the database")
	flag.Parse()

	if *fileFlag == "" {
		return fmt.Errorf("--file is required")
	}

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	data, err := os.ReadFile(*fileFlag)
	if err != nil {
		return fmt.Errorf("read catalog file: %w", err)
	}

	doc, err := seed.Decode(data)
	if err != nil {
		return err
	}
	logger.Info("Catalog parsed",
		"file", *fileFlag,
		"categories", len(doc.Categories),
		"automations", len(doc.Automations),
	)

	if *dryRunFlag {
		logger.Info("Dry run, nothing written")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := internal.RunMigrations(ctx, db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	result, err := seed.NewImporter(db, logger).Import(ctx, doc)
	if err != nil {
		return err
	}

	// Cached catalog entries expire after CATALOG_CACHE_TTL.
	logger.Info("Catalog imported",
		"categories", result.CategoriesUpserted,
		"automations", result.AutomationsUpserted,
	)
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
