package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"faxina/internal/backend"
	"faxina/internal/cli"
	"faxina/internal/importer"
	"faxina/internal/log"
	"faxina/internal/services"
)

func main() {
	file := flag.String("file", "", "xlsx workbook to import (required)")
	sheet := flag.String("sheet", "", "worksheet name (default: first sheet)")
	dryRun := flag.Bool("dry-run", false, "validate rows without saving")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, logger := cli.Bootstrap(log.ComponentImport)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	f, err := os.Open(*file)
	if err != nil {
		logger.Error("Failed to open workbook", log.FieldError, err.Error(), "file", *file)
		os.Exit(1)
	}
	defer f.Close()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer res.Close()

	payments := res.PaymentService(
		services.WithLocation(cfg.Location()),
		services.WithLogger(logger),
	)

	result, err := importer.New(payments, logger).Import(ctx, f, importer.Options{Sheet: *sheet, DryRun: *dryRun})
	for _, rowErr := range result.Errors {
		fmt.Fprintln(os.Stderr, rowErr.Error())
	}
	if err != nil {
		logger.Error("Import failed", log.FieldError, err.Error(), "imported", result.Imported)
		os.Exit(1)
	}

	verb := "imported"
	if *dryRun {
		verb = "valid"
	}
	fmt.Printf("%d rows read, %d %s, %d rejected\n", result.Rows, result.Imported, verb, len(result.Errors))
	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}
