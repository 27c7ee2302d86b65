package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ledgerbook/internal/backend"
	"ledgerbook/internal/cli"
	"ledgerbook/internal/console"
	applog "ledgerbook/internal/log"
)

func main() {
	cli.LoadEnvFile()
	if os.Getenv("LOG_LEVEL") == "" {
		// Keep the menu readable unless asked otherwise.
		_ = os.Setenv("LOG_LEVEL", "warn")
	}
	cfg := cli.LoadAndValidateConfig(string(backend.TextBackend))
	logger := cli.SetupLogger(cfg.LogLevel, os.Stderr, applog.ComponentConsole)

	ctx, stop := cli.SignalContext()
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateLedger(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize ledger", "error", err, applog.FieldBackend, backendCfg.Type)
		os.Exit(1)
	}

	menu := &console.Menu{
		In:       os.Stdin,
		Out:      os.Stdout,
		Service:  result.Service,
		Currency: cfg.CurrencySymbol,
	}
	runErr := menu.Run(ctx)

	if err := result.Cleanup(); err != nil {
		logger.Error("Cleanup failed", "error", err)
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}
