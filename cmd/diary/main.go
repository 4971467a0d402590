package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophdiary/internal/cli"
	"github.com/dmitrijs2005/gophdiary/internal/config"
	"github.com/dmitrijs2005/gophdiary/internal/cryptox"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/services"
	"github.com/dmitrijs2005/gophdiary/internal/storage"
)

// Build-time variables, set with -ldflags "-X main.buildVersion=...".
var (
	buildVersion = "N/A"
	buildDate    = "N/A"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogBackend, os.Stderr)
	if err != nil {
		return err
	}
	defer logging.Sync(logger)
	logger.Debug(ctx, "starting", "version", buildVersion, "date", buildDate, "db", cfg.DatabasePath)

	deriver, err := cryptox.NewDeriver(cfg.KDF, cfg.KDFIterations)
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.InitializeSchema(ctx); err != nil {
		return err
	}

	diary := services.NewDiaryService(store, deriver, logger)
	if err := diary.Initialize(ctx); err != nil {
		return err
	}

	cli.NewApp(diary, logger, os.Stdin, os.Stdout).Run(ctx)
	return nil
}
