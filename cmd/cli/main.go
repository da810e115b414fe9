package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/iotadmin/internal/buildinfo"
	"github.com/dmitrijs2005/iotadmin/internal/client/cli"
	"github.com/dmitrijs2005/iotadmin/internal/client/config"
	"github.com/dmitrijs2005/iotadmin/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	logger := logging.NewConsoleLogger(os.Stderr, cfg.LogLevel)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "failed to start", "error", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "console stopped", "error", err)
		os.Exit(1)
	}

}
