// Command storefront is the xcar storefront client. Each invocation loads the
// local state, refreshes the catalog once, runs one command and exits.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"xcar/internal/client"
	"xcar/internal/config"
	"xcar/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewCLI(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := client.New(cfg.Client, log, client.Deps{})
	if err != nil {
		log.Fatal("Failed to start storefront", zap.Error(err))
	}

	cli := &CLI{App: app, Out: os.Stdout}
	cli.Video, _ = app.Start(ctx)
	if banner := app.Monitor.Banner(); banner != "" {
		fmt.Fprintln(os.Stderr, banner)
	}

	runErr := cli.Run(ctx, os.Args[1:])
	if err := app.Close(); err != nil {
		log.Warn("Failed to close local stores", zap.Error(err))
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
