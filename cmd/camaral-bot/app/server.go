// Package app provides the Camaral bot server application.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kart-io/camaral-bot/cmd/camaral-bot/app/options"
	botsvc "github.com/kart-io/camaral-bot/internal/bot"
	"github.com/kart-io/camaral-bot/pkg/infra/app"
)

const (
	// Name is the name of the application.
	Name = botsvc.Name

	// commandDesc is the description of the command.
	commandDesc = `Camaral Telegram Bot

Product assistant for Camaral answering questions in Telegram with
retrieval-augmented generation over the Camaral knowledge document.

This server provides:
  - Telegram webhook at /api/telegram (text, voice notes, inline menus)
  - Knowledge base re-indexing at /api/index
  - Operational endpoints /v1/stats, /metrics and /healthz`
)

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := options.NewServerOptions()

	application := app.NewApp(
		app.WithName(Name),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)

	return application
}

// run contains the main logic for initializing and running the server.
func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		// Load the configuration options
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		ctx := setupSignalContext()

		// Build the server using the configuration
		server, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		// Run the server with signal context for graceful shutdown
		return server.Run(ctx)
	}
}

// setupSignalContext returns a context that is cancelled on SIGINT or SIGTERM.
func setupSignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
		<-c
		os.Exit(1)
	}()
	return ctx
}
