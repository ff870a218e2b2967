package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/puetzp/pullconf/internal/env"
	"github.com/puetzp/pullconf/internal/server"
	"github.com/puetzp/pullconf/pkg/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Compile every host's catalog and serve it over HTTPS",
	Long: `serve loads host and group declarations from the resource directory,
compiles every host's catalog, and listens for authenticated HTTPS requests
from pullconf-agent clients. Sending SIGHUP to the running process triggers
a recompile from disk without a restart.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	format, err := logging.ParseFormat(env.ParseString("PULLCONF_LOG_FORMAT", string(logging.FormatLogfmt)))
	if err != nil {
		return err
	}
	logging.Init(format, os.Stderr, os.Getpid())

	cfg, err := env.LoadServerConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return server.Run(ctx, cfg)
}
