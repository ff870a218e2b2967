package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/puetzp/pullconf/internal/catalog"
)

const (
	exitOK          = 0
	exitGenericErr  = 1
	exitCompileErr  = 2
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pullconfd",
	Short: "pullconfd serves compiled host configuration catalogs over HTTPS",
	Long: `pullconfd reads per-host and per-group TOML declarations from disk,
compiles a dependency-linked resource catalog for every host, and serves it
to pullconf-agent clients over authenticated HTTPS.`,
}

func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

func getExitCode(err error) int {
	var compileErr *catalog.CompileError
	if errors.As(err, &compileErr) {
		return exitCompileErr
	}
	return exitGenericErr
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.AddCommand(serveCmd)
}
