package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/puetzp/pullconf/internal/apierror"
)

const (
	exitOK         = 0
	exitGenericErr = 1
	exitAPIErr     = 2
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pullconf-agent",
	Short: "pullconf-agent converges local system state to a fetched catalog",
	Long: `pullconf-agent fetches this host's compiled resource catalog from
pullconfd and converges local system state (files, directories, symlinks,
users, groups, hosts entries, resolver configuration, packages, cron jobs)
to match it.`,
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
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		return exitAPIErr
	}
	return exitGenericErr
}

func init() {
	rootCmd.SilenceUsage = true
	rootCmd.AddCommand(runCmd)
}
