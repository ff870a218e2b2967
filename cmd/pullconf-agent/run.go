package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/puetzp/pullconf/internal/agent"
	"github.com/puetzp/pullconf/internal/env"
	"github.com/puetzp/pullconf/pkg/logging"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the catalog and converge local state to it",
	Long: `run performs a single fetch-and-converge pass: it retrieves this
host's catalog from pullconfd (honoring the cached ETag), then schedules
and applies every resource in dependency order. Repeated invocation is
expected to come from an external timer; pullconf-agent does not schedule
itself (see spec's non-goals).`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	format, err := logging.ParseFormat(env.ParseString("PULLCONF_LOG_FORMAT", string(logging.FormatLogfmt)))
	if err != nil {
		return err
	}
	logging.Init(format, os.Stderr, os.Getpid())

	cfg, err := env.LoadClientConfig()
	if err != nil {
		return err
	}

	hostname, err := os.Hostname()
	if err != nil {
		return err
	}

	client, err := httpClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fetcher := &agent.Fetcher{Client: client, Server: cfg.Server, Hostname: hostname, APIKey: cfg.APIKey}
	catalog, err := fetcher.Get(ctx)
	if err != nil {
		return err
	}

	assets := &agent.AssetFetcher{Client: client, Server: cfg.Server, Hostname: hostname, APIKey: cfg.APIKey}
	scheduler := agent.NewScheduler(catalog.Resources, assets)
	results, err := scheduler.Run(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Action.IsFailed() {
			failed++
		}
	}
	if failed > 0 {
		logging.Warn("run", "convergence finished with failures", "count", failed)
	}
	return nil
}

func httpClient(cfg *env.ClientConfig) (*http.Client, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.CADir != "" {
		pool, err := loadCAPool(cfg.CADir)
		if err != nil {
			return nil, err
		}
		tlsConfig.RootCAs = pool
	}
	return &http.Client{
		Timeout:   60 * time.Second,
		Transport: &http.Transport{TLSClientConfig: tlsConfig},
	}, nil
}

func loadCAPool(dir string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(dir + "/" + entry.Name())
		if err != nil {
			continue
		}
		pool.AppendCertsFromPEM(data)
	}
	return pool, nil
}
