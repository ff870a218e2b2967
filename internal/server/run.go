package server

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/puetzp/pullconf/internal/env"
	"github.com/puetzp/pullconf/pkg/logging"
)

const (
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 120 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// Run loads the initial generation, starts the HTTPS listener and blocks
// until ctx is canceled, reloading the compiled state whenever SIGHUP is
// received.
func Run(ctx context.Context, cfg *env.ServerConfig) error {
	state := NewState(cfg.ClientDir, cfg.GroupDir, cfg.AssetDir)
	if err := state.Reload(); err != nil {
		return err
	}

	cert, err := tls.LoadX509KeyPair(cfg.TLSCertificate, cfg.TLSPrivateKey)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenOn,
		Handler:           state.Router(),
		TLSConfig:         &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12},
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logging.Info(logScope, "listening", "address", cfg.ListenOn)
		if err := srv.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		return watchReload(ctx, state)
	})

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func watchReload(ctx context.Context, state *State) error {
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sighup:
			logging.Info(logScope, "received SIGHUP, reloading")
			if err := state.Reload(); err != nil {
				logging.Error(logScope, err, "reload failed, keeping previous generation")
			}
		}
	}
}
