// Command fakebackend serves seeded applications on the backend contract
// so the admin tools can be run without the real service.
package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gaborage/licence-admin/config"
	"github.com/gaborage/licence-admin/logger"
	"github.com/gaborage/licence-admin/observability"
	"github.com/gaborage/licence-admin/testing/fakebackend"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.WithoutAPI())
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	provider, err := observability.NewProvider(cfg.Observability, cfg.App, observability.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		if err := observability.Shutdown(provider, cfg.Server.Timeout.Shutdown); err != nil {
			log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	server := fakebackend.New(fakebackend.WithLogger(log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Server)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down fake backend...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout.Shutdown)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
