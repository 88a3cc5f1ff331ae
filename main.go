// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
NaiBot Assistant serves a categorized glossary of prompt terms over HTTP.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/self-exiler/NaiBotAssistant/config"
	"github.com/self-exiler/NaiBotAssistant/core/audit"
	"github.com/self-exiler/NaiBotAssistant/core/bootstrap"
	"github.com/self-exiler/NaiBotAssistant/core/document"
	"github.com/self-exiler/NaiBotAssistant/server/middleware/limiter"
	"github.com/self-exiler/NaiBotAssistant/server/router"
	"github.com/self-exiler/NaiBotAssistant/server/routes"
)

const (
	// Values for http.Server timeouts.
	// ref: gosec: G112
	readHeaderTimeout time.Duration = 15 * time.Second
	readTimeout       time.Duration = 15 * time.Second
	writeTimeout      time.Duration = 30 * time.Second
	idleTimeout       time.Duration = 30 * time.Second

	serverShutdownDeadline time.Duration = 5 * time.Second
)

var errChmodSocket = errors.New("failed to change unix socket permissions")

// main is the entry point of the application.
func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Application failed")
	}
}

// run orchestrates the application startup and graceful shutdown.
func run() error {
	audit.SetDefaultLogger()

	if err := config.Global.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stack, err := bootstrap.Open(ctx, &config.Global)
	if err != nil {
		return err
	}

	defer func() {
		if err := stack.Close(); err != nil {
			log.Warn().Err(err).Msg("Pending backup uploads did not finish")
		}
	}()

	api := &routes.API{
		Service: stack.Service,
		Backups: stack.Document,
	}

	router := router.NewRouter()
	router.DefineRoutes(api)

	if err := router.RegisterMiddleware(); err != nil {
		return err
	}

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	listener, err := chooseListener(ctx)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		pruneBackups(groupCtx, stack.Document)

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownDeadline)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}

	limiter.Fini()

	log.Info().Msg("Server exited gracefully")

	return nil
}

// pruneBackups trims the backup directory to Store.MaxBackups every
// Store.PruneInterval until ctx is done.
func pruneBackups(ctx context.Context, doc *document.Document) {
	keep := config.Global.Store.MaxBackups
	interval := config.Global.Store.PruneInterval

	if keep <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		removed, err := doc.Prune(keep)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to prune backups")
		} else if len(removed) > 0 {
			log.Info().
				Int("removed", len(removed)).
				Int("kept", keep).
				Msg("Pruned backups")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func chooseListener(ctx context.Context) (net.Listener, error) {
	// Check if we should use a Unix domain socket
	if config.Global.Basic.UnixSocket != "" {
		unixAddr := config.Global.Basic.UnixSocket

		unixListener, err := (&net.ListenConfig{}).Listen(ctx, "unix", unixAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to start Unix socket listener on %v: %w", unixAddr, err)
		}

		if err := os.Chmod(unixAddr, config.Global.Basic.UnixSocketPermissions); err != nil {
			_ = unixListener.Close()

			return nil, fmt.Errorf("%w: %w", errChmodSocket, err)
		}

		log.Info().
			Str("address", unixAddr).
			Msg("Listening on Unix domain socket")

		return unixListener, nil
	}

	// Otherwise, fall back to TCP listener
	addr := net.JoinHostPort(config.Global.Basic.Host, config.Global.Basic.Port)

	tcpListener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start TCP listener on %v: %w", addr, err)
	}

	addr = tcpListener.Addr().String()

	// Extract the port for logging
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		_ = tcpListener.Close()

		return nil, fmt.Errorf("failed to parse listener address %q: %w", addr, err)
	}

	log.Info().
		Str("address", addr).
		Str("port", port).
		Str("url", fmt.Sprintf("http://localhost:%v/api/v1/health", port)).
		Msg("Listening on address")

	return tcpListener, nil
}
