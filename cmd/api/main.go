package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ewilliams-labs/bookbeats/internal/adapters/rest"
	"github.com/ewilliams-labs/bookbeats/internal/app"
	"github.com/ewilliams-labs/bookbeats/internal/config"
	"github.com/ewilliams-labs/bookbeats/internal/logging"
)

func main() {
	// 1. Configuration (defaults, config.yaml, environment)
	cfg, err := config.Load()
	if err != nil {
		l := logging.WithComponent("api")
		l.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(cfg.Logging)
	log := logging.WithComponent("api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Driven adapters, engine and preview worker
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error().Err(err).Msg("close failed")
		}
	}()

	// 3. Driving adapter
	handler := rest.NewHandler(a.Orchestrator, cfg.REST)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()
	log.Info().Str("addr", cfg.Server.Addr).Msg("bookbeats API listening")

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}
	}
}
