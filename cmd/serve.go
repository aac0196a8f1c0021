package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/handler"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	router := handler.NewRouter(handler.RouterOptions{
		BasePath:      cfg.HTTP.BasePath,
		AllowedOrigin: cfg.HTTP.AllowedOrigin,
		Auth:          a.authn,
		AuthLimiter:   handler.NewRateLimiter(cfg.Auth.LoginRatePerMin, cfg.Auth.LoginBurst),
	}, a.handlers)

	if cfg.Reconcile.Interval > 0 {
		go a.reconciler.Run(ctx, cfg.Reconcile.Interval)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Run in background goroutine so we can wait for the shutdown signal.
	errc := make(chan error, 1)
	go func() {
		log.Info(log.CatHTTP, "server listening", "addr", srv.Addr, "base_path", cfg.HTTP.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(log.CatHTTP, "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info(log.CatHTTP, "server stopped")
	return nil
}
