// Copyright (C) 2025 Joshua Goldstein

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const (
	janitorInterval = time.Minute
	shutdownTimeout = 10 * time.Second
)

// NewServeCmd creates the serve command.
func NewServeCmd(st *cliState) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admin console",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				st.cfg.Listen = listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, st)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")
	return cmd
}

func runServer(ctx context.Context, st *cliState) error {
	cfg := st.cfg
	a, err := NewApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           a.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Backend.Timeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go a.janitor(ctx, janitorInterval)

	errc := make(chan error, 1)
	go func() {
		a.log.Info("Console listening", "addr", cfg.Listen, "backend", cfg.Backend.BaseURL, "version", getVersion())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", cfg.Listen, err)
	case <-ctx.Done():
	}

	a.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// janitor drops expired cache entries, idle filter stores and old login
// attempts until ctx ends.
func (a *App) janitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.sweep(ctx)
		}
	}
}

func (a *App) sweep(ctx context.Context) {
	cached := a.cache.Prune()
	verified := a.verified.Prune()
	idle := a.filters.Prune(a.cfg.Table.IdleTimeout)
	old, err := a.attempts.Cleanup(ctx, a.cfg.Login.Retention)
	if err != nil {
		a.log.Error("Failed to clean up login attempts", err)
	}
	if cached+verified+idle > 0 || old > 0 {
		a.log.Debug("Swept expired state",
			"queries", cached, "verified", verified, "filters", idle, "attempts", old)
	}
}
