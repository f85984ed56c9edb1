package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jayphen/gleis/internal/cache"
	"github.com/jayphen/gleis/internal/config"
	"github.com/jayphen/gleis/internal/datewindow"
	"github.com/jayphen/gleis/internal/logging"
	"github.com/jayphen/gleis/internal/notion"
	"github.com/jayphen/gleis/internal/store"
	"github.com/jayphen/gleis/internal/web"
)

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		Long: `Start the HTTP server backing the dashboard frontend.

The server polls the Notion database for the board view, exposes the
scoped task queries and mutation endpoints, and gates everything
behind basic auth when credentials are configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(listen)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (overrides config)")

	return cmd
}

func runServe(listen string) error {
	cfg, err := config.Get()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if listen == "" {
		listen = cfg.Listen
	}

	log := logging.WithComponent("serve")

	client, err := notion.New(cfg.Notion)
	if err != nil {
		return err
	}

	// Snapshot cache is optional; the server runs without it.
	var snapshots *cache.Cache
	if cfg.RedisURL != "" {
		snapshots, err = cache.New(cfg.RedisURL, 2*cfg.PollInterval)
		if err != nil {
			log.WithError(err).Warn("snapshot cache unavailable, continuing without it")
		} else {
			defer snapshots.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The board store backs the unscoped view: rolling window, polled.
	// The window is recomputed on every fetch so the board tracks week
	// and month boundaries across a long-running process.
	board := store.New(client, func() notion.Query {
		return notion.Query{Window: datewindow.Rolling(time.Now())}
	})
	if err := board.Refresh(ctx); err != nil {
		// Not fatal; the poll loop and per-request refresh retry.
		log.WithError(err).Warn("initial fetch failed")
	}
	go board.Poll(ctx, cfg.PollInterval)

	server := &http.Server{
		Addr:    listen,
		Handler: web.NewServer(cfg, client, board, snapshots).Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", listen)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
