package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/calcsite/internal/catalog"
	"github.com/iwvelando/calcsite/internal/history"
	"github.com/iwvelando/calcsite/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if address != "" {
				a.conf.Server.Address = address
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address override, e.g. :8080")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled or the process receives
// SIGINT or SIGTERM, then shuts down gracefully.
func (a *app) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, _, err := a.loadRegistry()
	if err != nil {
		return err
	}
	maxUploadSize, err := a.conf.Server.UploadSizeBytes()
	if err != nil {
		return err
	}

	opts := server.Options{
		Registry:      reg,
		HistoryLimit:  a.conf.History.Limit,
		DefaultLocale: a.conf.Locales.Default,
		Locales:       a.conf.Locales.Supported,
		MaxUploadSize: maxUploadSize,
		RateLimit:     a.conf.Server.RateLimit,
		RateBurst:     a.conf.Server.RateBurst,
		Version:       version,
	}
	if a.conf.History.Enabled {
		store, err := history.Open(ctx, a.logger, a.conf.History.Path)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				a.logger.Warn("failed to close history store", zap.String("op", "main.serve"), zap.Error(err))
			}
		}()
		opts.History = store
	}

	srv := &http.Server{
		Addr:              a.conf.Server.Address,
		Handler:           server.NewHandler(a.logger, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting server",
			zap.String("op", "main.serve"),
			zap.String("address", srv.Addr),
			zap.Int("calculators", reg.Len()),
			zap.Bool("history", opts.History != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if a.conf.Catalog.Watch && a.conf.Catalog.Dir != "" {
		g.Go(func() error {
			return catalog.Watch(gctx, a.logger, a.conf.Catalog.Dir, reg)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down server", zap.String("op", "main.serve"))
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
