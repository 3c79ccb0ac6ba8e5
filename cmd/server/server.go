// Package server implements the serve command: it wires the datastore,
// workflow, alert dispatcher, and HTTP API together and runs them until
// interrupted.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tradesentry/fraudwatch-go/internal/api"
	"github.com/tradesentry/fraudwatch-go/internal/conf"
	"github.com/tradesentry/fraudwatch-go/internal/datastore"
	"github.com/tradesentry/fraudwatch-go/internal/logging"
	"github.com/tradesentry/fraudwatch-go/internal/notification"
	"github.com/tradesentry/fraudwatch-go/internal/workflow"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Short:   "Run the surveillance HTTP API",
		Aliases: []string{"server"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), settings)
		},
	}
}

// Run starts the service and blocks until the context is cancelled or a
// termination signal arrives.
func Run(ctx context.Context, settings *conf.Settings) error {
	if settings.Main.Debug {
		logging.SetLevel(slog.LevelDebug)
	}

	var logClose func() error
	if settings.Main.Log.Enabled {
		fileLogger, closeFn, err := logging.NewFileLogger(
			settings.Main.Log.Path,
			settings.Main.Name,
			slog.LevelInfo,
			logging.FileRotation{
				MaxSizeMB:  settings.Main.Log.MaxSizeMB,
				MaxBackups: settings.Main.Log.MaxBackups,
				MaxAgeDays: settings.Main.Log.MaxAgeDays,
			})
		if err != nil {
			return err
		}
		slog.SetDefault(fileLogger)
		logClose = closeFn
	}
	logger := slog.Default().With("service", "server")

	ds := datastore.New(settings)
	if ds == nil {
		return errors.New("no datastore backend enabled")
	}
	if err := ds.Open(); err != nil {
		return err
	}
	defer func() {
		if err := ds.Close(); err != nil {
			logger.Error("failed to close datastore", "error", err)
		}
	}()

	dispatcher, err := notification.NewFromSettings(&settings.Alerts)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	wfOpts := []workflow.Option{}
	if settings.Metrics.Enabled {
		metrics, err := workflow.NewMetrics(registry)
		if err != nil {
			return err
		}
		wfOpts = append(wfOpts, workflow.WithMetrics(metrics))
	}
	wf := workflow.New(ds, dispatcher, settings, wfOpts...)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	controller := api.New(e, ds, wf, settings, api.WithMetricsRegistry(registry))
	defer controller.Shutdown()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + settings.WebServer.Port
		logger.Info("starting HTTP API", "addr", addr, "dispatcher", dispatcher.Name())
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if logClose != nil {
		if closeErr := logClose(); closeErr != nil {
			logger.Error("failed to close log file", "error", closeErr)
		}
	}
	return err
}
