// Command dlqmanager requeues failed outbox events and quarantines those out of retries.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/config"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/logging"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/outbox"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/persistence/postgres"
	httptransport "github.com/aaronsabellek/TravelSketcher-Website/internal/transport/http"
)

const defaultDLQBatchSize = 50

var batchSize int

var rootCmd = &cobra.Command{
	Use:          "itinerary-dlqmanager",
	Short:        "Retry or quarantine dead-lettered outbox events",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return run(ctx, cfg, logger)
	},
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	pool, err := postgres.NewPool(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	manager := outbox.NewDLQManager(pool, logger, cfg.DLQMaxRetries, cfg.DLQBaseDelay)

	g, ctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddress != "" {
		metricsCfg := httptransport.DefaultServerConfig(cfg.MetricsAddress)
		g.Go(func() error {
			return httptransport.Serve(ctx, httptransport.NewServer(metricsCfg, promhttp.Handler()), metricsCfg.ShutdownTimeout, logger)
		})
	}
	g.Go(func() error {
		logger.Info("dlq manager started",
			slog.Duration("interval", cfg.DLQPollInterval),
			slog.Int("max_retries", cfg.DLQMaxRetries))
		if err := manager.Run(ctx, cfg.DLQPollInterval, batchSize); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return g.Wait()
}

func init() {
	rootCmd.Flags().IntVar(&batchSize, "batch-size", defaultDLQBatchSize, "entries handled per poll")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
