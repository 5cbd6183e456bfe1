// Command consumer records activity change events from Kafka into the event log table.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/config"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/consumer"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/logging"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/persistence/postgres"
	httptransport "github.com/aaronsabellek/TravelSketcher-Website/internal/transport/http"
)

var rootCmd = &cobra.Command{
	Use:          "itinerary-consumer",
	Short:        "Consume itinerary activity events into the event log",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
		if !cfg.KafkaEnabled() {
			return errors.New("KAFKA_BROKERS is required")
		}

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

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.KafkaBrokers,
		GroupID:         cfg.ConsumerGroupID,
		Topic:           cfg.EventsTopic,
		MinBytes:        1e3,
		MaxBytes:        10e6,
		CommitInterval:  time.Second,
		RetentionTime:   24 * time.Hour,
		ReadLagInterval: -1,
	})
	defer reader.Close()

	proc := consumer.NewProcessor(reader, consumer.NewEventLogHandler(pool), consumer.WithLogger(logger))

	g, ctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddress != "" {
		metricsCfg := httptransport.DefaultServerConfig(cfg.MetricsAddress)
		g.Go(func() error {
			return httptransport.Serve(ctx, httptransport.NewServer(metricsCfg, promhttp.Handler()), metricsCfg.ShutdownTimeout, logger)
		})
	}
	g.Go(func() error {
		logger.Info("consumer started", slog.String("topic", cfg.EventsTopic), slog.String("group", cfg.ConsumerGroupID))
		if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("consumer stopped: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
