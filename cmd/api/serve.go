package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/api"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/auth"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/cache"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/config"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/domain"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/observability"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/outbox"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/persistence/memory"
	"github.com/aaronsabellek/TravelSketcher-Website/internal/persistence/postgres"
	httptransport "github.com/aaronsabellek/TravelSketcher-Website/internal/transport/http"
)

const requestTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var (
		repo domain.ActivityRepository
		pool *pgxpool.Pool
	)
	switch cfg.StorageDriver {
	case config.DriverMemory:
		store := memory.NewStore()
		if cfg.DemoOwnerID != "" {
			dest, err := memory.SeedDemo(ctx, store, cfg.DemoOwnerID)
			if err != nil {
				return fmt.Errorf("seed demo data: %w", err)
			}
			logger.Info("seeded demo destination", slog.Int64("destination_id", dest.ID), slog.String("owner_id", cfg.DemoOwnerID))
		}
		repo = store
	default:
		var err error
		pool, err = postgres.NewPool(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if cfg.RunMigrations {
			if err := postgres.Migrate(ctx, pool); err != nil {
				return err
			}
		}
		repo = postgres.NewRepository(pool, postgres.WithEventsTopic(cfg.EventsTopic))
	}

	listCache, closeCache, err := newListCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	service := domain.NewService(repo, listCache, domain.WithLogger(logger))
	router := newRouter(cfg, api.NewHandler(service, logger), logger)

	if pool != nil && cfg.KafkaEnabled() {
		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()

		opts := []outbox.DispatcherOption{
			outbox.WithLogger(logger),
			outbox.WithPolling(cfg.OutboxPollInterval, cfg.OutboxBatchSize),
			outbox.WithRetryBaseDelay(cfg.DLQBaseDelay),
		}
		if cfg.SchemaRegistryURL != "" {
			opts = append(opts, outbox.WithRegistry(outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)))
		}
		dispatcher := outbox.NewDispatcher(pool, producer, opts...)
		dispatchCtx, stopDispatcher := context.WithCancel(ctx)
		go dispatcher.Start(dispatchCtx)
		defer func() {
			stopDispatcher()
			dispatcher.Wait()
		}()
		logger.Info("outbox dispatcher started", slog.Any("brokers", cfg.KafkaBrokers))
	}

	serverCfg := httptransport.DefaultServerConfig(cfg.HTTPAddress)
	return httptransport.Serve(ctx, httptransport.NewServer(serverCfg, router), serverCfg.ShutdownTimeout, logger)
}

func newListCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.ListCache, func(), error) {
	if cfg.RedisURL == "" {
		return cache.Noop{}, func() {}, nil
	}
	rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewRedisListCache(rdb, cfg.ListCacheTTL, logger), func() { _ = rdb.Close() }, nil
}

func newRouter(cfg *config.Config, handler *api.Handler, logger *slog.Logger) http.Handler {
	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httptransport.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(observability.Instrument)
	r.Use(httptransport.CORS(cfg.AllowedOrigin))
	r.Use(httptransport.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, logger))
	r.Use(httptransport.RequestSizeLimit(cfg.MaxRequestBytes))
	r.Use(authMiddleware.Wrap)

	r.Get("/healthz", api.Healthz)
	r.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(r)
	return r
}
