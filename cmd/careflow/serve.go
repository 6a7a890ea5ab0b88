package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Reaishma/Healthcare-informatics-solution/api"
	"github.com/Reaishma/Healthcare-informatics-solution/config"
	"github.com/Reaishma/Healthcare-informatics-solution/dashboard"
	"github.com/Reaishma/Healthcare-informatics-solution/events"
	"github.com/Reaishma/Healthcare-informatics-solution/logger"
	"github.com/Reaishma/Healthcare-informatics-solution/rules"
	"github.com/Reaishma/Healthcare-informatics-solution/storage"
)

func newServeCommand(load func() (config.Config, error)) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the live event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if seed {
				cfg.Seed = true
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "Load sample data into an empty store")
	return cmd
}

// openStorage returns the configured backend and, for redis, its client so the
// relay can share the connection pool.
func openStorage(cfg config.Config) (storage.Storage, *redis.Client, error) {
	switch cfg.Storage.Driver {
	case "redis":
		s, err := storage.NewRedisStorage(storage.RedisOptions{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			IdleTimeout:  cfg.Redis.IdleTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Client(), nil
	case "postgres":
		s, err := storage.NewPostgresStorage(storage.PostgresOptions{
			DSN:      cfg.Postgres.DSN,
			MaxConns: cfg.Postgres.MaxConns,
			MaxIdle:  cfg.Postgres.MaxIdle,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	default:
		return storage.NewMemoryStorage(), nil, nil
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "careflow")
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	store, client, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hub := events.NewHub(
		events.WithWriteTimeout(cfg.Hub.WriteTimeout),
		events.WithLogger(log.Named("hub")),
		events.WithMetrics(events.NewMetrics(reg)),
	)

	var broadcaster events.Broadcaster = hub
	var relay *events.Relay
	if cfg.Relay.Enabled {
		if client == nil {
			client = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer client.Close()
		}
		relay = events.NewRelay(hub, client, cfg.Relay.Channel, log.Named("relay"))
		broadcaster = relay
	}

	advisor, err := rules.NewAdvisor(nil, cfg.Rules.Advisor())
	if err != nil {
		return fmt.Errorf("load advisory rules: %w", err)
	}
	svc, err := dashboard.NewService(store, broadcaster,
		dashboard.WithLogger(log.Named("dashboard")),
		dashboard.WithAdvisor(advisor),
	)
	if err != nil {
		return err
	}
	if cfg.Seed {
		if err := svc.Seed(ctx); err != nil {
			return err
		}
	}

	router := api.NewRouter(svc,
		api.WithLogger(log.Named("http")),
		api.WithWebsocket(http.HandlerFunc(hub.ServeWS)),
		api.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
	)
	server := api.NewServer(cfg.HTTP.Addr, router, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	if relay != nil {
		g.Go(func() error { return relay.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		hub.Close()
		return server.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("careflow stopped")
	return nil
}
