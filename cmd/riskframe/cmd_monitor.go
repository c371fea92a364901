package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/protocolchecker/riskframe/internal/cache"
	"github.com/protocolchecker/riskframe/internal/engine"
	"github.com/protocolchecker/riskframe/internal/httpapi"
	"github.com/protocolchecker/riskframe/internal/monitor"
	"github.com/protocolchecker/riskframe/internal/persistence"
	"github.com/protocolchecker/riskframe/internal/persistence/postgres"
	"github.com/protocolchecker/riskframe/internal/providers"
	"github.com/protocolchecker/riskframe/internal/registry"
)

func newMonitorCmd() *cobra.Command {
	var (
		monitorPath  string
		assetsPath   string
		registryPath string
		listenAddr   string
		postgresDSN  string
		redisAddr    string
		cacheTTL     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Run the scheduled monitoring pipeline",
		Long: `Starts per-asset scoring loops driven by the monitor config, persists
results to Postgres (or in-memory without a DSN), caches the latest result in
Redis when configured, and serves health, metrics and score endpoints.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := monitor.LoadConfig(monitorPath)
			if err != nil {
				return err
			}

			reg := registry.Default()
			if registryPath != "" {
				reg, err = registry.Load(registryPath)
				if err != nil {
					return err
				}
			}

			provider, err := providers.LoadStaticProvider(assetsPath)
			if err != nil {
				return err
			}
			guarded := providers.NewGuard(provider, providers.DefaultGuardConfig("asset-configs"))

			var repo persistence.ScoreRepo = persistence.NewMemoryRepo()
			if postgresDSN != "" {
				db, err := sqlx.Connect("postgres", postgresDSN)
				if err != nil {
					return fmt.Errorf("failed to connect to postgres: %w", err)
				}
				defer db.Close()
				if _, err := db.Exec(postgres.Schema); err != nil {
					return fmt.Errorf("failed to ensure score_history schema: %w", err)
				}
				repo = postgres.NewScoresRepo(db, 5*time.Second)
				log.Info().Msg("Postgres score persistence enabled")
			} else {
				log.Warn().Msg("No Postgres DSN, using in-memory score store")
			}

			promRegistry := prometheus.NewRegistry()
			metrics := monitor.NewMetrics(promRegistry)

			opts := []monitor.DispatcherOption{monitor.WithMetrics(metrics)}
			if redisAddr != "" {
				rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
				opts = append(opts, monitor.WithCache(cache.NewResultCache(rdb, cacheTTL)))
				log.Info().Str("addr", redisAddr).Msg("Redis result cache enabled")
			}

			dispatcher := monitor.NewDispatcher(cfg, engine.New(reg), guarded, repo, opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := &http.Server{
				Addr:    listenAddr,
				Handler: httpapi.NewServer(repo, promRegistry).Handler(),
			}
			go func() {
				log.Info().Str("addr", listenAddr).Msg("HTTP API listening")
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error().Err(err).Msg("HTTP server failed")
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				server.Shutdown(shutdownCtx)
			}()

			if err := dispatcher.Run(ctx); err != nil && err != context.Canceled {
				return err
			}
			log.Info().Msg("Monitoring dispatcher stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&monitorPath, "monitor-config", "config/monitor.yaml", "path to monitor YAML config")
	cmd.Flags().StringVar(&assetsPath, "assets", "config/assets.json", "path to asset configs JSON")
	cmd.Flags().StringVar(&registryPath, "registry", "", "path to registry YAML (default: built-in)")
	cmd.Flags().StringVar(&listenAddr, "listen", ":8090", "HTTP listen address")
	cmd.Flags().StringVar(&postgresDSN, "postgres-dsn", "", "Postgres DSN (empty: in-memory store)")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis address (empty: cache disabled)")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", time.Hour, "TTL for cached latest results")

	return cmd
}
