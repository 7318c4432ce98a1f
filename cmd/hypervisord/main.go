package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyperctl/hypervisor/pkg/api"
	"github.com/hyperctl/hypervisor/pkg/auth"
	"github.com/hyperctl/hypervisor/pkg/config"
	"github.com/hyperctl/hypervisor/pkg/events"
	"github.com/hyperctl/hypervisor/pkg/health"
	"github.com/hyperctl/hypervisor/pkg/log"
	"github.com/hyperctl/hypervisor/pkg/queue"
	"github.com/hyperctl/hypervisor/pkg/reconciler"
	"github.com/hyperctl/hypervisor/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "hypervisord",
	Short:   "hypervisord is the priority-scheduling control plane for a cluster hypervisor",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"hypervisord version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hypervisord version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, scheduler, and reconciler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})
	logger := log.WithComponent("hypervisord")

	pg, err := storage.Open(cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer pg.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	issuer := auth.New(auth.Config{SigningKey: cfg.JWTSigningKey, TTL: cfg.JWTTTL})
	q := queue.New(redisClient)

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	healthAggregator := health.NewAggregator(health.DefaultConfig(),
		health.NewPostgresChecker(pg.DB()),
		health.NewRedisChecker(redisClient),
	)
	healthzFn := healthAggregator.Check

	server := api.NewServer(api.Dependencies{
		Store:     pg,
		Queue:     q,
		Issuer:    issuer,
		Broker:    broker,
		HealthzFn: healthzFn,
	})

	recon := reconciler.New(pg, cfg.ReconcileInterval)
	recon.Start()
	defer recon.Stop()

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info().Msg("shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}
