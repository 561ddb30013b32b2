package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/cache"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/config"
	apperrors "github.com/ZanzyTHEbar/sizefit-dashboard/internal/errors"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/monitoring"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/resilience"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/server"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard and JSON API (default)",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Listen port (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = runServe
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bundle, err := loadBundle(ctx, cfg)
	if err != nil {
		return err
	}

	redisClient := connectRedis(ctx, cfg)
	defer apperrors.SafeClose(redisClient, "redis client")

	store := cache.NewStore(redisClient, cfg.CacheTTL)
	defer closeStore(store)

	srv, err := server.New(server.Deps{
		Config:  cfg,
		Bundle:  bundle,
		Store:   store,
		Redis:   redisClient,
		Metrics: monitoring.NewMetrics(),
		Logger:  monitoring.NewLogger(cfg.SlogLevel()),
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	go func() {
		if err := srv.WarmUp(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("Cache warm-up failed", "error", err)
		}
	}()

	return srv.Run(ctx)
}

// connectRedis retries the initial ping; on failure the server runs on the
// in-memory backends.
func connectRedis(ctx context.Context, cfg *config.Config) *cache.RedisClient {
	var client *cache.RedisClient
	err := resilience.Retry(ctx, func() error {
		var err error
		client, err = cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		return err
	})
	if err != nil {
		slog.Warn("Continuing without Redis", "addr", cfg.RedisAddr, "error", err)
	}
	if client == nil {
		client = &cache.RedisClient{}
	}
	return client
}

func closeStore(store cache.Store) {
	if c, ok := store.(interface{ Close() }); ok {
		c.Close()
	}
}
