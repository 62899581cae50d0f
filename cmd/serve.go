package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"homecare-app-server/internal/cache"
	"homecare-app-server/internal/config"
	"homecare-app-server/internal/logging"
	"homecare-app-server/internal/routes"
	"homecare-app-server/internal/store"
)

func newServeCommand() *cobra.Command {
	var (
		shutdownTimeout time.Duration
		migrate         bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := store.Open(cfg.Database.DSN, cfg.IsDevelopment())
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return fmt.Errorf("database handle: %w", err)
			}
			defer sqlDB.Close()

			if migrate {
				if err := store.Migrate(ctx, db, log); err != nil {
					return err
				}
			}

			c, closeCache, err := newCache(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeCache()

			if !cfg.IsDevelopment() {
				gin.SetMode(gin.ReleaseMode)
			}
			router := gin.New()
			router.Use(logging.Recovery(log), logging.RequestLogger(log.Named("http")))
			router.Use(cors.New(corsConfig(cfg)))

			routes.SetupRoutes(router, routes.Deps{
				Config: cfg,
				Store:  store.New(db),
				Cache:  c,
				Logger: log,
				Ready: func() error {
					pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					return sqlDB.PingContext(pingCtx)
				},
			})

			srv := &http.Server{
				Addr:              ":" + cfg.Port,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("listen: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down", zap.Duration("timeout", shutdownTimeout))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Maximum time to wait for graceful shutdown")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "Run database migrations before serving")

	return cmd
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowOrigins = []string{cfg.Origin}
	c.AllowCredentials = true
	c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	return c
}

// newCache returns Redis when enabled and reachable. A failed ping falls back
// to the in-process cache since every cached list can be rebuilt from MySQL.
func newCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (cache.Cache, func(), error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemory(time.Now), func() {}, nil
	}
	client := cache.NewRedisClient(cfg.Redis)
	rc := cache.NewRedis(client, "homecare:")
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, using in-memory cache", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = client.Close()
		return cache.NewMemory(time.Now), func() {}, nil
	}
	log.Info("redis cache connected", zap.String("addr", cfg.Redis.Addr))
	return rc, func() { _ = client.Close() }, nil
}
