package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/VelisCore/velink/internal/container"
	"github.com/VelisCore/velink/internal/messaging"
	"github.com/VelisCore/velink/internal/store"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/samber/do"
	"go.uber.org/zap"
)

func registerPackages(injector *do.Injector, options *container.Options) {
	do.ProvideValue(injector, options)
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.PostgresPackage(injector)
	container.RepositoryPackage(injector)
	container.AnalyticsPackage(injector)
	container.PublisherGroupPackage(injector)
	container.FeedConsumerGroupPackage(injector)
	container.HTTPPackage(injector)
}

func main() {
	_ = godotenv.Load()

	cli := humacli.New(func(hooks humacli.Hooks, options *container.Options) {
		injector := do.New()
		registerPackages(injector, options)

		logger := do.MustInvoke[*zap.Logger](injector)

		var (
			server      *http.Server
			consumers   *messaging.ConsumerGroup
			stopConsume context.CancelFunc
		)

		hooks.OnStart(func() {
			pool := do.MustInvoke[*pgxpool.Pool](injector)

			if err := store.Migrate(context.Background(), pool); err != nil {
				logger.Fatal("failed to migrate schema", zap.Error(err))
			}

			router := do.MustInvoke[*chi.Mux](injector)

			// Invoke API to trigger route registration
			_ = do.MustInvoke[huma.API](injector)

			var ctx context.Context
			ctx, stopConsume = context.WithCancel(context.Background())

			consumers = do.MustInvoke[*messaging.ConsumerGroup](injector)
			if err := consumers.Start(ctx); err != nil {
				logger.Fatal("failed to start feed consumers", zap.Error(err))
			}

			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", options.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			logger.Info("server starting",
				zap.Int("port", options.Port),
				zap.String("baseUrl", options.ResolvedBaseURL()),
			)

			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("server failed", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			logger.Info("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if server != nil {
				if err := server.Shutdown(ctx); err != nil {
					logger.Error("server shutdown error", zap.Error(err))
				}
			}

			if stopConsume != nil {
				stopConsume()
			}

			if consumers != nil {
				if err := consumers.Shutdown(); err != nil {
					logger.Error("consumer shutdown error", zap.Error(err))
				}
			}

			if err := injector.Shutdown(); err != nil {
				logger.Error("service shutdown error", zap.Error(err))
			}

			logger.Info("shutdown complete")
		})
	})

	cli.Run()
}
