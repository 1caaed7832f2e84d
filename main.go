package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"catalog/internal/app"
	"catalog/internal/config"
	"catalog/internal/pkg/clock"
	"catalog/internal/pkg/logger"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/pkg/rabbitmq"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	clk := clock.New()

	// --- Store ---
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	repo, closeStore, err := openStore(ctx, cfg, clk)
	cancel()
	if err != nil {
		zapLogger.Fatal("Failed to open product store",
			zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	zapLogger.Info("Product store ready", zap.String("driver", cfg.StoreDriver))

	// --- Events (optional) ---
	var publisher services.EventPublisher
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.RabbitMQExchange,
		})
		if err != nil {
			zapLogger.Fatal("Failed to initialize RabbitMQ client", zap.Error(err))
		}
		publisher = mqClient
		zapLogger.Info("Publishing product events", zap.String("exchange", cfg.RabbitMQExchange))
	}

	// --- HTTP ---
	fiberApp := app.New(app.Options{
		Repository: repo,
		StoreName:  cfg.StoreDriver,
		Publisher:  publisher,
		APIKey:     cfg.APIKey,
		Production: cfg.IsProduction(),
		Logger:     zapLogger,
		Clock:      clk,
	})

	// Graceful shutdown handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zapLogger.Info("Starting server",
			zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := fiberApp.Listen(cfg.AppPort); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		zapLogger.Info("Shutting down server...")
		return fiberApp.ShutdownWithTimeout(10 * time.Second)
	})
	if err := g.Wait(); err != nil {
		zapLogger.Error("Server stopped with error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := closeStore(shutdownCtx); err != nil {
		zapLogger.Error("Error closing product store", zap.Error(err))
	}
	if mqClient != nil {
		if err := mqClient.Close(); err != nil {
			zapLogger.Error("Error closing RabbitMQ client", zap.Error(err))
		}
	}
	zapLogger.Info("Server gracefully stopped")
}

// openStore connects the configured backend and prepares its schema.
// The returned func releases the connection.
func openStore(ctx context.Context, cfg *config.Config, clk clock.Clock) (repositories.ProductRepository, func(context.Context) error, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := repositories.NewMongoClient(ctx, repositories.DefaultMongoOptions(cfg.MongoURI))
		if err != nil {
			return nil, nil, err
		}
		repo := repositories.NewMongoProductRepository(client, cfg.MongoDatabase, clk)
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return repo, client.Disconnect, nil

	case config.DriverPostgres, config.DriverSQLite:
		dialector := postgres.Open(cfg.DatabaseDSN)
		if cfg.StoreDriver == config.DriverSQLite {
			dialector = sqlite.Open(cfg.DatabaseDSN)
		}
		db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repo := repositories.NewGORMProductRepository(db, clk)
		if err := repo.Migrate(); err != nil {
			return nil, nil, err
		}
		closeDB := func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return repo, closeDB, nil

	case config.DriverMemory:
		return repositories.NewMemoryProductRepository(clk), func(context.Context) error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
