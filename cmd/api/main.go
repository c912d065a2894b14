package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"xcar/internal/config"
	"xcar/internal/database"
	"xcar/internal/domain"
	"xcar/internal/logger"
	"xcar/internal/repository"
	"xcar/internal/server"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, log *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The server has 30 seconds to finish in-flight requests
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Close server resources
	if err := apiServer.Close(); err != nil {
		log.Error("Error closing server resources", zap.Error(err))
	}

	log.Info("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

// openStores connects the configured storage driver.
func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (server.Deps, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := database.OpenPostgres(ctx, cfg.Database.DSN())
		if err != nil {
			return server.Deps{}, err
		}
		log.Info("Database health check", zap.Any("health", database.Health(ctx, db)))

		if err := database.RunMigrations(db, database.DialectPostgres, log); err != nil {
			_ = db.Close()
			return server.Deps{}, fmt.Errorf("failed to run migrations: %w", err)
		}
		version, err := database.MigrationVersion(db, database.DialectPostgres)
		if err != nil {
			_ = db.Close()
			return server.Deps{}, err
		}
		log.Info("Database migrations completed successfully", zap.Int64("version", version))

		return server.Deps{
			Cars:    repository.NewCarRepository(db),
			Users:   repository.NewUserRepository(db),
			Health:  func() map[string]string { return database.Health(context.Background(), db) },
			Closers: []func() error{db.Close},
		}, nil

	case "mongo":
		client, err := database.ConnectMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return server.Deps{}, err
		}
		db := client.Database(cfg.Mongo.Database)
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return server.Deps{}, err
		}
		log.Info("Connected to MongoDB", zap.String("database", cfg.Mongo.Database))

		return server.Deps{
			Cars:    repository.NewMongoCarRepository(db),
			Users:   repository.NewMongoUserRepository(db),
			Closers: []func() error{func() error { return client.Disconnect(context.Background()) }},
		}, nil

	case "memory":
		log.Warn("Using in-memory storage, data is lost on restart")
		return server.Deps{
			Cars:  repository.NewMemoryCarRepository(domain.DefaultCatalog()...),
			Users: repository.NewMemoryUserRepository(),
		}, nil

	default:
		return server.Deps{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// openRedis returns nil when rate limiting is disabled or Redis is down.
func openRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unavailable, auth rate limiting disabled", zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Xcar API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
	)

	ctx := context.Background()

	deps, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}

	if rdb := openRedis(ctx, cfg.Redis, log); rdb != nil {
		deps.Redis = rdb
		deps.Closers = append(deps.Closers, rdb.Close)
	}

	// Create server
	srv := server.NewServer(cfg, log, deps)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(srv, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info("Graceful shutdown complete")
}
