// main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"yamdb-api/cmd"
	"yamdb-api/internal/data/repository"
	"yamdb-api/internal/data/repository/memory"
	"yamdb-api/internal/wire"
	"yamdb-api/pkg/database"
	"yamdb-api/pkg/mailer"
	"yamdb-api/pkg/middleware"
	"yamdb-api/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	if config.JWT.Secret == "" {
		logger.Fatal("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize all repositories
	var repos *repository.Repository
	switch config.Database.Driver {
	case "memory":
		logger.Warn("Using in-memory storage, data is lost on restart")
		repos = memory.NewRepository(logger)

	default:
		if config.Database.AutoMigrate {
			if err := database.Migrate(config.Database, logger); err != nil {
				logger.Fatal("Failed to apply migrations", zap.Error(err))
			}
		}

		db, err := database.InitDB(config.Database)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		logger.Info("Database connected successfully")
		repos = repository.NewRepository(db, logger)
	}

	// Redis is optional; without it rate limits are kept per process
	var redisClient *redis.Client
	if config.Redis.Addr != "" {
		redisClient, err = database.InitRedis(ctx, config.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Redis connected successfully", zap.String("addr", config.Redis.Addr))
	}

	// Wire all dependencies
	app := wire.Wiring(repos, config, wire.Deps{
		Tokens:  utils.NewTokenManager(config.JWT),
		Mailer:  mailer.New(config.Email, logger),
		Limiter: middleware.NewLimiter(config.RateLimit, redisClient),
	}, logger)

	// Start server
	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
		return
	}

	logger.Info("Server stopped")
}
