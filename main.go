package main

import (
	"log"

	"opd-queue/cmd"
	"opd-queue/internal/data/repository"
	"opd-queue/internal/wire"
	"opd-queue/pkg/database"
	"opd-queue/pkg/utils"

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

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Redis is optional; without it room events are only logged
	var rdb redis.Cmdable
	if config.Redis.URL != "" {
		client, err := database.InitRedis(config.Redis.URL)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		rdb = client
		logger.Info("Redis connected successfully")
	} else {
		logger.Warn("REDIS_URL not set, real-time events will only be logged")
	}

	if !config.Twilio.Enabled() {
		logger.Warn("Twilio credentials not set, SMS will only be logged")
	}

	repos := repository.NewRepository(db, logger)
	gateways := wire.NewGateways(repos, rdb, config, logger)

	app := wire.Wiring(repos, gateways, config, logger)

	if err := cmd.APIServer(app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
	}
}
