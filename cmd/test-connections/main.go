package main

import (
	"context"
	"os"

	"github.com/cankoe/survey-runner/internal/config"
	"github.com/cankoe/survey-runner/internal/database"
	"github.com/cankoe/survey-runner/internal/relay"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadConfig("config/config.yaml", os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	ctx := context.Background()

	if cfg.Mongo.URI == "" {
		log.Warn().Msg("MONGO_URI not set, skipping MongoDB check")
	} else {
		mongoClient, err := database.NewMongoClient(cfg.Mongo.URI)
		if err != nil {
			log.Fatal().Err(err).Msg("MongoDB connection failed")
		}
		defer mongoClient.Disconnect(ctx)
		log.Info().Msg("MongoDB connected successfully!")
	}

	redisClient, err := relay.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()
	log.Info().Msg("Redis connected successfully!")
}
