package helpers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cankoe/survey-runner/internal/adapters"
	"github.com/cankoe/survey-runner/internal/config"
	"github.com/cankoe/survey-runner/internal/database"
	"github.com/cankoe/survey-runner/internal/events"
	"github.com/cankoe/survey-runner/internal/hub"
	"github.com/cankoe/survey-runner/internal/relay"
	"github.com/cankoe/survey-runner/internal/runs"
	"github.com/cankoe/survey-runner/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
)

type AppComponents struct {
	Config      *config.Config
	MongoClient *mongo.Client
	RedisClient *redis.Client
	Store       store.Store
	EventLog    *events.Log
	Hub         *hub.Hub
	Relay       *relay.Relay
	Engine      *runs.Engine
}

// SetupLogging applies the configured level to the global logger.
func SetupLogging(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		log.Warn().Msgf("Invalid log level '%s', defaulting to info", level)
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return lvl
}

// InitializeCommonComponents wires storage, the hub, the optional relay and
// the run engine. Runs execute under ctx.
func InitializeCommonComponents(ctx context.Context, serviceName string) (*AppComponents, error) {
	cfg, err := config.LoadConfig("config/config.yaml", os.Args[1:])
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := SetupLogging(cfg.Log.Level)
	log.Info().Msgf("Starting %s service with log level %s...", serviceName, level.String())

	c := &AppComponents{Config: cfg}

	if cfg.Mongo.URI != "" {
		c.MongoClient, err = database.NewMongoClient(cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		db := c.MongoClient.Database(cfg.Mongo.Database)
		indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := database.EnsureIndexes(indexCtx, db); err != nil {
			c.CloseAll(context.Background())
			return nil, err
		}
		c.Store = store.NewMongoStore(db)
	} else {
		c.Store = store.NewMemoryStore()
	}

	c.EventLog = events.NewLog(c.Store)
	c.Hub = hub.NewHub(cfg.Hub.SendBuffer)

	var bus runs.Broadcaster = c.Hub
	if cfg.Relay.Enabled {
		c.RedisClient, err = relay.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port)
		if err != nil {
			c.CloseAll(context.Background())
			return nil, err
		}
		c.Relay = relay.New(c.RedisClient, cfg.Relay.Channel, c.Hub)
		bus = c.Relay
	}

	c.Engine = runs.NewEngine(ctx, c.Store, c.EventLog, bus, adapters.Default(cfg.StepDelay()))
	return c, nil
}

// StreamConfig derives the websocket settings from the hub configuration.
func (c *AppComponents) StreamConfig() hub.StreamConfig {
	sc := hub.DefaultStreamConfig()
	sc.PingInterval = time.Duration(c.Config.Hub.PingIntervalSeconds) * time.Second
	sc.WriteTimeout = time.Duration(c.Config.Hub.WriteTimeoutSeconds) * time.Second
	sc.ReadTimeout = time.Duration(c.Config.Hub.ReadTimeoutSeconds) * time.Second
	return sc
}

func (c *AppComponents) CloseAll(ctx context.Context) {
	if c.MongoClient != nil {
		if err := c.MongoClient.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to disconnect MongoDB client")
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis client")
		}
	}
}
