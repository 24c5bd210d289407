package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mongo struct {
		URI      string `mapstructure:"uri"`
		Database string `mapstructure:"database"`
	} `mapstructure:"mongo"`

	Redis struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port"`
	} `mapstructure:"redis"`

	Relay struct {
		Enabled bool   `mapstructure:"enabled"`
		Channel string `mapstructure:"channel"`
	} `mapstructure:"relay"`

	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`

	APIKeys struct {
		User string `mapstructure:"user"`
	} `mapstructure:"api_keys"`

	Engine struct {
		StepDelayMs int `mapstructure:"step_delay_ms"`
	} `mapstructure:"engine"`

	Hub struct {
		SendBuffer          int `mapstructure:"send_buffer"`
		PingIntervalSeconds int `mapstructure:"ping_interval_seconds"`
		WriteTimeoutSeconds int `mapstructure:"write_timeout_seconds"`
		ReadTimeoutSeconds  int `mapstructure:"read_timeout_seconds"`
	} `mapstructure:"hub"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

func (c *Config) StepDelay() time.Duration {
	return time.Duration(c.Engine.StepDelayMs) * time.Millisecond
}

// LoadConfig loads the configuration from file, environment variables, and command-line arguments.
// Order of precedence: defaults < config file < env vars < cmd flags.
func LoadConfig(configPath string, args []string) (*Config, error) {
	v := viper.New()

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "survey_runner")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("relay.enabled", false)
	v.SetDefault("relay.channel", "survey_runner:run_events")
	v.SetDefault("server.port", 8080)
	v.SetDefault("api_keys.user", "")
	v.SetDefault("engine.step_delay_ms", 1000)
	v.SetDefault("hub.send_buffer", 256)
	v.SetDefault("hub.ping_interval_seconds", 30)
	v.SetDefault("hub.write_timeout_seconds", 10)
	v.SetDefault("hub.read_timeout_seconds", 60)
	v.SetDefault("log.level", "info")

	// Read from config file if present
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		log.Warn().Err(err).Str("config_path", configPath).Msg("Failed to read config file, relying on defaults, env, and flags")
	}

	bindEnvOrPanic(v, "mongo.uri", "MONGO_URI")
	bindEnvOrPanic(v, "mongo.database", "MONGO_DATABASE")
	bindEnvOrPanic(v, "redis.host", "REDIS_HOST")
	bindEnvOrPanic(v, "redis.port", "REDIS_PORT")
	bindEnvOrPanic(v, "relay.enabled", "RELAY_ENABLED")
	bindEnvOrPanic(v, "relay.channel", "RELAY_CHANNEL")
	bindEnvOrPanic(v, "server.port", "PORT")
	bindEnvOrPanic(v, "api_keys.user", "API_KEY")
	bindEnvOrPanic(v, "engine.step_delay_ms", "ENGINE_STEP_DELAY_MS")
	bindEnvOrPanic(v, "hub.send_buffer", "HUB_SEND_BUFFER")
	bindEnvOrPanic(v, "hub.ping_interval_seconds", "HUB_PING_INTERVAL_SECONDS")
	bindEnvOrPanic(v, "hub.write_timeout_seconds", "HUB_WRITE_TIMEOUT_SECONDS")
	bindEnvOrPanic(v, "hub.read_timeout_seconds", "HUB_READ_TIMEOUT_SECONDS")
	bindEnvOrPanic(v, "log.level", "LOG_LEVEL")

	fs := flag.NewFlagSet("survey-runner", flag.ContinueOnError)
	port := fs.Int("port", 0, "Override HTTP port")
	stepDelay := fs.Int("step-delay-ms", -1, "Override placeholder adapter step delay in milliseconds")
	relay := fs.Bool("relay", false, "Enable the Redis event relay")
	logLevel := fs.String("log-level", "", "Override log level")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if *port > 0 {
		v.Set("server.port", *port)
	}
	if *stepDelay >= 0 {
		v.Set("engine.step_delay_ms", *stepDelay)
	}
	if *relay {
		v.Set("relay.enabled", true)
	}
	if *logLevel != "" {
		v.Set("log.level", *logLevel)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func bindEnvOrPanic(v *viper.Viper, key, env string) {
	if err := v.BindEnv(key, env); err != nil {
		log.Fatal().Err(err).Msgf("Failed to bind environment variable %s to key %s", env, key)
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Mongo.URI == "" {
		log.Warn().Msg("MONGO_URI not provided, runs will be kept in memory")
	}
	if cfg.Relay.Enabled && cfg.Redis.Host == "" {
		return fmt.Errorf("relay enabled but redis host is empty")
	}

	if cfg.Server.Port <= 0 {
		return fmt.Errorf("server port must be > 0, got %d", cfg.Server.Port)
	}
	if cfg.Engine.StepDelayMs < 0 {
		return fmt.Errorf("engine step_delay_ms must be >= 0, got %d", cfg.Engine.StepDelayMs)
	}

	if cfg.Hub.SendBuffer <= 0 {
		return fmt.Errorf("hub send_buffer must be > 0, got %d", cfg.Hub.SendBuffer)
	}
	if cfg.Hub.PingIntervalSeconds <= 0 {
		return fmt.Errorf("hub ping_interval_seconds must be > 0, got %d", cfg.Hub.PingIntervalSeconds)
	}
	if cfg.Hub.WriteTimeoutSeconds <= 0 {
		return fmt.Errorf("hub write_timeout_seconds must be > 0, got %d", cfg.Hub.WriteTimeoutSeconds)
	}
	if cfg.Hub.ReadTimeoutSeconds <= cfg.Hub.PingIntervalSeconds {
		return fmt.Errorf("hub read_timeout_seconds must exceed ping_interval_seconds, got %d <= %d",
			cfg.Hub.ReadTimeoutSeconds, cfg.Hub.PingIntervalSeconds)
	}

	return nil
}
