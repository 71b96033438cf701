// Package config loads and validates broker configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Channels ChannelsConfig `mapstructure:"channels"`
	Store    StoreConfig    `mapstructure:"store"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the health/metrics HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ChannelsConfig names every channel the broker consumes or produces.
// All six are required; a missing name is a startup error, not a
// per-message one.
type ChannelsConfig struct {
	CrawlerOutput   string `mapstructure:"crawler_output"`
	CompanyInput    string `mapstructure:"company_input"`
	EmbeddingInput  string `mapstructure:"embedding_input"`
	EmbeddingOutput string `mapstructure:"embedding_output"`
	SentimentInput  string `mapstructure:"sentiment_input"`
	SentimentOutput string `mapstructure:"sentiment_output"`
}

// StoreConfig selects and parameterizes the entity store.
type StoreConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
}

// QueueConfig selects and parameterizes the message queue provider.
// Subscriptions maps inbound channel names to Pub/Sub subscription ids.
type QueueConfig struct {
	Provider      string            `mapstructure:"provider"`
	ProjectID     string            `mapstructure:"project_id"`
	Subscriptions map[string]string `mapstructure:"subscriptions"`
	Depth         int               `mapstructure:"depth"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BROKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.provider", "memory")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("queue.provider", "memory")
	v.SetDefault("queue.depth", 256)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values. Channel names and store connection
// parameters come from outside; their absence aborts startup.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	required := map[string]string{
		"channels.crawler_output":   c.Channels.CrawlerOutput,
		"channels.company_input":    c.Channels.CompanyInput,
		"channels.embedding_input":  c.Channels.EmbeddingInput,
		"channels.embedding_output": c.Channels.EmbeddingOutput,
		"channels.sentiment_input":  c.Channels.SentimentInput,
		"channels.sentiment_output": c.Channels.SentimentOutput,
	}
	for key, value := range required {
		if value == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	switch c.Store.Provider {
	case "memory":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set when store.provider is postgres")
		}
	default:
		return fmt.Errorf("unknown store provider: %s", c.Store.Provider)
	}
	switch c.Queue.Provider {
	case "memory":
		if c.Queue.Depth <= 0 {
			return fmt.Errorf("queue.depth must be > 0")
		}
	case "pubsub":
		if c.Queue.ProjectID == "" {
			return fmt.Errorf("queue.project_id must be set when queue.provider is pubsub")
		}
		for _, channel := range []string{c.Channels.CrawlerOutput, c.Channels.EmbeddingOutput, c.Channels.SentimentOutput} {
			if c.Queue.Subscriptions[channel] == "" {
				return fmt.Errorf("queue.subscriptions must map inbound channel %q to a subscription id", channel)
			}
		}
	default:
		return fmt.Errorf("unknown queue provider: %s", c.Queue.Provider)
	}
	return nil
}
