package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/mercato/catalog/pkg/config"
	"github.com/mercato/catalog/pkg/database"
)

// Event bus modes.
const (
	EventBusChannel = "channel"
	EventBusKafka   = "kafka"
)

// Search engine backends.
const (
	EngineElasticsearch = "elasticsearch"
	EngineMemory        = "memory"
)

// Config holds all configuration for the catalog service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CATALOG_HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	Postgres database.PostgresConfig

	// Redis
	Redis database.RedisConfig

	// Cache TTL window for read-through entries
	CacheTTLMin time.Duration `env:"CACHE_TTL_MIN" envDefault:"60s"`
	CacheTTLMax time.Duration `env:"CACHE_TTL_MAX" envDefault:"120s"`

	// Elasticsearch
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"catalog_products"`

	// Search engine selection (elasticsearch or memory)
	SearchEngine string `env:"SEARCH_ENGINE" envDefault:"elasticsearch"`

	// Index synchronization pipeline
	SyncWorkers      int           `env:"SYNC_WORKERS" envDefault:"4"`
	SyncQueueSize    int           `env:"SYNC_QUEUE_SIZE" envDefault:"1024"`
	SyncApplyTimeout time.Duration `env:"SYNC_APPLY_TIMEOUT" envDefault:"10s"`

	// Event bus selection (channel or kafka)
	EventBus     string   `env:"EVENT_BUS" envDefault:"channel"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"catalog-indexer"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.SearchEngine != EngineElasticsearch && c.SearchEngine != EngineMemory {
		return fmt.Errorf("invalid search engine: %q", c.SearchEngine)
	}
	if c.EventBus != EventBusChannel && c.EventBus != EventBusKafka {
		return fmt.Errorf("invalid event bus: %q", c.EventBus)
	}
	if c.CacheTTLMin <= 0 || c.CacheTTLMax < c.CacheTTLMin {
		return fmt.Errorf("invalid cache TTL window: [%s, %s]", c.CacheTTLMin, c.CacheTTLMax)
	}
	if c.SyncWorkers < 1 {
		return fmt.Errorf("invalid sync worker count: %d", c.SyncWorkers)
	}
	if c.SyncQueueSize < 1 {
		return fmt.Errorf("invalid sync queue size: %d", c.SyncQueueSize)
	}
	return nil
}
