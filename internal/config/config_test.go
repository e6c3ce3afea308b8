package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "http://localhost:9200", cfg.ElasticsearchURL)
	assert.Equal(t, "catalog_products", cfg.ElasticsearchIndex)
	assert.Equal(t, EngineElasticsearch, cfg.SearchEngine)
	assert.Equal(t, EventBusChannel, cfg.EventBus)
	assert.Equal(t, 60*time.Second, cfg.CacheTTLMin)
	assert.Equal(t, 120*time.Second, cfg.CacheTTLMax)
	assert.Equal(t, 4, cfg.SyncWorkers)
	assert.Equal(t, 1024, cfg.SyncQueueSize)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, "localhost", cfg.Redis.Host)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CATALOG_HTTP_PORT", "9090")
	t.Setenv("SEARCH_ENGINE", "memory")
	t.Setenv("EVENT_BUS", "kafka")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("SYNC_WORKERS", "8")
	t.Setenv("CACHE_TTL_MIN", "30s")
	t.Setenv("CACHE_TTL_MAX", "90s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, EngineMemory, cfg.SearchEngine)
	assert.Equal(t, EventBusKafka, cfg.EventBus)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 8, cfg.SyncWorkers)
	assert.Equal(t, 30*time.Second, cfg.CacheTTLMin)
}

func TestLoad_InvalidHTTPPort(t *testing.T) {
	t.Setenv("CATALOG_HTTP_PORT", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestLoad_InvalidSearchEngine(t *testing.T) {
	t.Setenv("SEARCH_ENGINE", "solr")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid search engine")
}

func TestLoad_InvalidEventBus(t *testing.T) {
	t.Setenv("EVENT_BUS", "rabbitmq")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid event bus")
}

func TestLoad_InvalidTTLWindow(t *testing.T) {
	t.Setenv("CACHE_TTL_MIN", "120s")
	t.Setenv("CACHE_TTL_MAX", "60s")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache TTL window")
}

func TestLoad_InvalidSyncWorkers(t *testing.T) {
	t.Setenv("SYNC_WORKERS", "0")

	cfg, err := Load()

	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sync worker count")
}
