package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mercato/catalog/internal/cache"
	"github.com/mercato/catalog/internal/config"
	"github.com/mercato/catalog/internal/event"
	handler "github.com/mercato/catalog/internal/handler/http"
	"github.com/mercato/catalog/internal/indexer"
	"github.com/mercato/catalog/internal/repository/postgres"
	"github.com/mercato/catalog/internal/search"
	esengine "github.com/mercato/catalog/internal/search/elasticsearch"
	"github.com/mercato/catalog/internal/search/memory"
	"github.com/mercato/catalog/internal/service"
	"github.com/mercato/catalog/pkg/database"
	"github.com/mercato/catalog/pkg/health"
	pkgkafka "github.com/mercato/catalog/pkg/kafka"
	"github.com/mercato/catalog/pkg/middleware"
)

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg         *config.Config
	logger      *slog.Logger
	pool        *pgxpool.Pool
	redisClient *redis.Client
	pipeline    *indexer.Pipeline
	producer    *pkgkafka.Producer
	consumers   []*pkgkafka.Consumer
	httpServer  *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize PostgreSQL connection pool.
	pool, err := database.NewPostgresPool(ctx, &cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.Postgres.Host),
		slog.Int("port", cfg.Postgres.Port),
		slog.String("database", cfg.Postgres.DBName),
	)

	// Initialize Redis client for the read-through cache.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("host", cfg.Redis.Host),
		slog.Int("port", cfg.Redis.Port),
	)

	cacheStore := cache.New(redisClient, cfg.CacheTTLMin, cfg.CacheTTLMax, logger)

	// Initialize the search engine based on configuration.
	var eng search.Engine
	var esEng *esengine.Engine
	switch cfg.SearchEngine {
	case config.EngineElasticsearch:
		esEng, err = esengine.New(cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return nil, fmt.Errorf("init elasticsearch engine: %w", err)
		}
		eng = esEng
		logger.Info("elasticsearch engine initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
	default:
		eng = memory.New()
		logger.Info("in-memory search engine initialized")
	}

	// Build the dependency graph.
	repo := postgres.NewProductRepository(pool)

	pipeline := indexer.New(repo, eng, indexer.Config{
		Workers:      cfg.SyncWorkers,
		QueueSize:    cfg.SyncQueueSize,
		ApplyTimeout: cfg.SyncApplyTimeout,
	}, logger)

	// Select how index notifications travel from mutations to the pipeline.
	var notifier service.IndexNotifier
	var producer *pkgkafka.Producer
	var consumers []*pkgkafka.Consumer
	switch cfg.EventBus {
	case config.EventBusKafka:
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		notifier = event.NewProducer(producer, logger)

		eventConsumer := event.NewConsumer(pipeline, logger)
		topics := []string{
			event.TopicProductUpserted,
			event.TopicProductDeleted,
		}
		for _, topic := range topics {
			consumerCfg := pkgkafka.ConsumerConfig{
				Brokers:  cfg.KafkaBrokers,
				GroupID:  cfg.KafkaGroupID,
				Topic:    topic,
				MinBytes: 1,
				MaxBytes: 10e6, // 10 MB
			}
			consumers = append(consumers, pkgkafka.NewConsumer(consumerCfg, eventConsumer.Handle, logger))
		}
		logger.Info("kafka event bus initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.Int("topic_count", len(topics)),
		)
	default:
		notifier = indexer.NewNotifier(pipeline)
		logger.Info("in-process event bus initialized")
	}

	productService := service.NewProductService(repo, cacheStore, notifier, logger)
	searchService := service.NewSearchService(eng, cacheStore, repo, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	if esEng != nil {
		healthHandler.Register("elasticsearch", esEng.Ping)
	}
	if cfg.EventBus == config.EventBusKafka {
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
	}

	// HTTP router.
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.CORSAllowedOrigins
	router := handler.NewRouter(productService, searchService, healthHandler, corsConfig, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		redisClient: redisClient,
		pipeline:    pipeline,
		producer:    producer,
		consumers:   consumers,
		httpServer:  httpServer,
	}, nil
}

// Run starts the pipeline, Kafka consumers, and HTTP server, blocking until
// the context is canceled.
func (a *App) Run(ctx context.Context) error {
	// Workers outlive the run context so Stop can drain queued tasks.
	a.pipeline.Start(context.Background())

	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// Close Kafka consumers so no new tasks arrive, then drain the pipeline.
	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.pipeline.Stop(shutdownCtx); err != nil {
		a.logger.Error("pipeline drain error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
