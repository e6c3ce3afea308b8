package event

import (
	"context"
	"log/slog"

	"github.com/mercato/catalog/internal/indexer"
	"github.com/mercato/catalog/pkg/kafka"
)

// Consumer translates product notifications from Kafka into pipeline
// tasks. The event body is advisory only; the pipeline re-fetches the
// entity before touching the index.
type Consumer struct {
	pipeline *indexer.Pipeline
	logger   *slog.Logger
}

// NewConsumer creates a consumer feeding the given pipeline.
func NewConsumer(pipeline *indexer.Pipeline, logger *slog.Logger) *Consumer {
	return &Consumer{
		pipeline: pipeline,
		logger:   logger,
	}
}

// Handle processes a single event. It never returns an error for unknown
// event types; they are logged and skipped.
func (c *Consumer) Handle(_ context.Context, evt *kafka.Event) error {
	switch evt.EventType {
	case TypeProductUpserted:
		c.pipeline.Enqueue(indexer.ActionUpsert, evt.AggregateID)
	case TypeProductDeleted:
		c.pipeline.Enqueue(indexer.ActionDelete, evt.AggregateID)
	default:
		c.logger.Warn("ignoring unknown event type", slog.String("event_type", evt.EventType))
	}
	return nil
}
