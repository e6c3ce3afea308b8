package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mercato/catalog/pkg/kafka"
)

// Event types carried on the product topics.
const (
	TypeProductUpserted = "product.upserted"
	TypeProductDeleted  = "product.deleted"
)

// Topics for index propagation notifications.
var (
	TopicProductUpserted = kafka.Topic("product", "upserted")
	TopicProductDeleted  = kafka.Topic("product", "deleted")
)

// payload is the thin body of a propagation notification. Consumers
// re-fetch the entity at apply time, so the ID is all that travels.
type payload struct {
	ProductID string `json:"product_id"`
}

// Producer publishes index propagation notifications to Kafka. It
// implements the service layer's IndexNotifier, letting mutations fan
// out across instances instead of feeding an in-process queue.
type Producer struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// NewProducer creates a Kafka-backed index notifier.
func NewProducer(producer *kafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		producer: producer,
		logger:   logger,
	}
}

// ProductUpserted publishes a notification that a product was created or updated.
func (p *Producer) ProductUpserted(ctx context.Context, productID string) error {
	return p.publish(ctx, TopicProductUpserted, TypeProductUpserted, productID)
}

// ProductDeleted publishes a notification that a product was deleted.
func (p *Producer) ProductDeleted(ctx context.Context, productID string) error {
	return p.publish(ctx, TopicProductDeleted, TypeProductDeleted, productID)
}

func (p *Producer) publish(ctx context.Context, topic, eventType, productID string) error {
	evt, err := kafka.NewEvent(eventType, productID, "product", "catalog-service", payload{ProductID: productID})
	if err != nil {
		return fmt.Errorf("build %s event: %w", eventType, err)
	}

	if err := p.producer.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	return nil
}
