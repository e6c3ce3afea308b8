package indexer

import "context"

// Notifier adapts the pipeline to the service layer's IndexNotifier.
// Enqueue never blocks and never fails, so both methods always return nil.
type Notifier struct {
	pipeline *Pipeline
}

// NewNotifier creates a notifier feeding the given pipeline directly.
func NewNotifier(pipeline *Pipeline) *Notifier {
	return &Notifier{pipeline: pipeline}
}

// ProductUpserted enqueues an upsert task for the product.
func (n *Notifier) ProductUpserted(_ context.Context, productID string) error {
	n.pipeline.Enqueue(ActionUpsert, productID)
	return nil
}

// ProductDeleted enqueues a delete task for the product.
func (n *Notifier) ProductDeleted(_ context.Context, productID string) error {
	n.pipeline.Enqueue(ActionDelete, productID)
	return nil
}
