package indexer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mercato/catalog/internal/domain"
	"github.com/mercato/catalog/internal/search"
	apperrors "github.com/mercato/catalog/pkg/errors"
)

// Action is the kind of work a synchronization task carries.
type Action string

// Supported task actions.
const (
	ActionUpsert Action = "upsert"
	ActionDelete Action = "delete"
)

// Task carries only the action and the product ID. Workers re-fetch the
// current entity state at apply time, so a task is idempotent and stale
// tasks converge on the latest committed state.
type Task struct {
	Action    Action
	ProductID string
}

// ProductFetcher loads the current state of a product at apply time.
type ProductFetcher interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Pipeline is the asynchronous bridge between the relational store and
// the search index: a bounded task queue in front of a worker pool.
// Enqueue never blocks the caller; a full queue drops the task with a
// log line and a metric, and the index may lag until the next mutation
// touches the same product.
type Pipeline struct {
	products     ProductFetcher
	engine       search.Engine
	logger       *slog.Logger
	tasks        chan Task
	workers      int
	applyTimeout time.Duration

	wg sync.WaitGroup

	// mu makes Enqueue's check-and-send atomic with respect to Stop
	// closing the queue; without it a send could race the close.
	mu      sync.RWMutex
	stopped bool
}

// Config holds the pipeline's tuning knobs.
type Config struct {
	Workers      int
	QueueSize    int
	ApplyTimeout time.Duration
}

// New creates a pipeline. Zero config fields fall back to sane defaults.
func New(products ProductFetcher, engine search.Engine, cfg Config, logger *slog.Logger) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.ApplyTimeout <= 0 {
		cfg.ApplyTimeout = 10 * time.Second
	}

	return &Pipeline{
		products:     products,
		engine:       engine,
		logger:       logger,
		tasks:        make(chan Task, cfg.QueueSize),
		workers:      cfg.Workers,
		applyTimeout: cfg.ApplyTimeout,
	}
}

// Start launches the worker pool. Workers run until ctx is cancelled or
// Stop closes the queue.
func (p *Pipeline) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	p.logger.Info("index pipeline started", "workers", p.workers, "queue_size", cap(p.tasks))
}

// Enqueue submits a task without blocking. When the queue is full the
// task is dropped and counted; the caller's write has already committed
// and must not fail on account of the index.
func (p *Pipeline) Enqueue(action Action, productID string) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		tasksTotal.WithLabelValues(string(action), resultDroppedFull).Inc()
		p.logger.Warn("index task dropped, pipeline stopped", "action", action, "product_id", productID)
		return
	}

	select {
	case p.tasks <- Task{Action: action, ProductID: productID}:
		queueDepth.Inc()
	default:
		tasksTotal.WithLabelValues(string(action), resultDroppedFull).Inc()
		p.logger.Warn("index task dropped, queue full", "action", action, "product_id", productID)
	}
}

// Stop closes the queue and waits for workers to drain it, up to the
// deadline carried by ctx.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("index pipeline drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			queueDepth.Dec()
			p.apply(task)
		}
	}
}

// apply executes one task against the engine. Failures are logged and
// the task dropped; a later task for the same product re-derives the
// document and converges the index.
func (p *Pipeline) apply(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), p.applyTimeout)
	defer cancel()

	switch task.Action {
	case ActionDelete:
		if err := p.engine.Delete(ctx, task.ProductID); err != nil {
			tasksTotal.WithLabelValues(string(task.Action), resultDroppedError).Inc()
			p.logger.Error("index delete failed, task dropped", "product_id", task.ProductID, "error", err)
			return
		}
		tasksTotal.WithLabelValues(string(task.Action), resultApplied).Inc()

	case ActionUpsert:
		product, err := p.products.GetByID(ctx, task.ProductID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				// Deleted between enqueue and apply; nothing to index.
				tasksTotal.WithLabelValues(string(task.Action), resultSkipped).Inc()
				p.logger.Debug("index upsert skipped, product gone", "product_id", task.ProductID)
				return
			}
			tasksTotal.WithLabelValues(string(task.Action), resultDroppedError).Inc()
			p.logger.Error("index upsert fetch failed, task dropped", "product_id", task.ProductID, "error", err)
			return
		}

		if err := p.engine.Index(ctx, product.Document()); err != nil {
			tasksTotal.WithLabelValues(string(task.Action), resultDroppedError).Inc()
			p.logger.Error("index upsert failed, task dropped", "product_id", task.ProductID, "error", err)
			return
		}
		tasksTotal.WithLabelValues(string(task.Action), resultApplied).Inc()

	default:
		p.logger.Error("unknown index task action", "action", task.Action, "product_id", task.ProductID)
	}
}
