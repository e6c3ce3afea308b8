package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Task outcomes recorded in tasksTotal.
const (
	resultApplied      = "applied"
	resultSkipped      = "skipped"
	resultDroppedFull  = "dropped_full"
	resultDroppedError = "dropped_error"
)

var (
	tasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_tasks_total",
			Help: "Index synchronization tasks by action and outcome.",
		},
		[]string{"action", "result"},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "indexer_queue_depth",
			Help: "Number of tasks waiting in the synchronization queue.",
		},
	)
)
