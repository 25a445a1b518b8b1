// Package metrics exports queue activity to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shuldan/queues/pkg/errors"
	"github.com/shuldan/queues/pkg/queue"
)

const Namespace = "queue"

// Counter implements queue.Counter on Prometheus collectors.
type Counter struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	items      *prometheus.CounterVec
	retries    *prometheus.CounterVec
}

var _ queue.Counter = (*Counter)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Counter, error) {
	c := &Counter{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Queue operations by queue, operation and outcome",
		}, []string{"queue", "operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of queue operations",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"queue", "operation"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "items_total",
			Help:      "Items handled by consumers, by final status",
		}, []string{"queue", "status"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "retries_total",
			Help:      "Handler attempts retried by consumers",
		}, []string{"queue"}),
	}

	err := errors.Join(
		reg.Register(c.operations),
		reg.Register(c.duration),
		reg.Register(c.items),
		reg.Register(c.retries),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Counter) IncOperation(q string, op queue.Operation, outcome queue.Outcome) {
	c.operations.WithLabelValues(q, string(op), string(outcome)).Inc()
}

func (c *Counter) ObserveOperation(q string, op queue.Operation, d time.Duration) {
	c.duration.WithLabelValues(q, string(op)).Observe(d.Seconds())
}

func (c *Counter) IncProcessed(q string, status queue.ProcessedStatus) {
	c.items.WithLabelValues(q, string(status)).Inc()
}

func (c *Counter) IncRetry(q string) {
	c.retries.WithLabelValues(q).Inc()
}
