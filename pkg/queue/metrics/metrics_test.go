package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/shuldan/queues/pkg/queue"
	"github.com/shuldan/queues/pkg/queue/broker"
	"github.com/shuldan/queues/pkg/queue/broker/memory"
)

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatal(err)
	}
	if _, err := New(reg); err == nil {
		t.Error("expected a second registration to fail")
	}
}

func TestCounter_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	if err != nil {
		t.Fatal(err)
	}

	c.IncOperation("orders", queue.OpAdd, queue.OutcomeOK)
	c.IncOperation("orders", queue.OpAdd, queue.OutcomeOK)
	c.IncOperation("orders", queue.OpGet, queue.OutcomeEmpty)
	c.ObserveOperation("orders", queue.OpAdd, 3*time.Millisecond)
	c.IncProcessed("orders", queue.StatusDropped)
	c.IncRetry("orders")

	if v := testutil.ToFloat64(c.operations.WithLabelValues("orders", "add", "ok")); v != 2 {
		t.Errorf("expected 2 adds, got %v", v)
	}
	if v := testutil.ToFloat64(c.items.WithLabelValues("orders", "dropped")); v != 1 {
		t.Errorf("expected 1 dropped item, got %v", v)
	}
	if v := testutil.ToFloat64(c.retries.WithLabelValues("orders")); v != 1 {
		t.Errorf("expected 1 retry, got %v", v)
	}
	if n := testutil.CollectAndCount(c.duration); n != 1 {
		t.Errorf("expected one duration series, got %d", n)
	}

	expected := `
# HELP queue_operations_total Queue operations by queue, operation and outcome
# TYPE queue_operations_total counter
queue_operations_total{operation="add",outcome="ok",queue="orders"} 2
queue_operations_total{operation="get",outcome="empty",queue="orders"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "queue_operations_total"); err != nil {
		t.Error(err)
	}
}

func TestCounter_WithManagerAndConsumer(t *testing.T) {
	c, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}

	m := queue.NewManager(
		queue.WithDriver("jobs", broker.NewDriver(memory.New(), "")),
		queue.WithDefaultDriver("jobs"),
		queue.WithCounter(c),
	)
	if err := m.AddQueue("mails", nil); err != nil {
		t.Fatal(err)
	}
	q, err := m.GetQueue("mails")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	_, _ = q.Add(ctx, queue.NewItem(map[string]any{"n": 1}))

	consumer := queue.NewConsumer(q, func(context.Context, *queue.Item) error {
		return errors.New("boom")
	}, queue.WithMaxRetries(1), queue.WithConsumerCounter(c))
	if _, err := consumer.Poll(ctx); err != nil {
		t.Fatal(err)
	}

	if v := testutil.ToFloat64(c.operations.WithLabelValues("mails", "add", "ok")); v != 1 {
		t.Errorf("expected the add to be counted, got %v", v)
	}
	if v := testutil.ToFloat64(c.operations.WithLabelValues("mails", "remove", "ok")); v != 1 {
		t.Errorf("expected the drop to remove the item, got %v", v)
	}
	if v := testutil.ToFloat64(c.items.WithLabelValues("mails", "dropped")); v != 1 {
		t.Errorf("expected a dropped item, got %v", v)
	}
	if v := testutil.ToFloat64(c.retries.WithLabelValues("mails")); v != 1 {
		t.Errorf("expected one retry, got %v", v)
	}
}
