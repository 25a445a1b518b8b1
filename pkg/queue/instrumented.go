package queue

import (
	"context"
	"time"

	"github.com/shuldan/queues/pkg/contracts"
)

// instrumented reports every operation of the wrapped queue to observers
// and a counter. It never changes results.
type instrumented struct {
	inner     contracts.Queue
	observers []Observer
	counter   Counter
}

var _ contracts.Queue = (*instrumented)(nil)

func instrument(q contracts.Queue, observers []Observer, counter Counter) contracts.Queue {
	if len(observers) == 0 && counter == nil {
		return q
	}
	if counter == nil {
		counter = NoOpCounter{}
	}
	return &instrumented{inner: q, observers: observers, counter: counter}
}

func (q *instrumented) Name() string { return q.inner.Name() }

func (q *instrumented) SetName(name string) {
	if r, ok := q.inner.(renamer); ok {
		r.SetName(name)
	}
}

// Unwrap exposes the backend queue.
func (q *instrumented) Unwrap() contracts.Queue { return q.inner }

func (q *instrumented) Create(ctx context.Context) error {
	start := time.Now()
	err := q.inner.Create(ctx)
	q.report(OpCreate, outcomeOf(true, err), start, nil, err)
	return err
}

func (q *instrumented) Destroy(ctx context.Context) error {
	start := time.Now()
	err := q.inner.Destroy(ctx)
	q.report(OpDestroy, outcomeOf(true, err), start, nil, err)
	return err
}

func (q *instrumented) Exists(ctx context.Context) (bool, error) {
	start := time.Now()
	ok, err := q.inner.Exists(ctx)
	q.report(OpExists, outcomeOf(true, err), start, nil, err)
	return ok, err
}

func (q *instrumented) Add(ctx context.Context, item *Item) (bool, error) {
	start := time.Now()
	ok, err := q.inner.Add(ctx, item)
	q.report(OpAdd, outcomeOf(ok, err), start, item, err)
	return ok, err
}

func (q *instrumented) Get(ctx context.Context) (*Item, error) {
	start := time.Now()
	item, err := q.inner.Get(ctx)
	outcome := outcomeOf(item != nil, err)
	if outcome == OutcomeFailed {
		outcome = OutcomeEmpty
	}
	q.report(OpGet, outcome, start, item, err)
	return item, err
}

func (q *instrumented) Remove(ctx context.Context, handler any) (bool, error) {
	start := time.Now()
	ok, err := q.inner.Remove(ctx, handler)
	q.report(OpRemove, outcomeOf(ok, err), start, nil, err)
	return ok, err
}

func (q *instrumented) report(op Operation, outcome Outcome, start time.Time, item *Item, err error) {
	elapsed := time.Since(start)
	name := q.inner.Name()

	q.counter.IncOperation(name, op, outcome)
	q.counter.ObserveOperation(name, op, elapsed)

	if len(q.observers) == 0 {
		return
	}
	e := Event{Queue: name, Operation: op, Outcome: outcome, Duration: elapsed, Item: item, Err: err}
	for _, o := range q.observers {
		o.Observe(e)
	}
}
