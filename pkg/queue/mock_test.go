package queue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/shuldan/queues/pkg/contracts"
)

type mockQueue struct {
	Base
	mu        sync.Mutex
	items     []*Item
	removed   []any
	nextID    int
	getErr    error
	removeErr error
	addResult *bool
}

func newMockQueue(name string) *mockQueue {
	return &mockQueue{Base: NewBase(name, nil)}
}

func (q *mockQueue) Create(context.Context) error         { return nil }
func (q *mockQueue) Destroy(context.Context) error        { return nil }
func (q *mockQueue) Exists(context.Context) (bool, error) { return true, nil }

func (q *mockQueue) Add(_ context.Context, item *Item) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.addResult != nil {
		return *q.addResult, nil
	}
	q.nextID++
	item.ID = q.nextID
	item.Handler = strconv.Itoa(q.nextID)
	q.items = append(q.items, item)
	return true, nil
}

func (q *mockQueue) Get(context.Context) (*Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.getErr != nil {
		return nil, q.getErr
	}
	if len(q.items) == 0 {
		return nil, nil
	}
	return q.items[0], nil
}

func (q *mockQueue) Remove(_ context.Context, handler any) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.removeErr != nil {
		return false, q.removeErr
	}
	h, ok := handler.(string)
	if !ok {
		return false, q.InvalidHandler(handler)
	}
	for i, it := range q.items {
		if it.Handler == h {
			q.items = append(q.items[:i], q.items[i+1:]...)
			q.removed = append(q.removed, handler)
			return true, nil
		}
	}
	return false, nil
}

func (q *mockQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type mockDriver struct {
	mu     sync.Mutex
	opened []string
	cfgs   []contracts.Config
	err    error
	closed bool
}

func (d *mockDriver) Open(name string, cfg contracts.Config) (contracts.Queue, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	d.opened = append(d.opened, name)
	d.cfgs = append(d.cfgs, cfg)
	return newMockQueue(name), nil
}

func (d *mockDriver) Close() error {
	d.closed = true
	return nil
}

func (d *mockDriver) openCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.opened)
}

type recordingCounter struct {
	mu         sync.Mutex
	operations map[string]int
	processed  map[ProcessedStatus]int
	retries    int
}

func newRecordingCounter() *recordingCounter {
	return &recordingCounter{operations: map[string]int{}, processed: map[ProcessedStatus]int{}}
}

func (c *recordingCounter) IncOperation(queue string, op Operation, outcome Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.operations[queue+"/"+string(op)+"/"+string(outcome)]++
}

func (c *recordingCounter) ObserveOperation(string, Operation, time.Duration) {}

func (c *recordingCounter) IncProcessed(_ string, status ProcessedStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.processed[status]++
}

func (c *recordingCounter) IncRetry(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries++
}
