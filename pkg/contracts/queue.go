package contracts

import (
	"context"
)

// QueueItem is the unit of work travelling through a Queue.
//
// ID and Handler are assigned by the backend and never set by callers.
// Handler is what Remove expects back; it differs from ID on backends that
// issue a separate deletion token.
type QueueItem struct {
	ID      any
	Handler any
	Data    map[string]any
}

// Queue is one named queue bound to a backend.
//
// Add, Get and Remove report transient backend failures as a false result
// (or a nil item) after logging them; a non-nil error is never transient and
// should stop a polling caller.
type Queue interface {
	Name() string
	Create(ctx context.Context) error
	Destroy(ctx context.Context) error
	Exists(ctx context.Context) (bool, error)
	Add(ctx context.Context, item *QueueItem) (bool, error)
	Get(ctx context.Context) (*QueueItem, error)
	Remove(ctx context.Context, handler any) (bool, error)
}

type QueueManager interface {
	GetQueue(name string) (Queue, error)
	AddQueue(name string, data any) error
	SetQueues(queues any) error
	Queues() (map[string]Queue, error)
}
