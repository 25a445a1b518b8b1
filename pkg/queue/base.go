package queue

import (
	"reflect"
	"sync"

	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/logger"
)

// Base holds what every backend shares: its name and its logger.
// Backends embed it to get Name, SetName and a queue-scoped logger.
type Base struct {
	mu     sync.RWMutex
	name   string
	logger contracts.Logger
}

func NewBase(name string, log contracts.Logger) Base {
	if log == nil {
		log = logger.Nop()
	}
	return Base{name: name, logger: log}
}

func (b *Base) Name() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.name
}

func (b *Base) SetName(name string) {
	b.mu.Lock()
	b.name = name
	b.mu.Unlock()
}

// Log returns the logger tagged with the queue name.
func (b *Base) Log() contracts.Logger {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.logger == nil {
		return logger.Nop().With("queue", b.name)
	}
	return b.logger.With("queue", b.name)
}

// InvalidHandler builds the error returned by Remove for a handler of the
// wrong kind.
func (b *Base) InvalidHandler(handler any) error {
	typ := "nil"
	if handler != nil {
		typ = reflect.TypeOf(handler).String()
	}
	return ErrInvalidHandler.WithDetail("queue", b.Name()).WithDetail("type", typ)
}

type renamer interface {
	SetName(name string)
}
