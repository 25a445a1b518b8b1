package queue

import (
	"sort"
	"sync"

	"github.com/shuldan/queues/pkg/contracts"
)

// Driver turns a queue configuration into a live queue of one backend.
// A driver owns whatever its queues share, such as a database handle or
// an SQS client.
type Driver interface {
	Open(name string, cfg contracts.Config) (contracts.Queue, error)
}

// DriverFactory builds a driver from its section of the configuration.
type DriverFactory func(cfg contracts.Config, logger contracts.Logger) (Driver, error)

type DriverFunc func(name string, cfg contracts.Config) (contracts.Queue, error)

func (f DriverFunc) Open(name string, cfg contracts.Config) (contracts.Queue, error) {
	return f(name, cfg)
}

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]DriverFactory)
)

// Register makes a driver factory available under name. Backends call it
// from init, so importing a backend package is enough to enable it.
func Register(name string, factory DriverFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if factory == nil {
		panic("queue: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("queue: Register called twice for driver " + name)
	}
	factories[name] = factory
}

// Drivers returns the sorted names of the registered driver factories.
func Drivers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupFactory(name string) (DriverFactory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}
