package queue

import (
	"time"

	"github.com/shuldan/queues/pkg/contracts"
)

// DefaultDriver is used for queues registered without a driver when the
// manager was not given another default.
const DefaultDriver = "table"

type ManagerOption func(*Manager)

func WithLogger(logger contracts.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithDefaultDriver(name string) ManagerOption {
	return func(m *Manager) {
		m.defaultDriver = name
	}
}

// WithDriver installs a ready driver, bypassing the registered factories.
func WithDriver(name string, d Driver) ManagerOption {
	return func(m *Manager) {
		m.drivers[name] = d
	}
}

// WithDriverConfig sets the configuration handed to the factory of the
// named driver when it is first needed.
func WithDriverConfig(name string, cfg contracts.Config) ManagerOption {
	return func(m *Manager) {
		m.driverConfigs[name] = cfg
	}
}

func WithObservers(observers ...Observer) ManagerOption {
	return func(m *Manager) {
		m.observers = append(m.observers, observers...)
	}
}

func WithCounter(counter Counter) ManagerOption {
	return func(m *Manager) {
		m.counter = counter
	}
}

type ConsumerOption func(*consumerConfig)

type consumerConfig struct {
	logger       contracts.Logger
	errorHandler ErrorHandler
	panicHandler PanicHandler
	interval     time.Duration
	maxRetries   int
	backoff      BackoffStrategy
	deadLetter   contracts.Queue
	counter      Counter
}

// WithInterval sets the pause after an empty poll.
func WithInterval(d time.Duration) ConsumerOption {
	return func(c *consumerConfig) {
		if d > 0 {
			c.interval = d
		}
	}
}

func WithMaxRetries(n int) ConsumerOption {
	return func(c *consumerConfig) {
		if n < 0 {
			n = 0
		}
		c.maxRetries = n
	}
}

func WithBackoff(b BackoffStrategy) ConsumerOption {
	return func(c *consumerConfig) {
		c.backoff = b
	}
}

func WithErrorHandler(h ErrorHandler) ConsumerOption {
	return func(c *consumerConfig) {
		c.errorHandler = h
	}
}

func WithPanicHandler(h PanicHandler) ConsumerOption {
	return func(c *consumerConfig) {
		c.panicHandler = h
	}
}

// WithDeadLetter makes the consumer copy items whose retries ran out into q
// before removing them.
func WithDeadLetter(q contracts.Queue) ConsumerOption {
	return func(c *consumerConfig) {
		c.deadLetter = q
	}
}

func WithConsumerCounter(counter Counter) ConsumerOption {
	return func(c *consumerConfig) {
		c.counter = counter
	}
}

func WithConsumerLogger(logger contracts.Logger) ConsumerOption {
	return func(c *consumerConfig) {
		c.logger = logger
	}
}
