package queue

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/errors"
	"github.com/shuldan/queues/pkg/logger"
)

// Handler processes one item. A returned error triggers a retry.
type Handler func(ctx context.Context, item *Item) error

// Consumer polls a queue and hands each item to a handler, removing the
// item once handled. It is a loop, not a supervisor: it stops on context
// cancellation or on the first fatal queue error.
type Consumer struct {
	queue        contracts.Queue
	handler      Handler
	logger       contracts.Logger
	errorHandler ErrorHandler
	panicHandler PanicHandler
	interval     time.Duration
	maxRetries   int
	backoff      BackoffStrategy
	deadLetter   contracts.Queue
	counter      Counter
}

func NewConsumer(q contracts.Queue, handler Handler, opts ...ConsumerOption) *Consumer {
	cfg := &consumerConfig{
		interval: time.Second,
		backoff:  NoBackoff{},
		counter:  NoOpCounter{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Nop()
	}
	if cfg.errorHandler == nil {
		cfg.errorHandler = NewDefaultErrorHandler(cfg.logger)
	}
	if cfg.panicHandler == nil {
		cfg.panicHandler = NewDefaultPanicHandler(cfg.logger)
	}

	return &Consumer{
		queue:        q,
		handler:      handler,
		logger:       cfg.logger.With("queue", q.Name()),
		errorHandler: cfg.errorHandler,
		panicHandler: cfg.panicHandler,
		interval:     cfg.interval,
		maxRetries:   cfg.maxRetries,
		backoff:      cfg.backoff,
		deadLetter:   cfg.deadLetter,
		counter:      cfg.counter,
	}
}

// Run polls until ctx is done, returning nil, or until the queue reports
// a fatal error, which is returned.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.logger.Info("consumer stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		processed, err := c.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			kind := "unknown"
			if k := errors.KindOf(err); k != nil {
				kind = k.Message
			}
			c.logger.Error("consumer failed", "kind", kind, "error", err)
			return err
		}
		if processed {
			continue
		}

		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Poll runs one iteration: it takes at most one item and processes it. It
// reports whether an item was taken.
func (c *Consumer) Poll(ctx context.Context) (bool, error) {
	item, err := c.queue.Get(ctx)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, nil
	}

	if c.process(ctx, item) {
		c.counter.IncProcessed(c.queue.Name(), StatusSuccess)
	} else {
		if ctx.Err() != nil {
			return true, nil
		}
		c.counter.IncProcessed(c.queue.Name(), StatusDropped)
		if c.deadLetter != nil {
			c.sendToDeadLetter(ctx, item)
		}
	}

	if _, err := c.queue.Remove(ctx, item.Handler); err != nil {
		return true, err
	}
	return true, nil
}

// process runs the handler with retries and reports whether it succeeded.
func (c *Consumer) process(ctx context.Context, item *Item) bool {
	retry := 0
	for {
		err := c.invoke(ctx, item)
		if err == nil {
			return true
		}

		c.errorHandler.Handle(item, c.queue.Name(), err)
		c.counter.IncProcessed(c.queue.Name(), StatusError)

		retry++
		if retry > c.maxRetries {
			return false
		}

		c.counter.IncRetry(c.queue.Name())
		delay := c.backoff.Delay(retry)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return false
			}
		} else if ctx.Err() != nil {
			return false
		}
	}
}

func (c *Consumer) invoke(ctx context.Context, item *Item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.panicHandler.Handle(item, c.queue.Name(), r, debug.Stack())
			err = ErrHandlerPanic.WithDetail("panic", fmt.Sprint(r))
		}
	}()
	return c.handler(ctx, item)
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, item *Item) {
	ok, err := c.deadLetter.Add(ctx, NewItem(item.Data))
	if err == nil && ok {
		return
	}
	if err == nil {
		err = ErrBackend.WithDetail("queue", c.deadLetter.Name()).WithDetail("op", OpAdd)
	}
	c.errorHandler.Handle(item, c.deadLetter.Name(), errors.Join(ErrDeadLetter, err))
}
