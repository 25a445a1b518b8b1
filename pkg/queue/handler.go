package queue

import (
	"log/slog"

	"github.com/shuldan/queues/pkg/contracts"
	"github.com/shuldan/queues/pkg/errors"
)

type PanicHandler interface {
	Handle(item *Item, queue string, panicValue any, stack []byte)
}

type ErrorHandler interface {
	Handle(item *Item, queue string, err error)
}

type defaultPanicHandler struct{ logger contracts.Logger }

func NewDefaultPanicHandler(logger contracts.Logger) PanicHandler {
	return &defaultPanicHandler{
		logger: logger,
	}
}

func (d *defaultPanicHandler) Handle(item *Item, queue string, panicValue any, stack []byte) {
	if d.logger == nil {
		slog.Error(
			"queue panic",
			"queue", queue,
			"item", itemID(item),
			"panic", panicValue,
			"stack", string(stack),
		)
		return
	}
	d.logger.Critical("queue panic", "queue", queue, "item", itemID(item), "panic", panicValue, "stack", string(stack))
}

type defaultErrorHandler struct{ logger contracts.Logger }

func NewDefaultErrorHandler(logger contracts.Logger) ErrorHandler {
	return &defaultErrorHandler{
		logger: logger,
	}
}

func (d *defaultErrorHandler) Handle(item *Item, queue string, err error) {
	if d.logger == nil {
		slog.Error("queue error", "queue", queue, "item", itemID(item), "code", errors.CodeOf(err), "error", err)
		return
	}
	d.logger.Error("queue error", "queue", queue, "item", itemID(item), "code", errors.CodeOf(err), "error", err)
}

func itemID(item *Item) any {
	if item == nil {
		return nil
	}
	return item.ID
}
