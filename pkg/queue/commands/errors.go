package commands

import (
	"github.com/shuldan/queues/pkg/errors"
	"github.com/shuldan/queues/pkg/queue"
)

var newCommandCode = errors.WithPrefix("QUEUE_CLI")

var (
	ErrMissingQueue   = newCommandCode().New("the -queue flag is required").Of(queue.ErrConfiguration)
	ErrInvalidData    = newCommandCode().New("-data must be a JSON object: {{.reason}}").Of(queue.ErrConfiguration)
	ErrMissingHandler = newCommandCode().New("the -handler flag is required").Of(queue.ErrConfiguration)
	ErrInvalidLimit   = newCommandCode().New("{{.flag}} must not be negative").Of(queue.ErrConfiguration)
	ErrNotDone        = newCommandCode().New("queue {{.queue}} did not {{.op}} the item").Of(queue.ErrTransient)
)
