package broker

import (
	"github.com/shuldan/queues/pkg/errors"
	"github.com/shuldan/queues/pkg/queue"
)

var newErrorCode = errors.WithPrefix("QUEUE_BROKER")

var (
	ErrWaitTimeout   = newErrorCode().New("queue {{.queue}} gave up after waiting {{.waits}} times for the job server").Of(queue.ErrTimeout)
	ErrUnknownServer = newErrorCode().New("unknown job server {{.server}}").Of(queue.ErrConfiguration)
	ErrUnavailable   = newErrorCode().New("no job server reachable at {{.servers}}").Of(queue.ErrTransient)
	ErrProtocol      = newErrorCode().New("job server protocol error: {{.reason}}").Of(queue.ErrTransient)
	ErrJobFailed     = newErrorCode().New("job server rejected the request: {{.reason}}").Of(queue.ErrTransient)
	ErrClosed        = newErrorCode().New("job server connection is closed").Of(queue.ErrTransient)
)
