package queue

import "github.com/shuldan/queues/pkg/errors"

var newQueueCode = errors.WithPrefix("QUEUE")

var (
	ErrConfiguration  = errors.ErrConfiguration
	ErrResourceState  = errors.ErrResourceState
	ErrTransient      = errors.ErrTransient
	ErrTimeout        = errors.ErrTimeout
	ErrProtocolMisuse = errors.ErrProtocolMisuse
)

var (
	ErrInvalidQueueName    = newQueueCode().New("queue name should be a non-empty string, got {{.name}}").Of(ErrConfiguration)
	ErrInvalidQueueData    = newQueueCode().New("data of queue {{.name}} should be a queue or a configuration map, got {{.type}}").Of(ErrConfiguration)
	ErrQueueNotFound       = newQueueCode().New("queue named {{.name}} does not exist in the manager").Of(ErrConfiguration)
	ErrUnknownDriver       = newQueueCode().New("unknown queue driver {{.driver}}").Of(ErrConfiguration)
	ErrInvalidDriverConfig = newQueueCode().New("invalid {{.driver}} configuration: {{.reason}}").Of(ErrConfiguration)
	ErrNotMaterialized     = newQueueCode().New("queue {{.queue}} resource could not be created").Of(ErrResourceState)
	ErrInvalidHandler      = newQueueCode().New("queue {{.queue}} cannot remove by handler of type {{.type}}").Of(ErrProtocolMisuse)
	ErrInvalidItem         = newQueueCode().New("queue item cannot be encoded: {{.reason}}").Of(ErrProtocolMisuse)
	ErrCorruptItem         = newQueueCode().New("queue item cannot be decoded: {{.reason}}").Of(ErrTransient)
	ErrBackend             = newQueueCode().New("queue {{.queue}} {{.op}} failed").Of(ErrTransient)
	ErrHandlerPanic        = newQueueCode().New("handler panicked: {{.panic}}").Of(ErrTransient)
	ErrInvalidBackoff      = newQueueCode().New("unknown backoff strategy {{.kind}}").Of(ErrConfiguration)
)

var ErrDeadLetter = newQueueCode().New("failed to move item to the dead letter queue").Of(ErrTransient)
