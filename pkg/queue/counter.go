package queue

import "time"

type Operation string

const (
	OpCreate  Operation = "create"
	OpDestroy Operation = "destroy"
	OpExists  Operation = "exists"
	OpAdd     Operation = "add"
	OpGet     Operation = "get"
	OpRemove  Operation = "remove"
)

type Outcome string

const (
	OutcomeOK     Outcome = "ok"
	OutcomeEmpty  Outcome = "empty"
	OutcomeFailed Outcome = "failed"
	OutcomeError  Outcome = "error"
)

type ProcessedStatus string

const (
	StatusSuccess ProcessedStatus = "success"
	StatusError   ProcessedStatus = "error"
	StatusDropped ProcessedStatus = "dropped"
)

// Counter receives queue metrics. Implementations must be safe for
// concurrent use.
type Counter interface {
	IncOperation(queue string, op Operation, outcome Outcome)
	ObserveOperation(queue string, op Operation, duration time.Duration)
	IncProcessed(queue string, status ProcessedStatus)
	IncRetry(queue string)
}

type NoOpCounter struct{}

func (NoOpCounter) IncOperation(string, Operation, Outcome)           {}
func (NoOpCounter) ObserveOperation(string, Operation, time.Duration) {}
func (NoOpCounter) IncProcessed(string, ProcessedStatus)              {}
func (NoOpCounter) IncRetry(string)                                   {}
