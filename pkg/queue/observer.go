package queue

import (
	"time"
)

// Event describes one finished queue operation.
type Event struct {
	Queue     string
	Operation Operation
	Outcome   Outcome
	Duration  time.Duration
	Item      *Item
	Err       error
}

type Observer interface {
	Observe(e Event)
}

type ObserverFunc func(e Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

func outcomeOf(ok bool, err error) Outcome {
	switch {
	case err != nil:
		return OutcomeError
	case ok:
		return OutcomeOK
	default:
		return OutcomeFailed
	}
}
