package queue

import (
	"math"
	"strings"
	"time"
)

// BackoffStrategy gives the pause before retry number attempt of a failed
// handler. Attempts count from 1.
type BackoffStrategy interface {
	Delay(attempt int) time.Duration
}

type FixedBackoff struct {
	Interval time.Duration
}

func (f FixedBackoff) Delay(int) time.Duration {
	return f.Interval
}

// ExponentialBackoff waits Initial before the first retry and doubles the
// pause for every later one. A positive Max caps the pause.
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

func (e ExponentialBackoff) Delay(attempt int) time.Duration {
	if e.Initial <= 0 {
		return 0
	}
	if attempt <= 1 {
		return e.limit(e.Initial)
	}

	shift := uint(attempt - 1)
	if shift >= 63 || e.Initial > math.MaxInt64>>shift {
		return e.limit(math.MaxInt64)
	}
	return e.limit(e.Initial << shift)
}

func (e ExponentialBackoff) limit(d time.Duration) time.Duration {
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}

type NoBackoff struct{}

func (NoBackoff) Delay(int) time.Duration { return 0 }

// ParseBackoff builds a strategy from its name: "none" (or empty),
// "fixed" waiting initial, or "exponential" from initial up to max.
func ParseBackoff(kind string, initial, max time.Duration) (BackoffStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "none":
		return NoBackoff{}, nil
	case "fixed":
		return FixedBackoff{Interval: initial}, nil
	case "exponential", "exp":
		return ExponentialBackoff{Initial: initial, Max: max}, nil
	}
	return nil, ErrInvalidBackoff.WithDetail("kind", kind)
}
