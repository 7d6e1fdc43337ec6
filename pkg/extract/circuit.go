package extract

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("schedule parsing temporarily unavailable after repeated failures")

const (
	circuitFailureThreshold = 3
	circuitFailureWindow    = 60 * time.Second
)

// CircuitBreaker refuses parsing once repeated failures pile up inside a
// rolling window. A single instance is shared by every parse routed through
// the same Extractor.
type CircuitBreaker struct {
	mutex     sync.Mutex
	threshold int
	window    time.Duration
	failures  []time.Time

	now func() time.Time
}

func NewCircuitBreaker(threshold int, window time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		threshold: threshold,
		window:    window,
		now:       time.Now,
	}
}

// Allow reports whether a new parse may start. It fails with ErrCircuitOpen
// while the failure threshold is met inside the rolling window.
func (b *CircuitBreaker) Allow() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.prune()
	if len(b.failures) >= b.threshold {
		return ErrCircuitOpen
	}

	return nil
}

func (b *CircuitBreaker) RecordFailure() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.prune()
	b.failures = append(b.failures, b.now())
}

// RecordSuccess resets the failure history, closing the circuit.
func (b *CircuitBreaker) RecordSuccess() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.failures = nil
}

// Open reports the current state without recording anything.
func (b *CircuitBreaker) Open() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.prune()
	return len(b.failures) >= b.threshold
}

// prune drops failures that have aged out of the rolling window. Callers
// must hold the mutex.
func (b *CircuitBreaker) prune() {
	cutoff := b.now().Add(-b.window)

	kept := b.failures[:0]
	for _, failedAt := range b.failures {
		if failedAt.After(cutoff) {
			kept = append(kept, failedAt)
		}
	}
	b.failures = kept
}
