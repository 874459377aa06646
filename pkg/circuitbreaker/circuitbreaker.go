package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

type Status uint8

const (
	Closed Status = iota + 1
	Open
	HalfOpen
)

var ErrOpen = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(service func() error) error
	Reset()
}

type circuitBreaker struct {
	mu    sync.Mutex
	state Status

	// sliding window of the last recordLength call outcomes
	window []bool
	pos    int

	// share of failed calls in the window that trips the breaker
	threshold float64
	// how long to stay open before probing
	timeout  time.Duration
	openedAt time.Time

	// consecutive successes required in half-open to close again
	recoveryRequests int
	successCount     int
}

func New(recordLength int, timeout time.Duration, threshold float64, recoveryRequests int) CircuitBreaker {
	return &circuitBreaker{
		state:            Closed,
		window:           make([]bool, recordLength),
		threshold:        threshold,
		timeout:          timeout,
		recoveryRequests: recoveryRequests,
	}
}

func (cb *circuitBreaker) Call(service func() error) error {
	cb.mu.Lock()
	if cb.state == Open {
		if time.Since(cb.openedAt) <= cb.timeout {
			cb.mu.Unlock()
			return ErrOpen
		}
		cb.state = HalfOpen
		cb.successCount = 0
	}
	cb.mu.Unlock()

	err := service()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.window[cb.pos] = err != nil
	cb.pos = (cb.pos + 1) % len(cb.window)

	if cb.state == HalfOpen {
		if err != nil {
			cb.state = Open
			cb.successCount = 0
			cb.openedAt = time.Now()
			return err
		}
		cb.successCount++
		if cb.successCount > cb.recoveryRequests {
			cb.reset()
		}
		return err
	}

	fails := 0
	for _, failed := range cb.window {
		if failed {
			fails++
		}
	}
	if float64(fails)/float64(len(cb.window)) >= cb.threshold {
		cb.state = Open
		cb.successCount = 0
		cb.openedAt = time.Now()
	}
	return err
}

// Reset clears the window and closes the breaker. Callers must hold no
// expectations about in-flight calls.
func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.reset()
}

func (cb *circuitBreaker) reset() {
	for i := range cb.window {
		cb.window[i] = false
	}
	cb.successCount = 0
	cb.pos = 0
	cb.state = Closed
}
