// Package circuit implements a counter-based circuit breaker. It tracks
// consecutive failures and successes rather than wall-clock time, which keeps
// it deterministic under test and cheap at runtime.
package circuit

import "sync"

// State is the breaker position.
type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
)

// Change reports a state transition caused by the call that returned it, so
// callers can log transitions exactly once.
type Change struct {
	Opened bool
	Closed bool
}

const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 2
	defaultProbeInterval    = 8
)

// Breaker guards a downstream dependency. While open, Allow lets one probe
// through per probe interval so recovery can be observed without a flood.
type Breaker struct {
	name string

	failureThreshold int
	successThreshold int
	probeInterval    int

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	skipped   int
}

type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many consecutive successes close it again.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithProbeInterval sets how many calls are short-circuited between probes
// while the circuit is open.
func WithProbeInterval(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.probeInterval = n
		}
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
		probeInterval:    defaultProbeInterval,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// Allow reports whether the caller should attempt the downstream call. It is
// always true while closed; while open it is true only for the periodic probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateClosed {
		return true
	}
	b.skipped++
	if b.skipped >= b.probeInterval {
		b.skipped = 0
		return true
	}
	return false
}

// RecordFailure notes a failed call. The first return value reports whether
// the circuit is now open (callers should fail fast), the second whether this
// call flipped it.
func (b *Breaker) RecordFailure() (bool, Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes = 0
	if b.state == StateOpen {
		return true, Change{}
	}

	b.failures++
	if b.failures >= b.failureThreshold {
		b.state = StateOpen
		b.failures = 0
		b.skipped = 0
		return true, Change{Opened: true}
	}
	return false, Change{}
}

// RecordSuccess notes a successful call. The first return value reports
// whether the circuit is now closed, the second whether this call flipped it.
func (b *Breaker) RecordSuccess() (bool, Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state == StateClosed {
		return true, Change{}
	}

	b.successes++
	if b.successes >= b.successThreshold {
		b.state = StateClosed
		b.successes = 0
		return true, Change{Closed: true}
	}
	return false, Change{}
}

// Reset forces the circuit closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
	b.skipped = 0
}
