// Package dedupe collapses redundant fetches of shared reference data. Many
// handlers can independently ask for the same logical dataset within a short
// window; for a given key at most one producer runs at a time, and a repeat
// request inside the freshness window is suppressed outright.
package dedupe

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

// ErrFresh signals that a fresh result was already served for this key.
// It is a suppression marker, not a failure: callers are expected to catch it
// with errors.Is and keep using the state they already have.
var ErrFresh = errors.New("dedupe: fresh result already served")

// DefaultWindow is the freshness window applied when none is configured.
const DefaultWindow = 5 * time.Minute

var (
	invocations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coverdesk_dedupe_invocations_total",
		Help: "Producer invocations that actually ran",
	})
	suppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coverdesk_dedupe_suppressed_total",
		Help: "Calls rejected because a fresh result existed",
	})
	joined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coverdesk_dedupe_joined_total",
		Help: "Calls that attached to an in-flight producer",
	})
)

// Deduper tracks per-key completion times and in-flight producers.
type Deduper struct {
	mu     sync.Mutex
	last   map[string]time.Time
	group  singleflight.Group
	window time.Duration
	now    func() time.Time
}

// Option configures a Deduper.
type Option func(*Deduper)

// WithWindow overrides the freshness window.
func WithWindow(d time.Duration) Option {
	return func(dd *Deduper) {
		if d > 0 {
			dd.window = d
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(dd *Deduper) {
		if now != nil {
			dd.now = now
		}
	}
}

func New(opts ...Option) *Deduper {
	d := &Deduper{
		last:   make(map[string]time.Time),
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Do runs fn for key unless a fresh result exists or a flight is already in
// progress.
//
// Semantics, in order:
//  1. key completed successfully within the window: return ErrFresh without
//     touching the producer.
//  2. a producer for key is in flight: wait on it and share its outcome.
//  3. otherwise run fn; on success stamp the completion time, on failure
//     leave no trace so a retry is not blocked.
func Do[T any](ctx context.Context, d *Deduper, key string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := d.do(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, nil
	}
	return out, nil
}

func (d *Deduper) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	d.mu.Lock()
	if stamp, ok := d.last[key]; ok && d.now().Sub(stamp) < d.window {
		d.mu.Unlock()
		suppressed.Inc()
		return nil, ErrFresh
	}
	d.mu.Unlock()

	v, err, shared := d.group.Do(key, func() (any, error) {
		invocations.Inc()
		out, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.last[key] = d.now()
		d.mu.Unlock()
		return out, nil
	})
	if shared {
		joined.Inc()
	}
	return v, err
}

// Clear forgets freshness stamps, for explicit cache busting. With no
// arguments every key is dropped.
func (d *Deduper) Clear(keys ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(keys) == 0 {
		d.last = make(map[string]time.Time)
		return
	}
	for _, key := range keys {
		delete(d.last, key)
		d.group.Forget(key)
	}
}
