package fetch

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Status is the lifecycle position of a Hook
type Status int

const (
	// StatusIdle means no data and nothing in flight
	StatusIdle Status = iota
	// StatusLoading means a fetch has been started and not yet settled
	StatusLoading
	// StatusLoaded means the last settled fetch produced a value
	StatusLoaded
	// StatusFailed means the last settled fetch produced an error
	StatusFailed
)

// String returns the string representation of a Status
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of a Hook. Data keeps the previous value
// while a refetch is loading.
type State[T any] struct {
	Status Status
	Data   T
	Err    error
}

// Loading reports whether a fetch is in flight
func (s State[T]) Loading() bool {
	return s.Status == StatusLoading
}

// Producer yields the value a Hook holds
type Producer[T any] func(ctx context.Context) (T, error)

type options struct {
	guard  bool
	name   string
	logger zerolog.Logger
}

// Option configures a Hook
type Option func(*options)

// WithoutEpochGuard lets every completion settle the state, so the last
// fetch to finish wins even if it was started first.
func WithoutEpochGuard() Option {
	return func(o *options) {
		o.guard = false
	}
}

// WithLogger sets the logger and the name the hook logs under
func WithLogger(logger zerolog.Logger, name string) Option {
	return func(o *options) {
		o.logger = logger
		o.name = name
	}
}

// Hook runs a producer on request and tracks its result
type Hook[T any] struct {
	produce Producer[T]
	opts    options

	mu      sync.Mutex
	state   State[T]
	epoch   uint64
	pending int
	settled chan struct{}
}

// New creates a hook around produce. With autoRun the first fetch is
// started before New returns, so the hook is already loading.
func New[T any](ctx context.Context, produce Producer[T], autoRun bool, opts ...Option) *Hook[T] {
	o := options{guard: true, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	h := &Hook[T]{
		produce: produce,
		opts:    o,
	}
	if autoRun {
		h.Refetch(ctx)
	}
	return h
}

// State returns the current snapshot
func (h *Hook[T]) State() State[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Refetch starts a fetch and returns immediately. A fetch already in flight
// is not cancelled.
func (h *Hook[T]) Refetch(ctx context.Context) {
	h.mu.Lock()
	h.epoch++
	epoch := h.epoch
	h.state.Status = StatusLoading
	h.state.Err = nil
	if h.pending == 0 {
		h.settled = make(chan struct{})
	}
	h.pending++
	h.mu.Unlock()

	go h.run(ctx, epoch)
}

func (h *Hook[T]) run(ctx context.Context, epoch uint64) {
	value, err := h.produce(ctx)

	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending--
	if h.pending == 0 {
		close(h.settled)
	}

	if h.opts.guard && epoch != h.epoch {
		h.opts.logger.Debug().
			Str("hook", h.opts.name).
			Uint64("epoch", epoch).
			Uint64("current", h.epoch).
			Msg("Discarding stale fetch result")
		return
	}

	if err != nil {
		h.opts.logger.Debug().Err(err).Str("hook", h.opts.name).Msg("Fetch failed")
		var zero T
		h.state = State[T]{Status: StatusFailed, Data: zero, Err: err}
		return
	}
	h.state = State[T]{Status: StatusLoaded, Data: value}
}

// Reset returns the hook to idle and drops data and error. With the epoch
// guard, fetches still in flight no longer settle the state.
func (h *Hook[T]) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.epoch++
	h.state = State[T]{Status: StatusIdle}
}

// Wait blocks until no fetch is in flight and returns the resulting state
func (h *Hook[T]) Wait(ctx context.Context) (State[T], error) {
	h.mu.Lock()
	if h.pending == 0 {
		state := h.state
		h.mu.Unlock()
		return state, nil
	}
	settled := h.settled
	h.mu.Unlock()

	select {
	case <-settled:
		return h.State(), nil
	case <-ctx.Done():
		return h.State(), ctx.Err()
	}
}

// Run starts a fetch and waits for it to settle
func (h *Hook[T]) Run(ctx context.Context) (State[T], error) {
	h.Refetch(ctx)
	return h.Wait(ctx)
}
